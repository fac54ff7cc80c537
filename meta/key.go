// Package meta implements the snapshot item model shared by every
// source, pipe, and target (spec.md §3, component C1): SnapshotKey,
// SnapshotMeta, SnapshotPath, the conservative Diff rule, and the
// directory Index built for the synthetic-listing pipe.
/*
 * Copyright (c) 2024, mirrorkit authors.
 */
package meta

import (
	"fmt"

	"github.com/mirrorkit/mclone/cmn/cos"
)

// SnapshotKey is a non-empty, slash-separated, case-sensitive path that
// uniquely identifies one logical object within a source or target
// namespace. It carries no leading slash and no ".." segment.
type SnapshotKey string

// NewSnapshotKey validates key against spec.md §3's invariants.
func NewSnapshotKey(key string) (SnapshotKey, error) {
	if !cos.ValidateKey(key) {
		return "", fmt.Errorf("invalid snapshot key: %q", key)
	}
	return SnapshotKey(key), nil
}

func (k SnapshotKey) String() string { return string(k) }

// SnapshotPath is the degenerate, key-only form of SnapshotMeta: every
// optional field is absent. It is what a key-only source (one that
// only knows identity, not size/mtime/checksum) produces natively, and
// what SnapshotMeta.AsPath demotes a full SnapshotMeta down to.
type SnapshotPath struct {
	Key SnapshotKey
}

func (p SnapshotPath) GetKey() SnapshotKey { return p.Key }

// AsMeta promotes a SnapshotPath into a SnapshotMeta with every
// optional absent — the "key-only source, treated as a metadata
// source" bridge named in spec.md §9's design notes.
func (p SnapshotPath) AsMeta() SnapshotMeta {
	return SnapshotMeta{Key: p.Key}
}
