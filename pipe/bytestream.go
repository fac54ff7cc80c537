// Package pipe implements the byte-stream pipe (C4) and the decorating
// pipes (C5) from spec.md §4.3–4.4: checksum verification, content
// rewriting, exclude-by-regex filtering, N-way merging, and synthetic
// directory-index generation. Every pipe forwards Snapshot transparently
// (possibly annotating Info) and interposes on GetObject.
/*
 * Copyright (c) 2024, mirrorkit authors.
 */
package pipe

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
)

// scratchObject is the concrete core.ByteObject backing every pipe
// stage that materializes bytes on disk: the byte-stream pipe's
// download, the rewrite pipe's rewritten copy, and the index pipe's
// rendered listing. It is the sole handle to its backing file —
// Close deletes it unconditionally, matching the Rust original's
// ByteObject::drop (original_source/src/stream_pipe.rs).
type scratchObject struct {
	f            *os.File
	path         string
	length       uint64
	lastModified uint64
	contentType  string
	removed      bool
}

func newScratchObject(path string, f *os.File, length, lastModified uint64, contentType string) *scratchObject {
	return &scratchObject{f: f, path: path, length: length, lastModified: lastModified, contentType: contentType}
}

func (s *scratchObject) Read(p []byte) (int, error)                 { return s.f.Read(p) }
func (s *scratchObject) Seek(offset int64, whence int) (int64, error) { return s.f.Seek(offset, whence) }
func (s *scratchObject) Length() uint64                             { return s.length }
func (s *scratchObject) LastModified() uint64                       { return s.lastModified }
func (s *scratchObject) ContentType() string                        { return s.contentType }

// Close unlinks the scratch file regardless of how it closes — the
// exclusive-ownership guarantee spec.md §3 requires of ByteObject.
func (s *scratchObject) Close() error {
	closeErr := s.f.Close()
	if !s.removed {
		s.removed = true
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("bytestream: remove scratch file %s: %w", s.path, err)
		}
	}
	return closeErr
}

// Rename consumes the scratch object by renaming its backing file to
// dest, instead of deleting it — this is how a successful filesystem
// Put "consumes" the object (spec.md §9's design note) rather than
// deleting a file the caller is about to claim.
func (s *scratchObject) Rename(dest string) error {
	if err := s.f.Close(); err != nil {
		return err
	}
	s.removed = true // the rename already took ownership; nothing left to unlink
	return os.Rename(s.path, dest)
}

// Path exposes the backing scratch file path for adapters (e.g. the
// filesystem target) that need to rename rather than stream-copy.
func (s *scratchObject) Path() string { return s.path }

// Renamer exposes the optional Rename capability some targets use to
// consume a ByteObject by moving its scratch file instead of copying
// its bytes.
type Renamer interface {
	Rename(dest string) error
	Path() string
}

// MtimePolicy controls how the byte-stream pipe resolves the effective
// last-modified timestamp of a downloaded object (spec.md §4.3 step 6).
type MtimePolicy int

const (
	// TrustResponseMtime parses the response's Last-Modified header.
	TrustResponseMtime MtimePolicy = iota
	// TrustSnapshotMtime uses the snapshot's own LastModified field.
	TrustSnapshotMtime
	// RequireAgreement uses both and fails if they disagree; if only
	// one is present, that one wins.
	RequireAgreement
)

// ByteStreamConfig configures a ByteStreamPipe.
type ByteStreamConfig struct {
	BufferPath string
	Mtime      MtimePolicy
}

// ByteStreamPipe bridges a source that exposes URLs to targets that
// consume byte streams (spec.md §4.3), grounded on
// original_source/src/stream_pipe.rs's ByteStreamPipe.
type ByteStreamPipe struct {
	Source core.Source
	Config ByteStreamConfig
}

func NewByteStreamPipe(source core.Source, cfg ByteStreamConfig) *ByteStreamPipe {
	return &ByteStreamPipe{Source: source, Config: cfg}
}

func (p *ByteStreamPipe) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	return p.Source.Snapshot(ctx, mission)
}

func (p *ByteStreamPipe) Info() string {
	return fmt.Sprintf("pipe <%s> to bytestream, buffered to %s", p.Source.Info(), p.Config.BufferPath)
}

func scratchFileName(bufferPath, url string) string {
	h := xxhash.NewS64(0)
	_, _ = h.WriteString(url)
	return fmt.Sprintf("%s/%x.%d.buffer", bufferPath, h.Sum64(), time.Now().UnixNano())
}

// GetObject implements spec.md §4.3's seven-step protocol: resolve URL,
// allocate scratch file, GET, stream to disk, verify length, resolve
// mtime, rewind, return.
func (p *ByteStreamPipe) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.ByteObject, error) {
	transferURL, err := p.Source.GetObject(ctx, snapshot, mission)
	if err != nil {
		return nil, err
	}

	path := scratchFileName(p.Config.BufferPath, transferURL.URL)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &cmn.ErrIO{Op: "create scratch file", Err: err}
	}
	// Ensure the scratch file never leaks on any early-return path
	// below; successful returns own `f` via the returned scratchObject.
	ok := false
	defer func() {
		if !ok {
			f.Close()
			os.Remove(path)
		}
	}()

	totalBytes, contentLength, responseMtime, contentType, err := download(ctx, mission, transferURL.URL, f)
	if err != nil {
		return nil, err
	}
	if contentLength != nil && totalBytes != *contentLength {
		return nil, &cmn.ErrLengthMismatch{Expected: *contentLength, Got: totalBytes}
	}

	effectiveMtime, err := p.resolveMtime(snapshot, responseMtime)
	if err != nil {
		return nil, err
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, &cmn.ErrIO{Op: "rewind scratch file", Err: err}
	}

	ok = true
	return newScratchObject(path, f, totalBytes, effectiveMtime, contentType), nil
}

func (p *ByteStreamPipe) resolveMtime(snapshot meta.SnapshotMeta, responseMtime *uint64) (uint64, error) {
	snapshotMtime := snapshot.LastModified
	switch p.Config.Mtime {
	case TrustSnapshotMtime:
		if snapshotMtime != nil {
			return *snapshotMtime, nil
		}
		return 0, cmn.ErrNoModifiedTime
	case TrustResponseMtime:
		if responseMtime != nil {
			return *responseMtime, nil
		}
		return 0, cmn.ErrNoModifiedTime
	default: // RequireAgreement
		switch {
		case snapshotMtime != nil && responseMtime != nil:
			if *snapshotMtime != *responseMtime {
				return 0, cmn.ErrModifiedMismatch
			}
			return *snapshotMtime, nil
		case snapshotMtime != nil:
			return *snapshotMtime, nil
		case responseMtime != nil:
			return *responseMtime, nil
		default:
			return 0, cmn.ErrNoModifiedTime
		}
	}
}
