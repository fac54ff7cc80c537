// Package elan mirrors the elan Lean toolchain installer: elan itself
// ships as GitHub releases, and it in turn installs Lean toolchains
// also published as GitHub releases. Supplemented from
// original_source/src/lean/elan.rs, which only carries retention
// configuration (RetainElanVersions, RetainLeanVersions) in the
// original — the fetch logic is grounded on
// original_source/src/github_release.rs's release-asset pattern,
// applied twice under distinct prefixes.
package elan

import (
	"context"
	"strings"

	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
	"github.com/mirrorkit/mclone/source/githubrelease"
)

// Source mirrors elan's own releases plus the Lean toolchain releases
// it bootstraps, each retained to a configurable depth.
type Source struct {
	elan *githubrelease.Source
	lean *githubrelease.Source
}

func New(retainElanVersions, retainLeanVersions int) *Source {
	return &Source{
		elan: githubrelease.New("leanprover/elan", retainElanVersions),
		lean: githubrelease.New("leanprover/lean4", retainLeanVersions),
	}
}

func (s *Source) Info() string { return "elan (elan + lean4 releases)" }

func (s *Source) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	var out []meta.SnapshotMeta
	elanItems, err := s.elan.Snapshot(ctx, mission)
	if err != nil {
		return nil, err
	}
	for _, item := range elanItems {
		item.Key = meta.SnapshotKey("elan/" + string(item.Key))
		out = append(out, item)
	}

	leanItems, err := s.lean.Snapshot(ctx, mission)
	if err != nil {
		return nil, err
	}
	for _, item := range leanItems {
		item.Key = meta.SnapshotKey("lean4/" + string(item.Key))
		out = append(out, item)
	}
	return out, nil
}

func (s *Source) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.TransferURL, error) {
	key := string(snapshot.Key)
	if rest, ok := strings.CutPrefix(key, "elan/"); ok {
		child := snapshot
		child.Key = meta.SnapshotKey(rest)
		return s.elan.GetObject(ctx, child, mission)
	}
	if rest, ok := strings.CutPrefix(key, "lean4/"); ok {
		child := snapshot
		child.Key = meta.SnapshotKey(rest)
		return s.lean.GetObject(ctx, child, mission)
	}
	return core.TransferURL{}, &cmn.ErrUnexpectedPrefix{Key: key}
}

var _ core.Source = (*Source)(nil)
