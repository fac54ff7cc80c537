package pipe

import (
	"context"
	"fmt"
	"strings"

	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
)

// MergePipe composes two sub-sources under distinct key prefixes,
// expressed as a left-leaning binary combinator per
// original_source/src/merge_pipe.rs — an N-way merge is built by
// folding Merge across a slice (see NewMerge).
type MergePipe struct {
	LeftPrefix  string
	Left        core.BytePipe
	RightPrefix string
	Right       core.BytePipe
}

func NewMergePipe(leftPrefix string, left core.BytePipe, rightPrefix string, right core.BytePipe) *MergePipe {
	return &MergePipe{LeftPrefix: leftPrefix, Left: left, RightPrefix: rightPrefix, Right: right}
}

// NewMerge folds MergePipe across children left-to-right, producing the
// small binary-combinator tree spec.md §4.4 calls for. Panics if fewer
// than two children are given — that is a construction-time bug, not a
// runtime condition.
func NewMerge(children []core.BytePipe, prefixes []string) core.BytePipe {
	if len(children) < 2 {
		panic("pipe: NewMerge requires at least two children")
	}
	acc := NewMergePipe(prefixes[0], children[0], prefixes[1], children[1])
	var result core.BytePipe = acc
	for i := 2; i < len(children); i++ {
		result = NewMergePipe("", result, prefixes[i], children[i])
	}
	return result
}

func (p *MergePipe) Info() string {
	return fmt.Sprintf("merge(%s/<%s>, %s/<%s>)", p.LeftPrefix, p.Left.Info(), p.RightPrefix, p.Right.Info())
}

func withPrefix(prefix string, key meta.SnapshotKey) meta.SnapshotKey {
	if prefix == "" {
		return key
	}
	return meta.SnapshotKey(strings.TrimSuffix(prefix, "/") + "/" + string(key))
}

func (p *MergePipe) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	leftItems, err := p.Left.Snapshot(ctx, mission)
	if err != nil {
		return nil, err
	}
	rightItems, err := p.Right.Snapshot(ctx, mission)
	if err != nil {
		return nil, err
	}

	out := make([]meta.SnapshotMeta, 0, len(leftItems)+len(rightItems))
	for _, item := range leftItems {
		item.Key = withPrefix(p.LeftPrefix, item.Key)
		out = append(out, item)
	}
	for _, item := range rightItems {
		item.Key = withPrefix(p.RightPrefix, item.Key)
		out = append(out, item)
	}
	return out, nil
}

// GetObject strips the leading prefix off the snapshot key and
// dispatches to the matching child, translating the snapshot's key
// back to the child's own namespace first. A "" prefix marks the
// already-merged accumulator built by NewMerge's fold: dispatch
// recurses into it unprefixed so the fold's intermediate nodes are
// transparent to callers.
func (p *MergePipe) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.ByteObject, error) {
	key := string(snapshot.Key)

	if rest, ok := cutPrefix(key, p.RightPrefix); ok {
		child := snapshot
		child.Key = meta.SnapshotKey(rest)
		return p.Right.GetObject(ctx, child, mission)
	}
	if rest, ok := cutPrefix(key, p.LeftPrefix); ok {
		child := snapshot
		child.Key = meta.SnapshotKey(rest)
		return p.Left.GetObject(ctx, child, mission)
	}

	return nil, &cmn.ErrUnexpectedPrefix{Key: key}
}

func cutPrefix(s, prefix string) (string, bool) {
	if prefix == "" {
		return s, true
	}
	if !strings.HasPrefix(s, prefix+"/") {
		return "", false
	}
	return strings.TrimPrefix(s, prefix+"/"), true
}
