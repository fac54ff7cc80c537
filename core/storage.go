package core

import (
	"context"
)

// SnapshotStorage enumerates all known items on one side of the mirror
// at one instant. Enumerate is an idempotent read that may take
// minutes; it reports progress via the mission's progress sink and
// either returns every known item or fails wholesale (spec.md §4.1).
type SnapshotStorage[S any] interface {
	Snapshot(ctx context.Context, mission *Mission) ([]S, error)
	Info() string
}

// SourceStorage fetches one item's transfer payload: a TransferURL, a
// ByteObject, or anything else a pipe chain is typed for. Each call is
// pure and carries no aggregate state (spec.md §4.1).
type SourceStorage[S, O any] interface {
	GetObject(ctx context.Context, snapshot S, mission *Mission) (O, error)
}

// TargetStorage performs target-side writes. Each call is independent
// and may fail without affecting others (spec.md §4.1).
type TargetStorage[S, O any] interface {
	PutObject(ctx context.Context, snapshot S, item O, mission *Mission) error
	DeleteObject(ctx context.Context, snapshot S, mission *Mission) error
}
