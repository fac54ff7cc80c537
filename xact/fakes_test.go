package xact_test

import (
	"bytes"
	"context"
	"sync"

	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
)

type memObject struct {
	*bytes.Reader
}

func (m *memObject) Close() error         { return nil }
func (m *memObject) Length() uint64       { return uint64(m.Reader.Len()) }
func (m *memObject) LastModified() uint64 { return 0 }
func (m *memObject) ContentType() string  { return "" }

func newMemObject(content string) *memObject {
	return &memObject{Reader: bytes.NewReader([]byte(content))}
}

// fakeSource plays the role of a fully-assembled pipe chain
// (core.BytePipe): Snapshot returns a canned set of items, GetObject
// returns a small in-memory ByteObject keyed by its snapshot key.
type fakeSource struct {
	items []meta.SnapshotMeta
}

func (s *fakeSource) Info() string { return "fake-source" }

func (s *fakeSource) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	return s.items, nil
}

func (s *fakeSource) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.ByteObject, error) {
	return newMemObject(string(snapshot.Key)), nil
}

// fakeTarget plays the role of a core.Target, recording every
// Put/Delete call under a mutex for assertions.
type fakeTarget struct {
	items []meta.SnapshotMeta

	mu      sync.Mutex
	puts    []string
	deletes []string
}

func (t *fakeTarget) Info() string { return "fake-target" }

func (t *fakeTarget) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	return t.items, nil
}

func (t *fakeTarget) PutObject(ctx context.Context, snapshot meta.SnapshotMeta, obj core.ByteObject, mission *core.Mission) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.puts = append(t.puts, string(snapshot.Key))
	return nil
}

func (t *fakeTarget) DeleteObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deletes = append(t.deletes, string(snapshot.Key))
	return nil
}

func (t *fakeTarget) putKeys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.puts...)
}

func (t *fakeTarget) deleteKeys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.deletes...)
}

// failingSource wraps a fakeSource, failing Snapshot outright or
// failing GetObject for one specific key, to exercise enumerate-error
// propagation and per-item fetch-failure isolation.
type failingSource struct {
	fakeSource
	snapshotErr error
	failGetKey  meta.SnapshotKey
	failGetErr  error
}

func (s *failingSource) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	if s.snapshotErr != nil {
		return nil, s.snapshotErr
	}
	return s.fakeSource.Snapshot(ctx, mission)
}

func (s *failingSource) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.ByteObject, error) {
	if s.failGetKey != "" && snapshot.Key == s.failGetKey {
		return nil, s.failGetErr
	}
	return s.fakeSource.GetObject(ctx, snapshot, mission)
}

// orderingRecorder holds the shared "fetch:<key>"/"put:<key>" trace that
// the ordering fakes append to under its mutex, so priority-band ordering
// can be asserted after Transfer returns.
type orderingRecorder struct {
	mu    sync.Mutex
	trace []string
}

func (r *orderingRecorder) record(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace = append(r.trace, entry)
}

func (r *orderingRecorder) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.trace...)
}

type orderingSource struct {
	items    []meta.SnapshotMeta
	recorder *orderingRecorder
}

func (s *orderingSource) Info() string { return "ordering-source" }

func (s *orderingSource) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	return s.items, nil
}

func (s *orderingSource) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.ByteObject, error) {
	s.recorder.record("fetch:" + string(snapshot.Key))
	return newMemObject(string(snapshot.Key)), nil
}

type orderingTarget struct {
	fakeTarget
	recorder *orderingRecorder
}

func (t *orderingTarget) PutObject(ctx context.Context, snapshot meta.SnapshotMeta, obj core.ByteObject, mission *core.Mission) error {
	t.recorder.record("put:" + string(snapshot.Key))
	return t.fakeTarget.PutObject(ctx, snapshot, obj, mission)
}

func mustKey(s string) meta.SnapshotKey {
	k, err := meta.NewSnapshotKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

var _ core.BytePipe = (*fakeSource)(nil)
var _ core.Target = (*fakeTarget)(nil)
var _ core.BytePipe = (*failingSource)(nil)
var _ core.BytePipe = (*orderingSource)(nil)
var _ core.Target = (*orderingTarget)(nil)
