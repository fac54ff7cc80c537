package pipe_test

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mirrorkit/mclone/cmn/cos"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
)

// memObject is an in-memory core.ByteObject test double.
type memObject struct {
	*bytes.Reader
	contents     []byte
	lastModified uint64
	contentType  string
	closed       bool
}

func newMemObject(contents string) *memObject {
	return &memObject{Reader: bytes.NewReader([]byte(contents)), contents: []byte(contents), contentType: "application/octet-stream"}
}

func (m *memObject) Length() uint64       { return uint64(len(m.contents)) }
func (m *memObject) LastModified() uint64 { return m.lastModified }
func (m *memObject) ContentType() string  { return m.contentType }
func (m *memObject) Close() error         { m.closed = true; return nil }

// fakeBytePipe is a minimal core.BytePipe test double backed by an
// in-memory key->content map.
type fakeBytePipe struct {
	items   []meta.SnapshotMeta
	content map[string]string
	calls   int
}

func newFakeBytePipe(keys ...string) *fakeBytePipe {
	f := &fakeBytePipe{content: map[string]string{}}
	for _, k := range keys {
		sk, err := meta.NewSnapshotKey(k)
		if err != nil {
			panic(err)
		}
		f.items = append(f.items, meta.SnapshotMeta{Key: sk})
		f.content[k] = "content-of-" + k
	}
	return f
}

func (f *fakeBytePipe) withChecksum(key string, method cos.ChecksumMethod, value string) *fakeBytePipe {
	for i := range f.items {
		if string(f.items[i].Key) == key {
			f.items[i].ChecksumMethod = &method
			f.items[i].Checksum = &value
		}
	}
	return f
}

func (f *fakeBytePipe) Info() string { return "fake" }

func (f *fakeBytePipe) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	return f.items, nil
}

func (f *fakeBytePipe) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.ByteObject, error) {
	f.calls++
	content, ok := f.content[string(snapshot.Key)]
	if !ok {
		return nil, fmt.Errorf("fake: unknown key %q", snapshot.Key)
	}
	return newMemObject(content), nil
}

var _ core.BytePipe = (*fakeBytePipe)(nil)
