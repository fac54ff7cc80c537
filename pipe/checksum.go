package pipe

import (
	"context"
	"fmt"

	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/cmn/cos"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
)

// ChecksumPipe verifies a fetched ByteObject's digest against the
// snapshot's declared checksum, grounded on
// original_source/src/checksum_pipe.rs and cmn/cos.Digest for the
// actual hashing.
type ChecksumPipe struct {
	Inner core.BytePipe
}

func NewChecksumPipe(inner core.BytePipe) *ChecksumPipe {
	return &ChecksumPipe{Inner: inner}
}

func (p *ChecksumPipe) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	return p.Inner.Snapshot(ctx, mission)
}

func (p *ChecksumPipe) Info() string {
	return fmt.Sprintf("pipe <%s> through checksum verification", p.Inner.Info())
}

// GetObject fetches via the inner pipe and, iff the snapshot carries
// both a checksum method and value, digests the object and compares
// hex-wise. The stream is left rewound for the caller either way.
func (p *ChecksumPipe) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.ByteObject, error) {
	obj, err := p.Inner.GetObject(ctx, snapshot, mission)
	if err != nil {
		return nil, err
	}
	if snapshot.ChecksumMethod == nil || snapshot.Checksum == nil {
		return obj, nil
	}

	method := *snapshot.ChecksumMethod
	got, err := cos.Digest(method, obj)
	if err != nil {
		obj.Close()
		return nil, err
	}
	if _, seekErr := obj.Seek(0, 0); seekErr != nil {
		obj.Close()
		return nil, &cmn.ErrIO{Op: "rewind after checksum", Err: seekErr}
	}
	if got != *snapshot.Checksum {
		obj.Close()
		return nil, &cmn.ErrChecksumMismatch{Method: string(method), Expected: *snapshot.Checksum, Got: got}
	}
	return obj, nil
}
