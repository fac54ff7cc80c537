package pipe

import (
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
)

// RewriteFunc rewrites the textual content of a fetched object, e.g. to
// point upstream URLs at the mirror itself.
type RewriteFunc func(content string) (string, error)

// RewritePipe rewrites the text content of small ByteObjects, grounded
// on original_source/src/rewrite_pipe.rs. Oversize objects, invalid
// UTF-8, and rewrite-function errors are not fatal: the original
// object passes through unchanged and a warning is logged.
type RewritePipe struct {
	Inner      core.BytePipe
	MaxSize    uint64
	BufferPath string
	Rewrite    RewriteFunc
	Logger     *nlog.Logger
}

func NewRewritePipe(inner core.BytePipe, maxSize uint64, bufferPath string, fn RewriteFunc) *RewritePipe {
	return &RewritePipe{Inner: inner, MaxSize: maxSize, BufferPath: bufferPath, Rewrite: fn, Logger: nlog.New("rewrite")}
}

func (p *RewritePipe) Info() string {
	return fmt.Sprintf("pipe <%s> through content rewrite (max %d bytes)", p.Inner.Info(), p.MaxSize)
}

func (p *RewritePipe) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	return p.Inner.Snapshot(ctx, mission)
}

func (p *RewritePipe) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.ByteObject, error) {
	obj, err := p.Inner.GetObject(ctx, snapshot, mission)
	if err != nil {
		return nil, err
	}
	if obj.Length() > p.MaxSize {
		p.Logger.Warningf("rewrite: %s is %d bytes, above max %d, passing through unchanged", snapshot.Key, obj.Length(), p.MaxSize)
		return obj, nil
	}

	raw, readErr := io.ReadAll(obj)
	if readErr != nil {
		p.Logger.Warningf("rewrite: read %s: %v, passing through unchanged", snapshot.Key, readErr)
		if _, seekErr := obj.Seek(0, 0); seekErr != nil {
			obj.Close()
			return nil, seekErr
		}
		return obj, nil
	}
	if !utf8.Valid(raw) {
		p.Logger.Warningf("rewrite: %s is not valid UTF-8, passing through unchanged", snapshot.Key)
		if _, seekErr := obj.Seek(0, 0); seekErr != nil {
			obj.Close()
			return nil, seekErr
		}
		return obj, nil
	}

	rewritten, rwErr := p.Rewrite(string(raw))
	if rwErr != nil {
		p.Logger.Warningf("rewrite: function error for %s: %v, passing through unchanged", snapshot.Key, rwErr)
		if _, seekErr := obj.Seek(0, 0); seekErr != nil {
			obj.Close()
			return nil, seekErr
		}
		return obj, nil
	}

	path := scratchFileName(p.BufferPath, string(snapshot.Key)+".rewrite")
	f, createErr := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if createErr != nil {
		p.Logger.Warningf("rewrite: scratch create failed: %v, passing through unchanged", createErr)
		if _, seekErr := obj.Seek(0, 0); seekErr != nil {
			obj.Close()
			return nil, seekErr
		}
		return obj, nil
	}
	if _, writeErr := f.WriteString(rewritten); writeErr != nil {
		f.Close()
		os.Remove(path)
		p.Logger.Warningf("rewrite: scratch write failed: %v, passing through unchanged", writeErr)
		if _, seekErr := obj.Seek(0, 0); seekErr != nil {
			obj.Close()
			return nil, seekErr
		}
		return obj, nil
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		os.Remove(path)
		obj.Close()
		return nil, err
	}

	newObj := newScratchObject(path, f, uint64(len(rewritten)), obj.LastModified(), obj.ContentType())
	obj.Close()
	return newObj, nil
}
