// Package core defines the capability interfaces every back-end and
// pipe composes on (spec.md §4.1, component C2): SnapshotStorage,
// SourceStorage, TargetStorage, and the per-run Mission context they
// all receive.
/*
 * Copyright (c) 2024, mirrorkit authors.
 */
package core

import (
	"io"

	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/valyala/fasthttp"
)

// ProgressSink is the narrow surface a mission hands to Enumerate/Fetch
// so adapters can report progress without depending on a concrete
// progress-bar library.
type ProgressSink interface {
	SetTotal(total int64)
	Inc(delta int64)
	SetMessage(msg string)
	Finish()
}

// NopProgress discards every call; used where no --progress was
// requested and by tests.
type NopProgress struct{}

func (NopProgress) SetTotal(int64)    {}
func (NopProgress) Inc(int64)         {}
func (NopProgress) SetMessage(string) {}
func (NopProgress) Finish()           {}

// Mission is the per-run context handed to every Enumerate/Fetch/Put
// call: a shared HTTP client (connection pool, user agent, timeouts), a
// progress sink, and a logger. It is immutable and safe to share by
// reference across goroutines/workers (spec.md §4.1, §5).
type Mission struct {
	HTTPClient *fasthttp.Client
	UserAgent  string
	Progress   ProgressSink
	Logger     *nlog.Logger
}

// WithLogger returns a copy of the mission carrying a differently-named
// logger, mirroring the Rust original's `logger.new(o!("task" => ...))`
// per-phase child loggers.
func (m *Mission) WithLogger(name string) *Mission {
	cp := *m
	cp.Logger = nlog.New(name)
	return &cp
}

// WithProgress returns a copy of the mission carrying a different
// progress sink (e.g. NopProgress for per-item Fetch/Put calls that
// shouldn't drive the top-level mirror progress bar).
func (m *Mission) WithProgress(p ProgressSink) *Mission {
	cp := *m
	cp.Progress = p
	return &cp
}

// TransferURL is an absolute http(s) URL the byte-stream pipe knows how
// to fetch (spec.md §3).
type TransferURL struct {
	URL string
}

// ByteObject is an owned handle to a locally-materialized blob: a
// readable, seekable stream, a byte length, an observed last-modified
// timestamp, and a content-type hint. The handle exclusively owns its
// backing scratch file; Close must delete the file even on failure
// paths (spec.md §3).
type ByteObject interface {
	io.ReadSeekCloser
	Length() uint64
	LastModified() uint64
	ContentType() string
}
