// Package overlay implements the atomic-write-through-temp-files
// discipline used by the filesystem target (spec.md §4.2, component
// C3): every produced file is written to a per-run temporary name,
// committed atomically on success, and garbage-collected on crash
// recovery.
//
// Grounded on original_source/overlay/src/lib.rs's OverlayDirectory /
// OverlayFile: fuse-on-open scan, create-temp, commit-renames,
// drop-unlinks. Go has no destructors, so drop-unlink is modeled with
// an explicit Close/defer at every call site that creates a file.
/*
 * Copyright (c) 2024, mirrorkit authors.
 */
package overlay

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/teris-io/shortid"
)

// Directory owns one base directory on a local filesystem and
// guarantees that no partially-written file is ever observable under
// its final name.
type Directory struct {
	BasePath string
	RunID    string

	mu    sync.Mutex
	known map[string]bool // relative path -> fused
}

// Open recursively scans base: any file whose name matches *.tmp from a
// prior run is unlinked, and every remaining regular file is recorded
// in the known-files map with fused=false (spec.md §4.2's Open op).
func Open(base string) (*Directory, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("overlay: create base dir: %w", err)
	}
	runID, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("overlay: generate runid: %w", err)
	}
	runID = sanitizeRunID(runID)

	d := &Directory{
		BasePath: base,
		RunID:    runID,
		known:    map[string]bool{},
	}
	if err := d.fuseAndClean(base); err != nil {
		return nil, err
	}
	return d, nil
}

// sanitizeRunID keeps the token filesystem-safe and bounds it to the
// 8 alphanumeric characters spec.md §4.2/§9 specify.
func sanitizeRunID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
		if b.Len() == 8 {
			break
		}
	}
	for b.Len() < 8 {
		b.WriteByte('0')
	}
	return b.String()
}

func (d *Directory) fuseAndClean(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("overlay: read dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := d.fuseAndClean(full); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if isTmpName(entry.Name()) {
			if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("overlay: remove orphan tmp %s: %w", full, err)
			}
			continue
		}
		rel, err := filepath.Rel(d.BasePath, full)
		if err != nil {
			return err
		}
		d.known[filepath.ToSlash(rel)] = false
	}
	return nil
}

func isTmpName(name string) bool {
	return strings.HasSuffix(name, ".tmp")
}

func tmpSuffix(runID string) string {
	if runID == "" {
		return ".tmp"
	}
	return "." + runID + ".tmp"
}

// File is a handle to a file opened for write under the overlay
// discipline: writes land at TmpPath until Commit renames it to Path.
type File struct {
	dir     *Directory
	relPath string
	TmpPath string
	Path    string
	file    *os.File
	done    bool
}

// CreateForWrite ensures parent directories exist, then opens
// relPath.{runid}.tmp with exclusive-create semantics. Fails if the
// temp name already exists (collision with a concurrent writer in the
// same run), per spec.md §4.2.
func (d *Directory) CreateForWrite(relPath string) (*File, error) {
	relPath = filepath.ToSlash(relPath)
	full := filepath.Join(d.BasePath, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("overlay: mkdir for %s: %w", relPath, err)
	}
	tmpPath := full + tmpSuffix(d.RunID)
	f, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_EXCL|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("overlay: create temp %s: %w", tmpPath, err)
	}
	return &File{
		dir:     d,
		relPath: relPath,
		TmpPath: tmpPath,
		Path:    full,
		file:    f,
	}, nil
}

// Writer exposes the underlying *os.File for writing/seeking.
func (f *File) Writer() *os.File { return f.file }

var _ io.Writer = (*File)(nil)

func (f *File) Write(p []byte) (int, error) { return f.file.Write(p) }

// Commit flushes and closes the underlying descriptor, renames the temp
// file over the final path (atomic within one filesystem), and marks
// the known-files entry fused.
func (f *File) Commit() error {
	if f.done {
		return fmt.Errorf("overlay: file %s already finalized", f.relPath)
	}
	if err := f.file.Sync(); err != nil {
		f.file.Close()
		return fmt.Errorf("overlay: fsync %s: %w", f.TmpPath, err)
	}
	if err := f.file.Close(); err != nil {
		return fmt.Errorf("overlay: close %s: %w", f.TmpPath, err)
	}
	if err := os.Rename(f.TmpPath, f.Path); err != nil {
		return fmt.Errorf("overlay: commit rename %s -> %s: %w", f.TmpPath, f.Path, err)
	}
	f.dir.mu.Lock()
	f.dir.known[f.relPath] = true
	f.dir.mu.Unlock()
	f.done = true
	return nil
}

// Close rolls back an uncommitted file by unlinking its temp name. It
// is the Go analogue of the Rust original's Drop impl: safe to call
// unconditionally (e.g. via defer) since it no-ops after Commit.
// Rollback errors never propagate past this call: they are logged and
// ignored (spec.md §4.2's failure semantics).
func (f *File) Close() error {
	if f.done {
		return nil
	}
	f.done = true
	f.file.Close()
	if err := os.Remove(f.TmpPath); err != nil && !os.IsNotExist(err) {
		nlog.Warningf("overlay: rollback unlink %s: %v", f.TmpPath, err)
	}
	return nil
}

// TryFuse marks an existing (pre-existing) file as fused without
// rewriting it — used when a retry discovers the destination is
// already correct. Returns false if no known-files entry exists for
// relPath (the caller should fall back to CreateForWrite).
func (d *Directory) TryFuse(relPath string) (bool, error) {
	relPath = filepath.ToSlash(relPath)
	d.mu.Lock()
	defer d.mu.Unlock()
	fused, ok := d.known[relPath]
	if !ok {
		return false, nil
	}
	if fused {
		return false, fmt.Errorf("overlay: %s already fused", relPath)
	}
	d.known[relPath] = true
	return true, nil
}

// Sweep unlinks every known-files entry still unfused after the
// surrounding transfer completes — this is how deletions are effected
// on the filesystem target. Sweep errors are logged and ignored
// (spec.md §4.2's failure semantics).
func (d *Directory) Sweep() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for rel, fused := range d.known {
		if fused {
			continue
		}
		full := filepath.Join(d.BasePath, filepath.FromSlash(rel))
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			nlog.Warningf("overlay: sweep unlink %s: %v", full, err)
		}
		delete(d.known, rel)
	}
}

// KnownPaths returns every relative path currently tracked (for
// building a filesystem-target snapshot without a second directory
// walk). The returned slice is a stable snapshot of the map.
func (d *Directory) KnownPaths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.known))
	for rel := range d.known {
		out = append(out, rel)
	}
	return out
}
