package rsync

import (
	"context"
	"testing"

	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
)

func TestParseLineRegularFile(t *testing.T) {
	line := "-rw-r--r--      1,234 2024/03/01 12:00:00 pkgs/foo-1.0.tar.gz"
	parsed, ok := parseLine(line)
	if !ok {
		t.Fatal("expected parseLine to succeed")
	}
	if parsed.size != 1234 {
		t.Fatalf("size = %d, want 1234", parsed.size)
	}
	if parsed.file != "pkgs/foo-1.0.tar.gz" {
		t.Fatalf("file = %q, want pkgs/foo-1.0.tar.gz", parsed.file)
	}
	if parsed.lastModified == 0 {
		t.Fatal("expected a non-zero parsed mtime")
	}
}

func TestParseLineSymlinkPermissionBit(t *testing.T) {
	line := "lrwxrwxrwx        12 2024/03/01 12:00:00 pkgs/latest -> foo-1.0.tar.gz"
	parsed, ok := parseLine(line)
	if !ok {
		t.Fatal("expected parseLine to succeed for a symlink entry")
	}
	if parsed.permission[0] != 'l' {
		t.Fatalf("expected the permission bit to mark a symlink, got %q", parsed.permission)
	}
}

func TestParseLineRejectsShortLine(t *testing.T) {
	if _, ok := parseLine("too short"); ok {
		t.Fatal("expected parseLine to reject a line with too few fields")
	}
}

func TestGetObjectComposesHTTPURL(t *testing.T) {
	s := New("rsync://host/module", "https://example.org/module")
	mission := &core.Mission{Progress: core.NopProgress{}}
	key, err := meta.NewSnapshotKey("pkgs/foo-1.0.tar.gz")
	if err != nil {
		t.Fatalf("NewSnapshotKey: %v", err)
	}
	url, err := s.GetObject(context.Background(), meta.SnapshotMeta{Key: key}, mission)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if want := "https://example.org/module/pkgs/foo-1.0.tar.gz"; url.URL != want {
		t.Fatalf("GetObject URL = %q, want %q", url.URL, want)
	}
}
