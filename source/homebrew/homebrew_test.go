package homebrew_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/source/homebrew"
	"github.com/valyala/fasthttp"
)

const formulaJSON = `[
	{
		"name": "foo",
		"bottle": {"stable": {"files": {
			"arm64_sonoma": {"url": "https://ghcr.io/v2/homebrew/core/foo/blobs/arm64_sonoma.tar.gz"},
			"x86_64_linux": {"url": "https://ghcr.io/v2/homebrew/core/foo/blobs/x86_64_linux.tar.gz"}
		}}}
	},
	{
		"name": "bar",
		"bottle": null
	}
]`

func TestSnapshotFiltersByArch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(formulaJSON))
	}))
	defer srv.Close()

	s := homebrew.New(srv.URL, "arm64_sonoma")
	mission := &core.Mission{HTTPClient: &fasthttp.Client{}, Progress: core.NopProgress{}}
	items, err := s.Snapshot(context.Background(), mission)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item matching arch, got %d: %v", len(items), items)
	}

	url, err := s.GetObject(context.Background(), items[0], mission)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if url.URL != string(items[0].Key) {
		t.Fatalf("GetObject should echo the key as the URL, got %q", url.URL)
	}
}

func TestSnapshotSkipsBottlelessFormulas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name": "bar", "bottle": null}]`))
	}))
	defer srv.Close()

	s := homebrew.New(srv.URL, "")
	mission := &core.Mission{HTTPClient: &fasthttp.Client{}, Progress: core.NopProgress{}}
	items, err := s.Snapshot(context.Background(), mission)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %v", items)
	}
}
