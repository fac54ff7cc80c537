package conda_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/source/conda"
	"github.com/valyala/fasthttp"
)

func TestSnapshotForcesIndexFilesLast(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repodata.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"packages": {"foo-1.0-0.tar.bz2": {"sha256": "abc123"}},
			"packages.conda": {"bar-2.0-0.conda": {"sha256": "def456"}}
		}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := conda.New(srv.URL)
	mission := &core.Mission{HTTPClient: &fasthttp.Client{}, Progress: core.NopProgress{}}
	items, err := s.Snapshot(context.Background(), mission)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	var forcedCount, regularCount int
	keys := map[string]bool{}
	for _, item := range items {
		keys[string(item.Key)] = true
		if item.ForceLast {
			forcedCount++
			if item.Priority >= 0 {
				t.Fatalf("forced item %s should have negative priority", item.Key)
			}
		} else {
			regularCount++
		}
	}

	if regularCount != 2 {
		t.Fatalf("expected 2 regular package items, got %d", regularCount)
	}
	if forcedCount != 3 {
		t.Fatalf("expected 3 forced index files, got %d", forcedCount)
	}
	if !keys["foo-1.0-0.tar.bz2"] || !keys["bar-2.0-0.conda"] {
		t.Fatalf("missing expected package keys: %v", keys)
	}
	if !keys["repodata.json"] {
		t.Fatalf("missing forced repodata.json key")
	}
}
