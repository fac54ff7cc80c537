package dartpub_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/source/dartpub"
	"github.com/valyala/fasthttp"
)

func TestSnapshotListsPackagesAndResolvesVersions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/packages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"packages":[{"name":"foo"},{"name":"bar"}],"next_url":null}`)
	})
	mux.HandleFunc("/api/packages/foo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"versions":[{"archive_url":"PLACEHOLDER/api/packages/foo/versions/1.0.0.tar.gz"}]}`)
	})
	mux.HandleFunc("/api/packages/bar", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"versions":[{"archive_url":"PLACEHOLDER/api/packages/bar/versions/2.0.0.tar.gz"}]}`)
	})
	srv := httptest.NewServer(rewriteHost{mux})
	defer srv.Close()

	s := dartpub.New(srv.URL, 4)
	mission := &core.Mission{HTTPClient: &fasthttp.Client{}, Progress: core.NopProgress{}}
	items, err := s.Snapshot(context.Background(), mission)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 resolved archives, got %d: %v", len(items), items)
	}

	keys := map[string]bool{}
	for _, it := range items {
		keys[string(it.Key)] = true
	}
	if !keys["api/packages/foo/versions/1.0.0.tar.gz"] || !keys["api/packages/bar/versions/2.0.0.tar.gz"] {
		t.Fatalf("unexpected keys: %v", keys)
	}

	url, err := s.GetObject(context.Background(), items[0], mission)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if want := srv.URL + "/" + string(items[0].Key); url.URL != want {
		t.Fatalf("GetObject URL = %q, want %q", url.URL, want)
	}
}

// rewriteHost rewrites the literal "PLACEHOLDER" token in JSON
// responses to the test server's own base URL, since the server's
// address isn't known until after it starts listening.
type rewriteHost struct {
	next http.Handler
}

func (h rewriteHost) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := httptest.NewRecorder()
	h.next.ServeHTTP(rec, r)
	base := "http://" + r.Host
	for k, vs := range rec.Header() {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(rec.Code)
	fmt.Fprint(w, strings.ReplaceAll(rec.Body.String(), "PLACEHOLDER", base))
}
