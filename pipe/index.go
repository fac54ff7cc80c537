package pipe

import (
	"context"
	"fmt"
	"html"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
)

const indexSentinel = "mirror_clone_list.html"

// IndexPipe inserts a synthetic directory-listing HTML page at every
// directory level of its child's key space, grounded on
// original_source/src/index_pipe.rs. Enumerate computes the tree once
// and caches it so GetObject can render any directory's page without
// re-walking the whole key set.
type IndexPipe struct {
	Inner      core.BytePipe
	MaxDepth   int
	BufferPath string

	mu   sync.Mutex
	tree *meta.Index
}

func NewIndexPipe(inner core.BytePipe, maxDepth int, bufferPath string) *IndexPipe {
	return &IndexPipe{Inner: inner, MaxDepth: maxDepth, BufferPath: bufferPath}
}

func (p *IndexPipe) Info() string {
	return fmt.Sprintf("pipe <%s> through synthetic directory index (depth %d)", p.Inner.Info(), p.MaxDepth)
}

func sentinelKey(dir string) meta.SnapshotKey {
	if dir == "" {
		return meta.SnapshotKey(indexSentinel)
	}
	return meta.SnapshotKey(dir + "/" + indexSentinel)
}

func (p *IndexPipe) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	items, err := p.Inner.Snapshot(ctx, mission)
	if err != nil {
		return nil, err
	}

	keys := make([]meta.SnapshotKey, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Key)
	}
	tree := meta.BuildIndex(keys, p.MaxDepth)

	p.mu.Lock()
	p.tree = tree
	p.mu.Unlock()

	out := make([]meta.SnapshotMeta, 0, len(items)+8)
	out = append(out, items...)
	tree.Walk(func(prefix string, node *meta.Index) {
		sk, err := meta.NewSnapshotKey(string(sentinelKey(prefix)))
		if err != nil {
			return
		}
		entry := meta.SnapshotMeta{Key: sk}.WithForceLast()
		out = append(out, entry)
	})
	return out, nil
}

func (p *IndexPipe) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.ByteObject, error) {
	key := string(snapshot.Key)
	if !strings.HasSuffix(key, indexSentinel) {
		return p.Inner.GetObject(ctx, snapshot, mission)
	}

	dir := strings.TrimSuffix(key, indexSentinel)
	dir = strings.TrimSuffix(dir, "/")

	p.mu.Lock()
	tree := p.tree
	p.mu.Unlock()
	if tree == nil {
		return nil, &cmn.ErrIO{Op: "render index", Err: fmt.Errorf("index pipe: no snapshot taken yet")}
	}

	node := tree
	if dir != "" {
		for _, part := range strings.Split(dir, "/") {
			child, ok := node.Dirs[part]
			if !ok {
				return nil, &cmn.ErrIO{Op: "render index", Err: fmt.Errorf("index pipe: unknown directory %q", dir)}
			}
			node = child
		}
	}

	rendered := renderIndexHTML(dir, node)

	path := scratchFileName(p.BufferPath, key)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &cmn.ErrIO{Op: "create index scratch file", Err: err}
	}
	if _, err := f.WriteString(rendered); err != nil {
		f.Close()
		os.Remove(path)
		return nil, &cmn.ErrIO{Op: "write index scratch file", Err: err}
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		os.Remove(path)
		return nil, &cmn.ErrIO{Op: "rewind index scratch file", Err: err}
	}

	now := uint64(time.Now().Unix())
	return newScratchObject(path, f, uint64(len(rendered)), now, "text/html"), nil
}

func renderIndexHTML(dir string, node *meta.Index) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>Index of /")
	b.WriteString(html.EscapeString(dir))
	b.WriteString("</title></head><body>\n")

	b.WriteString("<nav>")
	b.WriteString(`<a href="/">root</a>`)
	if dir != "" {
		acc := ""
		for _, part := range strings.Split(dir, "/") {
			acc += part + "/"
			fmt.Fprintf(&b, " / <a href=\"/%s\">%s</a>", html.EscapeString(acc), html.EscapeString(part))
		}
	}
	b.WriteString("</nav>\n<ul>\n")

	for _, d := range node.SortedDirs() {
		fmt.Fprintf(&b, "<li><a href=\"%s/\">%s/</a></li>\n", html.EscapeString(d), html.EscapeString(d))
	}
	for _, o := range node.SortedObjects() {
		if o == indexSentinel {
			continue
		}
		fmt.Fprintf(&b, "<li><a href=\"%s\">%s</a></li>\n", html.EscapeString(o), html.EscapeString(o))
	}

	b.WriteString("</ul>\n<footer>generated ")
	b.WriteString(time.Now().UTC().Format(time.RFC3339))
	b.WriteString("</footer>\n</body></html>\n")
	return b.String()
}
