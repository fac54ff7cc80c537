package meta

import (
	"sort"
	"strings"
)

// Index is a tree built over a sorted, deduplicated key set: each node
// holds the child directory names and terminal object names directly
// beneath it. Built up to MaxDepth; path components beyond that depth
// are flattened into a single object name under the node at MaxDepth,
// per spec.md §3.
type Index struct {
	Dirs    map[string]*Index
	Objects map[string]bool
}

func newIndex() *Index {
	return &Index{Dirs: map[string]*Index{}, Objects: map[string]bool{}}
}

// BuildIndex sorts+dedups keys and inserts each into the tree, flattening
// components past maxDepth into one object name (spec.md §3's Index
// type, grounded on original_source/src/index_pipe.rs's Enumerate pass).
func BuildIndex(keys []SnapshotKey, maxDepth int) *Index {
	sorted := make([]string, 0, len(keys))
	seen := map[string]bool{}
	for _, k := range keys {
		s := string(k)
		if !seen[s] {
			seen[s] = true
			sorted = append(sorted, s)
		}
	}
	sort.Strings(sorted)

	root := newIndex()
	for _, key := range sorted {
		insert(root, strings.Split(key, "/"), 0, maxDepth)
	}
	return root
}

func insert(node *Index, parts []string, depth, maxDepth int) {
	if len(parts) == 1 {
		node.Objects[parts[0]] = true
		return
	}
	if depth >= maxDepth {
		// Flatten remaining components into one object name.
		node.Objects[strings.Join(parts, "/")] = true
		return
	}
	dir := parts[0]
	child, ok := node.Dirs[dir]
	if !ok {
		child = newIndex()
		node.Dirs[dir] = child
	}
	insert(child, parts[1:], depth+1, maxDepth)
}

// Walk visits every node in the tree, calling fn with the node's
// slash-joined path prefix ("" for the root) and the node itself.
func (idx *Index) Walk(fn func(prefix string, node *Index)) {
	idx.walk("", fn)
}

func (idx *Index) walk(prefix string, fn func(string, *Index)) {
	fn(prefix, idx)
	names := make([]string, 0, len(idx.Dirs))
	for name := range idx.Dirs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child := idx.Dirs[name]
		next := name
		if prefix != "" {
			next = prefix + "/" + name
		}
		child.walk(next, fn)
	}
}

// SortedDirs returns the node's direct child directory names, sorted.
func (idx *Index) SortedDirs() []string {
	names := make([]string, 0, len(idx.Dirs))
	for name := range idx.Dirs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedObjects returns the node's direct object names, sorted.
func (idx *Index) SortedObjects() []string {
	names := make([]string, 0, len(idx.Objects))
	for name := range idx.Objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DirectoryPrefixes returns every directory-prefix of key up to maxDepth
// components long — the set of directories the index pipe must insert a
// synthetic listing key into (spec.md §4.4's Index pipe Enumerate step).
func DirectoryPrefixes(key SnapshotKey, maxDepth int) []string {
	parts := strings.Split(string(key), "/")
	limit := len(parts) - 1
	if limit > maxDepth {
		limit = maxDepth
	}
	prefixes := make([]string, 0, limit)
	for i := 1; i <= limit; i++ {
		prefixes = append(prefixes, strings.Join(parts[:i], "/"))
	}
	return prefixes
}
