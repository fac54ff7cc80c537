package pipe

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
)

// FilterPipe drops snapshot items whose key matches any of a set of
// regular expressions. Fetch is unaffected — the filter must be pure
// and consistent between Snapshot and GetObject, per
// original_source/src/filter_pipe.rs.
type FilterPipe struct {
	Inner    core.BytePipe
	Patterns []*regexp.Regexp
}

// NewFilterPipe compiles each pattern; a pattern that does not compile
// makes it return an error naming that pattern.
func NewFilterPipe(inner core.BytePipe, patterns []string) (*FilterPipe, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pat := range patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("filter pipe: bad pattern %q: %w", pat, err)
		}
		compiled = append(compiled, re)
	}
	return &FilterPipe{Inner: inner, Patterns: compiled}, nil
}

func (p *FilterPipe) Info() string {
	return fmt.Sprintf("pipe <%s> through %d exclude filter(s)", p.Inner.Info(), len(p.Patterns))
}

func (p *FilterPipe) excluded(key string) bool {
	for _, re := range p.Patterns {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

func (p *FilterPipe) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	items, err := p.Inner.Snapshot(ctx, mission)
	if err != nil {
		return nil, err
	}
	kept := items[:0]
	for _, item := range items {
		if !p.excluded(string(item.Key)) {
			kept = append(kept, item)
		}
	}
	return kept, nil
}

func (p *FilterPipe) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.ByteObject, error) {
	return p.Inner.GetObject(ctx, snapshot, mission)
}
