// Package rustup mirrors the last N days of rustup's {stable, beta,
// nightly} channel manifests, plus the three "floating" channel
// manifest files that always point at the latest build. Grounded on
// original_source/src/rustup.rs.
package rustup

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
	"github.com/mirrorkit/mclone/source/internal/httpx"
)

var urlPattern = regexp.MustCompile(`url = "(.*)"`)

var channels = []string{"beta", "stable", "nightly"}

// Source mirrors one rustup distribution server.
type Source struct {
	Base          string
	DaysToRetain  int
}

func New(base string, daysToRetain int) *Source { return &Source{Base: base, DaysToRetain: daysToRetain} }

func (s *Source) Info() string { return fmt.Sprintf("rustup base=%s days=%d", s.Base, s.DaysToRetain) }

func (s *Source) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	log := nlog.New("rustup")
	log.Infof("fetching channels...")

	seen := map[string]bool{}
	var items []meta.SnapshotMeta
	add := func(key string, forceLast bool) {
		if seen[key] {
			return
		}
		seen[key] = true
		sk, err := meta.NewSnapshotKey(key)
		if err != nil {
			return
		}
		item := meta.SnapshotMeta{Key: sk}
		if forceLast {
			item = item.WithForceLast()
		}
		items = append(items, item)
	}

	now := time.Now().UTC()
	for dayBack := 1; dayBack <= s.DaysToRetain; dayBack++ {
		day := now.AddDate(0, 0, -dayBack).Format("2006-01-02")
		for _, channel := range channels {
			target := fmt.Sprintf("dist/%s/channel-rust-%s.toml", day, channel)
			if mission != nil && mission.Progress != nil {
				mission.Progress.SetMessage(target)
			}
			data, err := httpx.GetText(ctx, mission, s.Base+"/"+target)
			if err != nil {
				log.Warningf("failed to fetch %s: %v", target, err)
				if mission != nil && mission.Progress != nil {
					mission.Progress.Inc(1)
				}
				continue
			}
			for _, match := range urlPattern.FindAllStringSubmatch(data, -1) {
				url := strings.ReplaceAll(match[1], "https://static.rust-lang.org/", "")
				add(url, false)
			}
			if mission != nil && mission.Progress != nil {
				mission.Progress.Inc(1)
			}
		}
	}

	for _, channel := range channels {
		add(fmt.Sprintf("dist/channel-rust-%s.toml", channel), true)
	}

	if mission != nil && mission.Progress != nil {
		mission.Progress.Finish()
	}
	return items, nil
}

func (s *Source) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.TransferURL, error) {
	return core.TransferURL{URL: fmt.Sprintf("https://static.rust-lang.org/%s", snapshot.Key)}, nil
}

var _ core.Source = (*Source)(nil)
