// Package dartpub mirrors pub.dev: a paginated package list followed
// by a per-package metadata fetch for each version's archive URL.
// Grounded on original_source/src/dart.rs.
package dartpub

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
	"github.com/mirrorkit/mclone/internal/fanout"
	"github.com/mirrorkit/mclone/source/internal/httpx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type packagesPage struct {
	Packages []struct {
		Name string `json:"name"`
	} `json:"packages"`
	NextURL *string `json:"next_url"`
}

type packageVersion struct {
	ArchiveURL string `json:"archive_url"`
}

type packageDetail struct {
	Versions []packageVersion `json:"versions"`
}

// Source mirrors one pub.dev-compatible server.
type Source struct {
	Base              string
	ConcurrentResolve int
}

func New(base string, concurrentResolve int) *Source {
	return &Source{Base: base, ConcurrentResolve: concurrentResolve}
}

func (s *Source) Info() string { return fmt.Sprintf("dart pub base=%s", s.Base) }

func (s *Source) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	log := nlog.New("dartpub")
	log.Infof("fetching packages...")

	nextURL := s.Base + "/api/packages"
	var names []string
	for nextURL != "" {
		body, _, err := httpx.GetBytes(ctx, mission, nextURL)
		if err != nil {
			return nil, err
		}
		var page packagesPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &cmn.ErrDecode{Format: "json", Err: err}
		}
		for _, pkg := range page.Packages {
			names = append(names, pkg.Name)
		}
		if page.NextURL == nil {
			break
		}
		nextURL = *page.NextURL
		if mission != nil && mission.Progress != nil {
			mission.Progress.SetMessage(fmt.Sprintf("fetched %d packages so far", len(names)))
		}
	}

	if mission != nil && mission.Progress != nil {
		mission.Progress.SetTotal(int64(len(names)))
	}

	base := strings.TrimSuffix(s.Base, "/") + "/"
	perPackage, err := fanout.Map(ctx, names, s.ConcurrentResolve, func(ctx context.Context, name string) ([]string, error) {
		if mission != nil && mission.Progress != nil {
			mission.Progress.SetMessage(name)
		}
		body, _, err := httpx.GetBytes(ctx, mission, fmt.Sprintf("%sapi/packages/%s", base, name))
		if err != nil {
			log.Warningf("failed to fetch package meta %s: %v", name, err)
			return nil, nil
		}
		var detail packageDetail
		if err := json.Unmarshal(body, &detail); err != nil {
			log.Warningf("failed to parse package meta %s: %v", name, err)
			return nil, nil
		}
		keys := make([]string, 0, len(detail.Versions))
		for _, v := range detail.Versions {
			keys = append(keys, strings.ReplaceAll(v.ArchiveURL, base, ""))
		}
		if mission != nil && mission.Progress != nil {
			mission.Progress.Inc(1)
		}
		return keys, nil
	})
	if err != nil {
		return nil, err
	}

	var items []meta.SnapshotMeta
	for _, keys := range perPackage {
		for _, key := range keys {
			sk, err := meta.NewSnapshotKey(key)
			if err != nil {
				continue
			}
			items = append(items, meta.SnapshotMeta{Key: sk})
		}
	}

	if mission != nil && mission.Progress != nil {
		mission.Progress.Finish()
	}
	return items, nil
}

func (s *Source) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.TransferURL, error) {
	base := strings.TrimSuffix(s.Base, "/")
	return core.TransferURL{URL: fmt.Sprintf("%s/%s", base, snapshot.Key)}, nil
}

var _ core.Source = (*Source)(nil)
