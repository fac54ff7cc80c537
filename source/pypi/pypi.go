// Package pypi mirrors a PyPI "simple" index: the root index page lists
// one anchor per package, and each package page lists one anchor per
// distribution file. Grounded on original_source/src/pypi.rs.
/*
 * Copyright (c) 2024, mirrorkit authors.
 */
package pypi

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
	"github.com/mirrorkit/mclone/internal/fanout"
	"github.com/mirrorkit/mclone/source/internal/httpx"
)

var anchorPattern = regexp.MustCompile(`(?s)<a.*?href="(.*?)".*?>(.*?)</a>`)

// Source mirrors one PyPI-compatible simple index.
type Source struct {
	SimpleBase       string
	PackageBase      string
	ConcurrentResolve int
}

func New(simpleBase, packageBase string, concurrentResolve int) *Source {
	return &Source{SimpleBase: simpleBase, PackageBase: packageBase, ConcurrentResolve: concurrentResolve}
}

func (s *Source) Info() string {
	return fmt.Sprintf("pypi simple_base=%s package_base=%s", s.SimpleBase, s.PackageBase)
}

type anchor struct {
	href string
	name string
}

func parseAnchors(html string) []anchor {
	matches := anchorPattern.FindAllStringSubmatch(html, -1)
	out := make([]anchor, 0, len(matches))
	for _, m := range matches {
		out = append(out, anchor{href: m[1], name: m[2]})
	}
	return out
}

func (s *Source) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	log := nlog.New("pypi")
	log.Infof("downloading pypi index...")
	index, err := httpx.GetText(ctx, mission, s.SimpleBase+"/")
	if err != nil {
		return nil, err
	}

	packages := parseAnchors(index)
	if mission != nil && mission.Progress != nil {
		mission.Progress.SetTotal(int64(len(packages)))
	}

	log.Infof("fetching %d package indexes...", len(packages))
	perPackage, err := fanout.Map(ctx, packages, s.ConcurrentResolve, func(ctx context.Context, pkg anchor) ([]anchor, error) {
		if mission != nil && mission.Progress != nil {
			mission.Progress.SetMessage(pkg.name)
		}
		body, err := httpx.GetText(ctx, mission, fmt.Sprintf("%s/%s", s.SimpleBase, pkg.href))
		if err != nil {
			log.Warningf("failed to fetch package index %s: %v", pkg.name, err)
			return nil, nil
		}
		if mission != nil && mission.Progress != nil {
			mission.Progress.Inc(1)
		}
		return parseAnchors(body), nil
	})
	if err != nil {
		return nil, err
	}

	var items []meta.SnapshotMeta
	for _, anchors := range perPackage {
		for _, a := range anchors {
			key := strings.ReplaceAll(a.href, "../../packages/", "")
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
	return core.TransferURL{URL: fmt.Sprintf("%s/%s", s.PackageBase, snapshot.Key)}, nil
}

var _ core.Source = (*Source)(nil)
