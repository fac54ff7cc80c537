// Package githubrelease mirrors the most recent N releases of one
// GitHub repository's asset set. Grounded on
// original_source/src/github_release.rs.
package githubrelease

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
	"github.com/mirrorkit/mclone/source/internal/httpx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type asset struct {
	BrowserDownloadURL string `json:"browser_download_url"`
}

type release struct {
	TagName string  `json:"tag_name"`
	Assets  []asset `json:"assets"`
}

const defaultAPIBase = "https://api.github.com"

// Source mirrors Repo's ("owner/name") release assets, retaining only
// the most recent VersionToRetain releases. APIBase defaults to the
// real GitHub API and is only overridden in tests.
type Source struct {
	Repo            string
	VersionToRetain int
	APIBase         string
}

func New(repo string, versionToRetain int) *Source {
	return &Source{Repo: repo, VersionToRetain: versionToRetain}
}

func (s *Source) apiBase() string {
	if s.APIBase != "" {
		return s.APIBase
	}
	return defaultAPIBase
}

func (s *Source) Info() string {
	return fmt.Sprintf("github releases repo=%s retain=%d", s.Repo, s.VersionToRetain)
}

func (s *Source) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	log := nlog.New("githubrelease")
	log.Infof("fetching GitHub json...")

	body, _, err := httpx.GetBytes(ctx, mission, fmt.Sprintf("%s/repos/%s/releases", s.apiBase(), s.Repo))
	if err != nil {
		return nil, err
	}
	var releases []release
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, &cmn.ErrDecode{Format: "json", Err: err}
	}

	if len(releases) > s.VersionToRetain {
		releases = releases[:s.VersionToRetain]
	}

	var items []meta.SnapshotMeta
	for _, r := range releases {
		if mission != nil && mission.Progress != nil {
			mission.Progress.SetMessage(r.TagName)
		}
		for _, a := range r.Assets {
			key := strings.ReplaceAll(a.BrowserDownloadURL, "https://github.com/", "")
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
	return core.TransferURL{URL: "https://github.com/" + string(snapshot.Key)}, nil
}

var _ core.Source = (*Source)(nil)
