// Package conda mirrors one Conda channel/subdir: repodata.json lists
// every package under "packages" (legacy .tar.bz2) and "packages.conda"
// (new .conda) with a sha256 each; a handful of index files are forced
// so they are always retransferred last, after every package they
// describe. Grounded on original_source/src/conda.rs.
package conda

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/cmn/cos"
	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
	"github.com/mirrorkit/mclone/source/internal/httpx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type packageInfo struct {
	SHA256 string `json:"sha256"`
}

type repodata struct {
	Packages       map[string]packageInfo `json:"packages"`
	PackagesConda  map[string]packageInfo `json:"packages.conda"`
}

// forcedIndexFiles are retransferred last every run, after the packages
// they reference, so the index is never visible ahead of its payload.
var forcedIndexFiles = []string{"repodata.json", "repodata.json.bz2", "current_repodata.json"}

// Source mirrors one channel subdir (e.g. ".../linux-64").
type Source struct {
	Repo string
}

func New(repo string) *Source { return &Source{Repo: repo} }

func (s *Source) Info() string { return fmt.Sprintf("conda repo=%s", s.Repo) }

func (s *Source) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	log := nlog.New("conda")
	log.Infof("downloading repo index...")

	body, _, err := httpx.GetBytes(ctx, mission, s.Repo+"/repodata.json")
	if err != nil {
		return nil, err
	}
	var data repodata
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &cmn.ErrDecode{Format: "json", Err: err}
	}

	sha256 := cos.ChecksumSHA256
	var items []meta.SnapshotMeta
	appendPackages := func(pkgs map[string]packageInfo) {
		for name, info := range pkgs {
			sk, err := meta.NewSnapshotKey(name)
			if err != nil {
				continue
			}
			checksum := info.SHA256
			items = append(items, meta.SnapshotMeta{Key: sk, ChecksumMethod: &sha256, Checksum: &checksum})
		}
	}
	appendPackages(data.Packages)
	appendPackages(data.PackagesConda)

	log.Infof("%d packages to download", len(items))
	if mission != nil && mission.Progress != nil {
		mission.Progress.SetTotal(int64(len(items)))
	}

	for _, name := range forcedIndexFiles {
		sk, err := meta.NewSnapshotKey(name)
		if err != nil {
			continue
		}
		items = append(items, meta.SnapshotMeta{Key: sk}.WithForceLast())
	}

	if mission != nil && mission.Progress != nil {
		mission.Progress.Finish()
	}
	return items, nil
}

func (s *Source) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.TransferURL, error) {
	return core.TransferURL{URL: fmt.Sprintf("%s/%s", s.Repo, snapshot.Key)}, nil
}

var _ core.Source = (*Source)(nil)
