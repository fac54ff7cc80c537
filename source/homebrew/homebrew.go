// Package homebrew mirrors Homebrew bottles listed in the formula API
// JSON. Grounded on original_source/src/homebrew.rs.
package homebrew

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
	"github.com/mirrorkit/mclone/source/internal/httpx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type bottleFile struct {
	URL string `json:"url"`
}

type stableBottle struct {
	Files map[string]bottleFile `json:"files"`
}

type bottle struct {
	Stable stableBottle `json:"stable"`
}

type formula struct {
	Name   string  `json:"name"`
	Bottle *bottle `json:"bottle"`
}

// Source mirrors one Homebrew API endpoint, optionally restricted to a
// single bottle architecture tag (e.g. "arm64_sonoma").
type Source struct {
	APIBase string
	Arch    string
}

func New(apiBase, arch string) *Source { return &Source{APIBase: apiBase, Arch: arch} }

func (s *Source) Info() string { return fmt.Sprintf("homebrew api_base=%s arch=%s", s.APIBase, s.Arch) }

func (s *Source) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	log := nlog.New("homebrew")
	log.Infof("fetching API json...")
	body, _, err := httpx.GetBytes(ctx, mission, s.APIBase)
	if err != nil {
		return nil, err
	}

	var formulas []formula
	if err := json.Unmarshal(body, &formulas); err != nil {
		log.Warningf("failed to parse homebrew API json: %v", err)
		return nil, err
	}

	var items []meta.SnapshotMeta
	for _, f := range formulas {
		if mission != nil && mission.Progress != nil {
			mission.Progress.SetMessage(f.Name)
		}
		if f.Bottle == nil {
			continue
		}
		for _, file := range f.Bottle.Stable.Files {
			url := file.URL
			if s.Arch != "" && !strings.Contains(url, s.Arch) {
				continue
			}
			key := strings.ReplaceAll(url, "https://homebrew.bintray.com/", "")
			key = strings.ReplaceAll(key, "https://linuxbrew.bintray.com/", "")
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
	return core.TransferURL{URL: string(snapshot.Key)}, nil
}

var _ core.Source = (*Source)(nil)
