// Package gradle mirrors the Gradle distribution versions API: one
// JSON array of version descriptors, each with a downloadUrl under the
// distributions host. Release-candidate entries (rcFor set) are
// skipped. Grounded on original_source/src/gradle.rs.
package gradle

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

type versionEntry struct {
	Version     string `json:"version"`
	RcFor       string `json:"rcFor"`
	DownloadURL string `json:"downloadUrl"`
}

// Source mirrors one Gradle distribution server.
type Source struct {
	APIBase          string
	DistributionBase string
}

func New(apiBase, distributionBase string) *Source {
	return &Source{APIBase: apiBase, DistributionBase: distributionBase}
}

func (s *Source) Info() string {
	return fmt.Sprintf("gradle api_base=%s distribution_base=%s", s.APIBase, s.DistributionBase)
}

func (s *Source) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	log := nlog.New("gradle")
	log.Infof("fetching API json...")

	body, _, err := httpx.GetBytes(ctx, mission, s.APIBase)
	if err != nil {
		return nil, err
	}
	var versions []versionEntry
	if err := json.Unmarshal(body, &versions); err != nil {
		return nil, &cmn.ErrDecode{Format: "json", Err: err}
	}

	var items []meta.SnapshotMeta
	for _, v := range versions {
		if mission != nil && mission.Progress != nil {
			mission.Progress.SetMessage(v.Version)
		}
		if v.RcFor != "" {
			continue
		}
		if !strings.HasPrefix(v.DownloadURL, s.DistributionBase) {
			continue
		}
		key := strings.TrimPrefix(v.DownloadURL, s.DistributionBase)
		sk, err := meta.NewSnapshotKey(key)
		if err != nil {
			continue
		}
		items = append(items, meta.SnapshotMeta{Key: sk})
	}

	if mission != nil && mission.Progress != nil {
		mission.Progress.Finish()
	}
	return items, nil
}

func (s *Source) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.TransferURL, error) {
	return core.TransferURL{URL: s.DistributionBase + string(snapshot.Key)}, nil
}

var _ core.Source = (*Source)(nil)
