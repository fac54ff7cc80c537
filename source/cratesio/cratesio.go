// Package cratesio mirrors crates.io: the registry index is a git
// checkout of line-delimited JSON files, one file per crate name, each
// line describing one published version. Grounded on
// original_source/src/crates_io.rs.
package cratesio

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/cmn/cos"
	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type registryEntry struct {
	Name    string `json:"name"`
	Version string `json:"vers"`
	Cksum   string `json:"cksum"`
}

// Source mirrors crates.io's download CDN against a local checkout of
// the crates.io-index registry.
type Source struct {
	RegistryPath string
	CratesIOURL  string
}

func New(registryPath, cratesIOURL string) *Source {
	return &Source{RegistryPath: registryPath, CratesIOURL: cratesIOURL}
}

func (s *Source) Info() string {
	return fmt.Sprintf("crates.io registry=%s url=%s", s.RegistryPath, s.CratesIOURL)
}

func (s *Source) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	log := nlog.New("cratesio")
	log.Infof("scanning registry index at %s...", s.RegistryPath)

	var entries []registryEntry
	walkErr := filepath.Walk(s.RegistryPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		file, openErr := os.Open(path)
		if openErr != nil {
			return &cmn.ErrIO{Op: "open registry file", Err: openErr}
		}
		defer file.Close()
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var entry registryEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				log.Warningf("skipping malformed registry line in %s: %v", path, err)
				continue
			}
			entries = append(entries, entry)
		}
		return scanner.Err()
	})
	if walkErr != nil {
		return nil, walkErr
	}

	log.Infof("%d crate version entries parsed", len(entries))
	if mission != nil && mission.Progress != nil {
		mission.Progress.SetTotal(int64(len(entries)))
	}

	items := make([]meta.SnapshotMeta, 0, len(entries))
	sha256 := cos.ChecksumSHA256
	for _, e := range entries {
		key := fmt.Sprintf("%s/%s-%s.crate", e.Name, e.Name, e.Version)
		sk, err := meta.NewSnapshotKey(key)
		if err != nil {
			continue
		}
		checksum := e.Cksum
		items = append(items, meta.SnapshotMeta{Key: sk, ChecksumMethod: &sha256, Checksum: &checksum})
		if mission != nil && mission.Progress != nil {
			mission.Progress.Inc(1)
		}
	}

	if mission != nil && mission.Progress != nil {
		mission.Progress.Finish()
	}
	return items, nil
}

func (s *Source) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.TransferURL, error) {
	return core.TransferURL{URL: fmt.Sprintf("%s/%s", s.CratesIOURL, snapshot.Key)}, nil
}

var _ core.Source = (*Source)(nil)
