// Package ghcup mirrors the GHCup toolchain distribution: the install
// script, its own metadata.yaml (whose URL is extracted from GHCup's
// own Haskell source), and every binary/source download URI the yaml
// config lists for GHC, cabal, HLS, and GHCup itself. Grounded on
// original_source/src/ghcup.rs.
//
// Sub-sources are composed under distinct key prefixes the same way
// the byte-level merge pipe composes pipes (pipe.MergePipe), but at
// the core.Source level — TransferURL, not ByteObject — so ghcup
// implements its own small prefix-dispatch combinator rather than
// reusing pipe.MergePipe directly.
package ghcup

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
	"github.com/mirrorkit/mclone/source/internal/httpx"
)

var versionModulePattern = regexp.MustCompile(`ghcupURL.*(?P<url>https://\S*yaml)`)

const downloadsBase = "https://downloads.haskell.org/"
const haskellOrgBase = "https://www.haskell.org/"

// scriptSource mirrors the single install.sh script.
type scriptSource struct {
	ScriptURL string
}

func (s *scriptSource) Info() string { return fmt.Sprintf("ghcup install script url=%s", s.ScriptURL) }

func (s *scriptSource) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	lastModified, err := httpx.HeadLastModified(ctx, mission, s.ScriptURL)
	if err != nil {
		return nil, err
	}
	sk, _ := meta.NewSnapshotKey("install.sh")
	return []meta.SnapshotMeta{{Key: sk, LastModified: lastModified}}, nil
}

func (s *scriptSource) GetObject(ctx context.Context, _ meta.SnapshotMeta, mission *core.Mission) (core.TransferURL, error) {
	return core.TransferURL{URL: s.ScriptURL}, nil
}

// yamlSource mirrors ghcup's own metadata.yaml, whose URL is extracted
// from its Haskell source's Version module.
type yamlSource struct {
	GhcupBase string
}

func (s *yamlSource) Info() string { return fmt.Sprintf("ghcup metadata base=%s", s.GhcupBase) }

func (s *yamlSource) yamlURL(ctx context.Context, mission *core.Mission) (string, error) {
	module, err := httpx.GetText(ctx, mission, strings.TrimSuffix(s.GhcupBase, "/")+"/lib/GHCup/Version.hs")
	if err != nil {
		return "", err
	}
	m := versionModulePattern.FindStringSubmatch(module)
	if m == nil {
		return "", &cmn.ErrProcess{Msg: "unable to parse ghcup version module for yaml url"}
	}
	return m[len(m)-1], nil
}

func (s *yamlSource) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	url, err := s.yamlURL(ctx, mission)
	if err != nil {
		return nil, err
	}
	lastModified, err := httpx.HeadLastModified(ctx, mission, url)
	if err != nil {
		return nil, err
	}
	key := strings.TrimPrefix(url, haskellOrgBase)
	sk, err := meta.NewSnapshotKey(key)
	if err != nil {
		return nil, err
	}
	return []meta.SnapshotMeta{{Key: sk, LastModified: lastModified}}, nil
}

func (s *yamlSource) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.TransferURL, error) {
	return core.TransferURL{URL: haskellOrgBase + string(snapshot.Key)}, nil
}

// ghcupYAML is the download-metadata yaml schema, matching GhcupYamlParser
// in the original.
type ghcupYAML struct {
	GhcupDownloads struct {
		Cabal map[string]release `yaml:"Cabal"`
		HLS   map[string]release `yaml:"HLS"`
		GHCup map[string]release `yaml:"GHCup"`
		GHC   map[string]release `yaml:"GHC"`
	} `yaml:"ghcupDownloads"`
}

type release struct {
	Tags       []string                         `yaml:"viTags"`
	SourceDL   *downloadSpec                    `yaml:"viSourceDl"`
	Arch       map[string]map[string]downloadSpec `yaml:"viArch"`
}

type downloadSpec struct {
	URI string `yaml:"dlUri"`
}

func (r release) isOld() bool {
	for _, tag := range r.Tags {
		if tag == "old" {
			return true
		}
	}
	return false
}

func (r release) uris() []string {
	var out []string
	for _, dist := range r.Arch {
		for _, binSrc := range dist {
			out = append(out, binSrc.URI)
		}
	}
	if r.SourceDL != nil {
		out = append(out, r.SourceDL.URI)
	}
	return out
}

// packageManifestSource mirrors every download URI the yaml config
// lists across GHC/cabal/HLS/GHCup releases.
type packageManifestSource struct {
	yaml               *yamlSource
	IncludeOldVersions bool
}

func (s *packageManifestSource) Info() string { return "ghcup package manifest" }

func (s *packageManifestSource) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	log := nlog.New("ghcup")
	url, err := s.yaml.yamlURL(ctx, mission)
	if err != nil {
		return nil, err
	}
	log.Infof("downloading yaml config...")
	body, _, err := httpx.GetBytes(ctx, mission, url)
	if err != nil {
		return nil, err
	}

	var config ghcupYAML
	if err := yaml.Unmarshal(body, &config); err != nil {
		return nil, &cmn.ErrDecode{Format: "yaml", Err: err}
	}

	seen := map[string]bool{}
	var items []meta.SnapshotMeta
	collect := func(releases map[string]release) {
		for _, r := range releases {
			if !s.IncludeOldVersions && r.isOld() {
				continue
			}
			for _, uri := range r.uris() {
				key := strings.TrimPrefix(uri, downloadsBase)
				if seen[key] {
					continue
				}
				seen[key] = true
				if sk, err := meta.NewSnapshotKey(key); err == nil {
					items = append(items, meta.SnapshotMeta{Key: sk})
				}
			}
		}
	}
	collect(config.GhcupDownloads.Cabal)
	collect(config.GhcupDownloads.HLS)
	collect(config.GhcupDownloads.GHCup)
	collect(config.GhcupDownloads.GHC)

	return items, nil
}

func (s *packageManifestSource) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.TransferURL, error) {
	return core.TransferURL{URL: downloadsBase + string(snapshot.Key)}, nil
}

// Source composes the install script, the metadata yaml, and the
// package manifest under distinct key prefixes.
type Source struct {
	children []core.Source
	prefixes []string
}

// New builds the composed ghcup source. scriptURL and ghcupBase are used
// exactly as given; no default is filled in for an empty value.
func New(scriptURL, ghcupBase string, includeOldVersions bool) *Source {
	y := &yamlSource{GhcupBase: ghcupBase}
	return &Source{
		children: []core.Source{
			&scriptSource{ScriptURL: scriptURL},
			y,
			&packageManifestSource{yaml: y, IncludeOldVersions: includeOldVersions},
		},
		prefixes: []string{"script", "metadata", "packages"},
	}
}

func (s *Source) Info() string { return "ghcup (script + metadata + package manifest)" }

func (s *Source) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	var out []meta.SnapshotMeta
	for i, child := range s.children {
		items, err := child.Snapshot(ctx, mission)
		if err != nil {
			return nil, err
		}
		prefix := s.prefixes[i]
		for _, item := range items {
			item.Key = meta.SnapshotKey(prefix + "/" + string(item.Key))
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Source) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.TransferURL, error) {
	key := string(snapshot.Key)
	for i, prefix := range s.prefixes {
		if rest, ok := strings.CutPrefix(key, prefix+"/"); ok {
			child := snapshot
			child.Key = meta.SnapshotKey(rest)
			return s.children[i].GetObject(ctx, child, mission)
		}
	}
	return core.TransferURL{}, &cmn.ErrUnexpectedPrefix{Key: key}
}

var _ core.Source = (*Source)(nil)
