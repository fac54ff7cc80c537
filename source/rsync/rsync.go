// Package rsync mirrors an rsync daemon module by shelling out to the
// rsync binary and parsing its line-oriented listing output. Grounded
// on original_source/src/rsync.rs; os/exec is the only way to drive an
// actual rsync subprocess, so no third-party library applies here.
package rsync

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
)

// Source mirrors one rsync daemon module. RsyncBase is used for
// listing (rsync://host/module/), HTTPBase for the parallel HTTP
// download endpoint the upstream also serves the same tree over.
type Source struct {
	RsyncBase string
	HTTPBase  string
}

func New(rsyncBase, httpBase string) *Source { return &Source{RsyncBase: rsyncBase, HTTPBase: httpBase} }

func (s *Source) Info() string { return fmt.Sprintf("rsync base=%s", s.RsyncBase) }

type listingLine struct {
	permission   string
	size         uint64
	lastModified uint64
	file         string
}

// parseLine parses one "permission size date time file" line from
// `rsync -r --no-motd`'s listing output, e.g.:
//
//	-rw-r--r--      1,234 2024/03/01 12:00:00 pkgs/foo-1.0.tar.gz
func parseLine(line string) (listingLine, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return listingLine{}, false
	}
	idx := strings.Index(line, fields[4])
	if idx < 0 {
		return listingLine{}, false
	}
	file := strings.TrimSpace(line[idx:])

	size, err := strconv.ParseUint(strings.ReplaceAll(fields[1], ",", ""), 10, 64)
	if err != nil {
		return listingLine{}, false
	}

	var lastModified uint64
	if t, err := time.Parse("2006/01/02 15:04:05", fields[2]+" "+fields[3]); err == nil {
		lastModified = uint64(t.Unix())
	}

	return listingLine{permission: fields[0], size: size, lastModified: lastModified, file: file}, true
}

func (s *Source) Snapshot(ctx context.Context, mission *core.Mission) ([]meta.SnapshotMeta, error) {
	log := nlog.New("rsync")
	log.Infof("running rsync...")

	cmd := exec.CommandContext(ctx, "rsync", "-r", "--no-motd", s.RsyncBase)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &cmn.ErrProcess{Msg: err.Error()}
	}
	if err := cmd.Start(); err != nil {
		return nil, &cmn.ErrProcess{Msg: err.Error()}
	}

	var items []meta.SnapshotMeta
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if mission != nil && mission.Progress != nil {
			mission.Progress.Inc(1)
		}
		parsed, ok := parseLine(line)
		if !ok {
			continue
		}
		switch {
		case strings.HasPrefix(parsed.permission, "-rw"), strings.HasPrefix(parsed.permission, "-r-"):
			sk, err := meta.NewSnapshotKey(parsed.file)
			if err != nil {
				continue
			}
			size, lastModified := parsed.size, parsed.lastModified
			items = append(items, meta.SnapshotMeta{Key: sk, Size: &size, LastModified: &lastModified})
			if mission != nil && mission.Progress != nil {
				mission.Progress.SetMessage(parsed.file)
			}
		case strings.HasPrefix(parsed.permission, "l"):
			log.Warningf("skipping symlink %s", parsed.file)
		}
	}
	if err := scanner.Err(); err != nil {
		cmd.Wait()
		return nil, &cmn.ErrIO{Op: "read rsync output", Err: err}
	}
	if err := cmd.Wait(); err != nil {
		return nil, &cmn.ErrProcess{Msg: fmt.Sprintf("rsync exited with error: %v", err)}
	}

	if mission != nil && mission.Progress != nil {
		mission.Progress.Finish()
	}
	return items, nil
}

func (s *Source) GetObject(ctx context.Context, snapshot meta.SnapshotMeta, mission *core.Mission) (core.TransferURL, error) {
	return core.TransferURL{URL: fmt.Sprintf("%s/%s", s.HTTPBase, snapshot.Key)}, nil
}

var _ core.Source = (*Source)(nil)
