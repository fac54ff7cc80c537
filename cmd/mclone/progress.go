package main

import (
	"github.com/mirrorkit/mclone/core"
	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"
)

// mpbProgress adapts a single *mpb.Bar to core.ProgressSink, grounded on
// the teacher CLI's simpleBar/IncrBy usage (cmd/cli/cli/object.go).
type mpbProgress struct {
	bar *mpb.Bar
}

// newProgressSink builds a mission-wide progress bar when --progress is
// set, or core.NopProgress otherwise. The returned finish func must be
// called once the run completes so the underlying container drains.
func newProgressSink(enabled bool, name string) (core.ProgressSink, func()) {
	if !enabled {
		return core.NopProgress{}, func() {}
	}
	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(0,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DidentRight}),
			decor.CountersKibiByte("% .2f / % .2f"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
	sink := &mpbProgress{bar: bar}
	return sink, func() { p.Wait() }
}

func (s *mpbProgress) SetTotal(total int64)  { s.bar.SetTotal(total, false) }
func (s *mpbProgress) Inc(delta int64)       { s.bar.IncrBy(int(delta)) }
func (s *mpbProgress) SetMessage(msg string) {}
func (s *mpbProgress) Finish()               { s.bar.SetTotal(s.bar.Current(), true) }
