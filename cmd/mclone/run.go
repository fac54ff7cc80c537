package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/mirrorkit/mclone/cmn/nlog"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/xact"
	"github.com/urfave/cli"
)

// sourceConfig is the slice of cmn.Config an adapter constructor needs
// at build time (today just ConcurrentResolve, for adapters that fan
// out per-item metadata fetches).
type sourceConfig struct {
	ConcurrentResolve int
}

// sourceAction adapts a "build this one adapter" closure into a
// cli.ActionFunc that wires the adapter into the shared pipe chain,
// target, and xact.Engine, then runs the mirror to completion.
func sourceAction(build func(c *cli.Context, cfg sourceConfig) core.Source) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg := buildConfig(c)
		if cfg.Workers > 0 {
			runtime.GOMAXPROCS(cfg.Workers)
		}

		progress, finish := newProgressSink(cfg.Progress, c.Command.Name)
		defer finish()

		mission, err := buildMission(cfg, progress)
		if err != nil {
			return err
		}

		ctx := context.Background()

		src := build(c, sourceConfig{ConcurrentResolve: cfg.ConcurrentResolve})
		chain, err := buildPipeline(c, src)
		if err != nil {
			return err
		}

		target, err := buildTarget(ctx, c)
		if err != nil {
			return err
		}

		engine := xact.New(chain, target, cfg)
		if err := engine.Transfer(ctx, mission); err != nil {
			return fmt.Errorf("%s: %w", c.Command.Name, err)
		}

		nlog.Infoln("transfer complete")
		return nil
	}
}
