package main

import (
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/source/conda"
	"github.com/mirrorkit/mclone/source/cratesio"
	"github.com/mirrorkit/mclone/source/dartpub"
	"github.com/mirrorkit/mclone/source/elan"
	"github.com/mirrorkit/mclone/source/ghcup"
	"github.com/mirrorkit/mclone/source/githubrelease"
	"github.com/mirrorkit/mclone/source/gradle"
	"github.com/mirrorkit/mclone/source/homebrew"
	"github.com/mirrorkit/mclone/source/opam"
	"github.com/mirrorkit/mclone/source/pypi"
	"github.com/mirrorkit/mclone/source/rsync"
	"github.com/mirrorkit/mclone/source/rustup"
	"github.com/urfave/cli"
)

// sourceCommands builds one cli.Command per adapter named in spec.md
// §6: its own narrow set of upstream-location flags, wired through
// sourceAction once the adapter is constructed.
func sourceCommands() []cli.Command {
	return []cli.Command{
		{
			Name:  "pypi",
			Usage: "mirror a PyPI-compatible simple index",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "simple-base", Required: true, Usage: "e.g. https://pypi.org/simple/"},
				cli.StringFlag{Name: "package-base", Required: true, Usage: "e.g. https://files.pythonhosted.org/"},
			},
			Action: sourceAction(func(c *cli.Context, cfg sourceConfig) core.Source {
				return pypi.New(c.String("simple-base"), c.String("package-base"), cfg.ConcurrentResolve)
			}),
		},
		{
			Name:  "homebrew",
			Usage: "mirror a Homebrew bottle API",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "api-base", Required: true},
				cli.StringFlag{Name: "arch", Required: true, Usage: "e.g. x86_64_linux"},
			},
			Action: sourceAction(func(c *cli.Context, _ sourceConfig) core.Source {
				return homebrew.New(c.String("api-base"), c.String("arch"))
			}),
		},
		{
			Name:  "crates-io",
			Usage: "mirror a crates.io-compatible registry",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "registry-path", Required: true, Usage: "path inside the index git repo checkout"},
				cli.StringFlag{Name: "crates-io-url", Required: true, Usage: "e.g. https://static.crates.io/crates"},
			},
			Action: sourceAction(func(c *cli.Context, _ sourceConfig) core.Source {
				return cratesio.New(c.String("registry-path"), c.String("crates-io-url"))
			}),
		},
		{
			Name:  "conda",
			Usage: "mirror a Conda channel repodata tree",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "repo", Required: true, Usage: "e.g. https://conda.anaconda.org/conda-forge"},
			},
			Action: sourceAction(func(c *cli.Context, _ sourceConfig) core.Source {
				return conda.New(c.String("repo"))
			}),
		},
		{
			Name:  "rsync",
			Usage: "mirror an rsync-listed tree over HTTP",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "rsync-base", Required: true, Usage: "rsync daemon URL used only for listing"},
				cli.StringFlag{Name: "http-base", Required: true, Usage: "parallel HTTP base used for download"},
			},
			Action: sourceAction(func(c *cli.Context, _ sourceConfig) core.Source {
				return rsync.New(c.String("rsync-base"), c.String("http-base"))
			}),
		},
		{
			Name:  "github-release",
			Usage: "mirror a GitHub repository's released assets",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "repo", Required: true, Usage: "owner/name"},
				cli.IntFlag{Name: "retain", Value: 5, Usage: "number of most recent releases to retain"},
			},
			Action: sourceAction(func(c *cli.Context, _ sourceConfig) core.Source {
				return githubrelease.New(c.String("repo"), c.Int("retain"))
			}),
		},
		{
			Name:  "dart-pub",
			Usage: "mirror a Dart pub package repository",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "base", Required: true},
			},
			Action: sourceAction(func(c *cli.Context, cfg sourceConfig) core.Source {
				return dartpub.New(c.String("base"), cfg.ConcurrentResolve)
			}),
		},
		{
			Name:  "gradle",
			Usage: "mirror Gradle's API + distribution listings",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "api-base", Required: true},
				cli.StringFlag{Name: "distribution-base", Required: true},
			},
			Action: sourceAction(func(c *cli.Context, _ sourceConfig) core.Source {
				return gradle.New(c.String("api-base"), c.String("distribution-base"))
			}),
		},
		{
			Name:  "ghcup",
			Usage: "mirror ghcup's install script, metadata, and manifest",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "script-url", Required: true},
				cli.StringFlag{Name: "ghcup-base", Required: true},
				cli.BoolFlag{Name: "include-old-versions"},
			},
			Action: sourceAction(func(c *cli.Context, _ sourceConfig) core.Source {
				return ghcup.New(c.String("script-url"), c.String("ghcup-base"), c.Bool("include-old-versions"))
			}),
		},
		{
			Name:  "rustup",
			Usage: "mirror rustup's dated dist channels",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "base", Required: true, Usage: "e.g. https://static.rust-lang.org"},
				cli.IntFlag{Name: "days-to-retain", Value: 14},
			},
			Action: sourceAction(func(c *cli.Context, _ sourceConfig) core.Source {
				return rustup.New(c.String("base"), c.Int("days-to-retain"))
			}),
		},
		{
			Name:  "elan",
			Usage: "mirror the Lean toolchain manager's GitHub releases",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "retain-elan-versions", Value: 3},
				cli.IntFlag{Name: "retain-lean-versions", Value: 5},
			},
			Action: sourceAction(func(c *cli.Context, _ sourceConfig) core.Source {
				return elan.New(c.Int("retain-elan-versions"), c.Int("retain-lean-versions"))
			}),
		},
		{
			Name:  "opam",
			Usage: "mirror an opam OCaml package repository",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "repo", Required: true},
				cli.StringFlag{Name: "archive-url", Required: true},
			},
			Action: sourceAction(func(c *cli.Context, _ sourceConfig) core.Source {
				return opam.New(c.String("repo"), c.String("archive-url"))
			}),
		},
	}
}
