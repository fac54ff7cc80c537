package main

import "github.com/urfave/cli"

// newApp assembles the urfave/cli application: global flags shared by
// every run, plus one sub-command per source adapter (spec.md §6),
// mirroring the teacher CLI's command-per-resource layout
// (cmd/cli/cli).
func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "mclone"
	app.Usage = "one-shot mirror synchronizer"
	app.Version = version
	app.Flags = globalFlags
	app.Commands = sourceCommands()
	return app
}
