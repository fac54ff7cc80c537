package main

import "github.com/urfave/cli"

// Global flags shared by every source sub-command (spec.md §6).
var (
	targetTypeFlag = cli.StringFlag{
		Name:  "target-type",
		Usage: "target adapter: s3, file, gcs, or azblob",
		Value: "file",
	}
	progressFlag = cli.BoolFlag{
		Name:  "progress",
		Usage: "render progress bars",
	}
	workersFlag = cli.IntFlag{
		Name:  "workers",
		Usage: "worker-pool size (0 = host parallelism)",
	}
	concurrentResolveFlag = cli.IntFlag{
		Name:  "concurrent-resolve",
		Usage: "cap snapshot-side fan-out",
		Value: 64,
	}
	concurrentTransferFlag = cli.IntFlag{
		Name:  "concurrent-transfer",
		Usage: "cap execution concurrency",
		Value: 8,
	}
	noDeleteFlag = cli.BoolFlag{
		Name:  "no-delete",
		Usage: "skip the delete phase",
	}
	dryRunFlag = cli.BoolFlag{
		Name:  "dry-run",
		Usage: "stop after plan generation",
	}
	forceAllFlag = cli.BoolFlag{
		Name:  "force-all",
		Usage: "treat every source item as force",
	}
	printPlanFlag = cli.IntFlag{
		Name:  "print-plan",
		Usage: "log the first N plan entries",
	}
	excludeFlag = cli.StringSliceFlag{
		Name:  "exclude",
		Usage: "regex of keys to drop from the snapshot; repeatable",
	}
	indexMaxDepthFlag = cli.IntFlag{
		Name:  "index-max-depth",
		Usage: "emit synthetic mirror_clone_list.html pages up to this directory depth; 0 disables",
	}

	// S3 target flags.
	s3EndpointFlag       = cli.StringFlag{Name: "s3-endpoint"}
	s3BucketFlag         = cli.StringFlag{Name: "s3-bucket"}
	s3PrefixFlag         = cli.StringFlag{Name: "s3-prefix"}
	s3BufferPathFlag     = cli.StringFlag{Name: "s3-buffer-path", Value: "/tmp/mclone-buffer"}
	s3PrefixHintModeFlag = cli.StringFlag{Name: "s3-prefix-hint-mode", Usage: "e.g. \"pypi\" to shard listing by 2-hex-digit prefix"}
	s3MaxKeysFlag        = cli.IntFlag{Name: "s3-max-keys"}

	// File target flags.
	fileBasePathFlag   = cli.StringFlag{Name: "file-base-path"}
	fileBufferPathFlag = cli.StringFlag{Name: "file-buffer-path"}

	// GCS target flags.
	gcsBucketFlag = cli.StringFlag{Name: "gcs-bucket"}
	gcsPrefixFlag = cli.StringFlag{Name: "gcs-prefix"}

	// Azure Blob target flags.
	azblobConnectionStringFlag = cli.StringFlag{Name: "azblob-connection-string"}
	azblobContainerFlag        = cli.StringFlag{Name: "azblob-container"}
	azblobPrefixFlag           = cli.StringFlag{Name: "azblob-prefix"}
)

var globalFlags = []cli.Flag{
	targetTypeFlag,
	progressFlag,
	workersFlag,
	concurrentResolveFlag,
	concurrentTransferFlag,
	noDeleteFlag,
	dryRunFlag,
	forceAllFlag,
	printPlanFlag,
	excludeFlag,
	indexMaxDepthFlag,
	s3EndpointFlag,
	s3BucketFlag,
	s3PrefixFlag,
	s3BufferPathFlag,
	s3PrefixHintModeFlag,
	s3MaxKeysFlag,
	fileBasePathFlag,
	fileBufferPathFlag,
	gcsBucketFlag,
	gcsPrefixFlag,
	azblobConnectionStringFlag,
	azblobContainerFlag,
	azblobPrefixFlag,
}

// strFlag reads a string flag from either the command or its parent,
// since every source sub-command inherits the global flag set.
func strFlag(c *cli.Context, name string) string {
	if v := c.String(name); v != "" {
		return v
	}
	return c.GlobalString(name)
}

func intFlag(c *cli.Context, name string) int {
	if v := c.Int(name); v != 0 {
		return v
	}
	return c.GlobalInt(name)
}

func boolFlag(c *cli.Context, name string) bool {
	return c.Bool(name) || c.GlobalBool(name)
}
