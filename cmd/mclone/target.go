package main

import (
	"context"
	"fmt"

	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/target/azblob"
	"github.com/mirrorkit/mclone/target/file"
	"github.com/mirrorkit/mclone/target/gcs"
	"github.com/mirrorkit/mclone/target/s3"
	"github.com/urfave/cli"
)

// buildTarget dispatches on --target-type to construct the C7 back-end
// the diff-transfer engine mirrors into (spec.md §6, SPEC_FULL.md §10).
func buildTarget(ctx context.Context, c *cli.Context) (core.Target, error) {
	switch t := strFlag(c, targetTypeFlag.Name); t {
	case "file":
		basePath := strFlag(c, fileBasePathFlag.Name)
		if basePath == "" {
			return nil, &cmn.ErrConfigure{Msg: "--file-base-path is required for --target-type file"}
		}
		return file.New(basePath)
	case "s3":
		bucket := strFlag(c, s3BucketFlag.Name)
		if bucket == "" {
			return nil, &cmn.ErrConfigure{Msg: "--s3-bucket is required for --target-type s3"}
		}
		return s3.New(ctx, s3.Config{
			Endpoint:        strFlag(c, s3EndpointFlag.Name),
			Bucket:          bucket,
			Prefix:          strFlag(c, s3PrefixFlag.Name),
			PrefixShardHint: strFlag(c, s3PrefixHintModeFlag.Name),
			MaxKeys:         int32(intFlag(c, s3MaxKeysFlag.Name)),
		})
	case "gcs":
		bucket := strFlag(c, gcsBucketFlag.Name)
		if bucket == "" {
			return nil, &cmn.ErrConfigure{Msg: "--gcs-bucket is required for --target-type gcs"}
		}
		return gcs.New(ctx, gcs.Config{
			Bucket: bucket,
			Prefix: strFlag(c, gcsPrefixFlag.Name),
		})
	case "azblob":
		connStr := strFlag(c, azblobConnectionStringFlag.Name)
		container := strFlag(c, azblobContainerFlag.Name)
		if connStr == "" || container == "" {
			return nil, &cmn.ErrConfigure{Msg: "--azblob-connection-string and --azblob-container are required for --target-type azblob"}
		}
		return azblob.New(azblob.Config{
			ConnectionString: connStr,
			Container:        container,
			Prefix:           strFlag(c, azblobPrefixFlag.Name),
		})
	default:
		return nil, &cmn.ErrConfigure{Msg: fmt.Sprintf("unknown --target-type %q", t)}
	}
}
