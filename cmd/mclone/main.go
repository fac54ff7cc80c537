// Command mclone diffs a remote package-repository source against an
// object-store or filesystem target and performs the minimal set of
// uploads/deletions needed to converge, per spec.md.
/*
 * Copyright (c) 2024, mirrorkit authors.
 */
package main

import (
	"os"

	"github.com/mirrorkit/mclone/cmn/nlog"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		nlog.Errorf("%v", err)
		os.Exit(1)
	}
}
