package main

import (
	"os"

	"github.com/go-delve/elfdb/cmd/elfdb/cmds"
	"github.com/go-delve/elfdb/pkg/version"
)

// Build is the git sha of this binaries build.
var Build string

func main() {
	if Build != "" {
		version.ElfdbVersion.Build = Build
	}
	if err := cmds.New().Execute(); err != nil {
		os.Exit(1)
	}
}
