// Command vf is the viewer CLI: `vf serve` runs the server, the other
// subcommands inspect structure files offline.
package main

import (
	"os"

	"github.com/irisuniflora/VF/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
