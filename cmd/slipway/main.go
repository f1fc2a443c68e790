// Command slipway is the CLI for the slipway change-aggregation service:
// per-user pending edits on entities and blocks, immutable commits that
// dispatch build jobs, and discard of uncommitted edits.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/slipway/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "slipway: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
