package main

import "github.com/voidtab/voidtab/internal/cli"

// Build-time variables (set via ldflags).
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.Execute(version, commit, buildDate)
}
