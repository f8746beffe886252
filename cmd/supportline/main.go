package main

import (
	"fmt"
	"os"

	"github.com/smartsupport-ai/supportline/cmd/supportline/commands"
)

// Version information (set by the release pipeline).
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
