// Package main is the entry point for the ansible-git-inventory CLI.
//
// Ansible runs this binary as a script inventory. All functionality lives in
// the internal/cli package; main only injects build information and hands
// over to cli.Execute.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during the release process. During development, they default to "dev",
// "none", and "unknown" respectively.
package main

import (
	"fmt"
	"os"

	"github.com/shinji-kodama/ansible-git-inventory/internal/cli"
	"github.com/shinji-kodama/ansible-git-inventory/internal/model"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	app, err := cli.NewApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(model.ExitGeneralError))
	}

	rootCmd := cli.NewRootCommand(app)
	cli.Execute(rootCmd)
}
