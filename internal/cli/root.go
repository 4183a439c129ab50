// Package cli implements the cobra-based command for ansible-git-inventory.
//
// The binary is called by Ansible as a script inventory, so it has a single
// root command and no subcommands. Flag parsing is done by ParseArgs rather
// than by cobra, because Ansible passes arguments the tool does not know
// about and those must be ignored instead of rejected. Cobra still renders
// help and usage and owns the execution lifecycle.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/ansible-git-inventory/internal/config"
	"github.com/shinji-kodama/ansible-git-inventory/internal/model"
)

// Version, Commit, and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

const longHelp = `ansible-git-inventory clones a git repository over SSH, renders the
inventory found in it with ansible-inventory, prints the result and removes
the clone again.

The config file defaults to the application path with ".yaml" appended.
For example, if the application is /some/folder/ans-git-inv, the default
config file is /some/folder/ans-git-inv.yaml.

Usage with Ansible:
  1. Check your ansible.cfg file: "script" should be present in the
     enable_plugins option.
  2. Place the app and its config (named like the app, plus ".yaml")
     somewhere and remember the path.
  3. Check that everything works:
       ansible -i /some/folder/ans-git-inv lovely_host -m ping
  4. Use ansible as you always do:
       ansible-playbook -i /some/folder/ans-git-inv --diff plays/lovely_play.yml -l lovely_host

Environment:
  ANSIBLE_GIT_INVENTORY_COMMAND    inventory renderer (default: ansible-inventory)
  ANSIBLE_GIT_INVENTORY_TMPDIR     parent directory of the temporary clone
  ANSIBLE_GIT_INVENTORY_LOG_LEVEL  debug, info, warn or error (default: warn)

Exit status:
  0  inventory printed
  1  general error
  2  invalid arguments
  3  config file could not be read
  4  config file could not be parsed
  5  clone failed
  6  ansible-inventory failed; its stderr is reported and nothing is
     printed on stdout. The clone is still removed.
  A failure to remove the clone is reported but does not change the
  exit status.`

// NewRootCommand creates and configures the root cobra command for app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ansible-git-inventory [-c CONFIG_FILE | --config[=]CONFIG_FILE] [--host[=]HOST] [--list] [-g | --generate-config] [-h | --help]",
		Short: "Ansible dynamic inventory from a git repository",
		Long:  longHelp,

		// ParseArgs handles flags so that unknown ones can be ignored and
		// malformed ones reported with the help text.
		DisableFlagParsing: true,

		// SilenceUsage and SilenceErrors leave error output to Execute.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runRoot(cmd, args)
		},
	}

	// Flags are registered on the cobra command only so that the help
	// output lists them; values are never read from here.
	display := model.Options{ConfigPath: config.DefaultPath(app.ExePath)}
	bindFlags(rootCmd.Flags(), &display)

	rootCmd.SetOut(app.Stdout)
	rootCmd.SetErr(app.Stderr)
	return rootCmd
}

// runRoot parses args and dispatches to the informational outputs or the
// inventory run.
func (a *App) runRoot(cmd *cobra.Command, args []string) error {
	opts, err := ParseArgs(a.ExePath, args)
	if err != nil {
		// The error itself is printed by Execute; show usage alongside it.
		_ = cmd.Help()
		return err
	}

	if opts.ShortCircuit() {
		return a.printInfo(cmd, opts)
	}

	env, err := LoadEnvironment(cmd.Context(), a.Lookuper)
	if err != nil {
		return err
	}

	ctx := WithLogger(cmd.Context(), a.Stderr, env.LogLevel, opts.Verbose)
	return a.Run(ctx, env, opts)
}

// printInfo handles -g, -h and --version. When several are given the
// template wins over help, and help wins over version.
func (a *App) printInfo(cmd *cobra.Command, opts model.Options) error {
	switch {
	case opts.GenerateConfig:
		return config.WriteTemplate(a.Stdout)
	case opts.Help:
		return cmd.Help()
	default:
		_, err := fmt.Fprintln(a.Stdout, cmd.Version)
		return err
	}
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// SIGINT and SIGTERM cancel the command context so that an interrupted
// clone or inventory run still reaches workdir cleanup. CLIError types
// carry their own exit codes; other errors exit with code 1.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}
	os.Exit(int(reportError(rootCmd.ErrOrStderr(), err)))
}

// reportError prints err to w and returns the exit code it maps to.
func reportError(w io.Writer, err error) model.ExitCode {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(w, cliErr.Message, cliErr.Err)
		return cliErr.Code
	}

	printError(w, err.Error(), nil)
	return model.ExitGeneralError
}

// printError outputs an error message as "Error: <message>" on w.
// stdout is reserved for inventory output, so w is always stderr.
func printError(w io.Writer, message string, underlying error) {
	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}
