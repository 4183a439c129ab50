// Package inventory runs the external inventory renderer against a cloned
// repository.
//
// The renderer is ansible-inventory by default. It is invoked with the
// clone root as its working directory and with ANSIBLE_INVENTORY_ENABLED
// set so that host lists, auto-detected plugins, YAML, INI and TOML
// inventories all load.
package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/chainguard-dev/clog"

	"github.com/shinji-kodama/ansible-git-inventory/internal/model"
)

const (
	// DefaultCommand is the inventory renderer used when none is configured.
	DefaultCommand = "ansible-inventory"

	// EnabledPluginsEnv is the variable that selects inventory plugins.
	EnabledPluginsEnv = "ANSIBLE_INVENTORY_ENABLED"

	// EnabledPlugins lists the plugins enabled for every run.
	EnabledPlugins = "host_list,auto,yaml,ini,toml"
)

// Args returns the renderer arguments for targetPath. A non-empty host
// selects single-host output; otherwise every host is listed.
func Args(targetPath, host string) []string {
	if host != "" {
		return []string{"--host", host, "-i", targetPath}
	}
	return []string{"--list", "-i", targetPath}
}

// Invoker runs the inventory renderer as a subprocess.
type Invoker struct {
	// Command is the executable name or path.
	Command string
}

// NewInvoker returns an Invoker for command, falling back to
// DefaultCommand when command is empty.
func NewInvoker(command string) *Invoker {
	if command == "" {
		command = DefaultCommand
	}
	return &Invoker{Command: command}
}

// Run executes the renderer in repoDir against targetPath and waits for it
// to finish.
//
// The returned result is never nil. On a non-zero exit status the error is
// a CLIError with ExitInvocation whose message carries the captured stderr.
// If the process cannot be started at all, ExitCode is -1 and the error
// carries the launch failure.
func (i *Invoker) Run(ctx context.Context, repoDir, targetPath, host string) (*model.CommandResult, error) {
	args := Args(targetPath, host)

	clog.FromContext(ctx).Debugf("Running %s=%s %s (in %s)",
		EnabledPluginsEnv, EnabledPlugins,
		shellescape.QuoteCommand(append([]string{i.Command}, args...)), repoDir)

	// #nosec G204 -- the command comes from the operator's environment
	cmd := exec.CommandContext(ctx, i.Command, args...)
	cmd.Dir = repoDir
	cmd.Env = append(cmd.Environ(), EnabledPluginsEnv+"="+EnabledPlugins)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &model.CommandResult{
		Success:  err == nil,
		ExitCode: 0,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		message := fmt.Sprintf("error executing '%s' command", i.Command)
		if s := strings.TrimSpace(stderr.String()); s != "" {
			message = fmt.Sprintf("%s: %s", message, s)
		}
		return result, model.WrapCLIError(model.ExitInvocation, message, err)
	}

	result.ExitCode = -1
	return result, model.WrapCLIError(model.ExitInvocation,
		fmt.Sprintf("error executing '%s' command", i.Command), err)
}
