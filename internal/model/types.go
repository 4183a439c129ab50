package model

import (
	"fmt"
	"log/slog"
)

// Config represents the contents of the YAML configuration file that
// describes where the inventory lives.
//
// The default location of this file is the executable's own path with
// ".yaml" appended (e.g. /opt/inv/ans-git-inv -> /opt/inv/ans-git-inv.yaml),
// which lets Ansible call the binary as a script inventory without any
// extra arguments.
type Config struct {
	// RepoSSHAddress is the remote repository URL. Both the ssh:// URL form
	// and the scp-like form (git@host:owner/repo.git) are accepted.
	RepoSSHAddress string `yaml:"repo_ssh_address"`

	// KeyPath is the absolute path to an unencrypted private SSH key.
	KeyPath string `yaml:"key_path"`

	// Branch is the single branch that is cloned.
	Branch string `yaml:"branch"`

	// Target is the path, relative to the repository root, of the inventory
	// file or directory handed to the inventory command.
	Target string `yaml:"target"`

	// KnownHosts optionally points to a known_hosts file used to verify the
	// remote host key. When empty, the default known_hosts locations apply.
	KnownHosts string `yaml:"known_hosts,omitempty"`

	// InsecureIgnoreHostKey disables host key verification entirely.
	InsecureIgnoreHostKey bool `yaml:"insecure_ignore_host_key,omitempty"`
}

// Options is the immutable result of parsing the process argument vector.
// It is built once and passed by value to the rest of the program.
type Options struct {
	// ConfigPath is the path of the YAML configuration file.
	ConfigPath string

	// Host restricts output to a single host. Empty means "list all".
	Host string

	// List records that --list was given. Listing is the default, so this
	// only exists for completeness of the parse result.
	List bool

	// GenerateConfig requests the configuration template on stdout.
	GenerateConfig bool

	// Help requests the usage text on stdout.
	Help bool

	// Version requests the build version on stdout.
	Version bool

	// Verbose enables debug logging on stderr.
	Verbose bool
}

// ShortCircuit reports whether the options request an informational output
// (template, help or version) that ends the run before any config load.
func (o Options) ShortCircuit() bool {
	return o.GenerateConfig || o.Help || o.Version
}

// Environment holds settings read from environment variables.
// Each field is populated by go-envconfig using the struct tags.
type Environment struct {
	// InventoryCommand is the executable that renders the inventory.
	InventoryCommand string `env:"ANSIBLE_GIT_INVENTORY_COMMAND, default=ansible-inventory"`

	// TempDir is the parent directory of the per-run workdir.
	// Empty means os.TempDir().
	TempDir string `env:"ANSIBLE_GIT_INVENTORY_TMPDIR"`

	// LogLevel is one of debug, info, warn or error. slog.Level implements
	// encoding.TextUnmarshaler, so invalid names are rejected at load time.
	LogLevel slog.Level `env:"ANSIBLE_GIT_INVENTORY_LOG_LEVEL, default=warn"`
}

// CommandResult captures the outcome of a single inventory command run.
type CommandResult struct {
	// Success is true when the process exited with status zero.
	Success bool

	// ExitCode is the process exit status, or -1 if it never started.
	ExitCode int

	// Stdout is the captured standard output.
	Stdout []byte

	// Stderr is the captured standard error.
	Stderr []byte
}

// ExitCode defines the process exit codes of the CLI.
// Each abort path maps to its own non-zero code so that Ansible (or a
// wrapping script) can tell failures apart.
type ExitCode int

const (
	// ExitSuccess indicates the run completed successfully, including the
	// informational paths (-g, -h, --version).
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitArgument indicates malformed command-line flags.
	ExitArgument ExitCode = 2

	// ExitConfigRead indicates the configuration file could not be opened.
	ExitConfigRead ExitCode = 3

	// ExitConfigParse indicates the configuration is not valid YAML or is
	// missing required fields.
	ExitConfigParse ExitCode = 4

	// ExitClone indicates the repository could not be cloned.
	ExitClone ExitCode = 5

	// ExitInvocation indicates the inventory command could not be started
	// or exited with a non-zero status.
	ExitInvocation ExitCode = 6

	// ExitCleanup tags workdir removal failures. These are only reported
	// and never become the process exit status.
	ExitCleanup ExitCode = 7
)

// String returns the error kind name associated with the exit code.
func (c ExitCode) String() string {
	switch c {
	case ExitSuccess:
		return "Success"
	case ExitArgument:
		return "ArgumentError"
	case ExitConfigRead:
		return "ConfigReadError"
	case ExitConfigParse:
		return "ConfigParseError"
	case ExitClone:
		return "CloneError"
	case ExitInvocation:
		return "InvocationError"
	case ExitCleanup:
		return "CleanupError"
	default:
		return fmt.Sprintf("Error(%d)", int(c))
	}
}

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
