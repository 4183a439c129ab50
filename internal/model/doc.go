// Package model defines the domain types and value objects for the
// ansible-git-inventory CLI.
//
// This package contains plain data structures with no external dependencies.
// Every value lives for a single process invocation: the configuration is
// loaded once per run, the parsed CLI options are built once from the full
// argument vector, and nothing is persisted between runs.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
