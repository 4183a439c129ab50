package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/shinji-kodama/ansible-git-inventory/internal/config"
	"github.com/shinji-kodama/ansible-git-inventory/internal/model"
)

// bindFlags registers every recognized flag on fs, storing values in opts.
// The same definitions back both ParseArgs and the cobra help output.
func bindFlags(fs *pflag.FlagSet, opts *model.Options) {
	fs.StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath,
		"Absolute path to the config file (default: executable path + \".yaml\")")
	fs.StringVar(&opts.Host, "host", "", "Output specific host info")
	fs.BoolVar(&opts.List, "list", false, "Output all hosts info (default behavior)")
	fs.BoolVarP(&opts.GenerateConfig, "generate-config", "g", false, "Print an example config file to stdout")
	fs.BoolVarP(&opts.Help, "help", "h", false, "Show help")
	fs.BoolVar(&opts.Version, "version", false, "Show version")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log progress to stderr")
}

// ParseArgs builds the immutable Options from args, the process arguments
// without the program name.
//
// exePath is the running executable's path; the default config path is
// derived from it so this function can be tested without a real binary.
// Unknown flags and positional tokens are ignored, because Ansible and
// wrapper scripts may pass extra arguments. Malformed values for
// -c/--config and --host (missing, empty after "=", or starting with "-")
// are reported as a CLIError with ExitArgument.
func ParseArgs(exePath string, args []string) (model.Options, error) {
	opts := model.Options{ConfigPath: config.DefaultPath(exePath)}

	fs := pflag.NewFlagSet("ansible-git-inventory", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	bindFlags(fs, &opts)

	// pflag reads "-c=" as the value "=", so the empty short form is
	// caught before parsing.
	if emptyShortValue(args, fs.Lookup("config").Shorthand) {
		return model.Options{}, checkValue("config", "")
	}

	if err := fs.Parse(args); err != nil {
		return model.Options{}, model.WrapCLIError(model.ExitArgument, "invalid arguments", err)
	}

	for _, name := range []string{"config", "host"} {
		if !fs.Changed(name) {
			continue
		}
		if err := checkValue(name, fs.Lookup(name).Value.String()); err != nil {
			return model.Options{}, err
		}
	}

	return opts, nil
}

// checkValue rejects empty values and values that look like another flag.
// The latter happens when the value was forgotten: pflag then consumes the
// following flag as the value.
func checkValue(name, value string) error {
	switch {
	case value == "":
		return model.NewCLIError(model.ExitArgument,
			fmt.Sprintf("invalid key-value format, expected: --%s=value", name))
	case strings.HasPrefix(value, "-"):
		return model.NewCLIError(model.ExitArgument,
			fmt.Sprintf("missing value for --%s (got flag %q)", name, value))
	}
	return nil
}

// emptyShortValue reports whether a shorthand group in args ends with
// shorthand followed by a bare "=", as in "-c=" or "-vc=". Tokens after
// "--" are positional and not inspected.
func emptyShortValue(args []string, shorthand string) bool {
	if shorthand == "" {
		return false
	}
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if len(arg) < 3 || arg[0] != '-' || arg[1] == '-' {
			continue
		}
		if strings.HasSuffix(arg, shorthand+"=") && strings.Count(arg, "=") == 1 {
			return true
		}
	}
	return false
}
