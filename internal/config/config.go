// Package config loads the YAML file that tells ansible-git-inventory where
// the inventory lives.
//
// Key responsibilities:
//   - Derive the default config path from the executable path
//   - Read the file through an afero.Fs so tests can swap the filesystem
//   - Parse YAML with gopkg.in/yaml.v3 and validate required fields
//   - Render the commented template printed by --generate-config
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/ansible-git-inventory/internal/model"
)

// DefaultSuffix is appended to the executable path to form the default
// configuration file path.
const DefaultSuffix = ".yaml"

// DefaultPath returns the configuration path used when -c/--config is not
// given: the executable's own path with ".yaml" appended.
func DefaultPath(exePath string) string {
	return exePath + DefaultSuffix
}

// Load reads the configuration file at path from fsys and parses it into a
// model.Config.
//
// Returns a CLIError with ExitConfigRead if the file cannot be read, and a
// CLIError with ExitConfigParse if the content is not valid YAML or fails
// validation. The file is read once; there is no retry.
func Load(fsys afero.Fs, path string) (*model.Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigRead,
			fmt.Sprintf("cannot read configuration file %s", path),
			err,
		)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigParse,
			fmt.Sprintf("cannot parse configuration file %s", path),
			err,
		)
	}
	return cfg, nil
}

// Parse decodes YAML content into a validated model.Config.
func Parse(data []byte) (*model.Config, error) {
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and path shapes. All problems are
// collected so the user can fix the file in one pass.
func Validate(cfg *model.Config) error {
	var result *multierror.Error

	required := []struct {
		key   string
		value string
	}{
		{"repo_ssh_address", cfg.RepoSSHAddress},
		{"key_path", cfg.KeyPath},
		{"branch", cfg.Branch},
		{"target", cfg.Target},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			result = multierror.Append(result, fmt.Errorf("'%s' is required", r.key))
		}
	}

	if cfg.KeyPath != "" && !filepath.IsAbs(cfg.KeyPath) {
		result = multierror.Append(result, fmt.Errorf("'key_path' must be an absolute path, got %q", cfg.KeyPath))
	}

	// The target is joined onto the checkout directory, so it must stay
	// inside it.
	if cfg.Target != "" && !filepath.IsLocal(cfg.Target) {
		result = multierror.Append(result, fmt.Errorf("'target' must be a relative path inside the repository, got %q", cfg.Target))
	}

	if cfg.KnownHosts != "" && cfg.InsecureIgnoreHostKey {
		result = multierror.Append(result, errors.New("'known_hosts' and 'insecure_ignore_host_key' are mutually exclusive"))
	}

	if result != nil {
		result.ErrorFormat = joinErrors
	}
	return result.ErrorOrNil()
}

// IsNotExist reports whether err (or anything it wraps) says the config
// file does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func joinErrors(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
