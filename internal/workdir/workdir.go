// Package workdir manages the per-run temporary clone destination.
//
// A workdir is a path under the system temp directory with a random
// 32-character alphanumeric name. New only generates the path; the clone
// creates the directory. Remove deletes it again and treats an already
// missing directory as success, since a clone that failed early may never
// have created it.
package workdir

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/shinji-kodama/ansible-git-inventory/internal/model"
)

// NameLength is the number of random characters in a workdir name.
const NameLength = 32

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// maxUnbiased is the largest multiple of len(alphabet) that fits in a byte.
// Bytes at or above it are discarded so every character is equally likely.
const maxUnbiased = 256 - 256%len(alphabet)

// New returns a fresh workdir path under tempDir. An empty tempDir means
// os.TempDir(). The directory itself is not created.
func New(tempDir string) (string, error) {
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	name, err := RandomName(NameLength)
	if err != nil {
		return "", fmt.Errorf("generating workdir name: %w", err)
	}

	abs, err := filepath.Abs(filepath.Join(tempDir, name))
	if err != nil {
		return "", fmt.Errorf("resolving workdir path: %w", err)
	}
	return abs, nil
}

// RandomName returns n characters drawn uniformly from [A-Za-z0-9] using
// crypto/rand.
func RandomName(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Remove recursively deletes path from fsys.
//
// A missing directory is not an error. Any other failure is returned as a
// CLIError with ExitCleanup; callers report it but never change the exit
// status because of it.
func Remove(fsys afero.Fs, path string) error {
	if path == "" {
		return nil
	}

	if err := fsys.RemoveAll(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return model.WrapCLIError(
			model.ExitCleanup,
			fmt.Sprintf("cannot remove working directory %s", path),
			err,
		)
	}
	return nil
}
