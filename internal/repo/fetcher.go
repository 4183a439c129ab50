package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/afero"

	"github.com/shinji-kodama/ansible-git-inventory/internal/model"
)

// ErrDestinationExists is returned (wrapped in a CLIError) when the clone
// destination is already present. The caller must not remove it, since it
// was not created by this run.
var ErrDestinationExists = errors.New("destination already exists")

// Fetcher clones inventory repositories.
//
// Every call resolves its own credentials from the configuration it is
// given. The destination check goes through fs; go-git itself always
// writes the checkout to the OS filesystem, so fs must view the same tree
// in production.
type Fetcher struct {
	fs afero.Fs
}

// NewFetcher creates a Fetcher that checks destinations on fsys. A nil fsys
// means the OS filesystem.
func NewFetcher(fsys afero.Fs) *Fetcher {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Fetcher{fs: fsys}
}

// Clone fetches cfg.Branch of cfg.RepoSSHAddress into dest, which must not
// exist yet. All failures (credentials, transport, missing branch) are
// returned as a CLIError with ExitClone.
func (f *Fetcher) Clone(ctx context.Context, cfg *model.Config, dest string) error {
	if _, err := f.fs.Stat(dest); err == nil {
		return model.WrapCLIError(model.ExitClone, fmt.Sprintf("cannot clone into %s", dest), ErrDestinationExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return model.WrapCLIError(model.ExitClone, fmt.Sprintf("cannot clone into %s", dest), err)
	}

	remote := NormalizeURL(cfg.RepoSSHAddress)

	auth, err := ResolveAuth(remote, cfg.KeyPath, HostKeys{
		KnownHostsFile: cfg.KnownHosts,
		InsecureIgnore: cfg.InsecureIgnoreHostKey,
	})
	if err != nil {
		return model.WrapCLIError(model.ExitClone, "cannot resolve credentials", err)
	}

	clog.FromContext(ctx).Infof("Cloning repository %s (branch %s) into %s", remote, cfg.Branch, dest)

	_, err = git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:           remote,
		Auth:          auth,
		ReferenceName: plumbing.NewBranchReferenceName(cfg.Branch),
		SingleBranch:  true,
	})
	if err != nil {
		return model.WrapCLIError(model.ExitClone, fmt.Sprintf("cannot clone %s", remote), err)
	}

	clog.FromContext(ctx).Debugf("Cloned branch %s into %s", cfg.Branch, dest)
	return nil
}
