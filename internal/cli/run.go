package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/afero"

	"github.com/shinji-kodama/ansible-git-inventory/internal/config"
	"github.com/shinji-kodama/ansible-git-inventory/internal/inventory"
	"github.com/shinji-kodama/ansible-git-inventory/internal/model"
	"github.com/shinji-kodama/ansible-git-inventory/internal/repo"
	"github.com/shinji-kodama/ansible-git-inventory/internal/workdir"
)

// Cloner fetches the configured branch into a destination directory.
type Cloner interface {
	Clone(ctx context.Context, cfg *model.Config, dest string) error
}

// Renderer runs the inventory renderer against a checkout.
type Renderer interface {
	Run(ctx context.Context, repoDir, targetPath, host string) (*model.CommandResult, error)
}

// App holds the collaborators of a single run. Tests replace any of them;
// NewApp wires the production ones.
type App struct {
	// ExePath is the running executable's path, used for the default
	// config location.
	ExePath string

	// Lookuper resolves environment variables. Nil means the process
	// environment.
	Lookuper envconfig.Lookuper

	// Fs is used to read the config and remove the workdir.
	Fs afero.Fs

	// Cloner fetches the repository. Nil means a repo.Fetcher checking
	// destinations on Fs.
	Cloner Cloner

	// Renderer runs the inventory command. Nil means an inventory.Invoker
	// for the command named in the environment.
	Renderer Renderer

	Stdout io.Writer
	Stderr io.Writer
}

// NewApp returns an App wired to the real executable path, filesystem,
// go-git fetcher and process streams.
func NewApp() (*App, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "cannot determine executable path", err)
	}

	fsys := afero.NewOsFs()
	return &App{
		ExePath: exe,
		Fs:      fsys,
		Cloner:  repo.NewFetcher(fsys),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}, nil
}

// Run performs one inventory run: load config, clone into a fresh workdir,
// render the inventory, print it, remove the workdir.
//
// Once the workdir path is generated it is removed on every return path,
// including clone failures that left a partial checkout behind. Removal
// failures are printed to Stderr and never change the returned error.
func (a *App) Run(ctx context.Context, env model.Environment, opts model.Options) error {
	log := clog.FromContext(ctx)

	cfg, err := config.Load(a.Fs, opts.ConfigPath)
	if err != nil {
		if config.IsNotExist(err) {
			log.Warnf("No config at %s; generate one with: %s --generate-config > %s",
				opts.ConfigPath, filepath.Base(a.ExePath), opts.ConfigPath)
		}
		return err
	}

	dir, err := workdir.New(env.TempDir)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "cannot create working directory name", err)
	}
	log.Debugf("Using working directory %s", dir)

	owned := true
	defer func() {
		if !owned {
			return
		}
		if err := workdir.Remove(a.Fs, dir); err != nil {
			reportError(a.Stderr, err)
			return
		}
		log.Debugf("Removed working directory %s", dir)
	}()

	if err := a.cloner().Clone(ctx, cfg, dir); err != nil {
		// A pre-existing directory belongs to someone else.
		owned = !errors.Is(err, repo.ErrDestinationExists)
		return err
	}

	target := filepath.Join(dir, cfg.Target)
	res, err := a.renderer(env).Run(ctx, dir, target, opts.Host)
	if err != nil {
		return err
	}

	if _, err := a.Stdout.Write(res.Stdout); err != nil {
		return fmt.Errorf("writing inventory: %w", err)
	}
	return nil
}

func (a *App) cloner() Cloner {
	if a.Cloner != nil {
		return a.Cloner
	}
	return repo.NewFetcher(a.Fs)
}

func (a *App) renderer(env model.Environment) Renderer {
	if a.Renderer != nil {
		return a.Renderer
	}
	return inventory.NewInvoker(env.InventoryCommand)
}
