package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/ansible-git-inventory/internal/config"
	"github.com/shinji-kodama/ansible-git-inventory/internal/model"
	"github.com/shinji-kodama/ansible-git-inventory/internal/repo"
)

// testEnv describes the directories and files of one simulated run.
type testEnv struct {
	dir        string // scratch directory holding config and script
	tmp        string // parent of the workdir
	configPath string
	script     string // fake ansible-inventory
}

// newTestEnv writes a config pointing at remote and a fake inventory
// command that prints its arguments, one per line, and exits with exitCode.
func newTestEnv(t *testing.T, remote string, exitCode int) *testEnv {
	t.Helper()

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		tmp:        filepath.Join(dir, "tmp"),
		configPath: filepath.Join(dir, "ans-git-inv.yaml"),
		script:     filepath.Join(dir, "ansible-inventory"),
	}
	require.NoError(t, os.MkdirAll(env.tmp, 0o755))

	cfg := fmt.Sprintf("repo_ssh_address: %s\nkey_path: /keys/id_rsa\nbranch: main\ntarget: inventory.yaml\n", remote)
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o600))

	script := "#!/bin/sh\n" +
		"for a in \"$@\"; do echo \"$a\"; done\n" +
		"if [ " + fmt.Sprint(exitCode) + " -ne 0 ]; then echo 'inventory exploded' >&2; fi\n" +
		"exit " + fmt.Sprint(exitCode) + "\n"
	require.NoError(t, os.WriteFile(env.script, []byte(script), 0o755))

	return env
}

func (e *testEnv) lookuper() envconfig.Lookuper {
	return envconfig.MapLookuper(map[string]string{
		"ANSIBLE_GIT_INVENTORY_COMMAND": e.script,
		"ANSIBLE_GIT_INVENTORY_TMPDIR":  e.tmp,
	})
}

// assertTmpEmpty checks that no workdir survived the run.
func (e *testEnv) assertTmpEmpty(t *testing.T) {
	t.Helper()

	entries, err := os.ReadDir(e.tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "workdir must be removed after the run")
}

// initRemote creates a go-git repository with inventory.yaml committed on
// branch "main" and returns its path, usable as a clone URL.
func initRemote(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	r, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: "refs/heads/main"},
	})
	require.NoError(t, err)

	wt, err := r.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "inventory.yaml"), []byte("all: {}\n"), 0o644))
	_, err = wt.Add("inventory.yaml")
	require.NoError(t, err)
	_, err = wt.Commit("inventory", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

// recordingCloner creates dest with an inventory file and remembers the
// request, standing in for an SSH remote.
type recordingCloner struct {
	cfg  *model.Config
	dest string
	err  error
}

func (c *recordingCloner) Clone(_ context.Context, cfg *model.Config, dest string) error {
	c.cfg = cfg
	c.dest = dest
	if err := os.MkdirAll(filepath.Join(dest, ".git"), 0o755); err != nil {
		return err
	}
	if c.err != nil {
		return c.err
	}
	return os.WriteFile(filepath.Join(dest, cfg.Target), []byte("all: {}\n"), 0o644)
}

// panicCloner fails the test if any clone is attempted.
type panicCloner struct{ t *testing.T }

func (c panicCloner) Clone(context.Context, *model.Config, string) error {
	c.t.Fatal("clone must not be attempted")
	return nil
}

// execute runs the root command with args and returns what it printed and
// the exit code Execute would use.
func execute(t *testing.T, app *App, args ...string) (string, string, model.ExitCode) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app.Stdout = &stdout
	app.Stderr = &stderr
	if app.ExePath == "" {
		app.ExePath = testExe
	}

	cmd := NewRootCommand(app)
	// A nil slice would make cobra read os.Args.
	cmd.SetArgs(append([]string{}, args...))

	code := model.ExitSuccess
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		code = reportError(&stderr, err)
	}
	return stdout.String(), stderr.String(), code
}

func TestRun_ListAllFromLocalRemote(t *testing.T) {
	env := newTestEnv(t, initRemote(t), 0)
	app := &App{Lookuper: env.lookuper(), Fs: afero.NewOsFs(), Cloner: repo.NewFetcher(nil)}

	stdout, stderr, code := execute(t, app, "--config", env.configPath, "--list")

	require.Equal(t, model.ExitSuccess, code, stderr)
	out := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, out, 3)
	assert.Equal(t, "--list", out[0])
	assert.Equal(t, "-i", out[1])
	assert.Equal(t, env.tmp, filepath.Dir(filepath.Dir(out[2])))
	assert.Equal(t, "inventory.yaml", filepath.Base(out[2]))
	assert.Regexp(t, `^[A-Za-z0-9]{32}$`, filepath.Base(filepath.Dir(out[2])))
	env.assertTmpEmpty(t)
}

// TestRun_HostFilter follows a run against an SSH-style remote with a
// host filter, using a stand-in cloner.
func TestRun_HostFilter(t *testing.T) {
	env := newTestEnv(t, "ssh://git@example.com:org/repo.git", 0)
	cloner := &recordingCloner{}
	app := &App{Lookuper: env.lookuper(), Fs: afero.NewOsFs(), Cloner: cloner}

	stdout, stderr, code := execute(t, app, "--config="+env.configPath, "--host", "web01")

	require.Equal(t, model.ExitSuccess, code, stderr)
	require.NotNil(t, cloner.cfg)
	assert.Equal(t, "ssh://git@example.com:org/repo.git", cloner.cfg.RepoSSHAddress)
	assert.Equal(t, "/keys/id_rsa", cloner.cfg.KeyPath)
	assert.Equal(t, "main", cloner.cfg.Branch)
	assert.Equal(t, env.tmp, filepath.Dir(cloner.dest))

	want := strings.Join([]string{"--host", "web01", "-i", filepath.Join(cloner.dest, "inventory.yaml")}, "\n") + "\n"
	assert.Equal(t, want, stdout, "stdout must be forwarded verbatim")
	env.assertTmpEmpty(t)
}

func TestRun_UniqueWorkdirs(t *testing.T) {
	env := newTestEnv(t, "git@example.com:org/repo.git", 0)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		cloner := &recordingCloner{}
		app := &App{Lookuper: env.lookuper(), Fs: afero.NewOsFs(), Cloner: cloner}

		_, stderr, code := execute(t, app, "-c", env.configPath)
		require.Equal(t, model.ExitSuccess, code, stderr)
		assert.False(t, seen[cloner.dest], "workdir reused: %s", cloner.dest)
		seen[cloner.dest] = true
	}
	env.assertTmpEmpty(t)
}

// TestRun_CloneFailureCleansUp checks that a partially written checkout is
// removed and the inventory command never runs.
func TestRun_CloneFailureCleansUp(t *testing.T) {
	env := newTestEnv(t, "git@example.com:org/repo.git", 0)
	cloner := &recordingCloner{err: model.WrapCLIError(model.ExitClone, "cannot clone", errors.New("connection reset"))}
	app := &App{Lookuper: env.lookuper(), Fs: afero.NewOsFs(), Cloner: cloner}

	stdout, stderr, code := execute(t, app, "-c", env.configPath)

	assert.Equal(t, model.ExitClone, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error: cannot clone: connection reset")
	env.assertTmpEmpty(t)
}

// TestRun_CloneFailureFromGit uses the real fetcher with a branch that does
// not exist on the remote.
func TestRun_CloneFailureFromGit(t *testing.T) {
	remote := initRemote(t)
	env := newTestEnv(t, remote, 0)
	require.NoError(t, os.WriteFile(env.configPath, []byte(fmt.Sprintf(
		"repo_ssh_address: %s\nkey_path: /keys/id_rsa\nbranch: nope\ntarget: inventory.yaml\n", remote)), 0o600))
	app := &App{Lookuper: env.lookuper(), Fs: afero.NewOsFs(), Cloner: repo.NewFetcher(nil)}

	stdout, _, code := execute(t, app, "-c", env.configPath)

	assert.Equal(t, model.ExitClone, code)
	assert.Empty(t, stdout)
	env.assertTmpEmpty(t)
}

func TestRun_ForeignDestinationKept(t *testing.T) {
	env := newTestEnv(t, "git@example.com:org/repo.git", 0)
	cloner := &recordingCloner{err: model.WrapCLIError(model.ExitClone, "cannot clone", repo.ErrDestinationExists)}
	app := &App{Lookuper: env.lookuper(), Fs: afero.NewOsFs(), Cloner: cloner}

	_, _, code := execute(t, app, "-c", env.configPath)

	assert.Equal(t, model.ExitClone, code)
	_, err := os.Stat(cloner.dest)
	assert.NoError(t, err, "a directory this run did not create must not be removed")
}

func TestRun_InvocationFailure(t *testing.T) {
	env := newTestEnv(t, "git@example.com:org/repo.git", 2)
	app := &App{Lookuper: env.lookuper(), Fs: afero.NewOsFs(), Cloner: &recordingCloner{}}

	stdout, stderr, code := execute(t, app, "-c", env.configPath)

	assert.Equal(t, model.ExitInvocation, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error: error executing '"+env.script+"' command: inventory exploded")
	env.assertTmpEmpty(t)
}

func TestRun_InventoryCommandMissing(t *testing.T) {
	env := newTestEnv(t, "git@example.com:org/repo.git", 0)
	lookuper := envconfig.MapLookuper(map[string]string{
		"ANSIBLE_GIT_INVENTORY_COMMAND": filepath.Join(env.dir, "not-installed"),
		"ANSIBLE_GIT_INVENTORY_TMPDIR":  env.tmp,
	})
	app := &App{Lookuper: lookuper, Fs: afero.NewOsFs(), Cloner: &recordingCloner{}}

	_, stderr, code := execute(t, app, "-c", env.configPath)

	assert.Equal(t, model.ExitInvocation, code)
	assert.Contains(t, stderr, "not-installed")
	env.assertTmpEmpty(t)
}

// TestRun_CleanupFailureIsReportedOnly makes removal fail and checks that
// the run still succeeds.
func TestRun_CleanupFailureIsReportedOnly(t *testing.T) {
	env := newTestEnv(t, "git@example.com:org/repo.git", 0)
	app := &App{
		Lookuper: env.lookuper(),
		Fs:       afero.NewReadOnlyFs(afero.NewOsFs()),
		Cloner:   &recordingCloner{},
	}

	stdout, stderr, code := execute(t, app, "-c", env.configPath)

	assert.Equal(t, model.ExitSuccess, code)
	assert.Contains(t, stdout, "--list")
	assert.Contains(t, stderr, "Error: cannot remove working directory")
}

func TestRun_ConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		app := &App{Fs: afero.NewMemMapFs(), Cloner: panicCloner{t}}

		stdout, stderr, code := execute(t, app)

		assert.Equal(t, model.ExitConfigRead, code)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "cannot read configuration file "+testExe+".yaml")
		assert.Contains(t, stderr, "--generate-config")
	})

	t.Run("missing fields", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "/etc/inv.yaml", []byte("branch: main\n"), 0o600))
		app := &App{Fs: fsys, Cloner: panicCloner{t}}

		_, stderr, code := execute(t, app, "--config", "/etc/inv.yaml")

		assert.Equal(t, model.ExitConfigParse, code)
		assert.Contains(t, stderr, "'repo_ssh_address' is required")
		assert.Contains(t, stderr, "'target' is required")
	})
}

func TestRun_GenerateConfig(t *testing.T) {
	fsys := afero.NewMemMapFs()
	app := &App{Fs: fsys, Cloner: panicCloner{t}}

	stdout, stderr, code := execute(t, app, "-g")

	assert.Equal(t, model.ExitSuccess, code)
	assert.Equal(t, config.Template, stdout)
	assert.Empty(t, stderr)

	// Nothing was read or written.
	entries, err := afero.ReadDir(fsys, "/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_Help(t *testing.T) {
	app := &App{Fs: afero.NewMemMapFs(), Cloner: panicCloner{t}}

	stdout, _, code := execute(t, app, "--help")

	assert.Equal(t, model.ExitSuccess, code)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "--generate-config")
	assert.Contains(t, stdout, "ansible-playbook -i")
	assert.Contains(t, stdout, testExe+".yaml")
	assert.Contains(t, stdout, "Exit status:")
	assert.Contains(t, stdout, "6  ansible-inventory failed")
}

func TestRun_Version(t *testing.T) {
	app := &App{Fs: afero.NewMemMapFs(), Cloner: panicCloner{t}}

	stdout, _, code := execute(t, app, "--version")

	assert.Equal(t, model.ExitSuccess, code)
	assert.Contains(t, stdout, Version)
}

// TestRun_ArgumentError verifies that malformed flags print usage and stop
// before the config is read.
func TestRun_ArgumentError(t *testing.T) {
	app := &App{Fs: afero.NewMemMapFs(), Cloner: panicCloner{t}}

	stdout, stderr, code := execute(t, app, "--config=")

	assert.Equal(t, model.ExitArgument, code)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stderr, "Error: invalid key-value format, expected: --config=value")
}

// TestRun_ShortConfigEmptyValue checks that "-c=" stops the run with an
// argument error instead of reading a config file named "=".
func TestRun_ShortConfigEmptyValue(t *testing.T) {
	app := &App{Fs: afero.NewMemMapFs(), Cloner: panicCloner{t}}

	_, stderr, code := execute(t, app, "-c=", "--list")

	assert.Equal(t, model.ExitArgument, code)
	assert.Contains(t, stderr, "expected: --config=value")
	assert.NotContains(t, stderr, "cannot read configuration file")
}

func TestRun_InvalidEnvironment(t *testing.T) {
	app := &App{
		Lookuper: envconfig.MapLookuper(map[string]string{"ANSIBLE_GIT_INVENTORY_LOG_LEVEL": "loud"}),
		Fs:       afero.NewMemMapFs(),
		Cloner:   panicCloner{t},
	}

	_, stderr, code := execute(t, app)

	assert.Equal(t, model.ExitGeneralError, code)
	assert.Contains(t, stderr, "invalid environment")
}

func TestRun_VerboseLogsToStderr(t *testing.T) {
	env := newTestEnv(t, "git@example.com:org/repo.git", 0)
	app := &App{Lookuper: env.lookuper(), Fs: afero.NewOsFs(), Cloner: &recordingCloner{}}

	stdout, stderr, code := execute(t, app, "-v", "-c", env.configPath)

	require.Equal(t, model.ExitSuccess, code)
	assert.NotContains(t, stdout, "level=")
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "Removed working directory")
}
