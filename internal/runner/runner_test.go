package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sciops-cli/sciops/internal/model"
)

// newTestRunner builds a Runner rooted at a temp dir with captured output.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	r := New(t.TempDir())
	r.Stdout = &stdout
	r.Stderr = &stderr
	return r, &stdout, &stderr
}

func skipWithoutSh(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-based runner tests require a POSIX sh")
	}
}

// TestRun_CommandSuccess verifies a command executes in the workspace
// directory and its stdout is streamed through.
func TestRun_CommandSuccess(t *testing.T) {
	skipWithoutSh(t)
	r, stdout, _ := newTestRunner(t)

	err := r.Run(context.Background(), []Step{
		Command("sh", "-c", "pwd && echo ran"),
	})
	require.NoError(t, err)

	// Resolve symlinks: on macOS the temp dir lives behind /var → /private/var.
	wantDir, werr := filepath.EvalSymlinks(r.Dir)
	require.NoError(t, werr)
	assert.Contains(t, stdout.String(), filepath.Base(wantDir))
	assert.Contains(t, stdout.String(), "ran")
}

// TestRun_CommandInheritsEnvironment verifies external commands see the
// process environment, so PATH-resolved tools and activated conda
// environments work unchanged.
func TestRun_CommandInheritsEnvironment(t *testing.T) {
	skipWithoutSh(t)
	t.Setenv("SCIOPS_TEST_MARKER", "inherited")
	r, stdout, _ := newTestRunner(t)

	err := r.Run(context.Background(), []Step{
		Command("sh", "-c", "echo $SCIOPS_TEST_MARKER"),
	})
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "inherited")
}

// TestRun_FailFast verifies the sequence stops at the first non-zero exit
// and the failure carries the task-failed exit code.
func TestRun_FailFast(t *testing.T) {
	skipWithoutSh(t)
	r, stdout, _ := newTestRunner(t)

	err := r.Run(context.Background(), []Step{
		Command("sh", "-c", "echo first"),
		Command("sh", "-c", "exit 3"),
		Command("sh", "-c", "echo never"),
	})
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitTaskFailed, cliErr.Code)

	assert.Contains(t, stdout.String(), "first")
	assert.NotContains(t, stdout.String(), "never", "steps after a failure must not run")
}

// TestRun_MissingBinary verifies a binary that cannot start is reported as
// a missing tool rather than a task failure.
func TestRun_MissingBinary(t *testing.T) {
	r, _, _ := newTestRunner(t)

	err := r.Run(context.Background(), []Step{
		Command("sciops-definitely-not-installed"),
	})
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitToolNotFound, cliErr.Code)
}

// TestRun_DryRun verifies dry-run echoes without executing.
func TestRun_DryRun(t *testing.T) {
	r, _, stderr := newTestRunner(t)
	r.DryRun = true

	marker := filepath.Join(r.Dir, "marker")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o644))

	err := r.Run(context.Background(), []Step{
		{Remove: []string{"marker"}},
		Command("sciops-definitely-not-installed"),
	})
	require.NoError(t, err)

	assert.FileExists(t, marker, "dry-run must not delete anything")
	assert.Contains(t, stderr.String(), "remove marker")
	assert.Contains(t, stderr.String(), "$ sciops-definitely-not-installed")
}

// TestRun_Builtin verifies builtin steps receive the context and report
// their title in the trace.
func TestRun_Builtin(t *testing.T) {
	r, _, stderr := newTestRunner(t)

	ran := false
	err := r.Run(context.Background(), []Step{
		Builtin("fetch datasets", func(ctx context.Context) error {
			ran = true
			return ctx.Err()
		}),
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Contains(t, stderr.String(), "fetch datasets")
}

// TestRun_RemoveGlobs verifies glob expansion and that unmatched patterns
// are a silent no-op, matching rm -rf semantics.
func TestRun_RemoveGlobs(t *testing.T) {
	r, _, _ := newTestRunner(t)

	require.NoError(t, os.MkdirAll(filepath.Join(r.Dir, ".pytest_cache", "v"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, ".coverage"), []byte("d"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, ".coverage.worker1"), []byte("d"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir, "keep.txt"), []byte("k"), 0o644))

	err := r.Run(context.Background(), []Step{
		{Remove: []string{".pytest_cache", ".coverage*", "htmlcov"}},
	})
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(r.Dir, ".pytest_cache"))
	assert.NoFileExists(t, filepath.Join(r.Dir, ".coverage"))
	assert.NoFileExists(t, filepath.Join(r.Dir, ".coverage.worker1"))
	assert.FileExists(t, filepath.Join(r.Dir, "keep.txt"))
}

// TestRun_EmptyDirs verifies directory contents are cleared while the
// directory and its .gitkeep marker survive.
func TestRun_EmptyDirs(t *testing.T) {
	r, _, _ := newTestRunner(t)

	raw := filepath.Join(r.Dir, "data", "raw")
	require.NoError(t, os.MkdirAll(filepath.Join(raw, "telco"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(raw, ".gitkeep"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(raw, "telco", "telco.csv"), []byte("a,b"), 0o644))

	err := r.Run(context.Background(), []Step{
		{EmptyDirs: []string{"data/raw", "data/processed"}},
	})
	require.NoError(t, err)

	assert.DirExists(t, raw)
	assert.FileExists(t, filepath.Join(raw, ".gitkeep"))
	assert.NoDirExists(t, filepath.Join(raw, "telco"))
}
