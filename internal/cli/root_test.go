package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sciops-cli/sciops/internal/config"
	"github.com/sciops-cli/sciops/internal/model"
)

// execute runs the root command with the given arguments.
func execute(args ...string) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

// TestRootCommand_RegistersSubcommands verifies every top-level command
// is reachable.
func TestRootCommand_RegistersSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{
		"new", "run", "tasks", "deps", "data", "notebook", "ci", "lab", "doctor",
	} {
		assert.Contains(t, names, want)
	}
}

// TestNewCommand_ScaffoldsProject verifies `sciops new` end to end
// through the cobra surface.
func TestNewCommand_ScaffoldsProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "churn-model")

	require.NoError(t, execute("new", "churn-model", "--dir", dir))

	assert.FileExists(t, filepath.Join(dir, config.FileName))
	assert.FileExists(t, filepath.Join(dir, ".github", "workflows", "ci.yml"))
}

// TestNewCommand_RejectsBadName verifies name validation surfaces as a
// command error.
func TestNewCommand_RejectsBadName(t *testing.T) {
	err := execute("new", "Bad Name", "--dir", t.TempDir())
	require.Error(t, err)
}

// TestRunCommand_CleanWorksWithoutToolchain verifies the filesystem-only
// clean targets run on a machine with no package manager or interpreter:
// with an emptied PATH, `run clean` must still succeed.
func TestRunCommand_CleanWorksWithoutToolchain(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "churn-model")
	require.NoError(t, execute("new", "churn-model", "--dir", dir))

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	t.Setenv("PATH", "")

	require.NoError(t, execute("run", "clean"))
}

// TestNeedsToolchain verifies only the filesystem-only clean targets skip
// manager detection.
func TestNeedsToolchain(t *testing.T) {
	assert.False(t, needsToolchain([]model.Target{
		model.TargetCleanTest, model.TargetCleanData, model.TargetCleanNotebook,
	}))
	assert.True(t, needsToolchain([]model.Target{model.TargetCleanTest, model.TargetLint}))
	assert.True(t, needsToolchain([]model.Target{model.TargetCleanEnv}))
}

// TestRunCommand_UnknownTarget verifies an unknown target fails before
// any project lookup, with the valid names in the message.
func TestRunCommand_UnknownTarget(t *testing.T) {
	err := execute("run", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lint")
}

// TestRunCommand_HelpTargetRedirects verifies the help target points at
// `sciops tasks` instead of running.
func TestRunCommand_HelpTargetRedirects(t *testing.T) {
	err := execute("run", "help")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tasks")
}
