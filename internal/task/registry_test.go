package task

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sciops-cli/sciops/internal/config"
	"github.com/sciops-cli/sciops/internal/model"
)

// testContext builds a Context for a pip-managed project in a temp
// workspace.
func testContext(t *testing.T, manager model.Manager) *Context {
	t.Helper()
	return &Context{
		Workspace: t.TempDir(),
		Project:   config.Default("churn"),
		Manager:   manager,
		PythonBin: "/usr/bin/python3",
	}
}

// TestSteps_DepsPip verifies pip dependency installation goes through the
// venv interpreter in two commands.
func TestSteps_DepsPip(t *testing.T) {
	tc := testContext(t, model.ManagerPip)

	steps, err := Steps(tc, model.TargetDeps)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.Contains(t, steps[0].Argv, "pip")
	assert.Equal(t, "-r", steps[1].Argv[len(steps[1].Argv)-2])
	assert.Equal(t, "requirements.txt", steps[1].Argv[len(steps[1].Argv)-1])
}

// TestSteps_DepsMamba verifies the conda-family single env-update form
// when the workspace carries an environment.yml.
func TestSteps_DepsMamba(t *testing.T) {
	tc := testContext(t, model.ManagerMamba)
	envFile := filepath.Join(tc.Workspace, "environment.yml")
	require.NoError(t, os.WriteFile(envFile, []byte("name: churn\n"), 0o644))

	steps, err := Steps(tc, model.TargetDeps)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "mamba", steps[0].Argv[0])
	assert.Contains(t, steps[0].Argv, "environment.yml")
}

// TestSteps_DepsMambaWithoutEnvFile verifies the requirements.txt install
// fallback when the workspace has no environment.yml.
func TestSteps_DepsMambaWithoutEnvFile(t *testing.T) {
	tc := testContext(t, model.ManagerMamba)

	steps, err := Steps(tc, model.TargetDeps)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t,
		[]string{"mamba", "install", "--yes", "--name", "churn", "--file", "requirements.txt"},
		steps[0].Argv)
}

// TestSteps_EnvAndCleanEnv verifies the env lifecycle differs per manager:
// conda environments are removed with a command, pip venvs by deleting the
// directory.
func TestSteps_EnvAndCleanEnv(t *testing.T) {
	conda := testContext(t, model.ManagerConda)
	steps, err := Steps(conda, model.TargetEnv)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, []string{"conda", "create", "--yes", "--name", "churn", "python=" + config.DefaultPythonVersion}, steps[0].Argv)

	steps, err = Steps(conda, model.TargetCleanEnv)
	require.NoError(t, err)
	assert.Equal(t, "conda", steps[0].Argv[0])

	pip := testContext(t, model.ManagerPip)
	steps, err = Steps(pip, model.TargetCleanEnv)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Empty(t, steps[0].Argv)
	assert.Equal(t, []string{config.DefaultVenvDir}, steps[0].Remove)
}

// TestSteps_QualityTargets verifies the lint/format/mypy/test command
// shapes against the default project layout.
func TestSteps_QualityTargets(t *testing.T) {
	tc := testContext(t, model.ManagerConda)

	steps, err := Steps(tc, model.TargetLint)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, []string{"flake8", "src", "tests"}, steps[0].Argv)

	steps, err = Steps(tc, model.TargetFormat)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "isort", steps[0].Argv[0])
	assert.Equal(t, "black", steps[1].Argv[0])

	steps, err = Steps(tc, model.TargetMypy)
	require.NoError(t, err)
	assert.Equal(t, []string{"mypy", "src"}, steps[0].Argv)

	steps, err = Steps(tc, model.TargetTest)
	require.NoError(t, err)
	assert.Equal(t, []string{"pytest", "--cov=src", "--cov-report=term-missing", "tests"}, steps[0].Argv)
}

// TestTool_PrefersVenvBinary verifies pip-managed projects pick the tool
// from the venv when it exists there.
func TestTool_PrefersVenvBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("venv layout test is POSIX-specific")
	}

	tc := testContext(t, model.ManagerPip)
	venvBin := filepath.Join(tc.Workspace, config.DefaultVenvDir, "bin")
	require.NoError(t, os.MkdirAll(venvBin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(venvBin, "flake8"), []byte("#!/bin/sh\n"), 0o755))

	steps, err := Steps(tc, model.TargetLint)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(venvBin, "flake8"), steps[0].Argv[0])

	// mypy is not in the venv, so the bare name is used.
	steps, err = Steps(tc, model.TargetMypy)
	require.NoError(t, err)
	assert.Equal(t, "mypy", steps[0].Argv[0])
}

// TestSteps_CleanTargets verifies the filesystem-step shapes.
func TestSteps_CleanTargets(t *testing.T) {
	tc := testContext(t, model.ManagerPip)

	steps, err := Steps(tc, model.TargetCleanTest)
	require.NoError(t, err)
	assert.Contains(t, steps[0].Remove, ".pytest_cache")
	assert.Contains(t, steps[0].Remove, ".coverage*")

	steps, err = Steps(tc, model.TargetCleanData)
	require.NoError(t, err)
	assert.Equal(t, []string{config.RawDataDir, config.ProcessedDataDir}, steps[0].EmptyDirs)
}

// TestSteps_BuiltinTargets verifies data and clean-notebook are builtins.
func TestSteps_BuiltinTargets(t *testing.T) {
	tc := testContext(t, model.ManagerPip)

	for _, target := range []model.Target{model.TargetData, model.TargetCleanNotebook} {
		steps, err := Steps(tc, target)
		require.NoError(t, err, "target %s", target)
		require.Len(t, steps, 1)
		assert.NotNil(t, steps[0].Do, "target %s should be a builtin", target)
	}
}

// TestSteps_CLIHandledTargets verifies clean and help are rejected by the
// registry; the CLI expands or renders them.
func TestSteps_CLIHandledTargets(t *testing.T) {
	tc := testContext(t, model.ManagerPip)

	for _, target := range []model.Target{model.TargetClean, model.TargetHelp} {
		_, err := Steps(tc, target)
		assert.Error(t, err, "target %s", target)
	}
}

// TestExpand verifies composite flattening and order-preserving dedupe.
func TestExpand(t *testing.T) {
	got := Expand([]model.Target{model.TargetClean, model.TargetCleanTest, model.TargetLint})
	assert.Equal(t, []model.Target{
		model.TargetCleanTest,
		model.TargetCleanData,
		model.TargetCleanNotebook,
		model.TargetLint,
	}, got)
}

// TestSummary_CoversAllTargets verifies every target has help text.
func TestSummary_CoversAllTargets(t *testing.T) {
	for _, target := range model.AllTargets() {
		assert.NotEmpty(t, Summary(target), "target %s has no summary", target)
	}
}
