// commands.go builds the manager-specific command lines for the env and
// deps targets. Execution and error handling live in the runner package;
// the invoked tool's exit status is the only failure signal.
package toolchain

import (
	"os"
	"path/filepath"

	"github.com/sciops-cli/sciops/internal/model"
)

// EnvArgv returns the command that creates the project's Python environment.
//
//   - conda family: `<mgr> create --yes --name <project> python=<version>`
//   - pip: `<python> -m venv <venvDir>` using the system interpreter
//
// The pythonBin parameter is only used for the pip form; conda-family
// managers bring their own interpreter.
func EnvArgv(m model.Manager, projectName, pythonVersion, venvDir, pythonBin string) []string {
	if m.IsCondaFamily() {
		return []string{m.String(), "create", "--yes", "--name", projectName, "python=" + pythonVersion}
	}
	return []string{pythonBin, "-m", "venv", venvDir}
}

// RemoveEnvArgv returns the command that deletes a conda-family environment.
// For pip there is no command: the venv directory is removed directly by a
// filesystem step, so callers must check IsCondaFamily first.
func RemoveEnvArgv(m model.Manager, projectName string) []string {
	return []string{m.String(), "env", "remove", "--yes", "--name", projectName}
}

// InstallArgv returns the ordered commands that install project
// dependencies with the selected manager.
//
//   - conda family with an environment.yml in the workspace: a single
//     `env update` with --prune, which both creates a missing environment
//     and removes packages dropped from the file.
//   - conda family without one: `install --file requirements.txt`, so a
//     pip-manifest-only workspace still installs when conda happens to be
//     the detected manager.
//   - pip: upgrade pip inside the venv, then install requirements.txt.
//     Both commands go through the venv interpreter so the system Python
//     is never written to.
func InstallArgv(m model.Manager, projectName, venvDir, workspaceDir string) [][]string {
	if m.IsCondaFamily() {
		if _, err := os.Stat(filepath.Join(workspaceDir, "environment.yml")); err == nil {
			return [][]string{
				{m.String(), "env", "update", "--name", projectName, "--file", "environment.yml", "--prune"},
			}
		}
		return [][]string{
			{m.String(), "install", "--yes", "--name", projectName, "--file", "requirements.txt"},
		}
	}

	python := VenvPython(venvDir)
	return [][]string{
		{python, "-m", "pip", "install", "--upgrade", "pip"},
		{python, "-m", "pip", "install", "-r", "requirements.txt"},
	}
}
