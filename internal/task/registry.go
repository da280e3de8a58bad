// Package task defines the built-in task surface: the mapping from target
// names to the command sequences they run: env, deps, lint, format, mypy,
// test, data, and the clean-* family, with the command lines rendered
// against the loaded project file.
package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sciops-cli/sciops/internal/config"
	"github.com/sciops-cli/sciops/internal/dataset"
	"github.com/sciops-cli/sciops/internal/model"
	"github.com/sciops-cli/sciops/internal/notebook"
	"github.com/sciops-cli/sciops/internal/runner"
	"github.com/sciops-cli/sciops/internal/toolchain"
)

// Context carries everything needed to render a target's steps.
type Context struct {
	// Workspace is the directory containing sciops.jsonc.
	Workspace string

	// Project is the loaded project file.
	Project *config.Project

	// Manager is the resolved package manager (pinned in the project file
	// or auto-detected at runtime).
	Manager model.Manager

	// PythonBin is the system interpreter used to create pip venvs.
	// May be empty for conda-family managers, which bring their own.
	PythonBin string

	// Fetcher performs dataset downloads. Injectable for tests; nil means
	// a default Fetcher.
	Fetcher *dataset.Fetcher
}

// summaries holds the one-line description of every target, shown by the
// help target and `sciops tasks`.
var summaries = map[model.Target]string{
	model.TargetEnv:           "Create the project's Python environment",
	model.TargetCleanEnv:      "Delete the project's Python environment",
	model.TargetDeps:          "Install dependencies via mamba, conda, or pip (auto-detected)",
	model.TargetLint:          "Lint the source and test trees with flake8",
	model.TargetFormat:        "Sort imports with isort and format with black",
	model.TargetMypy:          "Type-check the source tree with mypy",
	model.TargetTest:          "Run pytest with coverage reporting",
	model.TargetCleanTest:     "Remove pytest and coverage artifacts",
	model.TargetData:          "Download and extract the configured datasets",
	model.TargetCleanData:     "Empty data/raw and data/processed",
	model.TargetCleanNotebook: "Strip outputs from notebook files",
	model.TargetClean:         "Run clean-test, clean-data and clean-notebook",
	model.TargetHelp:          "List all targets",
}

// Summary returns the one-line description of a target.
func Summary(t model.Target) string {
	return summaries[t]
}

// Expand flattens composite targets and removes duplicates while
// preserving first-occurrence order, so `sciops run clean clean-test`
// runs clean-test exactly once.
func Expand(targets []model.Target) []model.Target {
	var out []model.Target
	seen := make(map[model.Target]bool)

	add := func(t model.Target) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	for _, t := range targets {
		if t == model.TargetClean {
			add(model.TargetCleanTest)
			add(model.TargetCleanData)
			add(model.TargetCleanNotebook)
			continue
		}
		add(t)
	}
	return out
}

// Steps renders the step sequence for a single non-composite target.
// Composite targets (clean) and the help target are handled by the caller:
// clean via Expand, help by the CLI's task listing.
func Steps(tc *Context, t model.Target) ([]runner.Step, error) {
	p := tc.Project

	switch t {
	case model.TargetEnv:
		return []runner.Step{
			runner.Command(toolchain.EnvArgv(tc.Manager, p.Name, p.PythonVersion, p.VenvDir, tc.PythonBin)...),
		}, nil

	case model.TargetCleanEnv:
		if tc.Manager.IsCondaFamily() {
			return []runner.Step{
				runner.Command(toolchain.RemoveEnvArgv(tc.Manager, p.Name)...),
			}, nil
		}
		// A pip venv is just a directory.
		return []runner.Step{{Remove: []string{p.VenvDir}}}, nil

	case model.TargetDeps:
		var steps []runner.Step
		for _, argv := range toolchain.InstallArgv(tc.Manager, p.Name, p.VenvDir, tc.Workspace) {
			steps = append(steps, runner.Command(argv...))
		}
		return steps, nil

	case model.TargetLint:
		return []runner.Step{
			runner.Command(tc.Tool("flake8"), p.SourceDir, p.TestDir),
		}, nil

	case model.TargetFormat:
		return []runner.Step{
			runner.Command(tc.Tool("isort"), p.SourceDir, p.TestDir),
			runner.Command(tc.Tool("black"), p.SourceDir, p.TestDir),
		}, nil

	case model.TargetMypy:
		return []runner.Step{
			runner.Command(tc.Tool("mypy"), p.SourceDir),
		}, nil

	case model.TargetTest:
		return []runner.Step{
			runner.Command(tc.Tool("pytest"),
				"--cov="+p.SourceDir, "--cov-report=term-missing", p.TestDir),
		}, nil

	case model.TargetCleanTest:
		return []runner.Step{
			{Remove: []string{".pytest_cache", ".coverage*", "htmlcov", ".mypy_cache"}},
		}, nil

	case model.TargetData:
		fetcher := tc.Fetcher
		if fetcher == nil {
			fetcher = dataset.NewFetcher()
		}
		return []runner.Step{
			runner.Builtin("fetch datasets", func(ctx context.Context) error {
				return fetcher.FetchAll(ctx, tc.Workspace, p.Datasets)
			}),
		}, nil

	case model.TargetCleanData:
		return []runner.Step{
			{EmptyDirs: []string{config.RawDataDir, config.ProcessedDataDir}},
		}, nil

	case model.TargetCleanNotebook:
		dirs := make([]string, 0, len(p.NotebookDirs))
		for _, d := range p.NotebookDirs {
			dirs = append(dirs, filepath.Join(tc.Workspace, d))
		}
		return []runner.Step{
			runner.Builtin("scrub notebooks", func(context.Context) error {
				_, err := notebook.Clean(dirs)
				return err
			}),
		}, nil

	case model.TargetClean, model.TargetHelp:
		return nil, fmt.Errorf("target %s is handled by the CLI, not the registry", t)

	default:
		return nil, fmt.Errorf("no steps registered for target %q", t)
	}
}

// Tool resolves a Python tool name. For pip-managed projects the tool is
// preferred from the project venv when it exists there, which makes the
// targets work without activating the environment first. Conda-family
// setups rely on the activated environment's PATH.
func (tc *Context) Tool(name string) string {
	if tc.Manager.IsCondaFamily() {
		return name
	}

	bin, exe := "bin", name
	if runtime.GOOS == "windows" {
		bin, exe = "Scripts", name+".exe"
	}
	venvTool := filepath.Join(tc.Workspace, tc.Project.VenvDir, bin, exe)
	if _, err := os.Stat(venvTool); err == nil {
		return venvTool
	}
	return name
}
