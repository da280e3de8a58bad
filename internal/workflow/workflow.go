// Package workflow generates, validates, and locally executes the
// project's CI workflow.
//
// The workflow is a single-job YAML pipeline triggered by pushes and pull
// requests against main, with a fixed linear step sequence:
//
//	checkout → setup-python → install → lint → type-check →
//	security-scan → test-with-coverage → upload-coverage
//
// Generation serializes the canonical model with gopkg.in/yaml.v3.
// Validation re-reads a workflow file and checks the step order, so CI
// drift is caught before a push. Local execution routes the runnable
// steps through the same task registry the `run` command uses, so the
// two can never disagree about a command line.
package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sciops-cli/sciops/internal/config"
)

// DefaultPath is the workflow location inside a workspace, following the
// hosted CI runner's convention.
const DefaultPath = ".github/workflows/ci.yml"

// Step IDs used for order validation. IDs are stable identifiers; the
// human-readable step names may be edited freely without breaking Check.
const (
	StepCheckout     = "checkout"
	StepSetupPython  = "setup-python"
	StepInstall      = "install"
	StepLint         = "lint"
	StepTypeCheck    = "type-check"
	StepSecurityScan = "security-scan"
	StepTest         = "test"
	StepCoverage     = "upload-coverage"
)

// Workflow is the YAML document model for the CI pipeline.
type Workflow struct {
	Name string         `yaml:"name"`
	On   Triggers       `yaml:"on"`
	Jobs map[string]Job `yaml:"jobs"`
}

// Triggers describes the repository events that start the workflow.
type Triggers struct {
	Push        BranchFilter `yaml:"push"`
	PullRequest BranchFilter `yaml:"pull_request"`
}

// BranchFilter restricts a trigger to specific branches.
type BranchFilter struct {
	Branches []string `yaml:"branches"`
}

// Job is a single CI job with a linear step list.
type Job struct {
	RunsOn string `yaml:"runs-on"`
	Steps  []Step `yaml:"steps"`
}

// Step is one workflow step: either an action reference (Uses) or a shell
// command (Run).
type Step struct {
	ID   string            `yaml:"id,omitempty"`
	Name string            `yaml:"name"`
	Uses string            `yaml:"uses,omitempty"`
	With map[string]string `yaml:"with,omitempty"`
	Run  string            `yaml:"run,omitempty"`
	Env  map[string]string `yaml:"env,omitempty"`
}

// Generate builds the canonical workflow for a project.
//
// The install/lint/type-check/test commands intentionally match what the
// task registry runs locally, so CI and `sciops run` exercise the same
// tool invocations.
func Generate(p *config.Project) *Workflow {
	steps := []Step{
		{
			ID:   StepCheckout,
			Name: "Checkout",
			Uses: "actions/checkout@v4",
		},
		{
			ID:   StepSetupPython,
			Name: "Set up Python",
			Uses: "actions/setup-python@v5",
			With: map[string]string{"python-version": p.PythonVersion},
		},
		{
			ID:   StepInstall,
			Name: "Install dependencies",
			Run:  "python -m pip install --upgrade pip\npip install -r requirements.txt",
		},
		{
			ID:   StepLint,
			Name: "Lint",
			Run:  fmt.Sprintf("flake8 %s %s", p.SourceDir, p.TestDir),
		},
		{
			ID:   StepTypeCheck,
			Name: "Type-check",
			Run:  "mypy " + p.SourceDir,
		},
	}

	if p.CI.SecurityScanEnabled() {
		steps = append(steps, Step{
			ID:   StepSecurityScan,
			Name: "Security scan",
			Run:  "bandit -r " + p.SourceDir,
		})
	}

	steps = append(steps, Step{
		ID:   StepTest,
		Name: "Test with coverage",
		Run:  fmt.Sprintf("pytest --cov=%s --cov-report=xml %s", p.SourceDir, p.TestDir),
	})

	if p.CI.CoverageUploadEnabled() {
		steps = append(steps, Step{
			ID:   StepCoverage,
			Name: "Upload coverage",
			Uses: "codecov/codecov-action@v4",
			Env: map[string]string{
				p.CI.CoverageSecret: fmt.Sprintf("${{ secrets.%s }}", p.CI.CoverageSecret),
			},
		})
	}

	return &Workflow{
		Name: "CI",
		On: Triggers{
			Push:        BranchFilter{Branches: []string{"main"}},
			PullRequest: BranchFilter{Branches: []string{"main"}},
		},
		Jobs: map[string]Job{
			"quality": {
				RunsOn: "ubuntu-latest",
				Steps:  steps,
			},
		},
	}
}

// Marshal serializes a workflow to YAML with a generated-file header.
func Marshal(w *Workflow) ([]byte, error) {
	body, err := yaml.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workflow YAML: %w", err)
	}

	header := "# Generated by sciops. Regenerate with `sciops ci generate`.\n"
	return []byte(header + string(body)), nil
}

// Write generates the workflow for a project and writes it under the
// workspace at DefaultPath, creating parent directories as needed.
func Write(workspaceDir string, p *config.Project) (string, error) {
	data, err := Marshal(Generate(p))
	if err != nil {
		return "", err
	}

	path := filepath.Join(workspaceDir, filepath.FromSlash(DefaultPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// stepSummary renders a step list as "id → id → …" for error messages.
func stepSummary(steps []Step) string {
	ids := make([]string, 0, len(steps))
	for _, s := range steps {
		if s.ID != "" {
			ids = append(ids, s.ID)
		}
	}
	return strings.Join(ids, " -> ")
}
