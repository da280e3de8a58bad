package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Manager identifies a Python package manager that sciops can dispatch
// dependency installation to. Selection happens at runtime by probing the
// PATH in priority order: mamba first (fastest conda-compatible solver),
// then conda, then plain pip as the always-available fallback.
type Manager string

const (
	// ManagerMamba is the mamba/micromamba solver. It is conda-compatible
	// and significantly faster, so it wins whenever it is installed.
	ManagerMamba Manager = "mamba"

	// ManagerConda is the standard conda executable.
	ManagerConda Manager = "conda"

	// ManagerPip is the plain package-index installer, invoked through the
	// project virtual environment's interpreter (`python -m pip`).
	// It is the fallback when no conda-compatible tool is present.
	ManagerPip Manager = "pip"
)

// String returns the string representation of the Manager.
// Satisfies fmt.Stringer for CLI and log output.
func (m Manager) String() string {
	return string(m)
}

// IsValid checks whether the Manager value is one of the known managers.
func (m Manager) IsValid() bool {
	switch m {
	case ManagerMamba, ManagerConda, ManagerPip:
		return true
	default:
		return false
	}
}

// IsCondaFamily reports whether the manager operates on conda environments
// (environment.yml) rather than pip virtual environments (requirements.txt).
// This drives branching in the env and deps targets.
func (m Manager) IsCondaFamily() bool {
	return m == ManagerMamba || m == ManagerConda
}

// ParseManager converts a string to a Manager.
// Returns an error if the string does not match any known manager.
// Used when the project file pins a manager instead of auto-detecting.
func ParseManager(s string) (Manager, error) {
	m := Manager(strings.ToLower(s))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid package manager: %q (valid: mamba, conda, pip)", s)
	}
	return m, nil
}

// Target is a named task in the project's task surface. Each target maps
// to a fixed command sequence rendered against the loaded project file.
// The set of targets covers the day-to-day surface of a data-science
// project: environment, dependencies, quality checks, tests, data, and
// the clean family.
type Target string

const (
	// TargetEnv creates the project's Python environment (venv or conda env).
	TargetEnv Target = "env"

	// TargetCleanEnv deletes the project's Python environment.
	TargetCleanEnv Target = "clean-env"

	// TargetDeps installs dependencies via the auto-selected package manager.
	TargetDeps Target = "deps"

	// TargetLint runs the linter over the source and test trees.
	TargetLint Target = "lint"

	// TargetFormat applies import sorting and code formatting.
	TargetFormat Target = "format"

	// TargetMypy type-checks the source tree.
	TargetMypy Target = "mypy"

	// TargetTest runs the test suite with coverage reporting.
	TargetTest Target = "test"

	// TargetCleanTest removes test and coverage artifacts.
	TargetCleanTest Target = "clean-test"

	// TargetData downloads and extracts the configured datasets.
	TargetData Target = "data"

	// TargetCleanData empties the raw and processed data directories.
	TargetCleanData Target = "clean-data"

	// TargetCleanNotebook strips outputs from notebook files.
	TargetCleanNotebook Target = "clean-notebook"

	// TargetClean is a composite of clean-test, clean-data and clean-notebook.
	TargetClean Target = "clean"

	// TargetHelp enumerates all targets with their summaries.
	TargetHelp Target = "help"
)

// AllTargets lists every target in display order. The order matters for
// `sciops tasks` output and for deterministic composite expansion.
func AllTargets() []Target {
	return []Target{
		TargetEnv,
		TargetCleanEnv,
		TargetDeps,
		TargetLint,
		TargetFormat,
		TargetMypy,
		TargetTest,
		TargetCleanTest,
		TargetData,
		TargetCleanData,
		TargetCleanNotebook,
		TargetClean,
		TargetHelp,
	}
}

// String returns the string representation of the Target.
func (t Target) String() string {
	return string(t)
}

// IsValid checks whether the Target value names a known task.
func (t Target) IsValid() bool {
	for _, known := range AllTargets() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTarget converts a string to a Target. The error message lists all
// valid names so a typo on the command line is immediately self-correcting.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(s))
	if !t.IsValid() {
		names := make([]string, 0, len(AllTargets()))
		for _, known := range AllTargets() {
			names = append(names, known.String())
		}
		return "", fmt.Errorf("unknown target %q (valid: %s)", s, strings.Join(names, ", "))
	}
	return t, nil
}

// projectNameRegex validates project names: lowercase alphanumeric with
// hyphens or underscores, starting with a letter. The name doubles as the
// scaffolded directory name and as the lab container name, so it must be
// valid for both filesystems and Docker.
var projectNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateProjectName checks if the given name is usable as a sciops
// project name.
func ValidateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name must not be empty")
	}
	if !projectNameRegex.MatchString(name) {
		return fmt.Errorf("invalid project name %q: must start with a lowercase letter and contain only lowercase letters, digits, hyphens and underscores", name)
	}
	return nil
}

// ExitCode defines the CLI exit codes. These codes let scripts and CI
// systems programmatically distinguish failure classes.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitProjectNotFound indicates sciops.jsonc was not found or is invalid.
	ExitProjectNotFound ExitCode = 2

	// ExitToolNotFound indicates a required external tool is missing from
	// the PATH (e.g. no Python interpreter at all).
	ExitToolNotFound ExitCode = 3

	// ExitTaskFailed indicates an invoked external tool exited non-zero.
	// There is no retry or recovery: the tool's exit status is the result.
	ExitTaskFailed ExitCode = 4

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 5

	// ExitDatasetError indicates a dataset download or extraction failed.
	ExitDatasetError ExitCode = 6

	// ExitWorkflowInvalid indicates the CI workflow file failed validation.
	ExitWorkflowInvalid ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
