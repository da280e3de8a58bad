package toolchain

import (
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sciops-cli/sciops/internal/model"
)

// versionTimeout bounds each `<tool> --version` probe during Probe.
// Version output is cosmetic, so a slow tool must not hang `sciops doctor`.
const versionTimeout = 5 * time.Second

// Detector resolves which external tools are present on the machine.
//
// Both lookup functions are injectable so tests can simulate machines with
// arbitrary tool combinations without touching the real PATH.
type Detector struct {
	// LookPath resolves an executable name to an absolute path.
	// Defaults to exec.LookPath.
	LookPath func(name string) (string, error)

	// RunVersion runs `<path> --version` and returns its combined output.
	// Defaults to a real execution with a short timeout.
	RunVersion func(ctx context.Context, path string) (string, error)
}

// NewDetector creates a Detector backed by the real PATH.
func NewDetector() *Detector {
	return &Detector{
		LookPath:   exec.LookPath,
		RunVersion: runVersion,
	}
}

// DetectManager selects the dependency installer in priority order:
//
//  1. mamba: conda-compatible, fastest solver, wins when installed
//  2. conda: standard conda-compatible tool
//  3. pip:   always-available fallback (requires a Python interpreter)
//
// The selection is a pure presence check: whichever executable resolves
// first on the search path is used. There is no capability probing beyond
// existence, and no recovery if the chosen tool later fails.
//
// Returns a CLIError with ExitToolNotFound when not even a Python
// interpreter is available for the pip fallback.
func (d *Detector) DetectManager() (model.Manager, error) {
	if _, err := d.LookPath("mamba"); err == nil {
		return model.ManagerMamba, nil
	}
	if _, err := d.LookPath("conda"); err == nil {
		return model.ManagerConda, nil
	}

	// pip is invoked as `python -m pip`, so the fallback requires an
	// interpreter rather than a pip executable.
	if _, err := d.PythonBinary(); err != nil {
		return "", model.WrapCLIError(
			model.ExitToolNotFound,
			"no package manager found: install mamba, conda, or a Python interpreter",
			err,
		)
	}
	return model.ManagerPip, nil
}

// PythonBinary returns the system Python interpreter, preferring `python3`
// over `python` (on many distributions only one of the two exists).
func (d *Detector) PythonBinary() (string, error) {
	if path, err := d.LookPath("python3"); err == nil {
		return path, nil
	}
	return d.LookPath("python")
}

// VenvPython returns the interpreter inside the project's virtual
// environment. The layout differs per platform: POSIX venvs place binaries
// under bin/, Windows venvs under Scripts/.
func VenvPython(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts", "python.exe")
	}
	return filepath.Join(venvDir, "bin", "python")
}

// Tool is one entry in a doctor report.
type Tool struct {
	// Name is the executable name probed on the PATH.
	Name string `json:"name"`

	// Path is the resolved absolute path. Empty when not found.
	Path string `json:"path,omitempty"`

	// Version is the first line of `<tool> --version` output.
	// Empty when the tool is missing or the probe failed.
	Version string `json:"version,omitempty"`

	// Found reports whether the tool resolved on the PATH.
	Found bool `json:"found"`
}

// Report summarizes the detected toolchain for `sciops doctor`.
type Report struct {
	// Manager is the package manager DetectManager would select.
	// Empty when no manager is available at all.
	Manager model.Manager `json:"manager,omitempty"`

	// Tools lists every probed executable in display order.
	Tools []Tool `json:"tools"`
}

// probedTools is the fixed set of executables doctor reports on.
// git is included because the scaffold produces a git-ready layout, and
// docker because the lab subcommand needs a daemon.
var probedTools = []string{"python3", "mamba", "conda", "git", "docker"}

// Probe inspects the PATH for every tool sciops may invoke and returns a
// report. Missing tools are reported, not treated as errors: it is the
// individual commands that fail when the tool they need is absent.
func (d *Detector) Probe(ctx context.Context) Report {
	report := Report{}

	if manager, err := d.DetectManager(); err == nil {
		report.Manager = manager
	}

	for _, name := range probedTools {
		tool := Tool{Name: name}
		if path, err := d.LookPath(name); err == nil {
			tool.Found = true
			tool.Path = path
			if out, verr := d.RunVersion(ctx, path); verr == nil {
				tool.Version = firstLine(out)
			}
		}
		report.Tools = append(report.Tools, tool)
	}

	return report
}

// runVersion executes `<path> --version` with a bounded timeout and returns
// the combined output. Some tools (notably python2-era interpreters) print
// the version to stderr, hence CombinedOutput.
func runVersion(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// firstLine trims a probe output down to its first non-empty line.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
