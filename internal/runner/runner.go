// Package runner executes task step sequences.
//
// A step is either an external command, a builtin Go operation, or a
// filesystem cleanup. Steps run strictly in order and fail fast: the first
// non-zero exit stops the sequence and becomes the command's result. There
// are no retries and no partial-failure recovery anywhere; the invoked
// tool's exit status is the only failure signal.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/sciops-cli/sciops/internal/model"
)

// Step is one unit of work inside a task target. Exactly one of Argv, Do,
// Remove, or EmptyDirs should be populated.
type Step struct {
	// Argv is an external command to execute ([0] is the binary).
	// Commands inherit the process environment; per-environment tool
	// selection happens through the argv itself (venv-resolved paths).
	Argv []string

	// Do is a builtin operation implemented in Go (dataset fetch,
	// notebook scrub). It receives the run context and must honor
	// cancellation.
	Do func(ctx context.Context) error

	// Title names a builtin step in echo output, where there is no argv
	// to print.
	Title string

	// Remove lists workspace-relative paths to delete recursively.
	// Entries may contain glob patterns (e.g. ".coverage*").
	Remove []string

	// EmptyDirs lists workspace-relative directories whose contents are
	// deleted while the directory itself and any .gitkeep marker survive.
	EmptyDirs []string
}

// Command builds an external-command step.
func Command(argv ...string) Step {
	return Step{Argv: argv}
}

// Builtin builds a Go-implemented step with a display title.
func Builtin(title string, do func(ctx context.Context) error) Step {
	return Step{Title: title, Do: do}
}

// Runner executes step sequences inside a workspace directory.
type Runner struct {
	// Dir is the workspace root. External commands run with it as their
	// working directory, and all relative paths resolve against it.
	Dir string

	// Stdout and Stderr receive the streamed output of external commands.
	// Default: the process's own stdout/stderr.
	Stdout, Stderr io.Writer

	// DryRun prints each step without executing anything.
	DryRun bool

	// echo renders the command trace line. Faint so the trace reads as
	// scaffolding around the tool's own output.
	echo *color.Color
}

// New creates a Runner rooted at the given workspace directory.
func New(dir string) *Runner {
	return &Runner{
		Dir:    dir,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		echo:   color.New(color.Faint),
	}
}

// Run executes the steps in order, stopping at the first failure.
//
// External command failures are wrapped in a CLIError with ExitTaskFailed
// so main exits with the task-failure code; the tool's own stderr has
// already been streamed to the user by then.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		if err := r.runStep(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, step Step) error {
	switch {
	case len(step.Argv) > 0:
		return r.runCommand(ctx, step)
	case step.Do != nil:
		return r.runBuiltin(ctx, step)
	case len(step.Remove) > 0:
		return r.runRemove(step)
	case len(step.EmptyDirs) > 0:
		return r.runEmptyDirs(step)
	default:
		return fmt.Errorf("empty step")
	}
}

// runCommand executes one external command with output streamed through.
func (r *Runner) runCommand(ctx context.Context, step Step) error {
	r.printEcho("$ " + strings.Join(step.Argv, " "))
	if r.DryRun {
		return nil
	}

	// #nosec G204: argv comes from the builtin task registry, not from
	// user input.
	cmd := exec.CommandContext(ctx, step.Argv[0], step.Argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return model.WrapCLIError(
				model.ExitTaskFailed,
				fmt.Sprintf("command failed: %s", strings.Join(step.Argv, " ")),
				err,
			)
		}
		// Startup failures (binary missing, permission denied) are a
		// different class: the tool never ran.
		return model.WrapCLIError(
			model.ExitToolNotFound,
			fmt.Sprintf("cannot run %s", step.Argv[0]),
			err,
		)
	}
	return nil
}

func (r *Runner) runBuiltin(ctx context.Context, step Step) error {
	r.printEcho("* " + step.Title)
	if r.DryRun {
		return nil
	}
	return step.Do(ctx)
}

// runRemove deletes each listed path recursively. Glob patterns expand
// against the workspace root; patterns that match nothing are a no-op,
// same as `rm -rf`.
func (r *Runner) runRemove(step Step) error {
	r.printEcho("* remove " + strings.Join(step.Remove, " "))
	if r.DryRun {
		return nil
	}

	for _, pattern := range step.Remove {
		matches, err := filepath.Glob(filepath.Join(r.Dir, pattern))
		if err != nil {
			return fmt.Errorf("bad removal pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			if err := os.RemoveAll(match); err != nil {
				return fmt.Errorf("failed to remove %s: %w", match, err)
			}
		}
	}
	return nil
}

// runEmptyDirs clears directory contents while keeping the directory and
// its .gitkeep marker, so the scaffolded data layout survives clean-data.
func (r *Runner) runEmptyDirs(step Step) error {
	r.printEcho("* empty " + strings.Join(step.EmptyDirs, " "))
	if r.DryRun {
		return nil
	}

	for _, dir := range step.EmptyDirs {
		full := filepath.Join(r.Dir, dir)
		entries, err := os.ReadDir(full)
		if err != nil {
			if os.IsNotExist(err) {
				// Nothing to clean; the directory was never created.
				continue
			}
			return fmt.Errorf("failed to read %s: %w", full, err)
		}
		for _, entry := range entries {
			if entry.Name() == ".gitkeep" {
				continue
			}
			if err := os.RemoveAll(filepath.Join(full, entry.Name())); err != nil {
				return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
			}
		}
	}
	return nil
}

func (r *Runner) printEcho(line string) {
	if r.Stderr == nil {
		return
	}
	_, _ = r.echo.Fprintln(r.Stderr, line)
}
