// run.go implements "sciops run", the task executor.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/sciops-cli/sciops/internal/model"
	"github.com/sciops-cli/sciops/internal/runner"
	"github.com/sciops-cli/sciops/internal/task"
)

type runFlags struct {
	dryRun bool
}

// NewRunCommand creates the "run" cobra command.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <target>...",
		Short: "Run one or more task targets",
		Long: `Execute task targets in order, stopping at the first failure.

Targets run sequentially with the workspace as the working directory and
output streamed to the console. The composite "clean" target expands to
clean-test, clean-data, and clean-notebook.

Run ` + "`sciops tasks`" + ` for the full target list.

Examples:
  sciops run lint
  sciops run format lint mypy test
  sciops run clean --dry-run`,

		Args: cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print commands without executing them")

	return cmd
}

func runRun(ctx context.Context, args []string, flags *runFlags) error {
	targets := make([]model.Target, 0, len(args))
	for _, arg := range args {
		t, err := model.ParseTarget(arg)
		if err != nil {
			return err
		}
		if t == model.TargetHelp {
			return errors.New("the help target is `sciops tasks`")
		}
		targets = append(targets, t)
	}

	expanded := task.Expand(targets)

	// Clean-only invocations touch nothing but the filesystem, so they
	// must work on a machine with no Python toolchain at all.
	var tc *task.Context
	var err error
	if needsToolchain(expanded) {
		tc, err = newTaskContext()
	} else {
		tc, err = newCleanContext()
	}
	if err != nil {
		return err
	}

	r := runner.New(tc.Workspace)
	r.DryRun = flags.dryRun

	for _, t := range expanded {
		VerboseLog("target %s", t)
		steps, err := task.Steps(tc, t)
		if err != nil {
			return err
		}
		if err := r.Run(ctx, steps); err != nil {
			// The runner already classified the failure (task failure,
			// missing tool); annotate with the target name only.
			var cliErr *model.CLIError
			if errors.As(err, &cliErr) {
				return model.WrapCLIError(cliErr.Code, "target "+t.String()+": "+cliErr.Message, cliErr.Err)
			}
			return model.WrapCLIError(model.ExitTaskFailed, "target "+t.String()+" failed", err)
		}
	}
	return nil
}

// needsToolchain reports whether any target in the expanded list invokes
// a package manager or Python tool. The filesystem-only clean targets do
// not; clean-env does, because conda environments are removed with a
// manager command.
func needsToolchain(targets []model.Target) bool {
	for _, t := range targets {
		switch t {
		case model.TargetCleanTest, model.TargetCleanData, model.TargetCleanNotebook:
		default:
			return true
		}
	}
	return false
}
