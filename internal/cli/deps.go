// deps.go implements "sciops deps", a shorthand for `sciops run deps`.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sciops-cli/sciops/internal/model"
	"github.com/sciops-cli/sciops/internal/runner"
	"github.com/sciops-cli/sciops/internal/task"
)

// NewDepsCommand creates the "deps" cobra command.
func NewDepsCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Install project dependencies",
		Long: `Install the project's dependencies using the best available package
manager. mamba wins when installed, then conda, then pip inside the
project venv. Pin a manager in sciops.jsonc to override the detection.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print commands without executing them")

	return cmd
}

func runDeps(ctx context.Context, flags *runFlags) error {
	tc, err := newTaskContext()
	if err != nil {
		return err
	}
	VerboseLog("installing with %s", tc.Manager)

	steps, err := task.Steps(tc, model.TargetDeps)
	if err != nil {
		return err
	}

	r := runner.New(tc.Workspace)
	r.DryRun = flags.dryRun
	return r.Run(ctx, steps)
}
