// ci.go implements "sciops ci generate", "sciops ci check", and
// "sciops ci run".
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sciops-cli/sciops/internal/runner"
	"github.com/sciops-cli/sciops/internal/workflow"
)

// NewCICommand creates the "ci" cobra command with its generate, check,
// and run subcommands.
func NewCICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ci",
		Short: "Manage the project's CI workflow",
		Long: `Generate, validate, and locally execute the CI workflow.

The workflow is a single job running checkout, Python setup, dependency
installation, lint, type-check, security scan, tests with coverage, and
coverage upload. Check validates that an edited workflow still follows
that step order and keeps the coverage token in the secrets context.`,
	}

	cmd.AddCommand(newCIGenerateCommand())
	cmd.AddCommand(newCICheckCommand())
	cmd.AddCommand(newCIRunCommand())
	return cmd
}

func newCIGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Write the CI workflow file",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			workspaceDir, p, err := loadProject()
			if err != nil {
				return err
			}
			path, err := workflow.Write(workspaceDir, p)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}

func newCICheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the CI workflow file",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			workspaceDir, _, err := loadProject()
			if err != nil {
				return err
			}
			path := filepath.Join(workspaceDir, filepath.FromSlash(workflow.DefaultPath))
			if err := workflow.CheckFile(path); err != nil {
				return err
			}
			fmt.Printf("%s is valid.\n", path)
			return nil
		},
	}
}

func newCIRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the CI steps locally",
		Long: `Execute the workflow's runnable steps on this machine, in CI order:
install, lint, type-check, security scan, tests. Host-only steps
(checkout, Python setup, coverage upload) are skipped. Execution stops
at the first failure, like CI would.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runCIRun(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print commands without executing them")

	return cmd
}

func runCIRun(ctx context.Context, flags *runFlags) error {
	tc, err := newTaskContext()
	if err != nil {
		return err
	}

	steps, err := workflow.LocalSteps(tc)
	if err != nil {
		return err
	}

	r := runner.New(tc.Workspace)
	r.DryRun = flags.dryRun
	return r.Run(ctx, steps)
}
