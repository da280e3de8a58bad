// data.go implements "sciops data fetch" and "sciops data clean".
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sciops-cli/sciops/internal/dataset"
	"github.com/sciops-cli/sciops/internal/model"
	"github.com/sciops-cli/sciops/internal/runner"
	"github.com/sciops-cli/sciops/internal/task"
)

// NewDataCommand creates the "data" cobra command with its fetch and
// clean subcommands.
func NewDataCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage the project's datasets",
		Long: `Download or remove the datasets configured in sciops.jsonc.

Fetch skips datasets whose files are all already present, verifies
archive integrity before extraction, and extracts only the declared
member files into data/raw (or the dataset's configured target).`,
	}

	cmd.AddCommand(newDataFetchCommand())
	cmd.AddCommand(newDataCleanCommand())
	return cmd
}

func newDataFetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download and extract the configured datasets",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDataFetch(cmd.Context())
		},
	}
}

func newDataCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Empty data/raw and data/processed",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDataClean(cmd.Context())
		},
	}
}

func runDataFetch(ctx context.Context) error {
	workspaceDir, p, err := loadProject()
	if err != nil {
		return err
	}
	if len(p.Datasets) == 0 {
		fmt.Println("No datasets configured.")
		return nil
	}

	VerboseLog("fetching %d dataset(s)", len(p.Datasets))
	return dataset.NewFetcher().FetchAll(ctx, workspaceDir, p.Datasets)
}

func runDataClean(ctx context.Context) error {
	tc, err := newCleanContext()
	if err != nil {
		return err
	}
	steps, err := task.Steps(tc, model.TargetCleanData)
	if err != nil {
		return err
	}
	return runner.New(tc.Workspace).Run(ctx, steps)
}

// newCleanContext builds a task context without resolving a package
// manager. Clean targets only touch the filesystem, so a missing
// toolchain must not block them.
func newCleanContext() (*task.Context, error) {
	workspaceDir, p, err := loadProject()
	if err != nil {
		return nil, err
	}
	return &task.Context{Workspace: workspaceDir, Project: p}, nil
}
