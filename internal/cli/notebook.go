// notebook.go implements "sciops notebook clean", the output stripper.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sciops-cli/sciops/internal/model"
	"github.com/sciops-cli/sciops/internal/notebook"
)

// NewNotebookCommand creates the "notebook" cobra command.
func NewNotebookCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notebook",
		Short: "Notebook hygiene",
	}
	cmd.AddCommand(newNotebookCleanCommand())
	return cmd
}

func newNotebookCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [paths...]",
		Short: "Strip outputs and execution counts from notebooks",
		Long: `Rewrite .ipynb files with cell outputs cleared, execution counts reset,
and widget state removed, so notebook diffs show code changes only.

Without arguments, the project's configured notebook directories are
scanned. Explicit paths may be files or directories.`,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotebookClean(args)
		},
	}
}

func runNotebookClean(args []string) error {
	paths := args
	if len(paths) == 0 {
		workspaceDir, p, err := loadProject()
		if err != nil {
			return err
		}
		for _, dir := range p.NotebookDirs {
			paths = append(paths, filepath.Join(workspaceDir, dir))
		}
	}

	result, err := notebook.Clean(paths)
	fmt.Printf("Scanned %d notebook(s), scrubbed %d.\n", result.Scanned, result.Scrubbed)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "some notebooks could not be cleaned", err)
	}
	return nil
}
