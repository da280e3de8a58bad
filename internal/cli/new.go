// new.go implements "sciops new", the project scaffolder.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sciops-cli/sciops/internal/scaffold"
)

type newFlags struct {
	description string
	dir         string
	force       bool
}

// NewNewCommand creates the "new" cobra command.
func NewNewCommand() *cobra.Command {
	flags := &newFlags{}

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Scaffold a new data-science project",
		Long: `Create a new project workspace with the standard layout: Python source
packages under src/, a pytest tree, notebook and docs directories, the
raw/processed data split, dependency manifests, a sciops.jsonc project
file, and a generated CI workflow.

The project name must start with a lowercase letter and contain only
lowercase letters, digits, hyphens, and underscores.

Examples:
  sciops new churn-model
  sciops new churn-model --description "Churn prediction experiments"
  sciops new churn-model --dir ~/work/churn`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.description, "description", "", "Project description for the README and project file")
	cmd.Flags().StringVar(&flags.dir, "dir", "", "Target directory (default: ./<name>)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Scaffold into a non-empty directory")

	return cmd
}

func runNew(name string, flags *newFlags) error {
	dir, err := scaffold.Create(scaffold.Options{
		Name:        name,
		Description: flags.description,
		Dir:         flags.dir,
		Force:       flags.force,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created project %s at %s\n", name, dir)
	fmt.Println("Next steps:")
	fmt.Printf("  cd %s\n", dir)
	fmt.Println("  sciops run env deps")
	return nil
}
