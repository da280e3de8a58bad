// tasks.go implements "sciops tasks", the target listing (the help
// target of the task surface).
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sciops-cli/sciops/internal/model"
	"github.com/sciops-cli/sciops/internal/task"
)

// NewTasksCommand creates the "tasks" cobra command.
func NewTasksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List all task targets",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasks()
		},
	}
}

// taskEntry is the JSON shape of one target listing row.
type taskEntry struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

func runTasks() error {
	if IsJSONOutput() {
		entries := make([]taskEntry, 0, len(model.AllTargets()))
		for _, t := range model.AllTargets() {
			entries = append(entries, taskEntry{Name: t.String(), Summary: task.Summary(t)})
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	// tabwriter aligns the summaries into a second column regardless of
	// target name length.
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, t := range model.AllTargets() {
		fmt.Fprintf(w, "%s\t%s\n", t, task.Summary(t))
	}
	return w.Flush()
}
