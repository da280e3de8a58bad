// doctor.go implements "sciops doctor", the toolchain report.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sciops-cli/sciops/internal/toolchain"
)

// NewDoctorCommand creates the "doctor" cobra command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report the detected toolchain",
		Long: `Probe the PATH for every tool sciops may invoke (Python, mamba, conda,
git, docker) and report what was found, along with the package manager
that dependency installation would select.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

func runDoctor(ctx context.Context) error {
	report := toolchain.NewDetector().Probe(ctx)

	if IsJSONOutput() {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if report.Manager != "" {
		fmt.Printf("Package manager: %s\n\n", report.Manager)
	} else {
		fmt.Print("Package manager: none found (install mamba, conda, or Python)\n\n")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, tool := range report.Tools {
		if tool.Found {
			fmt.Fprintf(w, "%s\t%s\t%s\n", tool.Name, tool.Path, tool.Version)
		} else {
			fmt.Fprintf(w, "%s\tnot found\t\n", tool.Name)
		}
	}
	return w.Flush()
}
