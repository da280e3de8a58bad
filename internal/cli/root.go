// Package cli implements the cobra-based command surface of sciops.
//
// Each subcommand lives in its own file with a NewXxxCommand constructor.
// The root command only carries global flags and the version string;
// behavior lives in the subcommands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sciops-cli/sciops/internal/model"
)

// Global flag variables, bound as persistent flags on the root command
// and therefore available to every subcommand.
var (
	// jsonOutput switches command output to JSON for machine consumption.
	jsonOutput bool

	// verbose enables trace output on stderr.
	verbose bool
)

// Version, Commit and Date are injected from cmd/sciops via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command, the
// entry point for the whole CLI.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sciops",
		Short: "Data-science project scaffold and task runner",
		Long: `sciops scaffolds data-science projects and runs their day-to-day tasks:
environment setup, dependency installation, linting, type-checking,
testing, dataset management, notebook hygiene, CI generation, and a
containerized Jupyter Lab.

Dependency installation picks the fastest available package manager
automatically (mamba, then conda, then pip).`,

		// Errors are formatted by Execute (text or JSON); cobra's own
		// error and usage printing would duplicate that.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewNewCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewTasksCommand())
	rootCmd.AddCommand(NewDepsCommand())
	rootCmd.AddCommand(NewDataCommand())
	rootCmd.AddCommand(NewNotebookCommand())
	rootCmd.AddCommand(NewCICommand())
	rootCmd.AddCommand(NewLabCommand())
	rootCmd.AddCommand(NewDoctorCommand())

	return rootCmd
}

// Execute runs the root command and translates errors into process exit
// codes. A *model.CLIError carries its own code; anything else exits 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}
		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError writes an error to stderr, honoring the --json flag.
// stdout stays reserved for successful command output.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]any{
			"error": map[string]any{"message": message},
		}
		if underlying != nil {
			errObj["error"].(map[string]any)["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}

// VerboseLog prints a trace line to stderr when --verbose is set.
func VerboseLog(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
