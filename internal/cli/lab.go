// lab.go implements "sciops lab start", "sciops lab stop", and
// "sciops lab status".
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sciops-cli/sciops/internal/labserver"
)

// NewLabCommand creates the "lab" cobra command with its lifecycle
// subcommands.
func NewLabCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lab",
		Short: "Manage the project's Jupyter Lab container",
		Long: `Run Jupyter Lab in a Docker container with the project workspace
mounted. The image and host port come from sciops.jsonc; the port is
bound to localhost only.`,
	}

	cmd.AddCommand(newLabStartCommand())
	cmd.AddCommand(newLabStopCommand())
	cmd.AddCommand(newLabStatusCommand())
	return cmd
}

func newLabStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the lab container",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLabStart(cmd.Context())
		},
	}
}

func newLabStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop and remove the lab container",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLabStop(cmd.Context())
		},
	}
}

func newLabStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the lab container's state",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLabStatus(cmd.Context())
		},
	}
}

func runLabStart(ctx context.Context) error {
	workspaceDir, p, err := loadProject()
	if err != nil {
		return err
	}

	cli, err := labserver.NewClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	VerboseLog("starting lab container %s", labserver.ContainerName(p.Name))
	s, err := labserver.Start(ctx, cli, workspaceDir, p)
	if err != nil {
		return err
	}

	fmt.Printf("Jupyter Lab is running at %s\n", s.URL())
	return nil
}

func runLabStop(ctx context.Context) error {
	_, p, err := loadProject()
	if err != nil {
		return err
	}

	cli, err := labserver.NewClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	s, err := labserver.Stop(ctx, cli, p.Name)
	if err != nil {
		return err
	}
	if s == nil {
		fmt.Println("No lab container to stop.")
		return nil
	}
	fmt.Printf("Stopped %s.\n", s.ContainerName)
	return nil
}

func runLabStatus(ctx context.Context) error {
	_, p, err := loadProject()
	if err != nil {
		return err
	}

	cli, err := labserver.NewClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	s, err := labserver.Status(ctx, cli, p.Name)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if s == nil {
		fmt.Println("No lab container exists for this project.")
		return nil
	}
	fmt.Printf("Container: %s\n", s.ContainerName)
	fmt.Printf("State:     %s\n", s.State)
	fmt.Printf("Image:     %s\n", s.Image)
	if s.Running() {
		fmt.Printf("URL:       %s\n", s.URL())
	}
	return nil
}
