package labserver

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/go-connections/nat"

	"github.com/sciops-cli/sciops/internal/config"
	"github.com/sciops-cli/sciops/internal/model"
)

// labPort is the port Jupyter Lab listens on inside the container. The
// jupyter docker-stacks images all use 8888; the host side is whatever
// the project file configures.
const labPort = "8888/tcp"

// containerWorkDir is where the workspace is mounted inside the
// container. /home/jovyan is the docker-stacks home directory.
const containerWorkDir = "/home/jovyan/work"

// ContainerName returns the lab container name for a project.
func ContainerName(project string) string {
	return "sciops-lab-" + project
}

// Start launches a lab container for the project, mounting the workspace
// read-write and publishing the configured port on localhost.
//
// Starting is idempotent per project: an existing running session is
// returned as-is, and a stopped leftover container is removed before a
// fresh one is created.
func Start(ctx context.Context, cli *Client, workspaceDir string, p *config.Project) (*Session, error) {
	if err := cli.Ping(ctx); err != nil {
		return nil, err
	}

	existing, err := Status(ctx, cli, p.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Running() {
			return existing, nil
		}
		if err := remove(ctx, cli, existing.ContainerID); err != nil {
			return nil, err
		}
	}

	if err := pullImage(ctx, cli, p.Lab.Image); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	cfg := &container.Config{
		Image:  p.Lab.Image,
		Labels: buildLabels(p.Name, workspaceDir, p.Lab.Port, startedAt),
		// Token auth off: the port is bound to loopback only, and a
		// random token would force a docker-logs round trip on every
		// start.
		Cmd: []string{"start-notebook.py", "--IdentityProvider.token="},
		ExposedPorts: nat.PortSet{
			labPort: struct{}{},
		},
	}
	hostCfg := &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: workspaceDir,
			Target: containerWorkDir,
		}},
		PortBindings: nat.PortMap{
			labPort: []nat.PortBinding{{
				HostIP:   "127.0.0.1",
				HostPort: strconv.Itoa(p.Lab.Port),
			}},
		},
	}

	created, err := cli.inner.ContainerCreate(ctx, cfg, hostCfg, nil, nil, ContainerName(p.Name))
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create lab container for project %q", p.Name),
			err,
		)
	}

	if err := cli.inner.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to start lab container %q", ContainerName(p.Name)),
			err,
		)
	}

	return &Session{
		ContainerID:   created.ID,
		ContainerName: ContainerName(p.Name),
		Project:       p.Name,
		Workspace:     workspaceDir,
		Image:         p.Lab.Image,
		Port:          p.Lab.Port,
		State:         "running",
		StartedAt:     startedAt,
	}, nil
}

// Stop stops and removes the project's lab container. Stopping a project
// with no session is not an error; the caller decides how to report it.
// Returns the stopped session, or nil when there was none.
func Stop(ctx context.Context, cli *Client, project string) (*Session, error) {
	if err := cli.Ping(ctx); err != nil {
		return nil, err
	}

	s, err := Status(ctx, cli, project)
	if err != nil || s == nil {
		return nil, err
	}

	// Default SIGTERM grace period; docker-stacks images shut down fast.
	if err := cli.inner.ContainerStop(ctx, s.ContainerID, container.StopOptions{}); err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stop lab container %q", s.ContainerName),
			err,
		)
	}
	if err := remove(ctx, cli, s.ContainerID); err != nil {
		return nil, err
	}
	return s, nil
}

// Status returns the project's lab session, or nil when no container
// exists. Stopped containers are reported too, so `lab status` can
// distinguish "never started" from "exited".
func Status(ctx context.Context, cli *Client, project string) (*Session, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
		filters.Arg("label", LabelProject+"="+project),
	)
	containers, err := cli.inner.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning, "failed to list lab containers", err)
	}
	if len(containers) == 0 {
		return nil, nil
	}

	// One container per project is the invariant; if labels got
	// hand-edited into a conflict, the first match wins.
	c := containers[0]
	s, err := parseLabels(c.Labels)
	if err != nil {
		return nil, fmt.Errorf("lab container %s has corrupt labels: %w", c.ID[:12], err)
	}

	s.ContainerID = c.ID
	s.Image = c.Image
	s.State = c.State
	if len(c.Names) > 0 {
		s.ContainerName = strings.TrimPrefix(c.Names[0], "/")
	}
	return s, nil
}

// pullImage pulls the lab image. The pull stream must be drained for the
// operation to complete; progress rendering is not worth the JSON
// decoding here.
func pullImage(ctx context.Context, cli *Client, ref string) error {
	rc, err := cli.inner.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to pull image %q", ref),
			err,
		)
	}
	defer rc.Close()

	if _, err := io.Copy(io.Discard, rc); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("image pull for %q was interrupted", ref),
			err,
		)
	}
	return nil
}

func remove(ctx context.Context, cli *Client, containerID string) error {
	err := cli.inner.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %q", containerID),
			err,
		)
	}
	return nil
}
