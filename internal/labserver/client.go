// Package labserver manages the project's Jupyter Lab container.
//
// Each project gets at most one lab container, discovered purely through
// Docker labels; there is no state file. The package wraps the Docker
// Engine SDK client with automatic socket detection, so `sciops lab`
// works out of the box on Linux, macOS, and Windows.
package labserver

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/sciops-cli/sciops/internal/model"
)

// pingTimeout bounds the daemon liveness probe. Docker Desktop on macOS
// can take a few seconds to answer after waking up.
const pingTimeout = 5 * time.Second

// Client wraps the Docker SDK client. The wrapper exists to own socket
// detection and to translate daemon failures into CLIErrors with
// ExitDockerNotRunning.
type Client struct {
	inner *client.Client
}

// NewClient connects to the Docker daemon.
//
// DOCKER_HOST wins when set. Otherwise the platform's default socket is
// probed: /var/run/docker.sock on Linux, that plus
// ~/.docker/run/docker.sock on macOS, and the docker_engine named pipe
// on Windows.
func NewClient() (*Client, error) {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		detected, err := detectHost()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitDockerNotRunning, "Docker socket not found", err)
		}
		host = detected
	}

	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host),
			err,
		)
	}
	return &Client{inner: c}, nil
}

// detectHost probes the platform's known daemon endpoints and returns a
// connection string for the first one present. Existence is checked
// rather than connectivity; Ping covers the latter.
func detectHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return detectUnixSocket([]string{"/var/run/docker.sock"})

	case "darwin":
		paths := []string{"/var/run/docker.sock"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, home+"/.docker/run/docker.sock")
		}
		return detectUnixSocket(paths)

	case "windows":
		// Named pipes do not stat; a short dial is the only probe.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, time.Second)
		if err != nil {
			return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)
		}
		conn.Close()
		return "npipe://" + pipePath, nil

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func detectUnixSocket(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("Docker socket not found at any of %v (is Docker running?)", paths)
}

// Ping verifies the daemon is responsive. A paused or stopped Docker
// Desktop turns into a CLIError with ExitDockerNotRunning here instead
// of a hang later.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			"Docker daemon is not responding (is Docker running?)",
			err,
		)
	}
	return nil
}

// Close releases the client's resources. Safe to call more than once.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}
