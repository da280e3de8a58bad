package labserver

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Docker labels are the only persistence for lab sessions. Every
// container sciops starts carries the full session metadata, so state
// survives restarts of the CLI with nothing on disk.
//
// The "sciops." prefix keeps the keys clear of labels set by Compose,
// VS Code, and friends.
const (
	labelPrefix = "sciops."

	// LabelManagedBy marks containers owned by this tool. Its value is
	// always ManagedByValue; it doubles as the discovery filter.
	LabelManagedBy = labelPrefix + "managed-by"

	// LabelProject stores the project name the session belongs to.
	LabelProject = labelPrefix + "project"

	// LabelWorkspace stores the absolute path of the mounted workspace.
	LabelWorkspace = labelPrefix + "workspace"

	// LabelPort stores the published host port.
	LabelPort = labelPrefix + "port"

	// LabelStartedAt stores the session start time, RFC3339 in UTC.
	LabelStartedAt = labelPrefix + "started-at"
)

// ManagedByValue is the value of LabelManagedBy on every sciops
// container.
const ManagedByValue = "sciops"

// Session describes a lab container reconstructed from its labels and
// runtime state.
type Session struct {
	ContainerID   string    `json:"containerId"`
	ContainerName string    `json:"containerName"`
	Project       string    `json:"project"`
	Workspace     string    `json:"workspace"`
	Image         string    `json:"image"`
	Port          int       `json:"port"`
	State         string    `json:"state"`
	StartedAt     time.Time `json:"startedAt"`
}

// Running reports whether the session's container is currently running.
func (s *Session) Running() bool {
	return s.State == "running"
}

// URL returns the lab's local address.
func (s *Session) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", s.Port)
}

// buildLabels encodes a session into its container labels.
func buildLabels(project, workspace string, port int, startedAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelProject:   project,
		LabelWorkspace: workspace,
		LabelPort:      strconv.Itoa(port),
		LabelStartedAt: startedAt.UTC().Format(time.RFC3339),
	}
}

// parseLabels is the inverse of buildLabels. ContainerID, image, and
// state are runtime facts filled in by the caller.
func parseLabels(labels map[string]string) (*Session, error) {
	var missing []string
	for _, key := range []string{LabelManagedBy, LabelProject, LabelWorkspace, LabelPort, LabelStartedAt} {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing container labels: %s", strings.Join(missing, ", "))
	}

	if v := labels[LabelManagedBy]; v != ManagedByValue {
		return nil, fmt.Errorf("label %s has unexpected value %q", LabelManagedBy, v)
	}

	port, err := strconv.Atoi(labels[LabelPort])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s=%q: %w", LabelPort, labels[LabelPort], err)
	}

	startedAt, err := time.Parse(time.RFC3339, labels[LabelStartedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelStartedAt, err)
	}

	return &Session{
		Project:   labels[LabelProject],
		Workspace: labels[LabelWorkspace],
		Port:      port,
		StartedAt: startedAt,
	}, nil
}
