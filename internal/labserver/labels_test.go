package labserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildParseLabels_RoundTrip verifies a session's metadata survives
// the label encoding.
func TestBuildParseLabels_RoundTrip(t *testing.T) {
	startedAt := time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)

	labels := buildLabels("churn-model", "/home/ada/churn-model", 8888, startedAt)
	s, err := parseLabels(labels)

	require.NoError(t, err)
	assert.Equal(t, "churn-model", s.Project)
	assert.Equal(t, "/home/ada/churn-model", s.Workspace)
	assert.Equal(t, 8888, s.Port)
	assert.Equal(t, startedAt, s.StartedAt)
}

// TestBuildLabels_TimestampIsUTC verifies local start times are stored
// normalized, so sessions compare cleanly across hosts.
func TestBuildLabels_TimestampIsUTC(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	startedAt := time.Date(2026, 8, 23, 19, 30, 0, 0, loc)

	labels := buildLabels("churn-model", "/w", 8888, startedAt)

	assert.Equal(t, "2026-08-23T10:30:00Z", labels[LabelStartedAt])
}

// TestParseLabels_MissingKeys verifies the error lists every missing
// label, not just the first.
func TestParseLabels_MissingKeys(t *testing.T) {
	_, err := parseLabels(map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelProject:   "churn-model",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelWorkspace)
	assert.Contains(t, err.Error(), LabelPort)
	assert.Contains(t, err.Error(), LabelStartedAt)
}

// TestParseLabels_ForeignContainer verifies containers labeled by some
// other tool are rejected even when all keys happen to be present.
func TestParseLabels_ForeignContainer(t *testing.T) {
	labels := buildLabels("churn-model", "/w", 8888, time.Now())
	labels[LabelManagedBy] = "someone-else"

	_, err := parseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected value")
}

// TestParseLabels_BadPort verifies a mangled port label fails parsing.
func TestParseLabels_BadPort(t *testing.T) {
	labels := buildLabels("churn-model", "/w", 8888, time.Now())
	labels[LabelPort] = "not-a-port"

	_, err := parseLabels(labels)
	require.Error(t, err)
}

// TestSession_URL verifies the printed address is loopback-only, which
// matches the port binding.
func TestSession_URL(t *testing.T) {
	s := &Session{Port: 9999}
	assert.Equal(t, "http://127.0.0.1:9999", s.URL())
}

// TestSession_Running covers the state predicate used by start's
// idempotence check.
func TestSession_Running(t *testing.T) {
	assert.True(t, (&Session{State: "running"}).Running())
	assert.False(t, (&Session{State: "exited"}).Running())
}

// TestContainerName verifies the per-project container naming scheme.
func TestContainerName(t *testing.T) {
	assert.Equal(t, "sciops-lab-churn-model", ContainerName("churn-model"))
}
