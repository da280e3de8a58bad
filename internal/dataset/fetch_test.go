package dataset

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sciops-cli/sciops/internal/config"
	"github.com/sciops-cli/sciops/internal/model"
)

// buildZip builds an in-memory zip archive from name → contents pairs.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, contents)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// zipServer serves the given body for every request and counts hits.
func zipServer(t *testing.T, status int, body []byte, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testFetcher() *Fetcher {
	return &Fetcher{Client: http.DefaultClient, Out: io.Discard}
}

// TestFetchAll_DownloadsAndExtracts verifies the happy path: download,
// integrity check, and extraction of only the declared members.
func TestFetchAll_DownloadsAndExtracts(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"telco.csv":  "id,churn\n1,0\n",
		"extra.txt":  "not requested",
		"sub/ref.md": "nested member",
	})
	srv := zipServer(t, http.StatusOK, archive, nil)

	ws := t.TempDir()
	datasets := []config.Dataset{{
		Name:  "telco",
		URL:   srv.URL + "/telco.zip",
		Files: []string{"telco.csv", "sub/ref.md"},
	}}

	err := testFetcher().FetchAll(context.Background(), ws, datasets)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(ws, "data", "raw", "telco", "telco.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,churn\n1,0\n", string(got))

	assert.FileExists(t, filepath.Join(ws, "data", "raw", "telco", "sub", "ref.md"))
	assert.NoFileExists(t, filepath.Join(ws, "data", "raw", "telco", "extra.txt"),
		"undeclared members must not be extracted")
}

// TestFetchAll_SkipsWhenComplete verifies no network traffic happens when
// every member file already exists locally.
func TestFetchAll_SkipsWhenComplete(t *testing.T) {
	var hits atomic.Int64
	srv := zipServer(t, http.StatusOK, nil, &hits)

	ws := t.TempDir()
	target := filepath.Join(ws, "data", "raw", "telco")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "telco.csv"), []byte("cached"), 0o644))

	datasets := []config.Dataset{{
		Name:  "telco",
		URL:   srv.URL + "/telco.zip",
		Files: []string{"telco.csv"},
	}}

	err := testFetcher().FetchAll(context.Background(), ws, datasets)
	require.NoError(t, err)

	assert.Equal(t, int64(0), hits.Load(), "a complete dataset must not be downloaded")

	// The cached file must be left untouched.
	got, err := os.ReadFile(filepath.Join(target, "telco.csv"))
	require.NoError(t, err)
	assert.Equal(t, "cached", string(got))
}

// TestFetchAll_PartialTriggersDownload verifies that one missing member is
// enough to re-fetch the archive.
func TestFetchAll_PartialTriggersDownload(t *testing.T) {
	archive := buildZip(t, map[string]string{"a.csv": "a", "b.csv": "b"})
	var hits atomic.Int64
	srv := zipServer(t, http.StatusOK, archive, &hits)

	ws := t.TempDir()
	target := filepath.Join(ws, "data", "raw", "pair")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.csv"), []byte("old"), 0o644))

	datasets := []config.Dataset{{
		Name:  "pair",
		URL:   srv.URL,
		Files: []string{"a.csv", "b.csv"},
	}}

	require.NoError(t, testFetcher().FetchAll(context.Background(), ws, datasets))
	assert.Equal(t, int64(1), hits.Load())
	assert.FileExists(t, filepath.Join(target, "b.csv"))
}

// TestFetchAll_HTTPError verifies a non-200 response becomes a typed
// dataset error.
func TestFetchAll_HTTPError(t *testing.T) {
	srv := zipServer(t, http.StatusNotFound, []byte("gone"), nil)

	datasets := []config.Dataset{{
		Name:  "missing",
		URL:   srv.URL,
		Files: []string{"x.csv"},
	}}

	err := testFetcher().FetchAll(context.Background(), t.TempDir(), datasets)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitDatasetError, cliErr.Code)
}

// TestFetchAll_CorruptArchive verifies that a response that is not a valid
// zip is rejected before anything is written.
func TestFetchAll_CorruptArchive(t *testing.T) {
	srv := zipServer(t, http.StatusOK, []byte("this is not a zip"), nil)

	ws := t.TempDir()
	datasets := []config.Dataset{{
		Name:  "corrupt",
		URL:   srv.URL,
		Files: []string{"x.csv"},
	}}

	err := testFetcher().FetchAll(context.Background(), ws, datasets)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitDatasetError, cliErr.Code)

	assert.NoDirExists(t, filepath.Join(ws, "data", "raw", "corrupt"),
		"a failed verification must not leave partial output")
}

// TestFetchAll_MissingMember verifies a declared member absent from the
// archive fails the dataset.
func TestFetchAll_MissingMember(t *testing.T) {
	archive := buildZip(t, map[string]string{"other.csv": "x"})
	srv := zipServer(t, http.StatusOK, archive, nil)

	datasets := []config.Dataset{{
		Name:  "incomplete",
		URL:   srv.URL,
		Files: []string{"wanted.csv"},
	}}

	err := testFetcher().FetchAll(context.Background(), t.TempDir(), datasets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no member "wanted.csv"`)
}

// TestExtractMembers_PathTraversal verifies hostile member names cannot
// escape the target directory.
func TestExtractMembers_PathTraversal(t *testing.T) {
	archive := buildZip(t, map[string]string{"../escape.txt": "evil"})

	base := t.TempDir()
	target := filepath.Join(base, "out")
	err := extractMembers(archive, target, []string{"../escape.txt"})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(base, "escape.txt"))
}
