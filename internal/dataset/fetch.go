package dataset

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sciops-cli/sciops/internal/config"
	"github.com/sciops-cli/sciops/internal/model"
)

// fetchConcurrency bounds how many archives download at once. Dataset
// hosts are often slow public mirrors, so a small amount of parallelism
// pays off without hammering any single host.
const fetchConcurrency = 3

// defaultTimeout bounds a single archive download end to end.
const defaultTimeout = 10 * time.Minute

// Fetcher downloads and extracts project datasets.
type Fetcher struct {
	// Client is the HTTP client used for downloads. Injectable for tests.
	Client *http.Client

	// Out receives one progress line per dataset. Defaults to stderr so
	// stdout stays clean for command output.
	Out io.Writer
}

// NewFetcher creates a Fetcher with a bounded-timeout HTTP client.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client: &http.Client{Timeout: defaultTimeout},
		Out:    os.Stderr,
	}
}

// FetchAll downloads every dataset that is not already present, extracting
// the declared members into each dataset's target directory under the
// workspace. Datasets fetch concurrently; the first failure cancels the
// remaining downloads.
func (f *Fetcher) FetchAll(ctx context.Context, workspaceDir string, datasets []config.Dataset) error {
	if len(datasets) == 0 {
		fmt.Fprintln(f.Out, "no datasets configured")
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for _, d := range datasets {
		d := d
		g.Go(func() error {
			return f.fetch(ctx, workspaceDir, d)
		})
	}

	return g.Wait()
}

// fetch handles a single dataset: skip when complete, otherwise download,
// verify and extract.
func (f *Fetcher) fetch(ctx context.Context, workspaceDir string, d config.Dataset) error {
	targetDir := filepath.Join(workspaceDir, d.DatasetTarget())

	// Skip rule: only when every member file exists. A partial extraction
	// (e.g. an interrupted earlier run) triggers a fresh download.
	if allFilesExist(targetDir, d.Files) {
		fmt.Fprintf(f.Out, "dataset %s: all files present in %s, skipping\n", d.Name, d.DatasetTarget())
		return nil
	}

	fmt.Fprintf(f.Out, "dataset %s: downloading %s\n", d.Name, d.URL)

	body, err := f.download(ctx, d.URL)
	if err != nil {
		return model.WrapCLIError(
			model.ExitDatasetError,
			fmt.Sprintf("dataset %s: download failed", d.Name),
			err,
		)
	}

	if err := extractMembers(body, targetDir, d.Files); err != nil {
		return model.WrapCLIError(
			model.ExitDatasetError,
			fmt.Sprintf("dataset %s: extraction failed", d.Name),
			err,
		)
	}

	fmt.Fprintf(f.Out, "dataset %s: extracted %d file(s) to %s\n", d.Name, len(d.Files), d.DatasetTarget())
	return nil
}

// download GETs the archive into memory. Zip archives need random access
// for their central directory, so streaming extraction is not an option;
// the archives configured here are small enough to buffer.
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}

	return io.ReadAll(resp.Body)
}

// extractMembers verifies and extracts the requested members into targetDir.
//
// Verification happens before any file is written: each member is fully
// read once, which checks its CRC32 against the archive's central
// directory. A corrupt or incomplete archive never leaves partial output.
func extractMembers(archive []byte, targetDir string, members []string) error {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return fmt.Errorf("not a valid zip archive: %w", err)
	}

	byName := make(map[string]*zip.File, len(zr.File))
	for _, zf := range zr.File {
		byName[zf.Name] = zf
	}

	// Pass 1: presence, safety, integrity.
	for _, name := range members {
		zf, ok := byName[name]
		if !ok {
			return fmt.Errorf("archive has no member %q", name)
		}
		cleaned := filepath.Clean(name)
		if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
			return fmt.Errorf("archive member %q escapes the target directory", name)
		}
		if err := verifyMember(zf); err != nil {
			return fmt.Errorf("member %q is corrupt: %w", name, err)
		}
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", targetDir, err)
	}

	// Pass 2: extraction.
	for _, name := range members {
		if err := extractMember(byName[name], targetDir); err != nil {
			return err
		}
	}
	return nil
}

// verifyMember reads a member to completion, which validates its CRC.
func verifyMember(zf *zip.File) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	_, err = io.Copy(io.Discard, rc)
	return err
}

// extractMember writes one archive member under targetDir. Member names
// are checked against path traversal so a hostile archive cannot write
// outside the dataset directory.
func extractMember(zf *zip.File, targetDir string) error {
	cleaned := filepath.Clean(zf.Name)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return fmt.Errorf("archive member %q escapes the target directory", zf.Name)
	}

	dest := filepath.Join(targetDir, cleaned)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", cleaned, err)
	}

	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("failed to open member %q: %w", zf.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return out.Close()
}

// allFilesExist reports whether every member file is already present.
func allFilesExist(targetDir string, files []string) bool {
	for _, name := range files {
		if _, err := os.Stat(filepath.Join(targetDir, filepath.Clean(name))); err != nil {
			return false
		}
	}
	return true
}
