// Package notebook scrubs Jupyter notebook files for version control.
//
// Notebook JSON mixes durable content (sources, markdown) with volatile
// state (cell outputs, execution counters, widget state) that bloats diffs
// and leaks large blobs into git history. Clean rewrites each .ipynb with
// the volatile parts removed, leaving everything else byte-identical.
//
// The edits are surgical path operations via tidwall/gjson and
// tidwall/sjson rather than a decode/re-encode round trip, so untouched
// regions of the document keep their original formatting and key order.
package notebook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// checkpointDir is Jupyter's autosave directory; its notebooks are
// transient copies and are never scrubbed.
const checkpointDir = ".ipynb_checkpoints"

// Result summarizes a Clean run.
type Result struct {
	// Scanned is the number of notebook files examined.
	Scanned int

	// Scrubbed is the number of files that contained volatile state and
	// were rewritten.
	Scrubbed int
}

// Clean scrubs every notebook reachable from the given paths. A path may
// be a single .ipynb file or a directory walked recursively. Paths that do
// not exist are skipped silently so configured notebook dirs may be absent
// in a fresh workspace.
//
// Malformed notebooks are reported but do not stop the run: the returned
// error aggregates every per-file failure after all files were attempted.
func Clean(paths []string) (Result, error) {
	var result Result
	var failures []error

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			failures = append(failures, fmt.Errorf("stat %s: %w", path, err))
			continue
		}

		files := []string{path}
		if info.IsDir() {
			files, err = findNotebooks(path)
			if err != nil {
				failures = append(failures, err)
				continue
			}
		}

		for _, file := range files {
			result.Scanned++
			changed, cerr := CleanFile(file)
			if cerr != nil {
				failures = append(failures, fmt.Errorf("%s: %w", file, cerr))
				continue
			}
			if changed {
				result.Scrubbed++
			}
		}
	}

	return result, errors.Join(failures...)
}

// CleanFile scrubs a single notebook in place. It reports whether the file
// was rewritten; a notebook that is already clean is left untouched.
func CleanFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	cleaned, err := Scrub(data)
	if err != nil {
		return false, err
	}

	if string(cleaned) == string(data) {
		return false, nil
	}

	// Preserve the file's existing permissions on rewrite.
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, cleaned, info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}

// Scrub returns the notebook JSON with volatile state removed:
//
//   - every code cell's outputs become the empty array
//   - every code cell's execution_count becomes null
//   - metadata.widgets is dropped entirely
//
// Markdown and raw cells are untouched (they carry neither field).
func Scrub(data []byte) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("not valid notebook JSON")
	}

	doc := string(data)
	cells := gjson.Get(doc, "cells")
	if !cells.Exists() || !cells.IsArray() {
		return nil, fmt.Errorf("notebook has no cells array")
	}

	var err error
	for i, cell := range cells.Array() {
		if cell.Get("cell_type").String() != "code" {
			continue
		}

		// sjson path syntax addresses array elements by index.
		outputsPath := fmt.Sprintf("cells.%d.outputs", i)
		countPath := fmt.Sprintf("cells.%d.execution_count", i)

		doc, err = sjson.Set(doc, outputsPath, []interface{}{})
		if err != nil {
			return nil, fmt.Errorf("failed to clear outputs of cell %d: %w", i, err)
		}
		doc, err = sjson.Set(doc, countPath, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to reset execution count of cell %d: %w", i, err)
		}
	}

	if gjson.Get(doc, "metadata.widgets").Exists() {
		doc, err = sjson.Delete(doc, "metadata.widgets")
		if err != nil {
			return nil, fmt.Errorf("failed to drop widget state: %w", err)
		}
	}

	return []byte(doc), nil
}

// findNotebooks walks a directory for .ipynb files, skipping Jupyter's
// checkpoint directories.
func findNotebooks(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == checkpointDir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".ipynb") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}
