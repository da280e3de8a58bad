// Package config loads and validates the sciops project file (sciops.jsonc).
//
// The project file uses JSONC (JSON with Comments), so this package uses
// github.com/tidwall/jsonc to strip comments and trailing commas before
// parsing with the standard encoding/json library. Scaffolded project files
// ship with explanatory comments, which makes JSONC support mandatory.
//
// Key responsibilities:
//   - Locate sciops.jsonc by walking up from the current directory
//   - Parse the file and apply defaults for omitted fields
//   - Validate the result before any command acts on it
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/sciops-cli/sciops/internal/model"
)

// FileName is the canonical project file name searched for by Find.
const FileName = "sciops.jsonc"

// Defaults for omitted project file fields.
const (
	// DefaultPythonVersion is the interpreter version used for scaffolding
	// and CI generation when the project file does not pin one.
	DefaultPythonVersion = "3.12"

	// DefaultVenvDir is the virtual environment directory, relative to the
	// workspace root.
	DefaultVenvDir = ".venv"

	// DefaultSourceDir and DefaultTestDir are the Python source and test
	// trees that lint, format, mypy and test operate on.
	DefaultSourceDir = "src"
	DefaultTestDir   = "tests"

	// DefaultLabImage is the Jupyter Lab container image started by
	// `sciops lab start` when the project file does not override it.
	DefaultLabImage = "jupyter/scipy-notebook:latest"

	// DefaultLabPort is the host port the lab container publishes.
	DefaultLabPort = 8888

	// DefaultCoverageSecret is the CI secret name consumed by the coverage
	// upload step.
	DefaultCoverageSecret = "CODECOV_TOKEN"
)

// Default data directories. The data target extracts into RawDataDir;
// clean-data empties both while preserving their .gitkeep markers.
const (
	RawDataDir       = "data/raw"
	ProcessedDataDir = "data/processed"
)

// Project is the parsed sciops.jsonc. Unknown fields are silently ignored
// during parsing, so a project file may carry extra keys for other tools.
type Project struct {
	// Name is the project identifier. Used for the lab container name and
	// README rendering. Must satisfy model.ValidateProjectName.
	Name string `json:"name"`

	// Description is free-form text rendered into the README templates.
	Description string `json:"description,omitempty"`

	// PythonVersion pins the interpreter version (e.g. "3.12") used by the
	// env target and the generated CI workflow.
	PythonVersion string `json:"pythonVersion,omitempty"`

	// VenvDir is the virtual environment directory relative to the
	// workspace root. Only meaningful for the pip manager.
	VenvDir string `json:"venvDir,omitempty"`

	// PackageManager optionally pins the dependency installer. When empty,
	// sciops auto-detects in priority order mamba → conda → pip.
	PackageManager string `json:"packageManager,omitempty"`

	// SourceDir and TestDir are the trees that lint/format/mypy/test
	// operate on, relative to the workspace root.
	SourceDir string `json:"sourceDir,omitempty"`
	TestDir   string `json:"testDir,omitempty"`

	// NotebookDirs lists directories scanned by the clean-notebook target.
	NotebookDirs []string `json:"notebookDirs,omitempty"`

	// Datasets lists the archives fetched by the data target.
	Datasets []Dataset `json:"datasets,omitempty"`

	// Lab configures the Jupyter Lab container.
	Lab Lab `json:"lab,omitempty"`

	// CI configures workflow generation.
	CI CI `json:"ci,omitempty"`
}

// Dataset describes one zip archive the data target downloads and extracts.
// If every member file already exists in the target directory, the download
// is skipped entirely.
type Dataset struct {
	// Name is a short identifier used in progress output.
	Name string `json:"name"`

	// URL is the zip archive to download.
	URL string `json:"url"`

	// Files lists the archive member names to extract. Only these members
	// are extracted; everything else in the archive is ignored.
	Files []string `json:"files"`

	// TargetDir is where the members land, relative to the workspace root.
	// Defaults to data/raw/<name>.
	TargetDir string `json:"targetDir,omitempty"`
}

// Lab configures the project's Jupyter Lab container.
type Lab struct {
	// Image is the container image to run.
	Image string `json:"image,omitempty"`

	// Port is the host port the lab server is published on.
	Port int `json:"port,omitempty"`
}

// CI configures the generated workflow.
type CI struct {
	// SecurityScan toggles the bandit step. Nil means enabled.
	SecurityScan *bool `json:"securityScan,omitempty"`

	// CoverageUpload toggles the coverage upload step. Nil means enabled.
	CoverageUpload *bool `json:"coverageUpload,omitempty"`

	// CoverageSecret is the secret name injected into the upload step.
	CoverageSecret string `json:"coverageSecret,omitempty"`
}

// SecurityScanEnabled reports whether the workflow should include the
// security-scan step. The default is enabled.
func (c CI) SecurityScanEnabled() bool {
	return c.SecurityScan == nil || *c.SecurityScan
}

// CoverageUploadEnabled reports whether the workflow should include the
// coverage upload step. The default is enabled.
func (c CI) CoverageUploadEnabled() bool {
	return c.CoverageUpload == nil || *c.CoverageUpload
}

// Manager returns the pinned package manager, or ok=false when the project
// file leaves selection to runtime auto-detection.
func (p *Project) Manager() (model.Manager, bool, error) {
	if p.PackageManager == "" {
		return "", false, nil
	}
	m, err := model.ParseManager(p.PackageManager)
	if err != nil {
		return "", false, err
	}
	return m, true, nil
}

// DatasetTarget returns the dataset's extraction directory, applying the
// data/raw/<name> default.
func (d Dataset) DatasetTarget() string {
	if d.TargetDir != "" {
		return d.TargetDir
	}
	return filepath.Join(RawDataDir, d.Name)
}

// Default returns a Project populated with every default applied, suitable
// for scaffolding a new workspace.
func Default(name string) *Project {
	p := &Project{Name: name}
	p.applyDefaults()
	return p
}

// Find locates the project file by walking up from startDir toward the
// filesystem root. It returns the directory containing sciops.jsonc (the
// workspace root) and the file's absolute path.
//
// The upward walk lets every sciops command work from anywhere inside the
// workspace, mirroring how git locates its repository root.
//
// Returns a CLIError with ExitProjectNotFound if no project file exists in
// any ancestor directory.
func Find(startDir string) (workspaceDir, filePath string, err error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		// os.Stat checks existence without reading contents; Load does the
		// actual read once the file is located.
		if _, statErr := os.Stat(candidate); statErr == nil {
			return dir, candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root without finding a project file.
			break
		}
		dir = parent
	}

	return "", "", model.NewCLIError(
		model.ExitProjectNotFound,
		fmt.Sprintf("%s not found in %s or any parent directory (run `sciops new` to scaffold a project)", FileName, startDir),
	)
}

// Load reads a project file, strips JSONC comments, parses it, applies
// defaults and validates the result.
//
// Returns a CLIError with ExitProjectNotFound if the file does not exist
// or fails validation.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitProjectNotFound,
				fmt.Sprintf("project file not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Strip JSONC comments (// and /* */) and trailing commas before
	// parsing. Scaffolded project files carry explanatory comments.
	cleanJSON := jsonc.ToJSON(data)

	var p Project
	if err := json.Unmarshal(cleanJSON, &p); err != nil {
		return nil, model.WrapCLIError(
			model.ExitProjectNotFound,
			fmt.Sprintf("failed to parse %s", path),
			err,
		)
	}

	p.applyDefaults()

	if err := p.Validate(); err != nil {
		return nil, model.WrapCLIError(
			model.ExitProjectNotFound,
			fmt.Sprintf("invalid project file %s", path),
			err,
		)
	}

	return &p, nil
}

// applyDefaults fills in every omitted field with its documented default.
func (p *Project) applyDefaults() {
	if p.PythonVersion == "" {
		p.PythonVersion = DefaultPythonVersion
	}
	if p.VenvDir == "" {
		p.VenvDir = DefaultVenvDir
	}
	if p.SourceDir == "" {
		p.SourceDir = DefaultSourceDir
	}
	if p.TestDir == "" {
		p.TestDir = DefaultTestDir
	}
	if len(p.NotebookDirs) == 0 {
		p.NotebookDirs = []string{"notebooks"}
	}
	if p.Lab.Image == "" {
		p.Lab.Image = DefaultLabImage
	}
	if p.Lab.Port == 0 {
		p.Lab.Port = DefaultLabPort
	}
	if p.CI.CoverageSecret == "" {
		p.CI.CoverageSecret = DefaultCoverageSecret
	}
}

// Validate checks invariants the rest of the CLI relies on. It is called
// by Load, so commands can assume a loaded Project is well-formed.
func (p *Project) Validate() error {
	if err := model.ValidateProjectName(p.Name); err != nil {
		return err
	}

	if _, _, err := p.Manager(); err != nil {
		return err
	}

	if p.Lab.Port < 1 || p.Lab.Port > 65535 {
		return fmt.Errorf("lab port %d out of range (1-65535)", p.Lab.Port)
	}

	seen := make(map[string]bool, len(p.Datasets))
	for i, d := range p.Datasets {
		if d.Name == "" {
			return fmt.Errorf("dataset %d: name must not be empty", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("dataset %q declared twice", d.Name)
		}
		seen[d.Name] = true
		if d.URL == "" {
			return fmt.Errorf("dataset %q: url must not be empty", d.Name)
		}
		if len(d.Files) == 0 {
			return fmt.Errorf("dataset %q: files must list at least one archive member", d.Name)
		}
		// Reject absolute target dirs so extraction can never escape the
		// workspace.
		if filepath.IsAbs(d.TargetDir) {
			return fmt.Errorf("dataset %q: targetDir must be relative to the workspace", d.Name)
		}
	}

	return nil
}
