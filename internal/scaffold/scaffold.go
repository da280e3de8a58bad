// Package scaffold creates new project workspaces for the `new` command.
//
// A scaffolded project carries the full data-science layout: Python
// source packages under src/, a pytest tree, notebook and docs
// directories seeded with the placeholder README, the raw/processed
// data split, dependency manifests for both pip and conda-family
// managers, the default sciops.jsonc, and a generated CI workflow.
package scaffold

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/sciops-cli/sciops/internal/config"
	"github.com/sciops-cli/sciops/internal/model"
	"github.com/sciops-cli/sciops/internal/workflow"
)

// Options controls project creation.
type Options struct {
	// Name is the project name. It must satisfy model.ValidateProjectName.
	Name string

	// Description seeds the READMEs and the project file. Empty gets a
	// placeholder.
	Description string

	// Dir is the directory to scaffold into. Empty means ./<Name>.
	Dir string

	// Force allows scaffolding into a non-empty directory, overwriting
	// files that collide with the template.
	Force bool
}

// Create scaffolds a new project and returns its absolute path.
//
// The target directory may exist but must be empty unless Force is set;
// refusing to write into a populated directory keeps a mistyped path
// from spraying template files over an unrelated project.
func Create(opts Options) (string, error) {
	if err := model.ValidateProjectName(opts.Name); err != nil {
		return "", err
	}

	description := opts.Description
	if description == "" {
		description = "A short description of the project."
	}

	dir := opts.Dir
	if dir == "" {
		dir = opts.Name
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", opts.Dir, err)
	}

	if err := checkTarget(dir, opts.Force); err != nil {
		return "", err
	}

	p := config.Default(opts.Name)
	p.Description = description

	if err := createDirs(dir, p); err != nil {
		return "", err
	}
	if err := writeFiles(dir, p); err != nil {
		return "", err
	}
	if _, err := workflow.Write(dir, p); err != nil {
		return "", err
	}
	return dir, nil
}

// checkTarget verifies the scaffold destination is safe to write into.
func checkTarget(dir string, force bool) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if len(entries) > 0 && !force {
		return model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("directory %s is not empty (use --force to scaffold anyway)", dir),
		)
	}
	return nil
}

// createDirs lays out the directory tree. Data directories get a
// .gitkeep so the raw/processed split survives an empty clone.
func createDirs(dir string, p *config.Project) error {
	dirs := []string{
		filepath.Join(p.SourceDir),
		filepath.Join(p.TestDir),
		"docs",
		filepath.FromSlash(config.RawDataDir),
		filepath.FromSlash(config.ProcessedDataDir),
	}
	for _, pkg := range pythonPackageDirs {
		dirs = append(dirs, filepath.Join(p.SourceDir, pkg))
	}
	dirs = append(dirs, p.NotebookDirs...)

	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", d, err)
		}
	}

	for _, d := range []string{config.RawDataDir, config.ProcessedDataDir} {
		keep := filepath.Join(dir, filepath.FromSlash(d), ".gitkeep")
		if err := os.WriteFile(keep, nil, 0o644); err != nil {
			return fmt.Errorf("failed to create %s: %w", keep, err)
		}
	}
	return nil
}

// writeFiles renders and writes every template file.
func writeFiles(dir string, p *config.Project) error {
	readme, err := render(readmeTemplate, readmeData{Name: p.Name, Description: p.Description})
	if err != nil {
		return err
	}

	project, err := render(projectFileTemplate, projectFileData{
		Name:          jsonString(p.Name),
		Description:   jsonString(p.Description),
		PythonVersion: p.PythonVersion,
		LabImage:      p.Lab.Image,
		LabPort:       p.Lab.Port,
	})
	if err != nil {
		return err
	}

	files := map[string][]byte{
		config.FileName:    project,
		"README.md":        readme,
		".gitignore":       []byte(gitignore),
		"requirements.txt": []byte(requirements),
		"environment.yml":  []byte(fmt.Sprintf(environmentYMLTemplate, p.Name, p.PythonVersion)),

		// The placeholder README doubles as the docs and notebooks
		// landing page until the author replaces it.
		filepath.Join("docs", "README.md"): readme,

		filepath.Join(p.SourceDir, "__init__.py"): nil,
		filepath.Join(p.TestDir, "__init__.py"):   nil,
	}
	for _, pkg := range pythonPackageDirs {
		files[filepath.Join(p.SourceDir, pkg, "__init__.py")] = nil
	}
	for _, nb := range p.NotebookDirs {
		files[filepath.Join(nb, "README.md")] = readme
	}

	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

// jsonString encodes s as a JSON string literal, quotes included.
// Free-form input (the --description flag) goes through here so it can
// never break the generated sciops.jsonc.
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// render executes a template into memory.
func render(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return buf.Bytes(), nil
}
