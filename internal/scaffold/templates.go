// templates.go holds the static and templated file contents written by
// `sciops new`. The README is rendered three times (project root, docs/,
// notebooks/) from the same placeholder template; each copy is a landing
// page until the project author replaces it.
package scaffold

import "text/template"

// readmeTemplate is the placeholder README rendered into the project
// root, docs/ and notebooks/. Placeholders beyond name and description
// are left for the project author to fill in.
var readmeTemplate = template.Must(template.New("readme").Parse(`# {{.Name}}

{{.Description}}

## Installation

Create the Python environment and install dependencies:

` + "```sh" + `
sciops run env
sciops run deps
` + "```" + `

Dependency installation picks the fastest available package manager
automatically (mamba, then conda, then pip).

## Usage

` + "```sh" + `
sciops tasks            # list all targets
sciops run data         # download the configured datasets
sciops run lint mypy    # quality checks
sciops run test         # pytest with coverage
sciops lab start        # Jupyter Lab in a container
` + "```" + `

## Project layout

` + "```" + `
src/            Python source (data, features, visualization)
tests/          pytest suite
notebooks/      exploratory notebooks (outputs are stripped on clean)
data/raw/       immutable source data
data/processed/ derived datasets
` + "```" + `
`))

// readmeData is the template context for readmeTemplate.
type readmeData struct {
	Name        string
	Description string
}

// projectFileTemplate is the default sciops.jsonc. It is JSONC on
// purpose: the comments document each knob in place. Name and
// Description arrive pre-encoded as JSON string literals, so a
// description containing quotes or newlines cannot corrupt the file.
var projectFileTemplate = template.Must(template.New("project").Parse(`{
  // sciops project file. Run ` + "`sciops tasks`" + ` to see the task surface.
  "name": {{.Name}},
  "description": {{.Description}},

  // Interpreter version used by the env target and CI.
  "pythonVersion": "{{.PythonVersion}}",

  // Leave empty to auto-detect: mamba, then conda, then pip.
  "packageManager": "",

  // Datasets fetched by ` + "`sciops run data`" + `. Example:
  // {
  //   "name": "telco",
  //   "url": "https://example.com/telco.zip",
  //   "files": ["telco.csv"]
  // }
  "datasets": [],

  "lab": {
    "image": "{{.LabImage}}",
    "port": {{.LabPort}}
  },

  "ci": {
    "securityScan": true,
    "coverageUpload": true
  }
}
`))

// projectFileData is the template context for projectFileTemplate.
// Name and Description must be JSON string literals (see jsonString).
type projectFileData struct {
	Name          string
	Description   string
	PythonVersion string
	LabImage      string
	LabPort       int
}

// gitignore covers the artifacts the clean-* targets manage plus the
// usual Python noise.
const gitignore = `# Python
__pycache__/
*.py[cod]
.venv/
*.egg-info/

# Test and coverage artifacts
.pytest_cache/
.mypy_cache/
.coverage*
htmlcov/

# Jupyter
.ipynb_checkpoints/

# Data (fetched via sciops run data)
data/raw/*
data/processed/*
!data/raw/.gitkeep
!data/processed/.gitkeep

# Environment
.env
`

// requirements pins nothing: version choice belongs to the project.
// The tool set matches what the task targets and CI invoke.
const requirements = `# Project dependencies

# Tooling used by sciops targets and CI
flake8
isort
black
mypy
bandit
pytest
pytest-cov
`

// environmentYML mirrors requirements.txt for conda-family managers.
const environmentYMLTemplate = `name: %s
channels:
  - conda-forge
dependencies:
  - python=%s
  - flake8
  - isort
  - black
  - mypy
  - bandit
  - pytest
  - pytest-cov
`

// pythonPackageDirs are the src/ subpackages the template ships with.
var pythonPackageDirs = []string{"data", "features", "visualization"}
