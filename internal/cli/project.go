// project.go holds the shared project-loading and toolchain-resolution
// helpers used by every subcommand that operates inside a workspace.
package cli

import (
	"github.com/sciops-cli/sciops/internal/config"
	"github.com/sciops-cli/sciops/internal/model"
	"github.com/sciops-cli/sciops/internal/task"
	"github.com/sciops-cli/sciops/internal/toolchain"
)

// loadProject locates sciops.jsonc starting from the current directory
// and loads it. The search walks parent directories, so subcommands work
// from anywhere inside a project tree.
func loadProject() (workspaceDir string, p *config.Project, err error) {
	workspaceDir, filePath, err := config.Find(".")
	if err != nil {
		return "", nil, err
	}
	VerboseLog("using project file %s", filePath)

	p, err = config.Load(filePath)
	if err != nil {
		return "", nil, err
	}
	return workspaceDir, p, nil
}

// newTaskContext loads the project and resolves the package manager.
//
// A manager pinned in the project file wins; otherwise the PATH is
// probed in mamba → conda → pip order. The system interpreter is
// resolved only for pip, which needs it to create and use the venv.
func newTaskContext() (*task.Context, error) {
	workspaceDir, p, err := loadProject()
	if err != nil {
		return nil, err
	}

	manager, pinned, err := p.Manager()
	if err != nil {
		return nil, err
	}

	detector := toolchain.NewDetector()
	if pinned {
		VerboseLog("package manager pinned to %s", manager)
	} else {
		manager, err = detector.DetectManager()
		if err != nil {
			return nil, err
		}
		VerboseLog("detected package manager %s", manager)
	}

	tc := &task.Context{
		Workspace: workspaceDir,
		Project:   p,
		Manager:   manager,
	}
	if manager == model.ManagerPip {
		tc.PythonBin, err = detector.PythonBinary()
		if err != nil {
			return nil, model.WrapCLIError(
				model.ExitToolNotFound,
				"pip selected but no Python interpreter found on PATH",
				err,
			)
		}
	}
	return tc, nil
}
