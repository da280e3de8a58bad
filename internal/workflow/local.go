package workflow

import (
	"github.com/sciops-cli/sciops/internal/model"
	"github.com/sciops-cli/sciops/internal/runner"
	"github.com/sciops-cli/sciops/internal/task"
)

// LocalSteps renders the workflow's runnable steps for local execution by
// `sciops ci run`.
//
// Host-only steps are skipped: checkout (the workspace is the checkout),
// setup-python (the local toolchain is whatever is installed), and the
// coverage upload (pointless without the CI secret). What remains runs in
// the same order CI would: install → lint → type-check → security-scan →
// test.
//
// The steps come from the task registry rather than re-spelling the
// command lines, so local CI and `sciops run` cannot drift apart.
func LocalSteps(tc *task.Context) ([]runner.Step, error) {
	var steps []runner.Step

	for _, target := range []model.Target{
		model.TargetDeps,
		model.TargetLint,
		model.TargetMypy,
	} {
		targetSteps, err := task.Steps(tc, target)
		if err != nil {
			return nil, err
		}
		steps = append(steps, targetSteps...)
	}

	if tc.Project.CI.SecurityScanEnabled() {
		steps = append(steps, runner.Command(tc.Tool("bandit"), "-r", tc.Project.SourceDir))
	}

	testSteps, err := task.Steps(tc, model.TargetTest)
	if err != nil {
		return nil, err
	}
	return append(steps, testSteps...), nil
}
