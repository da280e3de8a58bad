package workflow

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sciops-cli/sciops/internal/model"
)

// requiredOrder is the mandatory step sequence. Optional steps
// (security-scan, upload-coverage) may be absent, but when present they
// must sit at their canonical position relative to the others.
var requiredOrder = []string{
	StepCheckout,
	StepSetupPython,
	StepInstall,
	StepLint,
	StepTypeCheck,
	StepSecurityScan,
	StepTest,
	StepCoverage,
}

// optionalSteps may be omitted from a valid workflow.
var optionalSteps = map[string]bool{
	StepSecurityScan: true,
	StepCoverage:     true,
}

// CheckFile validates the workflow file at the given path.
func CheckFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.WrapCLIError(
				model.ExitWorkflowInvalid,
				fmt.Sprintf("workflow file not found: %s (run `sciops ci generate`)", path),
				err,
			)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Check(data)
}

// Check validates workflow YAML against the canonical shape:
//
//   - it parses, and contains exactly one job
//   - every mandatory step is present, identified by its id
//   - the steps appear in the canonical order
//   - the coverage step, when present, references a secret rather than an
//     inline token
//
// Violations return a CLIError with ExitWorkflowInvalid.
func Check(data []byte) error {
	var w Workflow
	if err := yaml.Unmarshal(data, &w); err != nil {
		return model.WrapCLIError(model.ExitWorkflowInvalid, "workflow is not valid YAML", err)
	}

	if len(w.Jobs) != 1 {
		return model.NewCLIError(
			model.ExitWorkflowInvalid,
			fmt.Sprintf("workflow must define exactly one job, found %d", len(w.Jobs)),
		)
	}

	var job Job
	for _, j := range w.Jobs {
		job = j
	}

	if err := checkOrder(job.Steps); err != nil {
		return err
	}

	return checkCoverageSecret(job.Steps)
}

// checkOrder walks the canonical sequence and the actual step IDs in
// lockstep. Steps without an id are ignored: users may add custom steps
// (caching, notifications) anywhere without failing validation.
func checkOrder(steps []Step) error {
	position := make(map[string]int, len(requiredOrder))
	for i, id := range requiredOrder {
		position[id] = i
	}

	seen := make(map[string]bool, len(steps))
	last := -1
	for _, s := range steps {
		if s.ID == "" {
			continue
		}
		pos, known := position[s.ID]
		if !known {
			continue
		}
		if seen[s.ID] {
			return model.NewCLIError(
				model.ExitWorkflowInvalid,
				fmt.Sprintf("workflow step %q appears more than once", s.ID),
			)
		}
		seen[s.ID] = true
		if pos < last {
			return model.NewCLIError(
				model.ExitWorkflowInvalid,
				fmt.Sprintf("workflow step %q is out of order (expected %s; found %s)",
					s.ID, strings.Join(requiredOrder, " -> "), stepSummary(steps)),
			)
		}
		last = pos
	}

	for _, id := range requiredOrder {
		if optionalSteps[id] {
			continue
		}
		if !seen[id] {
			return model.NewCLIError(
				model.ExitWorkflowInvalid,
				fmt.Sprintf("workflow is missing required step %q", id),
			)
		}
	}
	return nil
}

// checkCoverageSecret verifies the coverage upload consumes its token via
// the secrets context. An inline token in the YAML would end up committed.
func checkCoverageSecret(steps []Step) error {
	for _, s := range steps {
		if s.ID != StepCoverage {
			continue
		}
		for _, v := range s.Env {
			if strings.Contains(v, "${{ secrets.") {
				return nil
			}
		}
		return model.NewCLIError(
			model.ExitWorkflowInvalid,
			"coverage upload step must take its token from the secrets context",
		)
	}
	return nil
}
