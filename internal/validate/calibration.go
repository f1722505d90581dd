package validate

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// checkCalibration requires a calibration plan for every ADAS system
// disturbed by an operation, with the calibration type the system
// needs.
func checkCalibration(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation

	planned := make(map[string]estimate.Calibration, len(e.Calibrations))
	for _, c := range e.Calibrations {
		planned[c.System] = c
	}

	seen := make(map[string]bool)
	for _, op := range e.Operations {
		for _, system := range rs.Calibration.AffectedSystems[op.Code] {
			if seen[system] {
				continue
			}
			seen[system] = true

			plan, ok := planned[system]
			if !ok {
				violations = append(violations, Violation{
					Type:     TypeCalibration,
					Severity: SeverityHigh,
					Message: fmt.Sprintf("operation %s disturbs %s but no calibration is planned",
						op.ID, system),
					Ref: system,
				})
				continue
			}
			if want := rs.Calibration.Types[system]; want != "" && plan.Type != want {
				violations = append(violations, Violation{
					Type:     TypeCalibration,
					Severity: SeverityMedium,
					Message: fmt.Sprintf("%s requires %s calibration but %s is planned",
						system, want, plan.Type),
					Ref: system,
				})
			}
			if plan.Type == "static" {
				if missing := staticSetupGaps(plan); len(missing) > 0 {
					violations = append(violations, Violation{
						Type:     TypeCalibration,
						Severity: SeverityMedium,
						Message: fmt.Sprintf("static calibration of %s is missing setup documentation: %s",
							system, strings.Join(missing, ", ")),
						Ref: system,
					})
				}
			}
		}
	}
	return violations, nil
}

// staticSetupGaps lists the setup documentation a static calibration
// plan is missing. Targets cannot be placed without the tooling, a
// controlled environment, the equipment, and verified floor space.
func staticSetupGaps(plan estimate.Calibration) []string {
	var missing []string
	if plan.Tooling == "" {
		missing = append(missing, "tooling")
	}
	if plan.Environment == "" {
		missing = append(missing, "environment")
	}
	if len(plan.Equipment) == 0 {
		missing = append(missing, "equipment")
	}
	if plan.Space.Length <= 0 || plan.Space.Width <= 0 || plan.Space.Height <= 0 {
		missing = append(missing, "floor space")
	}
	return missing
}
