package validate

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// checkSafetySystems requires a complete restoration plan for every
// safety system disturbed by an operation. Missing or incomplete
// restoration of a safety system is critical: the vehicle must not be
// returned without it.
func checkSafetySystems(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation

	plans := make(map[string]estimate.SafetyRestoration, len(e.SafetyPlans))
	for _, p := range e.SafetyPlans {
		plans[p.System] = p
	}

	seen := make(map[string]bool)
	for _, op := range e.Operations {
		for _, system := range rs.Safety.Impact[op.Code] {
			if seen[system] {
				continue
			}
			seen[system] = true

			spec, ok := rs.Safety.Systems[system]
			if !ok {
				continue
			}

			plan, ok := plans[system]
			if !ok {
				violations = append(violations, Violation{
					Type:     TypeSafetySystem,
					Severity: SeverityCritical,
					Message: fmt.Sprintf("operation %s disturbs the %s system but no restoration plan is documented",
						op.ID, system),
					Ref: system,
				})
				continue
			}
			violations = append(violations, checkRestoration(system, spec, plan)...)
		}
	}
	return violations, nil
}

func checkRestoration(system string, spec rules.SafetySpec, plan estimate.SafetyRestoration) []Violation {
	var violations []Violation

	have := make(map[string]bool, len(plan.Parts))
	for _, p := range plan.Parts {
		have[p.Type] = true
	}
	var missing []string
	for _, part := range spec.RequiredParts {
		if !have[part] {
			missing = append(missing, part)
		}
	}
	if len(missing) > 0 {
		violations = append(violations, Violation{
			Type:     TypeSafetySystem,
			Severity: SeverityCritical,
			Message: fmt.Sprintf("%s restoration is missing required parts: %s",
				system, strings.Join(missing, ", ")),
			Ref: system,
		})
	}

	if spec.TestProtocol != "" && plan.TestProtocol != spec.TestProtocol {
		violations = append(violations, Violation{
			Type:     TypeSafetySystem,
			Severity: SeverityCritical,
			Message: fmt.Sprintf("%s restoration must follow the %s test protocol",
				system, spec.TestProtocol),
			Ref: system,
		})
	}

	if !plan.FollowsOEMProcedure {
		violations = append(violations, Violation{
			Type:     TypeSafetySystem,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("%s restoration does not follow the documented OEM procedure", system),
			Ref:      system,
		})
	}

	done := make(map[string]bool, len(plan.CompletedTests))
	for _, t := range plan.CompletedTests {
		done[t] = true
	}
	var untested []string
	for _, t := range spec.RequiredTests {
		if !done[t] {
			untested = append(untested, t)
		}
	}
	if len(untested) > 0 {
		violations = append(violations, Violation{
			Type:     TypeSafetySystem,
			Severity: SeverityHigh,
			Message: fmt.Sprintf("%s restoration has incomplete tests: %s",
				system, strings.Join(untested, ", ")),
			Ref: system,
		})
	}

	if !plan.EquipmentCalibrated {
		violations = append(violations, Violation{
			Type:     TypeSafetySystem,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("%s restoration test equipment is not calibrated", system),
			Ref:      system,
		})
	}

	if !certified(spec.Certifications, plan) {
		violations = append(violations, Violation{
			Type:     TypeSafetySystem,
			Severity: SeverityHigh,
			Message: fmt.Sprintf("%s restoration requires a technician certified in: %s",
				system, strings.Join(spec.Certifications, ", ")),
			Ref: system,
		})
	}

	return violations
}

// certified reports whether the plan's technician holds at least one of
// the required certifications.
func certified(required []string, plan estimate.SafetyRestoration) bool {
	if len(required) == 0 {
		return true
	}
	if !plan.TechnicianCertified {
		return false
	}
	for _, want := range required {
		for _, have := range plan.Certifications {
			if want == have {
				return true
			}
		}
	}
	return false
}
