package validate

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// checkCorrosion verifies that every operation which disturbs factory
// corrosion protection re-applies the required steps. Requirements are
// keyed by operation code; any welding operation falls back to the
// welding requirement set.
func checkCorrosion(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation

	for _, op := range e.Operations {
		required, ok := rs.Corrosion.Required[op.Code]
		if !ok && op.Weld != nil {
			required, ok = rs.Corrosion.Required["welding"]
		}
		if !ok {
			continue
		}

		applied := make(map[string]bool, len(op.CorrosionProtection))
		for _, step := range op.CorrosionProtection {
			applied[step] = true
		}

		var missing []string
		for _, step := range required {
			if !applied[step] {
				missing = append(missing, step)
			}
		}
		if len(missing) > 0 {
			violations = append(violations, Violation{
				Type:     TypeCorrosion,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("operation %s is missing corrosion protection: %s",
					op.ID, strings.Join(missing, ", ")),
				Ref: op.ID,
			})
		}
	}
	return violations, nil
}
