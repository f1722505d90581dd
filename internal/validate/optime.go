package validate

import (
	"fmt"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// unusualOpHours flags a single operation billed beyond a plausible
// duration.
const unusualOpHours = 40.0

func checkOperationTime(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation
	var warnings []Warning

	tol := rs.OperationTime.ToleranceMultiplier
	if tol <= 0 {
		tol = 1.2
	}

	for _, op := range e.Operations {
		if op.StandardHours > 0 && op.Hours > op.StandardHours*tol {
			violations = append(violations, Violation{
				Type:     TypeOperationTime,
				Severity: SeverityMedium,
				Message: fmt.Sprintf("operation %s billed %.1fh exceeds standard time %.1fh by %.1fh",
					op.ID, op.Hours, op.StandardHours, op.Hours-op.StandardHours),
				Current:  op.Hours,
				Required: op.StandardHours,
				Ref:      op.ID,
			})
		}
		if op.Hours > unusualOpHours {
			warnings = append(warnings, Warning{
				Type:           WarnUnusualValue,
				Message:        fmt.Sprintf("operation %s billed %.1fh on a single line item", op.ID, op.Hours),
				Recommendation: "confirm the hours were not entered in error",
				Ref:            op.ID,
			})
		}
	}
	return violations, warnings
}
