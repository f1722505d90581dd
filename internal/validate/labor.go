package validate

import (
	"fmt"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// unusualRate is the hourly rate above which a billed rate is flagged
// for human attention even when the program ceiling allows it.
const unusualRate = 200.0

func checkLaborRates(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation
	var warnings []Warning

	for _, op := range e.Operations {
		max, ok := rs.LaborRates[op.RateCategory]
		if !ok {
			violations = append(violations, Violation{
				Type:     TypeLaborRate,
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("operation %s uses unknown rate category %q", op.ID, op.RateCategory),
				Ref:      op.ID,
			})
			continue
		}
		if op.Rate > max {
			violations = append(violations, Violation{
				Type:     TypeLaborRate,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("operation %s %s rate $%.2f/hr exceeds program maximum $%.2f/hr",
					op.ID, op.RateCategory, op.Rate, max),
				Current:  op.Rate,
				Required: max,
				Ref:      op.ID,
			})
		}
		if op.Rate > unusualRate {
			warnings = append(warnings, Warning{
				Type:           WarnUnusualValue,
				Message:        fmt.Sprintf("operation %s rate $%.2f/hr is unusually high", op.ID, op.Rate),
				Recommendation: "verify the rate was not entered in error",
				Ref:            op.ID,
			})
		}
	}
	return violations, warnings
}
