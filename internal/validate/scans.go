package validate

import (
	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// checkDiagnosticScans requires pre and post repair scans whenever any
// operation touches a safety system or requires calibration.
func checkDiagnosticScans(_ *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	needed := false
	for _, op := range e.Operations {
		if op.AffectsSafety || op.RequiresCalibration {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}

	var violations []Violation
	if !e.Scans.PreScan {
		violations = append(violations, Violation{
			Type:     TypeDiagnosticScans,
			Severity: SeverityHigh,
			Message:  "pre-repair diagnostic scan is required for safety or calibration related repairs",
		})
	}
	if !e.Scans.PostScan {
		violations = append(violations, Violation{
			Type:     TypeDiagnosticScans,
			Severity: SeverityHigh,
			Message:  "post-repair diagnostic scan is required for safety or calibration related repairs",
		})
	}
	return violations, nil
}
