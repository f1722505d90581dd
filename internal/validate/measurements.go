package validate

import (
	"fmt"
	"math"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// checkMeasurements verifies structural dimensions against OEM nominal
// tolerances and requires pre/post measurement documentation whenever
// the estimate carries structural work.
func checkMeasurements(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation

	structural := false
	for _, op := range e.Operations {
		if op.Type == estimate.OpStructural || op.SectionLocation != "" || op.DamageLevel == "heavy" {
			structural = true
			break
		}
	}

	m := e.Measurements
	if m == nil {
		if structural {
			violations = append(violations, Violation{
				Type:     TypeMeasurements,
				Severity: SeverityHigh,
				Message:  "structural repair requires body measurements; none documented",
			})
		}
		return violations, nil
	}

	if structural {
		if !m.PreRepair {
			violations = append(violations, Violation{
				Type:     TypeMeasurements,
				Severity: SeverityHigh,
				Message:  "structural repair requires pre-repair measurements",
			})
		}
		if !m.PostRepair {
			violations = append(violations, Violation{
				Type:     TypeMeasurements,
				Severity: SeverityHigh,
				Message:  "structural repair requires post-repair measurements",
			})
		}
	}

	violations = append(violations, checkBody(rs, "upper body", m.UpperBody)...)
	violations = append(violations, checkBody(rs, "lower body", m.LowerBody)...)

	for _, sp := range m.Symmetry {
		dev := math.Abs(sp.Left - sp.Right)
		if dev > rs.Structural.SymmetryMaxMM {
			violations = append(violations, Violation{
				Type:     TypeMeasurements,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("symmetry point %s deviates %.1fmm left to right, beyond the %.1fmm limit",
					sp.Name, dev, rs.Structural.SymmetryMaxMM),
				Current:  dev,
				Required: rs.Structural.SymmetryMaxMM,
				Ref:      sp.Name,
			})
		}
	}

	return violations, nil
}

func checkBody(rs *rules.RuleSet, section string, b *estimate.BodyMeasurements) []Violation {
	if b == nil {
		return nil
	}

	var violations []Violation
	dims := []struct {
		name string
		d    estimate.Dimension
	}{
		{"length", b.Length},
		{"width", b.Width},
		{"height", b.Height},
	}
	for _, dim := range dims {
		if dim.d.Nominal == 0 {
			continue
		}
		dev := math.Abs(dim.d.Actual - dim.d.Nominal)
		if dev > rs.Structural.ToleranceMM {
			violations = append(violations, Violation{
				Type:     TypeMeasurements,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("%s %s deviates %.1fmm from OEM nominal, beyond the %.1fmm tolerance",
					section, dim.name, dev, rs.Structural.ToleranceMM),
				Current:  dev,
				Required: rs.Structural.ToleranceMM,
				Ref:      section + " " + dim.name,
			})
		}
	}
	return violations
}
