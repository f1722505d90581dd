package validate

import (
	"fmt"
	"math"
	"sort"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// Tolerances on computed refinish times, in hours. Estimating systems
// round to a tenth, so exact comparison would flag every line.
const (
	stageTimeTolerance = 0.1
	blendTimeTolerance = 0.2
)

// blendMaxDamageRatio is the damage-to-panel-area ratio above which a
// blend is no longer appropriate and the panel needs a full refinish.
const blendMaxDamageRatio = 0.30

// checkRefinishOverlap requires an overlap deduction line for every
// pair of adjacent panels that are both refinished.
func checkRefinishOverlap(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	if !rs.Refinish.RequireOverlapDeduction {
		return nil, nil
	}

	panels := e.RefinishedPanels()
	if len(panels) < 2 {
		return nil, nil
	}

	deducted := make(map[string]bool)
	for _, r := range e.Refinish {
		if r.Kind == estimate.RefinishOverlapDeduction && len(r.Panels) == 2 {
			deducted[pairKey(r.Panels[0], r.Panels[1])] = true
		}
	}

	codes := make([]string, 0, len(panels))
	for p := range panels {
		codes = append(codes, p)
	}
	sort.Strings(codes)

	var violations []Violation
	for i, a := range codes {
		for _, b := range codes[i+1:] {
			if !rs.Refinish.Adjacent(a, b) {
				continue
			}
			if deducted[pairKey(a, b)] {
				continue
			}
			violations = append(violations, Violation{
				Type:     TypeRefinishOverlap,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("adjacent panels %s and %s are both refinished without an overlap deduction",
					a, b),
				Ref: pairKey(a, b),
			})
		}
	}
	return violations, nil
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "+" + b
}

// checkRefinishCalculations verifies stage multipliers, blend time
// formulas, and blend eligibility on every refinish line.
func checkRefinishCalculations(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation

	for _, r := range e.Refinish {
		if r.Kind != estimate.RefinishPanel {
			continue
		}

		if r.BaseHours > 0 {
			expected := r.BaseHours
			switch {
			case r.IsThreeStage:
				expected *= rs.Refinish.ThreeStageMultiplier
			case r.IsPearl:
				expected *= rs.Refinish.PearlMultiplier
			}
			if r.RequiresEdging && rs.Refinish.ClearcoatEdging {
				expected += rs.Refinish.EdgingHours
			}
			billed := r.TotalHours - r.BlendHours
			if math.Abs(billed-expected) > stageTimeTolerance {
				violations = append(violations, Violation{
					Type:     TypeRefinishCalculation,
					Severity: SeverityMedium,
					Message: fmt.Sprintf("panel %s refinish time %.1fh does not match calculated %.1fh",
						r.PanelCode, billed, expected),
					Current:  billed,
					Required: expected,
					Ref:      r.ID,
				})
			}
		}

		if r.IsBlend {
			violations = append(violations, checkBlend(rs, r)...)
		}
	}
	return violations, nil
}

func checkBlend(rs *rules.RuleSet, r estimate.RefinishOperation) []Violation {
	var violations []Violation

	if r.BlendHours > 0 && math.Abs(r.BlendHours-rs.Refinish.BlendHours) > blendTimeTolerance {
		violations = append(violations, Violation{
			Type:     TypeRefinishCalculation,
			Severity: SeverityMedium,
			Message: fmt.Sprintf("panel %s blend time %.1fh does not match allowance %.1fh",
				r.PanelCode, r.BlendHours, rs.Refinish.BlendHours),
			Current:  r.BlendHours,
			Required: rs.Refinish.BlendHours,
			Ref:      r.ID,
		})
	}

	if r.PanelArea > 0 {
		ratio := r.DamageArea / r.PanelArea
		if ratio >= blendMaxDamageRatio {
			violations = append(violations, Violation{
				Type:     TypeBlendRequirements,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("panel %s damage covers %.0f%% of the panel; blend is not appropriate, full refinish required",
					r.PanelCode, ratio*100),
				Current:  ratio * 100,
				Required: blendMaxDamageRatio * 100,
				Ref:      r.ID,
			})
		}
	}

	if threshold, ok := rs.Color.MatchThresholds[r.Paint.Type]; ok && r.ColorMatchConfidence > 0 && r.ColorMatchConfidence < threshold {
		violations = append(violations, Violation{
			Type:     TypeBlendRequirements,
			Severity: SeverityMedium,
			Message: fmt.Sprintf("panel %s color match confidence %.2f is below the %s paint threshold %.2f",
				r.PanelCode, r.ColorMatchConfidence, r.Paint.Type, threshold),
			Current:  r.ColorMatchConfidence,
			Required: threshold,
			Ref:      r.ID,
		})
	}

	if !r.BoothAvailable || !r.ClearanceOK {
		violations = append(violations, Violation{
			Type:     TypeBlendRequirements,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("panel %s blend requires booth availability and clearance verification", r.PanelCode),
			Ref:      r.ID,
		})
	}

	if rs.Refinish.BlendWithinInches > 0 && r.BlendAreaInches > rs.Refinish.BlendWithinInches {
		violations = append(violations, Violation{
			Type:     TypeBlendRequirements,
			Severity: SeverityLow,
			Message: fmt.Sprintf("panel %s blend extends %.0f inches, beyond the %.0f inch allowance",
				r.PanelCode, r.BlendAreaInches, rs.Refinish.BlendWithinInches),
			Current:  r.BlendAreaInches,
			Required: rs.Refinish.BlendWithinInches,
			Ref:      r.ID,
		})
	}

	return violations
}
