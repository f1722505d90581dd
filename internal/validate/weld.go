package validate

import (
	"fmt"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// checkWeldQuality validates every weld on the estimate against the
// program's per-type acceptance envelope and the shared appearance
// limits. Penetration failures are critical: they compromise the
// structural repair.
func checkWeldQuality(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation

	for _, op := range e.Operations {
		w := op.Weld
		if w == nil {
			continue
		}

		spec, ok := rs.Welds.Specs[string(w.Type)]
		if !ok {
			violations = append(violations, Violation{
				Type:     TypeWeldQuality,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("operation %s uses unrecognized weld type %q", op.ID, w.Type),
				Ref:      op.ID,
			})
			continue
		}

		if w.PenetrationPct < spec.MinPenetrationPct {
			violations = append(violations, Violation{
				Type:     TypeWeldQuality,
				Severity: SeverityCritical,
				Message: fmt.Sprintf("operation %s %s weld penetration %.0f%% is below the required %.0f%%",
					op.ID, w.Type, w.PenetrationPct, spec.MinPenetrationPct),
				Current:  w.PenetrationPct,
				Required: spec.MinPenetrationPct,
				Ref:      op.ID,
			})
		}
		if w.SizeMM < spec.MinSizeMM || w.SizeMM > spec.MaxSizeMM {
			violations = append(violations, Violation{
				Type:     TypeWeldQuality,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("operation %s %s weld size %.1fmm is outside the %.1f-%.1fmm range",
					op.ID, w.Type, w.SizeMM, spec.MinSizeMM, spec.MaxSizeMM),
				Current: w.SizeMM,
				Ref:     op.ID,
			})
		}
		if spec.MinSpacingMM > 0 && w.SpacingMM > 0 && w.SpacingMM < spec.MinSpacingMM {
			violations = append(violations, Violation{
				Type:     TypeWeldQuality,
				Severity: SeverityHigh,
				Message: fmt.Sprintf("operation %s %s weld spacing %.0fmm is below the required %.0fmm",
					op.ID, w.Type, w.SpacingMM, spec.MinSpacingMM),
				Current:  w.SpacingMM,
				Required: spec.MinSpacingMM,
				Ref:      op.ID,
			})
		}

		violations = append(violations, checkWeldAppearance(rs.Welds.Appearance, e.Vehicle.Material, op.ID, w)...)
	}
	return violations, nil
}

func checkWeldAppearance(app rules.WeldAppearanceSpec, material, opID string, w *estimate.Weld) []Violation {
	var violations []Violation

	if w.PorosityPct > app.MaxPorosityPct {
		violations = append(violations, Violation{
			Type:     TypeWeldQuality,
			Severity: SeverityMedium,
			Message: fmt.Sprintf("operation %s weld porosity %.1f%% exceeds the %.1f%% limit",
				opID, w.PorosityPct, app.MaxPorosityPct),
			Current:  w.PorosityPct,
			Required: app.MaxPorosityPct,
			Ref:      opID,
		})
	}
	if w.UndercutMM > app.MaxUndercutMM {
		violations = append(violations, Violation{
			Type:     TypeWeldQuality,
			Severity: SeverityMedium,
			Message: fmt.Sprintf("operation %s weld undercut %.2fmm exceeds the %.2fmm limit",
				opID, w.UndercutMM, app.MaxUndercutMM),
			Current:  w.UndercutMM,
			Required: app.MaxUndercutMM,
			Ref:      opID,
		})
	}
	// Spatter only counts near the weld; distant spatter is cosmetic.
	if w.SpatterCoveragePct > app.MaxSpatterCoveragePct && w.SpatterDistanceMM <= app.MaxSpatterDistanceMM {
		violations = append(violations, Violation{
			Type:     TypeWeldQuality,
			Severity: SeverityMedium,
			Message: fmt.Sprintf("operation %s weld spatter coverage %.1f%% within %.0fmm exceeds the %.1f%% limit",
				opID, w.SpatterCoveragePct, app.MaxSpatterDistanceMM, app.MaxSpatterCoveragePct),
			Current:  w.SpatterCoveragePct,
			Required: app.MaxSpatterCoveragePct,
			Ref:      opID,
		})
	}

	if w.Color != "" {
		if acceptable, ok := app.AcceptableColors[material]; ok && !contains(acceptable, w.Color) {
			violations = append(violations, Violation{
				Type:     TypeWeldQuality,
				Severity: SeverityMedium,
				Message: fmt.Sprintf("operation %s weld color %q indicates improper heat input for %s",
					opID, w.Color, material),
				Ref: opID,
			})
		}
	}

	return violations
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
