package validate

import (
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// checkRepairQuality validates measured paint film thickness per layer
// and color difference readings against the program's acceptance
// limits.
func checkRepairQuality(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation

	for _, r := range e.Refinish {
		if r.Kind != estimate.RefinishPanel {
			continue
		}

		layers := make([]string, 0, len(r.PaintThickness))
		for layer := range r.PaintThickness {
			layers = append(layers, layer)
		}
		sort.Strings(layers)

		for _, layer := range layers {
			band, ok := rs.Quality.PaintThickness[layer]
			if !ok {
				continue
			}
			mils := r.PaintThickness[layer]
			if mils < band.Min || mils > band.Max {
				violations = append(violations, Violation{
					Type:     TypeRepairQuality,
					Severity: SeverityMedium,
					Message: fmt.Sprintf("panel %s %s thickness %.2f mils is outside the %.1f-%.1f mil range",
						r.PanelCode, layer, mils, band.Min, band.Max),
					Current: mils,
					Ref:     r.ID,
				})
			}
		}

		if r.ColorDeltaE > 0 {
			if max, ok := rs.Quality.ColorDeltaETolerance[r.Paint.Type]; ok && r.ColorDeltaE > max {
				violations = append(violations, Violation{
					Type:     TypeRepairQuality,
					Severity: SeverityMedium,
					Message: fmt.Sprintf("panel %s color difference ΔE %.1f exceeds the %s paint tolerance %.1f",
						r.PanelCode, r.ColorDeltaE, r.Paint.Type, max),
					Current:  r.ColorDeltaE,
					Required: max,
					Ref:      r.ID,
				})
			}
		}
	}
	return violations, nil
}
