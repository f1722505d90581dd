package validate

import (
	"fmt"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// unusualPartPrice flags single part lines for human attention.
const unusualPartPrice = 10_000.0

func checkParts(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation
	var warnings []Warning

	total := len(e.Parts)
	if total == 0 {
		return nil, nil
	}

	counts := make(map[estimate.PartType]int)
	for _, p := range e.Parts {
		counts[p.Type]++
	}
	pct := func(t estimate.PartType) float64 {
		return float64(counts[t]) / float64(total) * 100
	}

	if am := pct(estimate.PartAftermarket); am < rs.Parts.MinAftermarketPct {
		violations = append(violations, Violation{
			Type:     TypePartsUsage,
			Severity: SeverityMedium,
			Message: fmt.Sprintf("aftermarket parts usage %.0f%% is below the program minimum %.0f%%",
				am, rs.Parts.MinAftermarketPct),
			Current:  am,
			Required: rs.Parts.MinAftermarketPct,
		})
	}
	if rc := pct(estimate.PartRecycled); rc < rs.Parts.MinRecycledPct {
		violations = append(violations, Violation{
			Type:     TypePartsUsage,
			Severity: SeverityMedium,
			Message: fmt.Sprintf("recycled parts usage %.0f%% is below the program minimum %.0f%%",
				rc, rs.Parts.MinRecycledPct),
			Current:  rc,
			Required: rs.Parts.MinRecycledPct,
		})
	}
	if lkq := pct(estimate.PartLKQ); lkq > rs.Parts.MaxLKQPct {
		violations = append(violations, Violation{
			Type:     TypePartsUsage,
			Severity: SeverityMedium,
			Message: fmt.Sprintf("LKQ parts usage %.0f%% exceeds the program maximum %.0f%%",
				lkq, rs.Parts.MaxLKQPct),
			Current:  lkq,
			Required: rs.Parts.MaxLKQPct,
		})
	}

	for _, p := range e.Parts {
		if p.Type == estimate.PartOEM && p.ListPrice > 0 {
			markup := (p.Price - p.ListPrice) / p.ListPrice * 100
			if markup > rs.Parts.MaxOEMMarkupPct {
				violations = append(violations, Violation{
					Type:     TypePartsMarkup,
					Severity: SeverityHigh,
					Message: fmt.Sprintf("part %s OEM markup %.0f%% exceeds the program maximum %.0f%%",
						p.ID, markup, rs.Parts.MaxOEMMarkupPct),
					Current:  markup,
					Required: rs.Parts.MaxOEMMarkupPct,
					Ref:      p.ID,
				})
			}
		}

		if p.Type == estimate.PartAftermarket && p.Certification != "" && !rs.Parts.VendorApproved(p.Certification) {
			warnings = append(warnings, Warning{
				Type:           WarnVendorCompliance,
				Message:        fmt.Sprintf("part %s certification %q is not on the approved vendor list", p.ID, p.Certification),
				Recommendation: "source from a CAPA, NSF, or program-approved vendor",
				Ref:            p.ID,
			})
		}

		if p.Price > unusualPartPrice {
			warnings = append(warnings, Warning{
				Type:           WarnUnusualValue,
				Message:        fmt.Sprintf("part %s price $%.2f is unusually high", p.ID, p.Price),
				Recommendation: "verify the price was not entered in error",
				Ref:            p.ID,
			})
		}
	}

	return violations, warnings
}
