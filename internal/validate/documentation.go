package validate

import (
	"fmt"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// checkDocumentation requires the program's photo set and flags photos
// that fail quality requirements. A missing photo is a violation; a
// poor quality photo is a warning with a retake recommendation.
func checkDocumentation(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning) {
	var violations []Violation
	var warnings []Warning

	byType := make(map[string]bool, len(e.Photos))
	for _, p := range e.Photos {
		byType[p.Type] = true
	}

	for _, required := range rs.Documentation.RequiredPhotos {
		if !byType[required] {
			violations = append(violations, Violation{
				Type:     TypeDocumentation,
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("required photo %q is missing", required),
				Ref:      required,
			})
		}
	}

	q := rs.Documentation.Quality
	for _, p := range e.Photos {
		switch {
		case len(q.Formats) > 0 && !contains(q.Formats, p.Format):
			warnings = append(warnings, Warning{
				Type:           WarnPhotoQuality,
				Message:        fmt.Sprintf("photo %s format %q is not accepted", p.ID, p.Format),
				Recommendation: "retake and upload as jpg or png",
				Ref:            p.ID,
			})
		case q.MaxBytes > 0 && p.SizeBytes > q.MaxBytes:
			warnings = append(warnings, Warning{
				Type:           WarnPhotoQuality,
				Message:        fmt.Sprintf("photo %s exceeds the maximum file size", p.ID),
				Recommendation: "re-export below the size limit",
				Ref:            p.ID,
			})
		case p.Width > 0 && (p.Width < q.MinWidth || p.Height < q.MinHeight):
			warnings = append(warnings, Warning{
				Type:           WarnPhotoQuality,
				Message:        fmt.Sprintf("photo %s resolution %dx%d is below the %dx%d minimum", p.ID, p.Width, p.Height, q.MinWidth, q.MinHeight),
				Recommendation: "retake at a higher resolution",
				Ref:            p.ID,
			})
		}
	}

	return violations, warnings
}
