package recommend

import "context"

// Recommendation types. Only some types are eligible for automatic
// correction; the rest are advisory.
const (
	TypeLaborRate     = "labor_rate"
	TypeOperationTime = "operation_time"
	TypePartsPrice    = "parts_price"
	TypeRefinishBlend = "refinish_blend"
	TypeTechnique     = "refinish_technique"
	TypeReplacePanel  = "replace_panel"
)

// Recommendation is one suggested change to an estimate line item.
type Recommendation struct {
	Type string `json:"type"`

	// TargetID is the line item the recommendation applies to.
	TargetID string `json:"target_id"`

	// Field names the value to change on the target.
	Field string `json:"field,omitempty"`

	CurrentValue     float64 `json:"current_value,omitempty"`
	RecommendedValue float64 `json:"recommended_value,omitempty"`

	// Confidence is 0..1.
	Confidence float64 `json:"confidence"`

	// Impact is the estimated dollar effect of applying the change.
	Impact float64 `json:"impact,omitempty"`

	// PatternMatch is true when the recommendation is backed by
	// historical repair data rather than rules alone.
	PatternMatch bool `json:"pattern_match,omitempty"`

	Note string `json:"note,omitempty"`
}

// Set is the output of one recommendation pass.
type Set struct {
	Recommendations []Recommendation `json:"recommendations"`

	// Degraded lists lookup categories that timed out or failed, e.g.
	// "labor_patterns". Recommendations of those kinds are absent, not
	// wrong.
	Degraded []string `json:"degraded,omitempty"`
}

// Confidences extracts the confidence of every recommendation.
func (s *Set) Confidences() []float64 {
	out := make([]float64, 0, len(s.Recommendations))
	for _, r := range s.Recommendations {
		out = append(out, r.Confidence)
	}
	return out
}

// PatternMatched counts recommendations backed by historical data.
func (s *Set) PatternMatched() int {
	var n int
	for _, r := range s.Recommendations {
		if r.PatternMatch {
			n++
		}
	}
	return n
}

// LaborSample is one historical observation of an operation's hours.
type LaborSample struct {
	Code  string  `json:"code"`
	Hours float64 `json:"hours"`

	// VehicleMatch is how closely the sampled vehicle matches the one
	// under repair, 0..1.
	VehicleMatch float64 `json:"vehicle_match"`
}

// PartAlternative is a candidate replacement part from history.
type PartAlternative struct {
	Number        string  `json:"number"`
	Type          string  `json:"type"`
	Price         float64 `json:"price"`
	FitScore      float64 `json:"fit_score"`
	QualityRating float64 `json:"quality_rating"`

	// Availability is supply confidence 0..1; Warranty likewise
	// normalizes warranty coverage.
	Availability float64 `json:"availability"`
	Warranty     float64 `json:"warranty"`

	Certification string `json:"certification,omitempty"`
}

// TechniquePattern is a historical refinish approach for a group of
// panels repaired together.
type TechniquePattern struct {
	Panels      []string `json:"panels"`
	Technique   string   `json:"technique"`
	SuccessRate float64  `json:"success_rate"`
}

// PatternSource provides historical repair data. Implementations are
// expected to be backed by remote services; every method must honor
// context cancellation.
type PatternSource interface {
	// LaborPatterns returns historical hour samples for an operation
	// code on similar vehicles.
	LaborPatterns(ctx context.Context, vehicleMake, model string, year int, code string) ([]LaborSample, error)

	// PartAlternatives returns alternative parts for an OEM part number.
	PartAlternatives(ctx context.Context, partNumber string) ([]PartAlternative, error)

	// RefinishPatterns returns technique patterns for the vehicle.
	RefinishPatterns(ctx context.Context, vehicleMake, model string, year int) ([]TechniquePattern, error)
}
