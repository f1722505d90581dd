package validate

// Severity ranks how serious a violation is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// rank orders severities for comparisons.
var rank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// AtLeast reports whether s is at least as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return rank[s] >= rank[min]
}

// Violation type identifiers. These are stable strings surfaced to
// reviewers and persisted by external collaborators.
const (
	TypeLaborRate           = "labor_rate"
	TypePartsUsage          = "parts_usage"
	TypePartsMarkup         = "parts_markup"
	TypeOperationTime       = "operation_time"
	TypeIncludedOperation   = "included_operation"
	TypeRefinishOverlap     = "refinish_overlap"
	TypeRefinishCalculation = "refinish_calculation"
	TypeBlendRequirements   = "blend_requirements"
	TypeStructural          = "structural"
	TypeWeldQuality         = "weld_quality"
	TypeCorrosion           = "corrosion_protection"
	TypeMeasurements        = "measurements"
	TypeDiagnosticScans     = "diagnostic_scans"
	TypeCalibration         = "calibration"
	TypeSafetySystem        = "safety_system"
	TypeRepairQuality       = "repair_quality"
	TypeDocumentation       = "documentation"
)

// Warning type identifiers.
const (
	WarnVendorCompliance = "vendor_compliance"
	WarnPhotoQuality     = "photo_quality"
	WarnUnusualValue     = "unusual_value"
)

// Violation is one guideline breach found in an estimate.
type Violation struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`

	// Current and Required carry the offending and expected numeric
	// values when the check is quantitative; both zero otherwise.
	Current  float64 `json:"current,omitempty"`
	Required float64 `json:"required,omitempty"`

	// Ref names the line item, panel, or system the finding applies to.
	Ref string `json:"ref,omitempty"`
}

// Warning is a non-blocking finding with an optional recommendation.
type Warning struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation,omitempty"`
	Ref            string `json:"ref,omitempty"`
}

// Result is the outcome of one validation pass.
type Result struct {
	Violations []Violation `json:"violations"`
	Warnings   []Warning   `json:"warnings"`

	// RequiredChanges summarizes high and critical violations for
	// reviewers.
	RequiredChanges []string `json:"required_changes,omitempty"`

	// Valid is true when no violations were found. Warnings alone do
	// not invalidate an estimate.
	Valid bool `json:"valid"`
}

// HasSeverity reports whether any violation is at least min severe.
func (r *Result) HasSeverity(min Severity) bool {
	for _, v := range r.Violations {
		if v.Severity.AtLeast(min) {
			return true
		}
	}
	return false
}

// ByType returns all violations of the given type.
func (r *Result) ByType(t string) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Type == t {
			out = append(out, v)
		}
	}
	return out
}
