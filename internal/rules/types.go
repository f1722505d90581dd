package rules

// RuleSet is the full guideline configuration for one DRP program.
// Values are immutable after load.
type RuleSet struct {
	// Program is the program identifier, e.g. "geico_arx".
	Program string `koanf:"program"`

	// LaborRates maps rate category (body, paint, frame, mechanical,
	// structural) to the maximum allowed hourly rate.
	LaborRates map[string]float64 `koanf:"labor_rates"`

	Parts         PartsRules         `koanf:"parts"`
	OperationTime OperationTimeRules `koanf:"operation_time"`

	// IncludedOperations maps a parent operation code to sub-operation
	// codes that are bundled with it and must not be billed as
	// separate line items.
	IncludedOperations map[string][]string `koanf:"included_operations"`

	Refinish      RefinishRules      `koanf:"refinish"`
	Color         ColorRules         `koanf:"color"`
	Welds         WeldRules          `koanf:"welds"`
	Corrosion     CorrosionRules     `koanf:"corrosion"`
	Structural    StructuralRules    `koanf:"structural"`
	Calibration   CalibrationRules   `koanf:"calibration"`
	Safety        SafetyRules        `koanf:"safety"`
	Documentation DocumentationRules `koanf:"documentation"`
	Quality       QualityRules       `koanf:"quality"`

	Review     ReviewRules     `koanf:"review"`
	Approval   ApprovalRules   `koanf:"approval"`
	Correction CorrectionRules `koanf:"correction"`
}

// PartsRules covers sourcing ratios, markup, and vendor policy.
type PartsRules struct {
	// MaxOEMMarkupPct is the ceiling on OEM markup over list price.
	MaxOEMMarkupPct float64 `koanf:"max_oem_markup_pct"`

	// MinAftermarketPct / MinRecycledPct are minimum sourcing ratios
	// by part count; MaxLKQPct caps LKQ usage.
	MinAftermarketPct float64 `koanf:"min_aftermarket_pct"`
	MinRecycledPct    float64 `koanf:"min_recycled_pct"`
	MaxLKQPct         float64 `koanf:"max_lkq_pct"`

	// ApprovedVendors is the vendor/certification allow-list.
	ApprovedVendors []string `koanf:"approved_vendors"`
}

// VendorApproved reports whether v is on the allow-list.
func (p PartsRules) VendorApproved(v string) bool {
	for _, a := range p.ApprovedVendors {
		if a == v {
			return true
		}
	}
	return false
}

// OperationTimeRules governs labor time tolerances.
type OperationTimeRules struct {
	// ToleranceMultiplier flags operations billed above
	// standardHours × multiplier. Default 1.2.
	ToleranceMultiplier float64 `koanf:"tolerance_multiplier"`
}

// RefinishRules covers adjacency, overlap, and time calculations.
type RefinishRules struct {
	// Adjacency maps a panel code to its adjacent panel codes. The
	// map is symmetric after load.
	Adjacency map[string][]string `koanf:"adjacency"`

	// RequireOverlapDeduction demands an overlap deduction line for
	// every adjacent refinished pair.
	RequireOverlapDeduction bool `koanf:"require_overlap_deduction"`

	ThreeStageMultiplier float64 `koanf:"three_stage_multiplier"`
	PearlMultiplier      float64 `koanf:"pearl_multiplier"`
	BlendHours           float64 `koanf:"blend_hours"`
	EdgingHours          float64 `koanf:"edging_hours"`
	BlendWithinInches    float64 `koanf:"blend_within_inches"`
	ClearcoatEdging      bool    `koanf:"clearcoat_edging"`
}

// Adjacent reports whether panels a and b touch.
func (r RefinishRules) Adjacent(a, b string) bool {
	for _, n := range r.Adjacency[a] {
		if n == b {
			return true
		}
	}
	return false
}

// ColorRules carries blend-match thresholds by paint type.
type ColorRules struct {
	// MatchThresholds maps paint type (standard, metallic, pearl,
	// tri_coat) to the minimum color-match confidence for a blend.
	MatchThresholds map[string]float64 `koanf:"match_thresholds"`
}

// WeldSpec is the acceptance envelope for one weld type.
type WeldSpec struct {
	MinPenetrationPct float64 `koanf:"min_penetration_pct"`
	MinSizeMM         float64 `koanf:"min_size_mm"`
	MaxSizeMM         float64 `koanf:"max_size_mm"`
	MinSpacingMM      float64 `koanf:"min_spacing_mm"`
}

// WeldAppearanceSpec holds appearance limits shared by all weld types.
type WeldAppearanceSpec struct {
	MaxPorosityPct        float64 `koanf:"max_porosity_pct"`
	MaxUndercutMM         float64 `koanf:"max_undercut_mm"`
	MaxSpatterCoveragePct float64 `koanf:"max_spatter_coverage_pct"`
	MaxSpatterDistanceMM  float64 `koanf:"max_spatter_distance_mm"`

	// AcceptableColors maps body material to acceptable weld colors.
	AcceptableColors map[string][]string `koanf:"acceptable_colors"`
}

// WeldRules bundles per-type specs and appearance limits.
type WeldRules struct {
	Specs      map[string]WeldSpec `koanf:"specs"`
	Appearance WeldAppearanceSpec  `koanf:"appearance"`
}

// CorrosionRules maps operation type to required protection steps.
type CorrosionRules struct {
	Required map[string][]string `koanf:"required"`
}

// StructuralRules covers sectioning and measurement tolerances.
type StructuralRules struct {
	// ToleranceMM is the allowed deviation from OEM nominal on body
	// length/width/height.
	ToleranceMM float64 `koanf:"tolerance_mm"`

	// SymmetryMaxMM is the max left/right deviation at critical points.
	SymmetryMaxMM float64 `koanf:"symmetry_max_mm"`

	// ApprovedSectioningLocations lists OEM-approved section points.
	ApprovedSectioningLocations []string `koanf:"approved_sectioning_locations"`

	// RequiredWelds maps a structural location to the weld types a
	// sectioning operation there must include.
	RequiredWelds map[string][]string `koanf:"required_welds"`
}

// SectioningApproved reports whether loc is an approved section point.
func (s StructuralRules) SectioningApproved(loc string) bool {
	for _, l := range s.ApprovedSectioningLocations {
		if l == loc {
			return true
		}
	}
	return false
}

// CalibrationRules maps operations to ADAS systems and systems to
// calibration types.
type CalibrationRules struct {
	// AffectedSystems maps operation code to the ADAS systems it
	// disturbs.
	AffectedSystems map[string][]string `koanf:"affected_systems"`

	// Types maps ADAS system to required calibration type (static or
	// dynamic).
	Types map[string]string `koanf:"types"`
}

// SafetySpec is the restoration requirement for one safety system.
type SafetySpec struct {
	RequiredParts  []string `koanf:"required_parts"`
	TestProtocol   string   `koanf:"test_protocol"`
	RequiredTests  []string `koanf:"required_tests"`
	Certifications []string `koanf:"certifications"`
}

// SafetyRules maps operations to the safety systems they disturb and
// each system to its restoration spec.
type SafetyRules struct {
	// Impact maps operation code to affected safety systems.
	Impact map[string][]string `koanf:"impact"`

	Systems map[string]SafetySpec `koanf:"systems"`
}

// PhotoQuality holds photo acceptance limits.
type PhotoQuality struct {
	Formats   []string `koanf:"formats"`
	MaxBytes  int64    `koanf:"max_bytes"`
	MinWidth  int      `koanf:"min_width"`
	MinHeight int      `koanf:"min_height"`
}

// DocumentationRules lists required photo types and quality limits.
type DocumentationRules struct {
	RequiredPhotos []string     `koanf:"required_photos"`
	Quality        PhotoQuality `koanf:"quality"`
}

// ThicknessBand is an acceptable paint thickness range in mils.
type ThicknessBand struct {
	Min float64 `koanf:"min"`
	Max float64 `koanf:"max"`
}

// QualityRules covers refinish quality acceptance.
type QualityRules struct {
	// PaintThickness maps layer (basecoat, clearcoat, primer) to its
	// acceptable band.
	PaintThickness map[string]ThicknessBand `koanf:"paint_thickness"`

	// ColorDeltaETolerance maps paint type to the maximum ΔE.
	ColorDeltaETolerance map[string]float64 `koanf:"color_delta_e_tolerance"`
}

// ReviewRules are thresholds that attach review-trigger metadata.
type ReviewRules struct {
	LaborVariancePct float64 `koanf:"labor_variance_pct"`
	PartsMarkupPct   float64 `koanf:"parts_markup_pct"`
	OperationCount   int     `koanf:"operation_count"`
	TotalHours       float64 `koanf:"total_hours"`
}

// ApprovalRules gate the auto-approve path.
type ApprovalRules struct {
	MinConfidence float64 `koanf:"min_confidence"`
	MaxTotal      float64 `koanf:"max_total"`
	MaxOperations int     `koanf:"max_operations"`
	RequiredScore float64 `koanf:"required_score"`
}

// CorrectionRules gate the auto-corrector.
type CorrectionRules struct {
	ConfidenceThreshold float64  `koanf:"confidence_threshold"`
	AllowedTypes        []string `koanf:"allowed_types"`
}

// TypeAllowed reports whether a recommendation type may be applied.
func (c CorrectionRules) TypeAllowed(t string) bool {
	for _, a := range c.AllowedTypes {
		if a == t {
			return true
		}
	}
	return false
}
