package estimate

import (
	"time"
)

// Status represents the lifecycle state of an estimate.
type Status string

const (
	// StatusPending is a freshly ingested estimate awaiting evaluation.
	StatusPending Status = "pending"
	// StatusValidated has been through compliance validation.
	StatusValidated Status = "validated"
	// StatusCorrected is a version produced by the auto-corrector.
	StatusCorrected Status = "corrected"
	// StatusRouted has a final workflow decision attached.
	StatusRouted Status = "routed"
)

// OperationType categorizes a labor operation.
type OperationType string

const (
	OpLabor      OperationType = "labor"
	OpStructural OperationType = "structural"
	OpRefinish   OperationType = "refinish"
	OpMechanical OperationType = "mechanical"
)

// WeldType identifies a welding process.
type WeldType string

const (
	WeldMIG    WeldType = "mig"
	WeldSpot   WeldType = "spot"
	WeldPlug   WeldType = "plug"
	WeldStitch WeldType = "stitch"
)

// PartType is the sourcing category for a part.
type PartType string

const (
	PartOEM         PartType = "oem"
	PartAftermarket PartType = "aftermarket"
	PartRecycled    PartType = "recycled"
	PartLKQ         PartType = "lkq"
)

// Vehicle identifies the vehicle under repair.
type Vehicle struct {
	VIN      string `json:"vin"`
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	Material string `json:"material"` // body material: steel or aluminum
}

// Weld holds measured weld attributes for a structural operation.
type Weld struct {
	Type WeldType `json:"type"`

	// PenetrationPct is measured penetration as a percentage.
	PenetrationPct float64 `json:"penetration_pct"`

	// SizeMM is the weld nugget/bead size in millimeters.
	SizeMM float64 `json:"size_mm"`

	// SpacingMM is the spacing between welds in millimeters.
	SpacingMM float64 `json:"spacing_mm"`

	// Appearance metrics.
	PorosityPct        float64 `json:"porosity_pct"`
	UndercutMM         float64 `json:"undercut_mm"`
	SpatterCoveragePct float64 `json:"spatter_coverage_pct"`
	SpatterDistanceMM  float64 `json:"spatter_distance_mm"`
	Color              string  `json:"color"`
}

// LaborOperation is one billed line item of labor.
type LaborOperation struct {
	ID          string        `json:"id"`
	Code        string        `json:"code"`
	Description string        `json:"description"`
	Type        OperationType `json:"type"`

	Hours float64 `json:"hours"`
	Rate  float64 `json:"rate"`

	// RateCategory selects the program rate ceiling (body, paint,
	// frame, mechanical, structural).
	RateCategory string `json:"rate_category"`

	// StandardHours is the published standard time for this operation,
	// zero when unknown.
	StandardHours float64 `json:"standard_hours,omitempty"`

	// Location is the panel or area the operation applies to.
	Location string `json:"location,omitempty"`

	// SectionLocation is set for sectioning operations.
	SectionLocation string `json:"section_location,omitempty"`

	// Weld is present on structural operations that include welding.
	Weld *Weld `json:"weld,omitempty"`

	// CorrosionProtection lists applied protection steps.
	CorrosionProtection []string `json:"corrosion_protection,omitempty"`

	PhotoRefs []string `json:"photo_refs,omitempty"`

	AffectsSafety       bool   `json:"affects_safety,omitempty"`
	RequiresCalibration bool   `json:"requires_calibration,omitempty"`
	DamageLevel         string `json:"damage_level,omitempty"` // light, moderate, heavy

	// RepairCost and ReplaceCost are set when both options were quoted
	// for the same panel, enabling repair-vs-replace analysis.
	RepairCost  float64 `json:"repair_cost,omitempty"`
	ReplaceCost float64 `json:"replace_cost,omitempty"`
}

// Part is one billed part line item.
type Part struct {
	ID          string   `json:"id"`
	Number      string   `json:"number"`
	Description string   `json:"description"`
	Type        PartType `json:"type"`
	Vendor      string   `json:"vendor,omitempty"`
	Price       float64  `json:"price"`

	// ListPrice is the OEM list price used for markup calculations,
	// zero when not provided.
	ListPrice float64 `json:"list_price,omitempty"`

	Certification string  `json:"certification,omitempty"`
	FitScore      float64 `json:"fit_score,omitempty"`      // 0..1
	QualityRating float64 `json:"quality_rating,omitempty"` // 0..5
}

// PaintInfo describes the finish on a refinish operation.
type PaintInfo struct {
	// Type is standard, metallic, pearl, or tri_coat.
	Type      string  `json:"type"`
	LaborRate float64 `json:"labor_rate"`
}

// RefinishKind distinguishes panel refinish lines from deduction lines.
type RefinishKind string

const (
	// RefinishPanel is a normal panel refinish line.
	RefinishPanel RefinishKind = "panel"
	// RefinishOverlapDeduction is a time deduction for shared prep
	// between two adjacent panels. Panels lists both panel codes.
	RefinishOverlapDeduction RefinishKind = "overlap_deduction"
)

// RefinishOperation is one refinish line item.
type RefinishOperation struct {
	ID        string       `json:"id"`
	Kind      RefinishKind `json:"kind"`
	PanelCode string       `json:"panel_code,omitempty"`

	// Panels is set on overlap deductions: the two adjacent panel
	// codes the deduction covers.
	Panels []string `json:"panels,omitempty"`

	Paint PaintInfo `json:"paint"`

	// DamageArea and PanelArea are in square inches.
	DamageArea float64 `json:"damage_area,omitempty"`
	PanelArea  float64 `json:"panel_area,omitempty"`

	BaseHours  float64 `json:"base_hours,omitempty"`
	TotalHours float64 `json:"total_hours,omitempty"`
	BlendHours float64 `json:"blend_hours,omitempty"`

	IsBlend        bool `json:"is_blend,omitempty"`
	IsThreeStage   bool `json:"is_three_stage,omitempty"`
	IsPearl        bool `json:"is_pearl,omitempty"`
	RequiresEdging bool `json:"requires_edging,omitempty"`
	HasClearcoat   bool `json:"has_clearcoat,omitempty"`

	BlendAreaInches float64 `json:"blend_area_inches,omitempty"`

	// Booth/clearance gating for blend decisions.
	BoothAvailable bool `json:"booth_available,omitempty"`
	ClearanceOK    bool `json:"clearance_ok,omitempty"`

	// ColorMatchConfidence is the measured color match, 0..1.
	ColorMatchConfidence float64 `json:"color_match_confidence,omitempty"`

	// PaintThickness holds mils per layer (basecoat, clearcoat, primer).
	PaintThickness map[string]float64 `json:"paint_thickness,omitempty"`

	// ColorDeltaE is the measured color difference, zero when not read.
	ColorDeltaE float64 `json:"color_delta_e,omitempty"`
}

// Photo is a documentation photo attached to the estimate.
type Photo struct {
	ID        string `json:"id"`
	Type      string `json:"type"` // vin_plate, damage_front, ...
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Dimension pairs a measured value with its OEM nominal, both in mm.
type Dimension struct {
	Actual  float64 `json:"actual"`
	Nominal float64 `json:"nominal"`
}

// BodyMeasurements holds the three primary body dimensions.
type BodyMeasurements struct {
	Length Dimension `json:"length"`
	Width  Dimension `json:"width"`
	Height Dimension `json:"height"`
}

// SymmetryPoint is a left/right measurement at a critical point, in mm.
type SymmetryPoint struct {
	Name  string  `json:"name"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Measurements holds structural measurement data.
type Measurements struct {
	UpperBody *BodyMeasurements `json:"upper_body,omitempty"`
	LowerBody *BodyMeasurements `json:"lower_body,omitempty"`
	Symmetry  []SymmetryPoint   `json:"symmetry,omitempty"`

	// PreRepair and PostRepair indicate whether measurement sets were
	// captured at each stage.
	PreRepair  bool `json:"pre_repair"`
	PostRepair bool `json:"post_repair"`
}

// DiagnosticScans records scan documentation.
type DiagnosticScans struct {
	PreScan  bool `json:"pre_scan"`
	PostScan bool `json:"post_scan"`
}

// CalibrationSpace is available calibration floor space in inches.
type CalibrationSpace struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Calibration is a planned ADAS calibration.
type Calibration struct {
	System      string           `json:"system"`
	Type        string           `json:"type"` // static or dynamic
	Tooling     string           `json:"tooling,omitempty"`
	Environment string           `json:"environment,omitempty"`
	Equipment   []string         `json:"equipment,omitempty"`
	Space       CalibrationSpace `json:"space,omitempty"`
}

// RestorationPart is a part allocated to a safety-system restoration.
type RestorationPart struct {
	Type          string `json:"type"`
	IsOEM         bool   `json:"is_oem"`
	Certification string `json:"certification,omitempty"`
}

// SafetyRestoration is a restoration plan for one safety system.
type SafetyRestoration struct {
	System              string            `json:"system"`
	Parts               []RestorationPart `json:"parts,omitempty"`
	TestProtocol        string            `json:"test_protocol,omitempty"`
	CompletedTests      []string          `json:"completed_tests,omitempty"`
	TechnicianCertified bool              `json:"technician_certified,omitempty"`
	Certifications      []string          `json:"certifications,omitempty"`
	FollowsOEMProcedure bool              `json:"follows_oem_procedure,omitempty"`
	EquipmentCalibrated bool              `json:"equipment_calibrated,omitempty"`
}

// Estimate is one version of a structured repair estimate.
type Estimate struct {
	ID string `json:"id"`

	// Version identifies this snapshot; ParentVersion links to the
	// version it was derived from (empty for the original).
	Version       string `json:"version"`
	ParentVersion string `json:"parent_version,omitempty"`

	Vehicle Vehicle `json:"vehicle"`

	// LaborRates maps rate category to the shop's billed hourly rate.
	LaborRates map[string]float64 `json:"labor_rates"`

	Operations []LaborOperation    `json:"operations"`
	Parts      []Part              `json:"parts"`
	Refinish   []RefinishOperation `json:"refinish,omitempty"`

	Photos       []Photo             `json:"photos,omitempty"`
	Measurements *Measurements       `json:"measurements,omitempty"`
	Scans        DiagnosticScans     `json:"scans"`
	Calibrations []Calibration       `json:"calibrations,omitempty"`
	SafetyPlans  []SafetyRestoration `json:"safety_plans,omitempty"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TotalAmount is the billed total: labor plus parts.
func (e *Estimate) TotalAmount() float64 {
	var total float64
	for _, op := range e.Operations {
		total += op.Hours * op.Rate
	}
	for _, p := range e.Parts {
		total += p.Price
	}
	for _, r := range e.Refinish {
		if r.Kind == RefinishOverlapDeduction {
			total -= r.TotalHours * r.Paint.LaborRate
			continue
		}
		total += r.TotalHours * r.Paint.LaborRate
	}
	return total
}

// TotalHours sums labor and refinish hours, net of deductions.
func (e *Estimate) TotalHours() float64 {
	var hours float64
	for _, op := range e.Operations {
		hours += op.Hours
	}
	for _, r := range e.Refinish {
		if r.Kind == RefinishOverlapDeduction {
			hours -= r.TotalHours
			continue
		}
		hours += r.TotalHours
	}
	return hours
}

// OperationCount is the number of billed operation lines.
func (e *Estimate) OperationCount() int {
	return len(e.Operations) + len(e.Refinish)
}

// Operation returns the labor operation with the given line-item ID.
func (e *Estimate) Operation(id string) (*LaborOperation, bool) {
	for i := range e.Operations {
		if e.Operations[i].ID == id {
			return &e.Operations[i], true
		}
	}
	return nil, false
}

// Part returns the part with the given line-item ID.
func (e *Estimate) Part(id string) (*Part, bool) {
	for i := range e.Parts {
		if e.Parts[i].ID == id {
			return &e.Parts[i], true
		}
	}
	return nil, false
}

// RefinishedPanels returns the set of panel codes with a panel
// refinish line (blends included).
func (e *Estimate) RefinishedPanels() map[string]bool {
	panels := make(map[string]bool, len(e.Refinish))
	for _, r := range e.Refinish {
		if r.Kind == RefinishPanel && r.PanelCode != "" {
			panels[r.PanelCode] = true
		}
	}
	return panels
}
