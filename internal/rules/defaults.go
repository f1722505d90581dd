package rules

// DefaultGeicoARX returns the built-in rule set for the geico_arx
// program. File-based configuration is layered over these values.
func DefaultGeicoARX() *RuleSet {
	return &RuleSet{
		Program: "geico_arx",
		LaborRates: map[string]float64{
			"body":       52.00,
			"paint":      52.00,
			"frame":      65.00,
			"mechanical": 95.00,
			"structural": 65.00,
		},
		Parts: PartsRules{
			MaxOEMMarkupPct:   25,
			MinAftermarketPct: 30,
			MinRecycledPct:    15,
			MaxLKQPct:         65,
			ApprovedVendors:   []string{"CAPA", "NSF", "Diamond Standard"},
		},
		OperationTime: OperationTimeRules{
			ToleranceMultiplier: 1.2,
		},
		IncludedOperations: map[string][]string{
			"BUMPER-RPL":  {"BUMPER-RI", "BUMPER-ABSORBER"},
			"FENDER-RPL":  {"FENDER-RI", "LINER-RI"},
			"DOOR-RPL":    {"DOOR-RI", "HANDLE-RI", "MIRROR-RI"},
			"HOOD-RPL":    {"HOOD-RI", "INSULATOR-RI"},
			"QTR-SECTION": {"QTR-TRIM-RI", "LAMP-RI"},
		},
		Refinish: RefinishRules{
			Adjacency: map[string][]string{
				"HOOD":         {"LF-FENDER", "RF-FENDER", "FRONT-BUMPER"},
				"LF-FENDER":    {"HOOD", "LF-DOOR", "FRONT-BUMPER"},
				"RF-FENDER":    {"HOOD", "RF-DOOR", "FRONT-BUMPER"},
				"LF-DOOR":      {"LF-FENDER", "LR-DOOR", "ROOF"},
				"RF-DOOR":      {"RF-FENDER", "RR-DOOR", "ROOF"},
				"LR-DOOR":      {"LF-DOOR", "L-QTR", "ROOF"},
				"RR-DOOR":      {"RF-DOOR", "R-QTR", "ROOF"},
				"L-QTR":        {"LR-DOOR", "DECKLID", "REAR-BUMPER"},
				"R-QTR":        {"RR-DOOR", "DECKLID", "REAR-BUMPER"},
				"DECKLID":      {"L-QTR", "R-QTR", "REAR-BUMPER"},
				"ROOF":         {"LF-DOOR", "RF-DOOR", "LR-DOOR", "RR-DOOR"},
				"FRONT-BUMPER": {"HOOD", "LF-FENDER", "RF-FENDER"},
				"REAR-BUMPER":  {"L-QTR", "R-QTR", "DECKLID"},
			},
			RequireOverlapDeduction: true,
			ThreeStageMultiplier:    1.5,
			PearlMultiplier:         1.4,
			BlendHours:              2.0,
			EdgingHours:             0.5,
			BlendWithinInches:       12,
			ClearcoatEdging:         true,
		},
		Color: ColorRules{
			MatchThresholds: map[string]float64{
				"standard": 0.80,
				"metallic": 0.85,
				"pearl":    0.90,
				"tri_coat": 0.95,
			},
		},
		Welds: WeldRules{
			Specs: map[string]WeldSpec{
				"mig":    {MinPenetrationPct: 80, MinSizeMM: 4.0, MaxSizeMM: 6.0},
				"spot":   {MinPenetrationPct: 90, MinSizeMM: 6.0, MaxSizeMM: 8.0, MinSpacingMM: 30},
				"plug":   {MinPenetrationPct: 85, MinSizeMM: 8.0, MaxSizeMM: 10.0, MinSpacingMM: 40},
				"stitch": {MinPenetrationPct: 80, MinSizeMM: 4.0, MaxSizeMM: 6.0, MinSpacingMM: 25},
			},
			Appearance: WeldAppearanceSpec{
				MaxPorosityPct:        2,
				MaxUndercutMM:         0.5,
				MaxSpatterCoveragePct: 5,
				MaxSpatterDistanceMM:  15,
				AcceptableColors: map[string][]string{
					"steel":    {"straw", "light_blue", "dark_straw"},
					"aluminum": {"silver", "light_grey"},
				},
			},
		},
		Corrosion: CorrosionRules{
			Required: map[string][]string{
				"replace_panel":     {"primer", "sealer"},
				"sectioning":        {"primer", "sealer", "cavity_wax"},
				"structural_repair": {"primer", "sealer", "cavity_wax"},
				"welding":           {"weld_through_primer", "sealer"},
			},
		},
		Structural: StructuralRules{
			ToleranceMM:   2,
			SymmetryMaxMM: 3,
			ApprovedSectioningLocations: []string{
				"a_pillar_lower", "b_pillar_center", "rocker_front",
				"rocker_rear", "rear_rail", "quarter_sail",
			},
			RequiredWelds: map[string][]string{
				"quarter_panel": {"spot", "mig"},
				"rocker_panel":  {"spot", "mig", "stitch"},
				"pillar":        {"spot", "mig"},
			},
		},
		Calibration: CalibrationRules{
			AffectedSystems: map[string][]string{
				"windshield_replace": {"forward_camera", "rain_sensor"},
				"bumper_front":       {"radar_sensor", "parking_sensors"},
				"bumper_rear":        {"parking_sensors", "blind_spot"},
				"door_mirror":        {"blind_spot", "camera_system"},
				"quarter_panel":      {"blind_spot"},
				"headlamp":           {"headlamp_aim"},
			},
			Types: map[string]string{
				"forward_camera":  "static",
				"rain_sensor":     "static",
				"radar_sensor":    "dynamic",
				"parking_sensors": "static",
				"blind_spot":      "dynamic",
				"camera_system":   "static",
				"headlamp_aim":    "static",
			},
		},
		Safety: SafetyRules{
			Impact: map[string][]string{
				"airbag_replace": {"srs", "occupant_detection"},
				"seat_repair":    {"occupant_detection", "seatbelt_tensioner"},
				"pillar_repair":  {"curtain_airbag", "structural_integrity"},
				"wiring_repair":  {"srs"},
			},
			Systems: map[string]SafetySpec{
				"srs": {
					RequiredParts:  []string{"control_module", "sensors", "wiring_harness"},
					TestProtocol:   "OEM_DIAGNOSTIC",
					RequiredTests:  []string{"communication", "voltage", "resistance"},
					Certifications: []string{"ASE", "I-CAR"},
				},
				"occupant_detection": {
					RequiredParts:  []string{"sensors", "control_unit", "calibration_mat"},
					TestProtocol:   "WEIGHT_CALIBRATION",
					RequiredTests:  []string{"empty", "threshold", "maximum"},
					Certifications: []string{"OEM_SPECIFIC"},
				},
				"curtain_airbag": {
					RequiredParts:  []string{"airbag_module", "mounting_hardware", "trim_panels"},
					TestProtocol:   "DEPLOYMENT_ZONE",
					RequiredTests:  []string{"clearance", "mounting", "coverage"},
					Certifications: []string{"I-CAR", "OEM_SPECIFIC"},
				},
				"structural_integrity": {
					RequiredParts:  []string{"reinforcements", "anti_intrusion_bars"},
					TestProtocol:   "MEASUREMENT_VERIFICATION",
					RequiredTests:  []string{"dimensions", "symmetry", "tolerance"},
					Certifications: []string{"STRUCTURAL", "WELDING"},
				},
				"seatbelt_tensioner": {
					RequiredParts:  []string{"retractor", "pretensioner"},
					TestProtocol:   "OEM_DIAGNOSTIC",
					RequiredTests:  []string{"communication", "resistance"},
					Certifications: []string{"OEM_SPECIFIC"},
				},
			},
		},
		Documentation: DocumentationRules{
			RequiredPhotos: []string{
				"vin_plate", "damage_front", "damage_rear", "damage_close", "part_number",
			},
			Quality: PhotoQuality{
				Formats:   []string{"jpg", "png"},
				MaxBytes:  5_000_000,
				MinWidth:  1280,
				MinHeight: 720,
			},
		},
		Quality: QualityRules{
			PaintThickness: map[string]ThicknessBand{
				"basecoat":  {Min: 0.8, Max: 1.2},
				"clearcoat": {Min: 1.8, Max: 2.2},
				"primer":    {Min: 1.0, Max: 1.5},
			},
			ColorDeltaETolerance: map[string]float64{
				"standard": 1.0,
				"metallic": 1.5,
				"pearl":    2.0,
				"tri_coat": 2.5,
			},
		},
		Review: ReviewRules{
			LaborVariancePct: 20,
			PartsMarkupPct:   25,
			OperationCount:   15,
			TotalHours:       40,
		},
		Approval: ApprovalRules{
			MinConfidence: 0.85,
			MaxTotal:      2500,
			MaxOperations: 8,
			RequiredScore: 0.95,
		},
		Correction: CorrectionRules{
			ConfidenceThreshold: 0.85,
			AllowedTypes:        []string{"labor_rate", "parts_price", "operation_time"},
		},
	}
}

// builtinDefaults maps program IDs to their built-in rule sets.
func builtinDefaults() map[string]*RuleSet {
	return map[string]*RuleSet{
		"geico_arx": DefaultGeicoARX(),
	}
}
