package estimate

// Validate checks structural integrity of the estimate. It returns a
// *MalformedError naming every missing required field, or nil.
//
// This is a fast-fail gate: program-level compliance checks assume a
// well-formed estimate and are not run when Validate fails.
func (e *Estimate) Validate() error {
	var missing []string

	if e.ID == "" {
		missing = append(missing, "id")
	}
	if e.Vehicle.VIN == "" {
		missing = append(missing, "vehicle.vin")
	}
	if e.LaborRates == nil {
		missing = append(missing, "labor_rates")
	}
	if e.Operations == nil {
		missing = append(missing, "operations")
	}
	if e.Parts == nil {
		missing = append(missing, "parts")
	}
	if e.CreatedAt.IsZero() {
		missing = append(missing, "created_at")
	}

	for i := range e.Operations {
		op := &e.Operations[i]
		if op.ID == "" {
			missing = append(missing, "operations["+op.Code+"].id")
		}
		if op.Hours <= 0 {
			missing = append(missing, "operations["+op.ID+"].hours")
		}
		if op.Rate <= 0 {
			missing = append(missing, "operations["+op.ID+"].rate")
		}
	}
	for i := range e.Parts {
		p := &e.Parts[i]
		if p.ID == "" {
			missing = append(missing, "parts["+p.Number+"].id")
		}
		if p.Price <= 0 {
			missing = append(missing, "parts["+p.ID+"].price")
		}
	}

	if len(missing) > 0 {
		return &MalformedError{EstimateID: e.ID, Missing: missing}
	}
	return nil
}
