package estimate

import (
	"github.com/google/uuid"
)

// snapshotNamespace scopes version UUIDs to this module.
var snapshotNamespace = uuid.MustParse("7f1c6c42-9a3e-4b8e-b7d1-2f40a9c0e5d3")

// Snapshot deep-copies the estimate into a new version derived from
// this one. The version ID is content-derived: the same base version
// and seed always produce the same snapshot ID, which keeps repeated
// correction runs idempotent. The receiver is not modified.
func (e *Estimate) Snapshot(seed string) *Estimate {
	next := e.Clone()
	next.ParentVersion = e.Version
	next.Version = uuid.NewSHA1(snapshotNamespace, []byte(e.Version+"|"+seed)).String()
	return next
}

// Clone returns a deep copy of the estimate.
func (e *Estimate) Clone() *Estimate {
	next := *e

	if e.LaborRates != nil {
		next.LaborRates = make(map[string]float64, len(e.LaborRates))
		for k, v := range e.LaborRates {
			next.LaborRates[k] = v
		}
	}

	next.Operations = make([]LaborOperation, len(e.Operations))
	for i, op := range e.Operations {
		next.Operations[i] = op
		if op.Weld != nil {
			w := *op.Weld
			next.Operations[i].Weld = &w
		}
		next.Operations[i].CorrosionProtection = cloneStrings(op.CorrosionProtection)
		next.Operations[i].PhotoRefs = cloneStrings(op.PhotoRefs)
	}

	next.Parts = append([]Part(nil), e.Parts...)

	next.Refinish = make([]RefinishOperation, len(e.Refinish))
	for i, r := range e.Refinish {
		next.Refinish[i] = r
		next.Refinish[i].Panels = cloneStrings(r.Panels)
		if r.PaintThickness != nil {
			pt := make(map[string]float64, len(r.PaintThickness))
			for k, v := range r.PaintThickness {
				pt[k] = v
			}
			next.Refinish[i].PaintThickness = pt
		}
	}

	next.Photos = append([]Photo(nil), e.Photos...)

	if e.Measurements != nil {
		m := *e.Measurements
		if e.Measurements.UpperBody != nil {
			ub := *e.Measurements.UpperBody
			m.UpperBody = &ub
		}
		if e.Measurements.LowerBody != nil {
			lb := *e.Measurements.LowerBody
			m.LowerBody = &lb
		}
		m.Symmetry = append([]SymmetryPoint(nil), e.Measurements.Symmetry...)
		next.Measurements = &m
	}

	next.Calibrations = make([]Calibration, len(e.Calibrations))
	for i, c := range e.Calibrations {
		next.Calibrations[i] = c
		next.Calibrations[i].Equipment = cloneStrings(c.Equipment)
	}

	next.SafetyPlans = make([]SafetyRestoration, len(e.SafetyPlans))
	for i, p := range e.SafetyPlans {
		next.SafetyPlans[i] = p
		next.SafetyPlans[i].Parts = append([]RestorationPart(nil), p.Parts...)
		next.SafetyPlans[i].CompletedTests = cloneStrings(p.CompletedTests)
		next.SafetyPlans[i].Certifications = cloneStrings(p.Certifications)
	}

	return &next
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
