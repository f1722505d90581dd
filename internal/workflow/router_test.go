package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
	"github.com/fyrsmithlabs/drpcheck/internal/validate"
)

func newRouter(t *testing.T) *Router {
	t.Helper()
	r, err := NewRouter(zap.NewNop())
	require.NoError(t, err)
	return r
}

func smallEstimate() *estimate.Estimate {
	return &estimate.Estimate{
		ID:         "est-400",
		Version:    "v1",
		Vehicle:    estimate.Vehicle{VIN: "V", Make: "Mazda", Model: "3", Year: 2023},
		LaborRates: map[string]float64{"body": 50},
		Operations: []estimate.LaborOperation{
			{ID: "op-1", Code: "DENT-RPR", Type: estimate.OpLabor,
				Hours: 2, Rate: 50, RateCategory: "body", StandardHours: 2},
		},
		Parts:     []estimate.Part{{ID: "p-1", Number: "N1", Type: estimate.PartAftermarket, Price: 120, Certification: "CAPA"}},
		CreatedAt: time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC),
	}
}

func cleanResult() *validate.Result {
	return &validate.Result{Valid: true}
}

func TestAutoApprove(t *testing.T) {
	r := newRouter(t)
	d := r.Route(context.Background(), rules.DefaultGeicoARX(), Input{
		Estimate:   smallEstimate(),
		Result:     cleanResult(),
		Score:      1.0,
		Confidence: 0.95,
	})
	assert.Equal(t, PathAutoApprove, d.Path)
	assert.Empty(t, d.Triggers)
}

func TestAutoApproveGates(t *testing.T) {
	expensive := smallEstimate()
	expensive.Parts[0].Price = 3000

	busy := smallEstimate()
	for i := 0; i < 10; i++ {
		busy.Operations = append(busy.Operations, estimate.LaborOperation{
			ID: "op-x", Code: "X", Type: estimate.OpLabor,
			Hours: 0.5, Rate: 50, RateCategory: "body", StandardHours: 0.5,
		})
	}

	tests := []struct {
		name string
		in   Input
	}{
		{"low score", Input{Estimate: smallEstimate(), Result: cleanResult(), Score: 0.9, Confidence: 0.95}},
		{"low confidence", Input{Estimate: smallEstimate(), Result: cleanResult(), Score: 1.0, Confidence: 0.7}},
		{"over amount cap", Input{Estimate: expensive, Result: cleanResult(), Score: 1.0, Confidence: 0.95}},
		{"over operation cap", Input{Estimate: busy, Result: cleanResult(), Score: 1.0, Confidence: 0.95}},
		{"has violations", Input{
			Estimate: smallEstimate(),
			Result: &validate.Result{Violations: []validate.Violation{
				{Type: validate.TypeLaborRate, Severity: validate.SeverityLow, Message: "x"},
			}},
			Score: 0.98, Confidence: 0.95,
		}},
	}

	r := newRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Route(context.Background(), rules.DefaultGeicoARX(), tt.in)
			assert.Equal(t, PathStandardReview, d.Path)
		})
	}
}

func TestCriticalForcesManualReview(t *testing.T) {
	r := newRouter(t)
	d := r.Route(context.Background(), rules.DefaultGeicoARX(), Input{
		Estimate: smallEstimate(),
		Result: &validate.Result{Violations: []validate.Violation{
			{Type: validate.TypeWeldQuality, Severity: validate.SeverityCritical, Message: "penetration"},
		}},
		Score: 0.5, Confidence: 0.9,
	})
	assert.Equal(t, PathManualReview, d.Path)
	assert.Contains(t, d.Reason, "critical")
}

func TestHighStructuralForcesManualReview(t *testing.T) {
	r := newRouter(t)
	d := r.Route(context.Background(), rules.DefaultGeicoARX(), Input{
		Estimate: smallEstimate(),
		Result: &validate.Result{Violations: []validate.Violation{
			{Type: validate.TypeStructural, Severity: validate.SeverityHigh, Message: "welds"},
		}},
		Score: 0.5, Confidence: 0.9,
	})
	assert.Equal(t, PathManualReview, d.Path)
}

func TestSafetyWorkForcesManualReview(t *testing.T) {
	e := smallEstimate()
	e.Operations[0].AffectsSafety = true

	r := newRouter(t)
	d := r.Route(context.Background(), rules.DefaultGeicoARX(), Input{
		Estimate: e, Result: cleanResult(), Score: 1.0, Confidence: 0.95,
	})
	// Safety work outranks a perfect score.
	assert.Equal(t, PathManualReview, d.Path)
}

func TestCorrectionsRouteToCorrectionReview(t *testing.T) {
	r := newRouter(t)
	d := r.Route(context.Background(), rules.DefaultGeicoARX(), Input{
		Estimate: smallEstimate(),
		Result: &validate.Result{Violations: []validate.Violation{
			{Type: validate.TypePartsUsage, Severity: validate.SeverityMedium, Message: "ratio"},
		}},
		Score: 0.65, Confidence: 0.9, CorrectionsApplied: 2,
	})
	assert.Equal(t, PathAutoCorrectReview, d.Path)
	assert.Contains(t, d.Reason, "2 corrections")
}

func TestStandardReviewFallback(t *testing.T) {
	r := newRouter(t)
	d := r.Route(context.Background(), rules.DefaultGeicoARX(), Input{
		Estimate: smallEstimate(),
		Result: &validate.Result{Violations: []validate.Violation{
			{Type: validate.TypePartsUsage, Severity: validate.SeverityMedium, Message: "ratio"},
		}},
		Score: 0.65, Confidence: 0.9,
	})
	assert.Equal(t, PathStandardReview, d.Path)
}

func TestTriggersAttachOnEveryPath(t *testing.T) {
	e := smallEstimate()
	e.Operations[0].Rate = 65 // 30% over the 50 program rate
	e.Operations = append(e.Operations, estimate.LaborOperation{
		ID: "op-2", Code: "LONG", Type: estimate.OpLabor,
		Hours: 45, Rate: 50, RateCategory: "body", StandardHours: 45,
	})
	e.Parts = append(e.Parts, estimate.Part{
		ID: "p-2", Number: "N2", Type: estimate.PartOEM, Price: 130, ListPrice: 100,
	})

	r := newRouter(t)
	d := r.Route(context.Background(), rules.DefaultGeicoARX(), Input{
		Estimate: e,
		Result: &validate.Result{Violations: []validate.Violation{
			{Type: validate.TypeLaborRate, Severity: validate.SeverityHigh, Message: "rate"},
		}},
		Score: 0.5, Confidence: 0.8,
	})
	assert.Equal(t, PathStandardReview, d.Path)

	kinds := make(map[string]bool)
	for _, tr := range d.Triggers {
		kinds[tr.Kind] = true
	}
	assert.True(t, kinds[TriggerLaborVariance])
	assert.True(t, kinds[TriggerPartsMarkup])
	assert.True(t, kinds[TriggerTotalHours])
}

func TestOperationCountTrigger(t *testing.T) {
	e := smallEstimate()
	for i := 0; i < 16; i++ {
		e.Operations = append(e.Operations, estimate.LaborOperation{
			ID: "op-x", Code: "X", Type: estimate.OpLabor,
			Hours: 1, Rate: 50, RateCategory: "body", StandardHours: 1,
		})
	}

	r := newRouter(t)
	d := r.Route(context.Background(), rules.DefaultGeicoARX(), Input{
		Estimate: e, Result: cleanResult(), Score: 1.0, Confidence: 0.95,
	})

	var found bool
	for _, tr := range d.Triggers {
		if tr.Kind == TriggerOperationCount {
			found = true
		}
	}
	assert.True(t, found)
}
