package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

// mockSource is a scripted PatternSource.
type mockSource struct {
	labor    []LaborSample
	laborErr error
	parts    []PartAlternative
	partsErr error
	refinish []TechniquePattern
	delay    time.Duration
}

func (m *mockSource) LaborPatterns(ctx context.Context, _, _ string, _ int, _ string) ([]LaborSample, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.labor, m.laborErr
}

func (m *mockSource) PartAlternatives(ctx context.Context, _ string) ([]PartAlternative, error) {
	return m.parts, m.partsErr
}

func (m *mockSource) RefinishPatterns(ctx context.Context, _, _ string, _ int) ([]TechniquePattern, error) {
	return m.refinish, nil
}

func newEngine(t *testing.T, source PatternSource) *Engine {
	t.Helper()
	en, err := NewEngine(DefaultConfig(), source, zap.NewNop())
	require.NoError(t, err)
	return en
}

func baseEstimate() *estimate.Estimate {
	return &estimate.Estimate{
		ID:      "est-200",
		Vehicle: estimate.Vehicle{VIN: "V", Make: "Toyota", Model: "Camry", Year: 2021, Material: "steel"},
		LaborRates: map[string]float64{
			"body": 50,
		},
		Operations: []estimate.LaborOperation{
			{ID: "op-1", Code: "DOOR-RPR", Type: estimate.OpLabor, Hours: 4, Rate: 50, RateCategory: "body"},
		},
		Parts:     []estimate.Part{{ID: "p-1", Number: "OEM-1", Type: estimate.PartOEM, Price: 500}},
		CreatedAt: time.Now(),
	}
}

func byType(set *Set, t string) []Recommendation {
	var out []Recommendation
	for _, r := range set.Recommendations {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

func samples(n int, hours, match float64) []LaborSample {
	out := make([]LaborSample, n)
	for i := range out {
		out[i] = LaborSample{Code: "DOOR-RPR", Hours: hours, VehicleMatch: match}
	}
	return out
}

func TestLaborRateRecommendation(t *testing.T) {
	en := newEngine(t, &mockSource{})
	e := baseEstimate()
	e.Operations[0].Rate = 60

	set, err := en.Recommend(context.Background(), rules.DefaultGeicoARX(), e)
	require.NoError(t, err)

	recs := byType(set, TypeLaborRate)
	require.Len(t, recs, 1)
	assert.Equal(t, "op-1", recs[0].TargetID)
	assert.Equal(t, 60.0, recs[0].CurrentValue)
	assert.Equal(t, 52.0, recs[0].RecommendedValue)
	assert.InDelta(t, (60.0-52.0)*4, recs[0].Impact, 1e-9)
	assert.False(t, recs[0].PatternMatch)
}

func TestOperationTimeFromPatterns(t *testing.T) {
	en := newEngine(t, &mockSource{labor: samples(10, 3.0, 0.9)})
	e := baseEstimate()
	e.Operations[0].Hours = 4 // mean is 3.0, variance allowance is 0.45h

	set, err := en.Recommend(context.Background(), rules.DefaultGeicoARX(), e)
	require.NoError(t, err)

	recs := byType(set, TypeOperationTime)
	require.Len(t, recs, 1)
	assert.Equal(t, 3.0, recs[0].RecommendedValue)
	assert.InDelta(t, 0.71, recs[0].Confidence, 1e-9)
	assert.True(t, recs[0].PatternMatch)
}

func TestOperationTimeNeedsSamples(t *testing.T) {
	tests := []struct {
		name   string
		labor  []LaborSample
		expect int
	}{
		{"too few samples", samples(4, 3.0, 0.9), 0},
		{"poor vehicle match", samples(10, 3.0, 0.5), 0},
		{"within variance", samples(10, 3.9, 0.9), 0},
		{"enough samples", samples(5, 3.0, 0.9), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			en := newEngine(t, &mockSource{labor: tt.labor})
			e := baseEstimate()
			e.Operations[0].Hours = 4

			set, err := en.Recommend(context.Background(), rules.DefaultGeicoARX(), e)
			require.NoError(t, err)
			assert.Len(t, byType(set, TypeOperationTime), tt.expect)
		})
	}
}

func TestPartAlternativeGates(t *testing.T) {
	alts := []PartAlternative{
		{Number: "A-poorfit", Price: 350, FitScore: 0.7, QualityRating: 4.5, Certification: "CAPA", Availability: 0.9, Warranty: 0.8},
		{Number: "A-lowqual", Price: 350, FitScore: 0.9, QualityRating: 3.0, Certification: "CAPA", Availability: 0.9, Warranty: 0.8},
		{Number: "A-nocert", Price: 350, FitScore: 0.9, QualityRating: 4.5, Availability: 0.9, Warranty: 0.8},
		{Number: "A-good", Price: 350, FitScore: 0.9, QualityRating: 4.5, Certification: "CAPA", Availability: 0.9, Warranty: 0.8},
	}
	en := newEngine(t, &mockSource{parts: alts})

	set, err := en.Recommend(context.Background(), rules.DefaultGeicoARX(), baseEstimate())
	require.NoError(t, err)

	recs := byType(set, TypePartsPrice)
	require.Len(t, recs, 1)
	assert.Equal(t, 350.0, recs[0].RecommendedValue)
	assert.Contains(t, recs[0].Note, "A-good")
	assert.Equal(t, 150.0, recs[0].Impact)
}

func TestPriceScorePeaksNearThirtyPercent(t *testing.T) {
	assert.Equal(t, 0.0, priceScore(0))
	assert.Greater(t, priceScore(30), priceScore(10))
	assert.Greater(t, priceScore(30), priceScore(20))
	assert.Greater(t, priceScore(30), priceScore(40))
	assert.Greater(t, priceScore(40), priceScore(55))
	assert.Equal(t, 1.0, priceScore(30))
}

func TestRefinishTechniqueGroupMatch(t *testing.T) {
	en := newEngine(t, &mockSource{refinish: []TechniquePattern{
		{Panels: []string{"HOOD", "LF-FENDER"}, Technique: "single_setup_blend", SuccessRate: 0.92},
	}})
	e := baseEstimate()
	e.Refinish = []estimate.RefinishOperation{
		{ID: "rf-1", Kind: estimate.RefinishPanel, PanelCode: "HOOD", Paint: estimate.PaintInfo{Type: "standard", LaborRate: 50}},
		{ID: "rf-2", Kind: estimate.RefinishPanel, PanelCode: "LF-FENDER", Paint: estimate.PaintInfo{Type: "standard", LaborRate: 50}},
	}

	set, err := en.Recommend(context.Background(), rules.DefaultGeicoARX(), e)
	require.NoError(t, err)

	recs := byType(set, TypeTechnique)
	require.Len(t, recs, 1)
	assert.Equal(t, "HOOD+LF-FENDER", recs[0].TargetID)
	assert.Equal(t, 0.92, recs[0].Confidence)
}

func TestPanelGroupsSplitDisconnected(t *testing.T) {
	rs := rules.DefaultGeicoARX()
	groups := panelGroups(rs, map[string]bool{
		"HOOD": true, "LF-FENDER": true, "DECKLID": true,
	})
	require.Len(t, groups, 2)
	assert.Equal(t, map[string]bool{"DECKLID": true}, groups[0])
	assert.Equal(t, map[string]bool{"HOOD": true, "LF-FENDER": true}, groups[1])
}

func TestBlendOpportunity(t *testing.T) {
	en := newEngine(t, &mockSource{})
	e := baseEstimate()
	e.Refinish = []estimate.RefinishOperation{
		{
			ID: "rf-1", Kind: estimate.RefinishPanel, PanelCode: "HOOD",
			Paint: estimate.PaintInfo{Type: "standard", LaborRate: 50}, TotalHours: 4,
		},
		{
			ID: "rf-2", Kind: estimate.RefinishPanel, PanelCode: "LF-FENDER",
			Paint:      estimate.PaintInfo{Type: "standard", LaborRate: 50},
			TotalHours: 3.5, DamageArea: 100, PanelArea: 900,
			ColorMatchConfidence: 0.9, BoothAvailable: true, ClearanceOK: true,
		},
	}

	set, err := en.Recommend(context.Background(), rules.DefaultGeicoARX(), e)
	require.NoError(t, err)

	recs := byType(set, TypeRefinishBlend)
	require.Len(t, recs, 1)
	assert.Equal(t, "rf-2", recs[0].TargetID)
	assert.Equal(t, 2.0, recs[0].RecommendedValue)
	assert.InDelta(t, 1.5*50, recs[0].Impact, 1e-9)
}

func TestBlendOpportunityRequiresColorMatch(t *testing.T) {
	en := newEngine(t, &mockSource{})
	e := baseEstimate()
	e.Refinish = []estimate.RefinishOperation{
		{ID: "rf-1", Kind: estimate.RefinishPanel, PanelCode: "HOOD",
			Paint: estimate.PaintInfo{Type: "standard", LaborRate: 50}, TotalHours: 4},
		{
			ID: "rf-2", Kind: estimate.RefinishPanel, PanelCode: "LF-FENDER",
			Paint:      estimate.PaintInfo{Type: "pearl", LaborRate: 50},
			TotalHours: 3.5, DamageArea: 100, PanelArea: 900,
			ColorMatchConfidence: 0.85, // pearl needs 0.90
			BoothAvailable:       true, ClearanceOK: true,
		},
	}

	set, err := en.Recommend(context.Background(), rules.DefaultGeicoARX(), e)
	require.NoError(t, err)
	assert.Empty(t, byType(set, TypeRefinishBlend))
}

func TestRepairVersusReplace(t *testing.T) {
	en := newEngine(t, &mockSource{})
	e := baseEstimate()
	e.Operations[0].RepairCost = 950
	e.Operations[0].ReplaceCost = 1000
	e.Operations[0].DamageLevel = "heavy"

	set, err := en.Recommend(context.Background(), rules.DefaultGeicoARX(), e)
	require.NoError(t, err)

	recs := byType(set, TypeReplacePanel)
	require.Len(t, recs, 1)
	// base 0.7 + ratio step 0.10 + heavy damage 0.05
	assert.InDelta(t, 0.85, recs[0].Confidence, 1e-9)
}

func TestRepairVersusReplaceBelowThreshold(t *testing.T) {
	en := newEngine(t, &mockSource{})
	e := baseEstimate()
	e.Operations[0].RepairCost = 700
	e.Operations[0].ReplaceCost = 1000

	set, err := en.Recommend(context.Background(), rules.DefaultGeicoARX(), e)
	require.NoError(t, err)
	assert.Empty(t, byType(set, TypeReplacePanel))
}

func TestSlowSourceDegradesCategory(t *testing.T) {
	en, err := NewEngine(&Config{
		SourceTimeout: 20 * time.Millisecond,
		SourceRPS:     50,
		SourceBurst:   10,
	}, &mockSource{delay: 200 * time.Millisecond, labor: samples(10, 3.0, 0.9)}, zap.NewNop())
	require.NoError(t, err)

	e := baseEstimate()
	e.Operations[0].Hours = 4
	e.Operations[0].Rate = 60

	set, err := en.Recommend(context.Background(), rules.DefaultGeicoARX(), e)
	require.NoError(t, err)

	assert.Contains(t, set.Degraded, "labor_patterns")
	assert.Empty(t, byType(set, TypeOperationTime))
	// Rule-derived recommendations survive the degradation.
	assert.Len(t, byType(set, TypeLaborRate), 1)
}

func TestFailingSourceDegradesCategory(t *testing.T) {
	en := newEngine(t, &mockSource{partsErr: errors.New("upstream unavailable")})

	set, err := en.Recommend(context.Background(), rules.DefaultGeicoARX(), baseEstimate())
	require.NoError(t, err)
	assert.Contains(t, set.Degraded, "part_alternatives")
}

func TestSetHelpers(t *testing.T) {
	set := &Set{Recommendations: []Recommendation{
		{Confidence: 0.9, PatternMatch: true},
		{Confidence: 0.7},
	}}
	assert.Equal(t, []float64{0.9, 0.7}, set.Confidences())
	assert.Equal(t, 1, set.PatternMatched())
}
