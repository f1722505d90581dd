package estimate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEstimate() *Estimate {
	return &Estimate{
		ID:      "est-001",
		Version: "v1",
		Vehicle: Vehicle{VIN: "1HGBH41JXMN109186", Make: "Honda", Model: "Accord", Year: 2021, Material: "steel"},
		LaborRates: map[string]float64{
			"body":  50.00,
			"paint": 50.00,
		},
		Operations: []LaborOperation{
			{ID: "op-1", Code: "RR-BUMPER", Description: "R&I rear bumper", Type: OpLabor, Hours: 2.5, Rate: 50, RateCategory: "body"},
		},
		Parts: []Part{
			{ID: "pt-1", Number: "71501-TVA-A00", Description: "Rear bumper cover", Type: PartAftermarket, Vendor: "CAPA", Price: 212.50},
		},
		Status:    StatusPending,
		CreatedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Estimate)
		missing []string
	}{
		{
			name:   "valid estimate passes",
			mutate: func(e *Estimate) {},
		},
		{
			name:    "missing id",
			mutate:  func(e *Estimate) { e.ID = "" },
			missing: []string{"id"},
		},
		{
			name:    "missing vin",
			mutate:  func(e *Estimate) { e.Vehicle.VIN = "" },
			missing: []string{"vehicle.vin"},
		},
		{
			name:    "nil operations",
			mutate:  func(e *Estimate) { e.Operations = nil },
			missing: []string{"operations"},
		},
		{
			name:    "nil parts",
			mutate:  func(e *Estimate) { e.Parts = nil },
			missing: []string{"parts"},
		},
		{
			name:    "non-positive hours",
			mutate:  func(e *Estimate) { e.Operations[0].Hours = 0 },
			missing: []string{"operations[op-1].hours"},
		},
		{
			name:    "non-positive part price",
			mutate:  func(e *Estimate) { e.Parts[0].Price = -1 },
			missing: []string{"parts[pt-1].price"},
		},
		{
			name: "multiple missing fields reported together",
			mutate: func(e *Estimate) {
				e.ID = ""
				e.LaborRates = nil
			},
			missing: []string{"id", "labor_rates"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := validEstimate()
			tt.mutate(est)

			err := est.Validate()
			if len(tt.missing) == 0 {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			require.True(t, IsMalformed(err))
			var me *MalformedError
			require.ErrorAs(t, err, &me)
			for _, field := range tt.missing {
				assert.Contains(t, me.Missing, field)
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	base := validEstimate()

	snap := base.Snapshot("corrections:abc")

	assert.Equal(t, base.Version, snap.ParentVersion)
	assert.NotEqual(t, base.Version, snap.Version)

	// Deterministic: same base + seed gives the same version.
	again := base.Snapshot("corrections:abc")
	assert.Equal(t, snap.Version, again.Version)

	// Different seed gives a different version.
	other := base.Snapshot("corrections:def")
	assert.NotEqual(t, snap.Version, other.Version)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	base := validEstimate()
	base.Operations[0].Weld = &Weld{Type: WeldMIG, PenetrationPct: 85}
	base.Refinish = []RefinishOperation{
		{ID: "rf-1", Kind: RefinishPanel, PanelCode: "LF-FENDER", PaintThickness: map[string]float64{"basecoat": 1.0}},
	}

	snap := base.Snapshot("x")
	snap.Operations[0].Hours = 99
	snap.Operations[0].Weld.PenetrationPct = 10
	snap.Refinish[0].PaintThickness["basecoat"] = 9.9
	snap.LaborRates["body"] = 999

	assert.Equal(t, 2.5, base.Operations[0].Hours)
	assert.Equal(t, 85.0, base.Operations[0].Weld.PenetrationPct)
	assert.Equal(t, 1.0, base.Refinish[0].PaintThickness["basecoat"])
	assert.Equal(t, 50.0, base.LaborRates["body"])
}

func TestTotals(t *testing.T) {
	est := validEstimate()
	est.Refinish = []RefinishOperation{
		{ID: "rf-1", Kind: RefinishPanel, PanelCode: "LF-FENDER", TotalHours: 3, Paint: PaintInfo{Type: "standard", LaborRate: 50}},
		{ID: "rf-2", Kind: RefinishOverlapDeduction, Panels: []string{"LF-FENDER", "HOOD"}, TotalHours: 0.5, Paint: PaintInfo{LaborRate: 50}},
	}

	// 2.5h * 50 labor + 212.50 part + 3h * 50 refinish - 0.5h * 50 deduction
	assert.InDelta(t, 125+212.5+150-25, est.TotalAmount(), 1e-9)
	assert.InDelta(t, 2.5+3-0.5, est.TotalHours(), 1e-9)
	assert.Equal(t, 3, est.OperationCount())
}

func TestRefinishedPanels(t *testing.T) {
	est := validEstimate()
	est.Refinish = []RefinishOperation{
		{ID: "rf-1", Kind: RefinishPanel, PanelCode: "LF-FENDER"},
		{ID: "rf-2", Kind: RefinishPanel, PanelCode: "HOOD"},
		{ID: "rf-3", Kind: RefinishOverlapDeduction, Panels: []string{"LF-FENDER", "HOOD"}},
	}

	panels := est.RefinishedPanels()
	assert.Equal(t, map[string]bool{"LF-FENDER": true, "HOOD": true}, panels)
}

func TestLookupHelpers(t *testing.T) {
	est := validEstimate()

	op, ok := est.Operation("op-1")
	require.True(t, ok)
	assert.Equal(t, "RR-BUMPER", op.Code)

	_, ok = est.Operation("nope")
	assert.False(t, ok)

	p, ok := est.Part("pt-1")
	require.True(t, ok)
	assert.Equal(t, PartAftermarket, p.Type)
}
