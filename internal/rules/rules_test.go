package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGeicoARX(t *testing.T) {
	rs := DefaultGeicoARX()

	assert.Equal(t, "geico_arx", rs.Program)
	assert.Equal(t, 52.00, rs.LaborRates["body"])
	assert.Equal(t, 95.00, rs.LaborRates["mechanical"])
	assert.Equal(t, 30.0, rs.Parts.MinAftermarketPct)
	assert.Equal(t, 1.2, rs.OperationTime.ToleranceMultiplier)
	assert.Equal(t, 1.5, rs.Refinish.ThreeStageMultiplier)
	assert.Equal(t, 0.95, rs.Color.MatchThresholds["tri_coat"])
	assert.Equal(t, 80.0, rs.Welds.Specs["mig"].MinPenetrationPct)
	assert.Equal(t, 90.0, rs.Welds.Specs["spot"].MinPenetrationPct)
	assert.Equal(t, 85.0, rs.Welds.Specs["plug"].MinPenetrationPct)
	assert.Equal(t, 2.0, rs.Structural.ToleranceMM)
	assert.Equal(t, 3.0, rs.Structural.SymmetryMaxMM)
	assert.Equal(t, 0.85, rs.Correction.ConfidenceThreshold)
	assert.True(t, rs.Parts.VendorApproved("CAPA"))
	assert.False(t, rs.Parts.VendorApproved("Bargain Bin"))
}

func TestCatalogRules(t *testing.T) {
	c := NewCatalog(DefaultGeicoARX())

	rs, err := c.Rules("geico_arx")
	require.NoError(t, err)
	assert.Equal(t, "geico_arx", rs.Program)

	_, err = c.Rules("unknown_program")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog(DefaultGeicoARX())

	tests := []struct {
		name     string
		category string
		key      string
		wantErr  bool
		check    func(t *testing.T, v any)
	}{
		{
			name: "labor rate", category: "labor_rates", key: "frame",
			check: func(t *testing.T, v any) { assert.Equal(t, 65.00, v) },
		},
		{
			name: "weld spec", category: "weld_specs", key: "spot",
			check: func(t *testing.T, v any) {
				assert.Equal(t, 90.0, v.(WeldSpec).MinPenetrationPct)
			},
		},
		{
			name: "color threshold", category: "color_thresholds", key: "pearl",
			check: func(t *testing.T, v any) { assert.Equal(t, 0.90, v) },
		},
		{name: "unknown category", category: "nope", key: "x", wantErr: true},
		{name: "unknown key", category: "labor_rates", key: "nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.Lookup("geico_arx", tt.category, tt.key)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrConfigNotFound)
				return
			}
			require.NoError(t, err)
			tt.check(t, v)
		})
	}

	_, err := c.Lookup("unknown", "labor_rates", "body")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestParseLayersOverDefaults(t *testing.T) {
	content := []byte(`
labor_rates:
  body: 55.00
parts:
  min_aftermarket_pct: 40
`)

	rs, err := Parse("geico_arx", content)
	require.NoError(t, err)

	// Overridden values.
	assert.Equal(t, 55.00, rs.LaborRates["body"])
	assert.Equal(t, 40.0, rs.Parts.MinAftermarketPct)

	// Defaults retained.
	assert.Equal(t, 95.00, rs.LaborRates["mechanical"])
	assert.Equal(t, 1.2, rs.OperationTime.ToleranceMultiplier)
	assert.Equal(t, 80.0, rs.Welds.Specs["mig"].MinPenetrationPct)
}

func TestParseUnknownProgramHasNoDefaults(t *testing.T) {
	content := []byte(`
labor_rates:
  body: 48.00
operation_time:
  tolerance_multiplier: 1.1
`)

	rs, err := Parse("acme_direct", content)
	require.NoError(t, err)

	assert.Equal(t, "acme_direct", rs.Program)
	assert.Equal(t, 48.00, rs.LaborRates["body"])
	assert.Equal(t, 1.1, rs.OperationTime.ToleranceMultiplier)
	assert.Empty(t, rs.Welds.Specs)
}

func TestAdjacencyIsSymmetricAfterLoad(t *testing.T) {
	content := []byte(`
refinish:
  adjacency:
    HOOD: [LF-FENDER]
`)

	rs, err := Parse("acme_direct", content)
	require.NoError(t, err)

	assert.True(t, rs.Refinish.Adjacent("HOOD", "LF-FENDER"))
	assert.True(t, rs.Refinish.Adjacent("LF-FENDER", "HOOD"))
	assert.False(t, rs.Refinish.Adjacent("HOOD", "ROOF"))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme_direct.yaml"), []byte(`
labor_rates:
  body: 47.50
`), 0o600))

	catalog, err := LoadDir(dir)
	require.NoError(t, err)

	// File-defined program.
	rs, err := catalog.Rules("acme_direct")
	require.NoError(t, err)
	assert.Equal(t, 47.50, rs.LaborRates["body"])

	// Built-in program still available.
	_, err = catalog.Rules("geico_arx")
	require.NoError(t, err)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	src, err := NewFileSource(dir, nil)
	require.NoError(t, err)

	rs, err := src.Rules(context.Background(), "geico_arx")
	require.NoError(t, err)
	assert.Equal(t, "geico_arx", rs.Program)

	_, err = src.Rules(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}
