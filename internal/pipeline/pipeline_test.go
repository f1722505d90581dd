package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/drpcheck/internal/correct"
	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/logging"
	"github.com/fyrsmithlabs/drpcheck/internal/recommend"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
	"github.com/fyrsmithlabs/drpcheck/internal/validate"
	"github.com/fyrsmithlabs/drpcheck/internal/workflow"
)

func newTestPipeline(t *testing.T, source recommend.PatternSource) *Pipeline {
	t.Helper()

	v, err := validate.New(zap.NewNop())
	require.NoError(t, err)
	en, err := recommend.NewEngine(nil, source, zap.NewNop())
	require.NoError(t, err)
	c, err := correct.New(v, zap.NewNop())
	require.NoError(t, err)
	r, err := workflow.NewRouter(zap.NewNop())
	require.NoError(t, err)

	src := rules.NewStaticSource(rules.NewCatalog(rules.DefaultGeicoARX()))
	p, err := New(src, v, en, c, r, logging.NewTestLogger().Logger)
	require.NoError(t, err)
	return p
}

func cleanEstimate(id string) *estimate.Estimate {
	return &estimate.Estimate{
		ID:      id,
		Version: "v1",
		Vehicle: estimate.Vehicle{
			VIN:      "1HGCM82633A004352",
			Make:     "Honda",
			Model:    "Accord",
			Year:     2022,
			Material: "steel",
		},
		LaborRates: map[string]float64{"body": 50, "paint": 50},
		Operations: []estimate.LaborOperation{
			{
				ID:            "op-1",
				Code:          "DENT-RPR",
				Description:   "repair door dent",
				Type:          estimate.OpLabor,
				Hours:         2.0,
				Rate:          50,
				RateCategory:  "body",
				StandardHours: 2.0,
				Location:      "LF-DOOR",
			},
		},
		Parts: []estimate.Part{
			{ID: "p-1", Number: "N1", Type: estimate.PartOEM, Price: 100, ListPrice: 90},
			{ID: "p-2", Number: "N2", Type: estimate.PartOEM, Price: 210, ListPrice: 200},
			{ID: "p-3", Number: "N3", Type: estimate.PartAftermarket, Price: 80, Certification: "CAPA"},
			{ID: "p-4", Number: "N4", Type: estimate.PartAftermarket, Price: 60, Certification: "NSF"},
			{ID: "p-5", Number: "N5", Type: estimate.PartRecycled, Price: 40},
		},
		Refinish: []estimate.RefinishOperation{
			{
				ID:        "rf-1",
				Kind:      estimate.RefinishPanel,
				PanelCode: "LF-DOOR",
				Paint:     estimate.PaintInfo{Type: "standard", LaborRate: 50},
				BaseHours: 3.0, TotalHours: 3.0,
				PaintThickness: map[string]float64{"basecoat": 1.0, "clearcoat": 2.0, "primer": 1.2},
				ColorDeltaE:    0.8,
			},
		},
		Photos: []estimate.Photo{
			{ID: "ph-1", Type: "vin_plate", Format: "jpg", SizeBytes: 900_000, Width: 1920, Height: 1080},
			{ID: "ph-2", Type: "damage_front", Format: "jpg", SizeBytes: 900_000, Width: 1920, Height: 1080},
			{ID: "ph-3", Type: "damage_rear", Format: "jpg", SizeBytes: 900_000, Width: 1920, Height: 1080},
			{ID: "ph-4", Type: "damage_close", Format: "png", SizeBytes: 900_000, Width: 1920, Height: 1080},
			{ID: "ph-5", Type: "part_number", Format: "jpg", SizeBytes: 900_000, Width: 1920, Height: 1080},
		},
		Scans:     estimate.DiagnosticScans{PreScan: true, PostScan: true},
		Status:    estimate.StatusPending,
		CreatedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestEvaluateCleanEstimateAutoApproves(t *testing.T) {
	p := newTestPipeline(t, nil)

	eval, err := p.Evaluate(context.Background(), "geico_arx", cleanEstimate("est-1"))
	require.NoError(t, err)

	assert.True(t, eval.Result.Valid)
	assert.Equal(t, 1.0, eval.Score)
	assert.Equal(t, 1.0, eval.Confidence)
	assert.Empty(t, eval.Applied)
	assert.Equal(t, workflow.PathAutoApprove, eval.Decision.Path)
	assert.Equal(t, "v1", eval.Estimate.Version)
}

func TestEvaluateCorrectsOverbilledRate(t *testing.T) {
	p := newTestPipeline(t, nil)
	e := cleanEstimate("est-2")
	e.Operations[0].Rate = 60 // body cap is 52

	eval, err := p.Evaluate(context.Background(), "geico_arx", e)
	require.NoError(t, err)

	require.Len(t, eval.Applied, 1)
	assert.Equal(t, 60.0, e.Operations[0].Rate)
	assert.Equal(t, 52.0, eval.Estimate.Operations[0].Rate)
	assert.Equal(t, "v1", eval.Estimate.ParentVersion)
	assert.NotEqual(t, "v1", eval.Estimate.Version)
	assert.True(t, eval.Result.Valid)
	assert.Equal(t, 1.0, eval.Score)
	assert.Equal(t, workflow.PathAutoCorrectReview, eval.Decision.Path)
}

func TestEvaluateCriticalRoutesToManualReview(t *testing.T) {
	p := newTestPipeline(t, nil)
	e := cleanEstimate("est-3")
	e.Operations[0].Weld = &estimate.Weld{
		Type: estimate.WeldMIG, PenetrationPct: 75, SizeMM: 5, Color: "straw",
	}
	e.Operations[0].CorrosionProtection = []string{"weld_through_primer", "sealer"}

	eval, err := p.Evaluate(context.Background(), "geico_arx", e)
	require.NoError(t, err)

	assert.False(t, eval.Result.Valid)
	assert.Equal(t, workflow.PathManualReview, eval.Decision.Path)
	assert.Less(t, eval.Score, 1.0)
}

func TestEvaluateUnknownProgramFails(t *testing.T) {
	p := newTestPipeline(t, nil)

	_, err := p.Evaluate(context.Background(), "no_such_program", cleanEstimate("est-4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_program")
}

func TestEvaluateMalformedEstimateFails(t *testing.T) {
	p := newTestPipeline(t, nil)
	e := cleanEstimate("est-5")
	e.Vehicle.VIN = ""

	_, err := p.Evaluate(context.Background(), "geico_arx", e)
	require.Error(t, err)
	assert.True(t, estimate.IsMalformed(err))
}

func newTestRunner(t *testing.T, cfg RunnerConfig) (*Runner, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	r, err := NewRunner(newTestPipeline(t, nil), cfg, logging.NewTestLogger().Logger, reg)
	require.NoError(t, err)
	return r, reg
}

func TestRunBatch(t *testing.T) {
	r, reg := newTestRunner(t, DefaultRunnerConfig())

	batch := []*estimate.Estimate{
		cleanEstimate("est-10"),
		cleanEstimate("est-11"),
		cleanEstimate("est-12"),
	}
	res, err := r.Run(context.Background(), "geico_arx", batch)
	require.NoError(t, err)

	require.Len(t, res.Evaluations, 3)
	assert.Empty(t, res.Failures)
	assert.Empty(t, res.Skipped)
	// Input order is preserved.
	for i, eval := range res.Evaluations {
		assert.Equal(t, batch[i].ID, eval.Estimate.ID)
	}

	count := testutil.ToFloat64(r.evaluations.WithLabelValues(string(workflow.PathAutoApprove)))
	assert.Equal(t, 3.0, count)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.inFlight))
	_ = reg
}

func TestRunBatchFailureDoesNotStopOthers(t *testing.T) {
	r, _ := newTestRunner(t, DefaultRunnerConfig())

	bad := cleanEstimate("est-bad")
	bad.Vehicle.VIN = ""
	batch := []*estimate.Estimate{
		cleanEstimate("est-20"),
		bad,
		cleanEstimate("est-21"),
	}

	res, err := r.Run(context.Background(), "geico_arx", batch)
	require.NoError(t, err)

	assert.Len(t, res.Evaluations, 2)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "est-bad", res.Failures[0].EstimateID)
	assert.True(t, estimate.IsMalformed(res.Failures[0].Err))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.failures))
}

func TestRunBatchSkipsDuplicateIDs(t *testing.T) {
	r, _ := newTestRunner(t, DefaultRunnerConfig())

	batch := []*estimate.Estimate{
		cleanEstimate("est-30"),
		cleanEstimate("est-30"),
		cleanEstimate("est-31"),
	}
	res, err := r.Run(context.Background(), "geico_arx", batch)
	require.NoError(t, err)

	assert.Len(t, res.Evaluations, 2)
	assert.Equal(t, []string{"est-30"}, res.Skipped)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.duplicates))
}

func TestRunBoundsConcurrency(t *testing.T) {
	cfg := RunnerConfig{Workers: 2, EstimateTimeout: 30 * time.Second}
	reg := prometheus.NewRegistry()

	var current, peak atomic.Int64
	src := &gaugedSource{current: &current, peak: &peak}
	r, err := NewRunner(newTestPipeline(t, src), cfg, logging.NewTestLogger().Logger, reg)
	require.NoError(t, err)

	batch := make([]*estimate.Estimate, 8)
	for i := range batch {
		batch[i] = cleanEstimate("est-c" + string(rune('0'+i)))
	}
	res, err := r.Run(context.Background(), "geico_arx", batch)
	require.NoError(t, err)

	assert.Len(t, res.Evaluations, 8)
	assert.LessOrEqual(t, peak.Load(), int64(cfg.Workers))
}

func TestRunEmptyBatch(t *testing.T) {
	r, _ := newTestRunner(t, DefaultRunnerConfig())

	res, err := r.Run(context.Background(), "geico_arx", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Evaluations)
	assert.Empty(t, res.Failures)
}

// gaugedSource tracks how many evaluations touch it concurrently. Every
// estimate in a batch queries labor patterns, so its high-water mark
// bounds the pool size from below.
type gaugedSource struct {
	current *atomic.Int64
	peak    *atomic.Int64
}

func (g *gaugedSource) LaborPatterns(ctx context.Context, make, model string, year int, code string) ([]recommend.LaborSample, error) {
	n := g.current.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	g.current.Add(-1)
	return nil, nil
}

func (g *gaugedSource) PartAlternatives(ctx context.Context, number string) ([]recommend.PartAlternative, error) {
	return nil, nil
}

func (g *gaugedSource) RefinishPatterns(ctx context.Context, make, model string, year int) ([]recommend.TechniquePattern, error) {
	return nil, nil
}
