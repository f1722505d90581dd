package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/logging"
)

// RunnerConfig bounds batch execution.
type RunnerConfig struct {
	// Workers caps concurrent evaluations.
	Workers int

	// EstimateTimeout bounds one estimate's evaluation. Zero disables
	// the per-estimate deadline.
	EstimateTimeout time.Duration
}

// DefaultRunnerConfig returns production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:         8,
		EstimateTimeout: 30 * time.Second,
	}
}

// Failure records one estimate that could not be evaluated.
type Failure struct {
	EstimateID string `json:"estimate_id"`
	Err        error  `json:"-"`
	Message    string `json:"message"`
}

// BatchResult collects the outcome of a batch run. Evaluations keep the
// input order of the estimates that succeeded.
type BatchResult struct {
	Evaluations []*Evaluation `json:"evaluations"`
	Failures    []Failure     `json:"failures,omitempty"`

	// Skipped lists estimate IDs that appeared more than once in the
	// batch; only the first occurrence is evaluated.
	Skipped []string `json:"skipped,omitempty"`
}

// Runner evaluates batches of estimates with a bounded worker pool.
type Runner struct {
	pipeline *Pipeline
	config   RunnerConfig
	logger   *logging.Logger

	evaluations *prometheus.CounterVec
	failures    prometheus.Counter
	duplicates  prometheus.Counter
	inFlight    prometheus.Gauge
	duration    prometheus.Histogram
}

// NewRunner creates a Runner and registers its metrics. A nil registry
// skips registration; metrics still record locally.
func NewRunner(pipeline *Pipeline, config RunnerConfig, logger *logging.Logger, reg prometheus.Registerer) (*Runner, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if config.Workers < 1 {
		return nil, fmt.Errorf("workers must be >= 1, got %d", config.Workers)
	}

	r := &Runner{
		pipeline: pipeline,
		config:   config,
		logger:   logger,
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "drpcheck",
			Name:      "evaluations_total",
			Help:      "Completed estimate evaluations by workflow path.",
		}, []string{"path"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "drpcheck",
			Name:      "evaluation_failures_total",
			Help:      "Estimate evaluations that returned an error.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "drpcheck",
			Name:      "duplicate_estimates_total",
			Help:      "Estimates skipped because their ID repeated within a batch.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "drpcheck",
			Name:      "evaluations_in_flight",
			Help:      "Estimate evaluations currently running.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "drpcheck",
			Name:      "evaluation_duration_seconds",
			Help:      "Wall time of one estimate evaluation.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{r.evaluations, r.failures, r.duplicates, r.inFlight, r.duration} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("register metrics: %w", err)
			}
		}
	}
	return r, nil
}

// Run evaluates every estimate in the batch under the given program.
// One estimate failing records a Failure and never stops the rest; Run
// returns an error only when the batch as a whole cannot proceed.
func (r *Runner) Run(ctx context.Context, program string, estimates []*estimate.Estimate) (*BatchResult, error) {
	if len(estimates) == 0 {
		return &BatchResult{}, nil
	}

	batchID := fmt.Sprintf("batch-%d", time.Now().UnixNano())
	ctx = logging.WithBatchID(ctx, batchID)

	// Deduplicate by estimate ID up front so no two workers touch the
	// same estimate.
	var skipped []string
	seen := make(map[string]bool, len(estimates))
	unique := make([]*estimate.Estimate, 0, len(estimates))
	for _, e := range estimates {
		if seen[e.ID] {
			skipped = append(skipped, e.ID)
			r.duplicates.Inc()
			continue
		}
		seen[e.ID] = true
		unique = append(unique, e)
	}
	if len(skipped) > 0 {
		r.logger.Warn(ctx, "duplicate estimate IDs skipped", zap.Strings("estimate_ids", skipped))
	}

	evals := make([]*Evaluation, len(unique))
	var mu sync.Mutex
	var failures []Failure

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)
	for i, e := range unique {
		g.Go(func() error {
			r.inFlight.Inc()
			defer r.inFlight.Dec()

			ectx := gctx
			if r.config.EstimateTimeout > 0 {
				var cancel context.CancelFunc
				ectx, cancel = context.WithTimeout(gctx, r.config.EstimateTimeout)
				defer cancel()
			}

			start := time.Now()
			eval, err := r.pipeline.Evaluate(ectx, program, e)
			r.duration.Observe(time.Since(start).Seconds())
			if err != nil {
				r.failures.Inc()
				r.logger.Error(logging.WithEstimateID(gctx, e.ID), "estimate evaluation failed", zap.Error(err))
				mu.Lock()
				failures = append(failures, Failure{EstimateID: e.ID, Err: err, Message: err.Error()})
				mu.Unlock()
				return nil
			}
			r.evaluations.WithLabelValues(string(eval.Decision.Path)).Inc()
			evals[i] = eval
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &BatchResult{Skipped: skipped}
	for _, eval := range evals {
		if eval != nil {
			result.Evaluations = append(result.Evaluations, eval)
		}
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].EstimateID < failures[j].EstimateID })
	result.Failures = failures

	r.logger.Info(ctx, "batch complete",
		zap.Int("estimates", len(estimates)),
		zap.Int("evaluated", len(result.Evaluations)),
		zap.Int("failed", len(failures)),
		zap.Int("skipped", len(skipped)))
	return result, nil
}
