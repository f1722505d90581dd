package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/drpcheck/internal/correct"
	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/logging"
	"github.com/fyrsmithlabs/drpcheck/internal/recommend"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
	"github.com/fyrsmithlabs/drpcheck/internal/scoring"
	"github.com/fyrsmithlabs/drpcheck/internal/validate"
	"github.com/fyrsmithlabs/drpcheck/internal/workflow"
)

const instrumentationName = "github.com/fyrsmithlabs/drpcheck/internal/pipeline"

// Evaluation is the complete outcome for one estimate.
type Evaluation struct {
	// Estimate is the final version: the corrected snapshot when
	// corrections were applied, otherwise the input.
	Estimate *estimate.Estimate `json:"estimate"`

	Result          *validate.Result   `json:"result"`
	Recommendations *recommend.Set     `json:"recommendations"`
	Applied         []correct.Applied  `json:"applied,omitempty"`
	Rejected        []correct.Rejected `json:"rejected,omitempty"`
	Regressed       bool               `json:"regressed,omitempty"`

	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`

	Decision workflow.Decision `json:"decision"`

	Elapsed time.Duration `json:"elapsed"`
}

// Pipeline evaluates estimates end to end.
type Pipeline struct {
	source    rules.Source
	validator *validate.Validator
	engine    *recommend.Engine
	corrector *correct.Corrector
	router    *workflow.Router
	logger    *logging.Logger
	tracer    trace.Tracer
}

// New assembles a Pipeline from its stages.
func New(source rules.Source, validator *validate.Validator, engine *recommend.Engine, corrector *correct.Corrector, router *workflow.Router, logger *logging.Logger) (*Pipeline, error) {
	if source == nil {
		return nil, fmt.Errorf("rules source is required")
	}
	if validator == nil || engine == nil || corrector == nil || router == nil {
		return nil, fmt.Errorf("all pipeline stages are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Pipeline{
		source:    source,
		validator: validator,
		engine:    engine,
		corrector: corrector,
		router:    router,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
	}, nil
}

// Evaluate runs the full pipeline for one estimate under the given
// program. The input estimate is never mutated.
func (p *Pipeline) Evaluate(ctx context.Context, program string, e *estimate.Estimate) (*Evaluation, error) {
	start := time.Now()

	ctx = logging.WithEstimateID(ctx, e.ID)
	ctx = logging.WithProgram(ctx, program)
	ctx, span := p.tracer.Start(ctx, "pipeline.Evaluate",
		trace.WithAttributes(
			attribute.String("estimate.id", e.ID),
			attribute.String("program", program),
		))
	defer span.End()

	rs, err := p.source.Rules(ctx, program)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rule resolution failed")
		return nil, fmt.Errorf("resolve rules for program %s: %w", program, err)
	}

	// Validation and recommendation read the same immutable estimate,
	// so they run in parallel.
	var result *validate.Result
	var set *recommend.Set
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result, err = p.validator.Validate(gctx, rs, e)
		return err
	})
	g.Go(func() error {
		var err error
		set, err = p.engine.Recommend(gctx, rs, e)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return nil, err
	}

	outcome, err := p.corrector.Apply(ctx, rs, e, result, set)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "correction failed")
		return nil, err
	}

	score := scoring.ComplianceScore(outcome.Result)
	confidence := scoring.OverallConfidence(score, set.Confidences(), set.PatternMatched())

	decision := p.router.Route(ctx, rs, workflow.Input{
		Estimate:           outcome.Estimate,
		Result:             outcome.Result,
		Score:              score,
		Confidence:         confidence,
		CorrectionsApplied: len(outcome.Applied),
	})

	eval := &Evaluation{
		Estimate:        outcome.Estimate,
		Result:          outcome.Result,
		Recommendations: set,
		Applied:         outcome.Applied,
		Rejected:        outcome.Rejected,
		Regressed:       outcome.Regressed,
		Score:           score,
		Confidence:      confidence,
		Decision:        decision,
		Elapsed:         time.Since(start),
	}

	span.SetAttributes(
		attribute.Float64("score", score),
		attribute.Float64("confidence", confidence),
		attribute.String("path", string(decision.Path)),
	)
	p.logger.Info(ctx, "estimate evaluated",
		zap.Float64("score", score),
		zap.Float64("confidence", confidence),
		zap.Int("violations", len(outcome.Result.Violations)),
		zap.Int("corrections", len(outcome.Applied)),
		zap.String("path", string(decision.Path)),
		zap.Duration("elapsed", eval.Elapsed))

	return eval, nil
}
