package validate

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

const instrumentationName = "github.com/fyrsmithlabs/drpcheck/internal/validate"

// checkGroup is one independent compliance check. Groups read the
// estimate and rule set and never mutate either.
type checkGroup struct {
	name string
	run  func(rs *rules.RuleSet, e *estimate.Estimate) ([]Violation, []Warning)
}

// groups returns every check group in reporting order. The order is
// part of the validator's contract: findings are concatenated in this
// order regardless of which group finishes first.
func groups() []checkGroup {
	return []checkGroup{
		{"labor_rates", checkLaborRates},
		{"parts", checkParts},
		{"operation_time", checkOperationTime},
		{"included_operations", checkIncludedOperations},
		{"refinish_overlap", checkRefinishOverlap},
		{"refinish_calculations", checkRefinishCalculations},
		{"structural", checkStructural},
		{"weld_quality", checkWeldQuality},
		{"corrosion", checkCorrosion},
		{"measurements", checkMeasurements},
		{"diagnostic_scans", checkDiagnosticScans},
		{"calibration", checkCalibration},
		{"safety_systems", checkSafetySystems},
		{"repair_quality", checkRepairQuality},
		{"documentation", checkDocumentation},
	}
}

// Validator runs all check groups over an estimate.
type Validator struct {
	logger *zap.Logger
	tracer trace.Tracer

	violationCounter metric.Int64Counter
	passCounter      metric.Int64Counter
}

// New creates a Validator.
func New(logger *zap.Logger) (*Validator, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	meter := otel.Meter(instrumentationName)
	violations, err := meter.Int64Counter("drpcheck.validate.violations",
		metric.WithDescription("Violations found, by type and severity"))
	if err != nil {
		return nil, fmt.Errorf("create violations counter: %w", err)
	}
	passes, err := meter.Int64Counter("drpcheck.validate.passes",
		metric.WithDescription("Validation passes, by outcome"))
	if err != nil {
		return nil, fmt.Errorf("create passes counter: %w", err)
	}

	return &Validator{
		logger:           logger,
		tracer:           otel.Tracer(instrumentationName),
		violationCounter: violations,
		passCounter:      passes,
	}, nil
}

// Validate runs every check group against the estimate under the given
// rule set. A malformed estimate fails fast with an
// estimate.MalformedError before any group runs; everything a group
// finds is returned as data in the Result.
func (v *Validator) Validate(ctx context.Context, rs *rules.RuleSet, e *estimate.Estimate) (*Result, error) {
	ctx, span := v.tracer.Start(ctx, "validate.Validate",
		trace.WithAttributes(
			attribute.String("estimate.id", e.ID),
			attribute.String("program", rs.Program),
		))
	defer span.End()

	if err := e.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed estimate")
		return nil, err
	}

	gs := groups()
	type findings struct {
		violations []Violation
		warnings   []Warning
	}
	results := make([]findings, len(gs))

	g, ctx := errgroup.WithContext(ctx)
	for i, cg := range gs {
		g.Go(func() error {
			vs, ws := cg.run(rs, e)
			results[i] = findings{violations: vs, warnings: ws}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, f := range results {
		res.Violations = append(res.Violations, f.violations...)
		res.Warnings = append(res.Warnings, f.warnings...)
	}
	for _, viol := range res.Violations {
		if viol.Severity.AtLeast(SeverityHigh) {
			res.RequiredChanges = append(res.RequiredChanges, viol.Message)
		}
		v.violationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", viol.Type),
			attribute.String("severity", string(viol.Severity)),
		))
	}
	res.Valid = len(res.Violations) == 0

	v.passCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("valid", res.Valid)))
	span.SetAttributes(
		attribute.Int("violations", len(res.Violations)),
		attribute.Int("warnings", len(res.Warnings)),
	)
	v.logger.Debug("validation complete",
		zap.String("estimate_id", e.ID),
		zap.String("program", rs.Program),
		zap.Int("violations", len(res.Violations)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Bool("valid", res.Valid))

	return res, nil
}
