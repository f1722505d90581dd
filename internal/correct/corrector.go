package correct

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/recommend"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
	"github.com/fyrsmithlabs/drpcheck/internal/validate"
)

const instrumentationName = "github.com/fyrsmithlabs/drpcheck/internal/correct"

// Applied is one correction written to the new version.
type Applied struct {
	Recommendation recommend.Recommendation `json:"recommendation"`
}

// Rejected is a correction that was considered and not applied.
type Rejected struct {
	Recommendation recommend.Recommendation `json:"recommendation"`
	Reason         string                   `json:"reason"`
}

// Outcome is the result of a correction pass.
type Outcome struct {
	// Estimate is the corrected version, or the original when nothing
	// was applied.
	Estimate *estimate.Estimate `json:"estimate"`

	Applied  []Applied  `json:"applied,omitempty"`
	Rejected []Rejected `json:"rejected,omitempty"`

	// Result is the validation of the returned estimate.
	Result *validate.Result `json:"result"`

	// Regressed is true when the corrected estimate validated worse
	// than the original. The corrected version still carries forward;
	// the router sees the regression.
	Regressed bool `json:"regressed,omitempty"`
}

// Corrector applies eligible recommendations and re-validates.
type Corrector struct {
	validator *validate.Validator
	logger    *zap.Logger
	tracer    trace.Tracer

	appliedCounter  metric.Int64Counter
	rejectedCounter metric.Int64Counter
}

// New creates a Corrector.
func New(validator *validate.Validator, logger *zap.Logger) (*Corrector, error) {
	if validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	meter := otel.Meter(instrumentationName)
	applied, err := meter.Int64Counter("drpcheck.correct.applied",
		metric.WithDescription("Corrections applied, by type"))
	if err != nil {
		return nil, fmt.Errorf("create applied counter: %w", err)
	}
	rejected, err := meter.Int64Counter("drpcheck.correct.rejected",
		metric.WithDescription("Corrections rejected, by reason"))
	if err != nil {
		return nil, fmt.Errorf("create rejected counter: %w", err)
	}

	return &Corrector{
		validator:       validator,
		logger:          logger,
		tracer:          otel.Tracer(instrumentationName),
		appliedCounter:  applied,
		rejectedCounter: rejected,
	}, nil
}

// Apply corrects the estimate with every eligible recommendation. The
// baseline validation result must come from validating e under the
// same rule set.
func (c *Corrector) Apply(ctx context.Context, rs *rules.RuleSet, e *estimate.Estimate, baseline *validate.Result, set *recommend.Set) (*Outcome, error) {
	ctx, span := c.tracer.Start(ctx, "correct.Apply",
		trace.WithAttributes(attribute.String("estimate.id", e.ID)))
	defer span.End()

	eligible, rejected := c.partition(rs, set.Recommendations)
	if len(eligible) == 0 {
		return &Outcome{Estimate: e, Rejected: rejected, Result: baseline}, nil
	}

	corrected := e.Snapshot(changeSeed(eligible))
	corrected.Status = estimate.StatusCorrected

	var applied []Applied
	for _, rec := range eligible {
		if err := applyOne(corrected, rec); err != nil {
			rejected = append(rejected, Rejected{Recommendation: rec, Reason: err.Error()})
			continue
		}
		applied = append(applied, Applied{Recommendation: rec})
	}

	if len(applied) == 0 {
		c.count(ctx, nil, rejected)
		return &Outcome{Estimate: e, Rejected: rejected, Result: baseline}, nil
	}

	result, err := c.validator.Validate(ctx, rs, corrected)
	if err != nil {
		return nil, fmt.Errorf("re-validate corrected estimate: %w", err)
	}

	// A correction that validates worse is not reverted. The corrected
	// version proceeds to routing with the regression flagged, which
	// forces human review instead of hiding the change.
	reg := regressed(baseline, result)
	if reg {
		c.logger.Warn("correction regressed validation",
			zap.String("estimate_id", e.ID),
			zap.Int("baseline_violations", len(baseline.Violations)),
			zap.Int("corrected_violations", len(result.Violations)))
	}

	c.count(ctx, applied, rejected)
	span.SetAttributes(
		attribute.Int("applied", len(applied)),
		attribute.Int("rejected", len(rejected)),
	)
	return &Outcome{Estimate: corrected, Applied: applied, Rejected: rejected, Result: result, Regressed: reg}, nil
}

// partition splits recommendations into eligible corrections and
// rejections, resolving same-field conflicts by higher dollar impact.
func (c *Corrector) partition(rs *rules.RuleSet, recs []recommend.Recommendation) ([]recommend.Recommendation, []Rejected) {
	var rejected []Rejected

	winners := make(map[string]recommend.Recommendation)
	var order []string
	for _, rec := range recs {
		if !rs.Correction.TypeAllowed(rec.Type) {
			rejected = append(rejected, Rejected{Recommendation: rec, Reason: "type not eligible for automatic correction"})
			continue
		}
		if rec.Confidence < rs.Correction.ConfidenceThreshold {
			rejected = append(rejected, Rejected{
				Recommendation: rec,
				Reason:         fmt.Sprintf("confidence %.2f below threshold %.2f", rec.Confidence, rs.Correction.ConfidenceThreshold),
			})
			continue
		}

		key := rec.TargetID + "/" + rec.Field
		prev, ok := winners[key]
		if !ok {
			winners[key] = rec
			order = append(order, key)
			continue
		}
		if math.Abs(rec.Impact) > math.Abs(prev.Impact) {
			winners[key] = rec
			rejected = append(rejected, Rejected{Recommendation: prev, Reason: "superseded by higher impact correction for the same field"})
		} else {
			rejected = append(rejected, Rejected{Recommendation: rec, Reason: "superseded by higher impact correction for the same field"})
		}
	}

	sort.Strings(order)
	eligible := make([]recommend.Recommendation, 0, len(order))
	for _, key := range order {
		eligible = append(eligible, winners[key])
	}
	return eligible, rejected
}

// applyOne writes a single correction to the estimate.
func applyOne(e *estimate.Estimate, rec recommend.Recommendation) error {
	switch rec.Type {
	case recommend.TypeLaborRate:
		op, ok := e.Operation(rec.TargetID)
		if !ok {
			return fmt.Errorf("operation %s not found", rec.TargetID)
		}
		op.Rate = rec.RecommendedValue
	case recommend.TypeOperationTime:
		op, ok := e.Operation(rec.TargetID)
		if !ok {
			return fmt.Errorf("operation %s not found", rec.TargetID)
		}
		op.Hours = rec.RecommendedValue
	case recommend.TypePartsPrice:
		p, ok := e.Part(rec.TargetID)
		if !ok {
			return fmt.Errorf("part %s not found", rec.TargetID)
		}
		p.Price = rec.RecommendedValue
	default:
		return fmt.Errorf("no applier for recommendation type %s", rec.Type)
	}
	return nil
}

// changeSeed derives the snapshot seed from the ordered change set so
// the corrected version ID is a pure function of parent plus changes.
func changeSeed(recs []recommend.Recommendation) string {
	seed := "correct"
	for _, rec := range recs {
		seed += fmt.Sprintf("|%s:%s:%s:%g", rec.Type, rec.TargetID, rec.Field, rec.RecommendedValue)
	}
	return seed
}

// regressed reports whether the corrected result is worse than the
// baseline: more violations, or a new violation at or above high.
func regressed(baseline, corrected *validate.Result) bool {
	if len(corrected.Violations) > len(baseline.Violations) {
		return true
	}
	return countSevere(corrected) > countSevere(baseline)
}

func countSevere(res *validate.Result) int {
	var n int
	for _, v := range res.Violations {
		if v.Severity.AtLeast(validate.SeverityHigh) {
			n++
		}
	}
	return n
}

func (c *Corrector) count(ctx context.Context, applied []Applied, rejected []Rejected) {
	for _, a := range applied {
		c.appliedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", a.Recommendation.Type)))
	}
	for _, r := range rejected {
		c.rejectedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("reason", r.Reason)))
	}
}
