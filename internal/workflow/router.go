package workflow

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
	"github.com/fyrsmithlabs/drpcheck/internal/validate"
)

const instrumentationName = "github.com/fyrsmithlabs/drpcheck/internal/workflow"

// Path is a routing destination.
type Path string

const (
	PathAutoApprove       Path = "AUTO_APPROVE"
	PathAutoCorrectReview Path = "AUTO_CORRECT_THEN_REVIEW"
	PathManualReview      Path = "MANUAL_REVIEW_REQUIRED"
	PathStandardReview    Path = "STANDARD_REVIEW"
)

// Trigger is one review flag attached to a decision.
type Trigger struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Trigger kinds.
const (
	TriggerLaborVariance  = "labor_rate_variance"
	TriggerPartsMarkup    = "parts_markup"
	TriggerOperationCount = "operation_count"
	TriggerTotalHours     = "total_hours"
)

// Decision is the routing outcome for one estimate version.
type Decision struct {
	Path   Path   `json:"path"`
	Reason string `json:"reason"`

	// Triggers are attached on every path.
	Triggers []Trigger `json:"triggers,omitempty"`
}

// Input carries everything the router needs.
type Input struct {
	Estimate *estimate.Estimate
	Result   *validate.Result

	// Score is the compliance score, Confidence the overall confidence.
	Score      float64
	Confidence float64

	// CorrectionsApplied is the number of corrections written to this
	// version.
	CorrectionsApplied int
}

// Router decides the workflow path for evaluated estimates.
type Router struct {
	logger *zap.Logger
	tracer trace.Tracer

	decisionCounter metric.Int64Counter
}

// NewRouter creates a Router.
func NewRouter(logger *zap.Logger) (*Router, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	meter := otel.Meter(instrumentationName)
	decisions, err := meter.Int64Counter("drpcheck.workflow.decisions",
		metric.WithDescription("Routing decisions, by path"))
	if err != nil {
		return nil, fmt.Errorf("create decisions counter: %w", err)
	}

	return &Router{
		logger:          logger,
		tracer:          otel.Tracer(instrumentationName),
		decisionCounter: decisions,
	}, nil
}

// Route picks the workflow path. Rules are evaluated in priority
// order; the first that matches decides.
func (r *Router) Route(ctx context.Context, rs *rules.RuleSet, in Input) Decision {
	ctx, span := r.tracer.Start(ctx, "workflow.Route",
		trace.WithAttributes(attribute.String("estimate.id", in.Estimate.ID)))
	defer span.End()

	decision := r.decide(rs, in)
	decision.Triggers = triggers(rs, in.Estimate)

	r.decisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", string(decision.Path))))
	span.SetAttributes(attribute.String("path", string(decision.Path)))
	r.logger.Info("estimate routed",
		zap.String("estimate_id", in.Estimate.ID),
		zap.String("path", string(decision.Path)),
		zap.String("reason", decision.Reason),
		zap.Int("triggers", len(decision.Triggers)))

	return decision
}

func (r *Router) decide(rs *rules.RuleSet, in Input) Decision {
	if reason, critical := criticalFindings(in); critical {
		return Decision{Path: PathManualReview, Reason: reason}
	}

	if reason, ok := autoApprovable(rs, in); ok {
		return Decision{Path: PathAutoApprove, Reason: reason}
	}

	if in.CorrectionsApplied > 0 {
		return Decision{
			Path:   PathAutoCorrectReview,
			Reason: fmt.Sprintf("%d corrections applied, reviewer confirmation required", in.CorrectionsApplied),
		}
	}

	return Decision{Path: PathStandardReview, Reason: "no auto path matched"}
}

// criticalFindings detects conditions that always require a human:
// critical severity violations, high severity structural or safety
// findings, and operations that touch safety systems.
func criticalFindings(in Input) (string, bool) {
	for _, v := range in.Result.Violations {
		if v.Severity == validate.SeverityCritical {
			return fmt.Sprintf("critical %s violation", v.Type), true
		}
		if v.Severity == validate.SeverityHigh &&
			(v.Type == validate.TypeStructural || v.Type == validate.TypeSafetySystem) {
			return fmt.Sprintf("high severity %s violation", v.Type), true
		}
	}
	for _, op := range in.Estimate.Operations {
		if op.AffectsSafety {
			return fmt.Sprintf("operation %s affects safety systems", op.ID), true
		}
	}
	return "", false
}

// autoApprovable applies the program's auto-approval gates.
func autoApprovable(rs *rules.RuleSet, in Input) (string, bool) {
	if !in.Result.Valid {
		return "", false
	}
	if in.Score < rs.Approval.RequiredScore {
		return "", false
	}
	if in.Confidence < rs.Approval.MinConfidence {
		return "", false
	}
	if total := in.Estimate.TotalAmount(); total > rs.Approval.MaxTotal {
		return "", false
	}
	if in.Estimate.OperationCount() > rs.Approval.MaxOperations {
		return "", false
	}
	return fmt.Sprintf("clean estimate, score %.2f, confidence %.2f", in.Score, in.Confidence), true
}

// triggers computes the review flags for an estimate. They attach to
// every decision, auto-approved included.
func triggers(rs *rules.RuleSet, e *estimate.Estimate) []Trigger {
	var out []Trigger

	for _, op := range e.Operations {
		max, ok := rs.LaborRates[op.RateCategory]
		if !ok || max == 0 {
			continue
		}
		if variance := (op.Rate - max) / max * 100; variance > rs.Review.LaborVariancePct {
			out = append(out, Trigger{
				Kind:    TriggerLaborVariance,
				Message: fmt.Sprintf("operation %s rate is %.0f%% over the program rate", op.ID, variance),
			})
		}
	}

	for _, p := range e.Parts {
		if p.Type != estimate.PartOEM || p.ListPrice <= 0 {
			continue
		}
		if markup := (p.Price - p.ListPrice) / p.ListPrice * 100; markup > rs.Review.PartsMarkupPct {
			out = append(out, Trigger{
				Kind:    TriggerPartsMarkup,
				Message: fmt.Sprintf("part %s markup is %.0f%%", p.ID, markup),
			})
		}
	}

	if n := e.OperationCount(); n > rs.Review.OperationCount {
		out = append(out, Trigger{
			Kind:    TriggerOperationCount,
			Message: fmt.Sprintf("%d operations on a single estimate", n),
		})
	}

	if h := e.TotalHours(); h > rs.Review.TotalHours {
		out = append(out, Trigger{
			Kind:    TriggerTotalHours,
			Message: fmt.Sprintf("%.1f total labor hours", h),
		})
	}

	return out
}
