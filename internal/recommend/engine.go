package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/drpcheck/internal/estimate"
	"github.com/fyrsmithlabs/drpcheck/internal/rules"
)

const instrumentationName = "github.com/fyrsmithlabs/drpcheck/internal/recommend"

// ErrSourceTimeout marks a pattern lookup that exceeded its budget.
var ErrSourceTimeout = errors.New("pattern source timeout")

// Labor recommendation thresholds.
const (
	minLaborSamples   = 5
	minVehicleMatch   = 0.8
	laborVarianceFrac = 0.15
	maxConfidence     = 0.95
)

// Part alternative acceptance gates.
const (
	minFitScore      = 0.85
	minQualityRating = 4.0
)

// replaceCostRatio triggers a replace recommendation when repairing
// costs more than this fraction of replacing.
const replaceCostRatio = 0.8

// Config configures the recommendation engine.
type Config struct {
	// SourceTimeout bounds each category of pattern lookups.
	SourceTimeout time.Duration

	// SourceRPS and SourceBurst configure the shared rate limit on
	// pattern source calls.
	SourceRPS   float64
	SourceBurst int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SourceTimeout: 2 * time.Second,
		SourceRPS:     50,
		SourceBurst:   10,
	}
}

// Engine generates recommendations for an estimate.
type Engine struct {
	config  *Config
	source  PatternSource
	limiter *rate.Limiter
	logger  *zap.Logger
	tracer  trace.Tracer

	degradedCounter metric.Int64Counter
}

// NewEngine creates an Engine. The source may be nil, in which case
// only rule-derived recommendations are produced.
func NewEngine(config *Config, source PatternSource, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if config == nil {
		config = DefaultConfig()
	}

	meter := otel.Meter(instrumentationName)
	degraded, err := meter.Int64Counter("drpcheck.recommend.degraded",
		metric.WithDescription("Pattern lookups that failed or timed out, by category"))
	if err != nil {
		return nil, fmt.Errorf("create degraded counter: %w", err)
	}

	return &Engine{
		config:          config,
		source:          source,
		limiter:         rate.NewLimiter(rate.Limit(config.SourceRPS), config.SourceBurst),
		logger:          logger,
		tracer:          otel.Tracer(instrumentationName),
		degradedCounter: degraded,
	}, nil
}

// Recommend produces the recommendation set for an estimate. Pattern
// source failures degrade their category and never fail the call.
func (en *Engine) Recommend(ctx context.Context, rs *rules.RuleSet, e *estimate.Estimate) (*Set, error) {
	ctx, span := en.tracer.Start(ctx, "recommend.Recommend",
		trace.WithAttributes(attribute.String("estimate.id", e.ID)))
	defer span.End()

	set := &Set{}
	set.Recommendations = append(set.Recommendations, en.laborRates(rs, e)...)
	set.Recommendations = append(set.Recommendations, en.repairVersusReplace(e)...)
	set.Recommendations = append(set.Recommendations, en.blendOpportunities(rs, e)...)

	if en.source != nil {
		en.operationTimes(ctx, e, set)
		en.partAlternatives(ctx, rs, e, set)
		en.refinishTechniques(ctx, rs, e, set)
	}

	for _, category := range set.Degraded {
		en.degradedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("category", category)))
	}
	span.SetAttributes(
		attribute.Int("recommendations", len(set.Recommendations)),
		attribute.Int("degraded", len(set.Degraded)),
	)
	return set, nil
}

// laborRates recommends capping any billed rate that exceeds the
// program ceiling. Pure rule arithmetic, so confidence is at the cap.
func (en *Engine) laborRates(rs *rules.RuleSet, e *estimate.Estimate) []Recommendation {
	var recs []Recommendation
	for _, op := range e.Operations {
		max, ok := rs.LaborRates[op.RateCategory]
		if !ok || op.Rate <= max {
			continue
		}
		recs = append(recs, Recommendation{
			Type:             TypeLaborRate,
			TargetID:         op.ID,
			Field:            "rate",
			CurrentValue:     op.Rate,
			RecommendedValue: max,
			Confidence:       maxConfidence,
			Impact:           (op.Rate - max) * op.Hours,
			Note:             fmt.Sprintf("program %s rate for %s is $%.2f/hr", rs.Program, op.RateCategory, max),
		})
	}
	return recs
}

// operationTimes compares billed hours against historical samples for
// similar vehicles.
func (en *Engine) operationTimes(ctx context.Context, e *estimate.Estimate, set *Set) {
	for _, op := range e.Operations {
		samples, err := en.lookupLabor(ctx, e.Vehicle, op.Code)
		if err != nil {
			en.degrade(set, "labor_patterns", err)
			return
		}

		var sum float64
		var n int
		for _, s := range samples {
			if s.VehicleMatch > minVehicleMatch {
				sum += s.Hours
				n++
			}
		}
		if n < minLaborSamples {
			continue
		}
		mean := sum / float64(n)
		if math.Abs(op.Hours-mean) <= laborVarianceFrac*mean {
			continue
		}

		set.Recommendations = append(set.Recommendations, Recommendation{
			Type:             TypeOperationTime,
			TargetID:         op.ID,
			Field:            "hours",
			CurrentValue:     op.Hours,
			RecommendedValue: round1(mean),
			Confidence:       math.Min(maxConfidence, 0.7+float64(n)/1000),
			Impact:           (op.Hours - mean) * op.Rate,
			PatternMatch:     true,
			Note:             fmt.Sprintf("%d comparable repairs averaged %.1fh", n, mean),
		})
	}
}

// partAlternatives recommends the best scoring alternative for each
// OEM part, applying fit, quality, and certification gates.
func (en *Engine) partAlternatives(ctx context.Context, rs *rules.RuleSet, e *estimate.Estimate, set *Set) {
	for _, p := range e.Parts {
		if p.Type != estimate.PartOEM {
			continue
		}
		alts, err := en.lookupParts(ctx, p.Number)
		if err != nil {
			en.degrade(set, "part_alternatives", err)
			return
		}

		best, score, ok := bestAlternative(rs, p, alts)
		if !ok {
			continue
		}
		set.Recommendations = append(set.Recommendations, Recommendation{
			Type:             TypePartsPrice,
			TargetID:         p.ID,
			Field:            "price",
			CurrentValue:     p.Price,
			RecommendedValue: best.Price,
			Confidence:       score,
			Impact:           p.Price - best.Price,
			PatternMatch:     true,
			Note:             fmt.Sprintf("%s alternative %s scores %.2f", best.Type, best.Number, score),
		})
	}
}

// bestAlternative scores gated alternatives and returns the winner.
func bestAlternative(rs *rules.RuleSet, current estimate.Part, alts []PartAlternative) (PartAlternative, float64, bool) {
	var best PartAlternative
	var bestScore float64
	found := false

	for _, alt := range alts {
		if alt.FitScore < minFitScore || alt.QualityRating < minQualityRating {
			continue
		}
		if alt.Certification == "" || !rs.Parts.VendorApproved(alt.Certification) {
			continue
		}
		if alt.Price >= current.Price {
			continue
		}

		savingsPct := (current.Price - alt.Price) / current.Price * 100
		score := 0.4*priceScore(savingsPct) +
			0.3*(alt.QualityRating/5) +
			0.2*alt.Availability +
			0.1*alt.Warranty
		if !found || score > bestScore {
			best, bestScore, found = alt, score, true
		}
	}
	return best, bestScore, found
}

// priceScore rewards savings near 30%. Small discounts are not worth
// the substitution; deep discounts suggest the part is not comparable.
func priceScore(savingsPct float64) float64 {
	switch {
	case savingsPct <= 0:
		return 0
	case savingsPct < 20:
		return savingsPct / 20 * 0.9
	case savingsPct <= 40:
		return 1 - math.Abs(savingsPct-30)/100
	default:
		s := 0.9 - (savingsPct-40)/60*0.9
		if s < 0 {
			return 0
		}
		return s
	}
}

// refinishTechniques groups refinished panels into adjacency-connected
// groups and matches each group against historical technique patterns
// for the vehicle. Panels repaired together are refinished together,
// so patterns are keyed by whole groups, not single panels.
func (en *Engine) refinishTechniques(ctx context.Context, rs *rules.RuleSet, e *estimate.Estimate, set *Set) {
	panels := e.RefinishedPanels()
	if len(panels) == 0 {
		return
	}

	patterns, err := en.lookupRefinish(ctx, e.Vehicle)
	if err != nil {
		en.degrade(set, "refinish_patterns", err)
		return
	}

	for _, group := range panelGroups(rs, panels) {
		for _, pattern := range patterns {
			if !coversExactly(pattern.Panels, group) {
				continue
			}
			set.Recommendations = append(set.Recommendations, Recommendation{
				Type:         TypeTechnique,
				TargetID:     panelsKey(pattern.Panels),
				Confidence:   pattern.SuccessRate,
				PatternMatch: true,
				Note:         fmt.Sprintf("historical repairs of this panel group used %s", pattern.Technique),
			})
			break
		}
	}
}

// panelGroups partitions the refinished panel set into groups connected
// through the adjacency map, via breadth-first traversal. Group order
// and membership are deterministic.
func panelGroups(rs *rules.RuleSet, panels map[string]bool) []map[string]bool {
	codes := make([]string, 0, len(panels))
	for p := range panels {
		codes = append(codes, p)
	}
	sort.Strings(codes)

	visited := make(map[string]bool, len(panels))
	var groups []map[string]bool
	for _, start := range codes {
		if visited[start] {
			continue
		}
		group := map[string]bool{start: true}
		visited[start] = true
		queue := []string{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range rs.Refinish.Adjacency[cur] {
				if panels[next] && !visited[next] {
					visited[next] = true
					group[next] = true
					queue = append(queue, next)
				}
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// blendOpportunities suggests converting a full refinish to a blend
// when damage is limited, an adjacent panel is already being
// refinished, and color match plus facility conditions support it.
func (en *Engine) blendOpportunities(rs *rules.RuleSet, e *estimate.Estimate) []Recommendation {
	panels := e.RefinishedPanels()

	var recs []Recommendation
	for _, r := range e.Refinish {
		if r.Kind != estimate.RefinishPanel || r.IsBlend {
			continue
		}
		if r.PanelArea <= 0 || r.DamageArea/r.PanelArea >= 0.30 {
			continue
		}
		threshold, ok := rs.Color.MatchThresholds[r.Paint.Type]
		if !ok || r.ColorMatchConfidence < threshold {
			continue
		}
		if !r.BoothAvailable || !r.ClearanceOK {
			continue
		}
		adjacentRefinished := false
		for other := range panels {
			if other != r.PanelCode && rs.Refinish.Adjacent(r.PanelCode, other) {
				adjacentRefinished = true
				break
			}
		}
		if !adjacentRefinished {
			continue
		}

		saved := r.TotalHours - rs.Refinish.BlendHours
		if saved <= 0 {
			continue
		}
		recs = append(recs, Recommendation{
			Type:             TypeRefinishBlend,
			TargetID:         r.ID,
			Field:            "total_hours",
			CurrentValue:     r.TotalHours,
			RecommendedValue: rs.Refinish.BlendHours,
			Confidence:       r.ColorMatchConfidence,
			Impact:           saved * r.Paint.LaborRate,
			Note:             fmt.Sprintf("panel %s qualifies for blend instead of full refinish", r.PanelCode),
		})
	}
	return recs
}

// repairVersusReplace recommends replacing a panel when repairing it
// approaches the cost of replacement.
func (en *Engine) repairVersusReplace(e *estimate.Estimate) []Recommendation {
	var recs []Recommendation
	for _, op := range e.Operations {
		if op.RepairCost <= 0 || op.ReplaceCost <= 0 {
			continue
		}
		ratio := op.RepairCost / op.ReplaceCost
		if ratio <= replaceCostRatio {
			continue
		}

		conf := 0.7
		switch {
		case ratio > 1.0:
			conf += 0.15
		case ratio > 0.9:
			conf += 0.10
		default:
			conf += 0.05
		}
		if op.DamageLevel == "heavy" {
			conf += 0.05
		}
		if op.Hours > 10 {
			conf += 0.05
		}
		recs = append(recs, Recommendation{
			Type:             TypeReplacePanel,
			TargetID:         op.ID,
			CurrentValue:     op.RepairCost,
			RecommendedValue: op.ReplaceCost,
			Confidence:       math.Min(maxConfidence, conf),
			Impact:           op.RepairCost - op.ReplaceCost,
			Note:             fmt.Sprintf("repair at $%.0f is %.0f%% of the $%.0f replacement cost", op.RepairCost, ratio*100, op.ReplaceCost),
		})
	}
	return recs
}

func (en *Engine) lookupLabor(ctx context.Context, v estimate.Vehicle, code string) ([]LaborSample, error) {
	ctx, cancel := context.WithTimeout(ctx, en.config.SourceTimeout)
	defer cancel()
	if err := en.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceTimeout, err)
	}
	samples, err := en.source.LaborPatterns(ctx, v.Make, v.Model, v.Year, code)
	if err != nil {
		return nil, wrapTimeout(err)
	}
	return samples, nil
}

func (en *Engine) lookupParts(ctx context.Context, number string) ([]PartAlternative, error) {
	ctx, cancel := context.WithTimeout(ctx, en.config.SourceTimeout)
	defer cancel()
	if err := en.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceTimeout, err)
	}
	alts, err := en.source.PartAlternatives(ctx, number)
	if err != nil {
		return nil, wrapTimeout(err)
	}
	return alts, nil
}

func (en *Engine) lookupRefinish(ctx context.Context, v estimate.Vehicle) ([]TechniquePattern, error) {
	ctx, cancel := context.WithTimeout(ctx, en.config.SourceTimeout)
	defer cancel()
	if err := en.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceTimeout, err)
	}
	patterns, err := en.source.RefinishPatterns(ctx, v.Make, v.Model, v.Year)
	if err != nil {
		return nil, wrapTimeout(err)
	}
	return patterns, nil
}

func wrapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrSourceTimeout, err)
	}
	return err
}

func (en *Engine) degrade(set *Set, category string, err error) {
	for _, d := range set.Degraded {
		if d == category {
			return
		}
	}
	set.Degraded = append(set.Degraded, category)
	en.logger.Warn("pattern lookup degraded",
		zap.String("category", category),
		zap.Error(err))
}

func coversExactly(patternPanels []string, refinished map[string]bool) bool {
	if len(patternPanels) != len(refinished) {
		return false
	}
	for _, p := range patternPanels {
		if !refinished[p] {
			return false
		}
	}
	return true
}

func panelsKey(panels []string) string {
	sorted := append([]string(nil), panels...)
	sort.Strings(sorted)
	out := sorted[0]
	for _, p := range sorted[1:] {
		out += "+" + p
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
