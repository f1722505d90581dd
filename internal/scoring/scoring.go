package scoring

import (
	"github.com/fyrsmithlabs/drpcheck/internal/validate"
)

// Severity weights for the compliance score. Critical carries the same
// numeric weight as high; it forces manual review downstream rather
// than dominating the score.
var severityWeight = map[validate.Severity]float64{
	validate.SeverityLow:      0.4,
	validate.SeverityMedium:   0.7,
	validate.SeverityHigh:     1.0,
	validate.SeverityCritical: 1.0,
}

// Confidence blend weights.
const (
	complianceWeight = 0.4
	recWeight        = 0.3
	patternWeight    = 0.3
)

// ComplianceScore maps validation findings to a 0..1 score. An
// estimate with no violations scores 1. Each violation subtracts its
// severity weight normalized by twice the violation count, so the
// score degrades smoothly and only an estimate made entirely of
// maximum-severity findings reaches 0.5; the result is clamped to
// 0..1.
func ComplianceScore(res *validate.Result) float64 {
	n := len(res.Violations)
	if n == 0 {
		return 1
	}
	var sum float64
	for _, v := range res.Violations {
		sum += severityWeight[v.Severity]
	}
	return clamp(1 - sum/(float64(n)*2))
}

// OverallConfidence blends the compliance score with the mean
// recommendation confidence and the fraction of recommendations backed
// by historical pattern matches. With no recommendations the
// recommendation and pattern terms contribute their full weight: there
// is nothing uncertain to discount.
func OverallConfidence(compliance float64, recConfidences []float64, patternMatched int) float64 {
	rec := 1.0
	pattern := 1.0
	if n := len(recConfidences); n > 0 {
		var sum float64
		for _, c := range recConfidences {
			sum += c
		}
		rec = sum / float64(n)
		pattern = float64(patternMatched) / float64(n)
	}
	return clamp(complianceWeight*compliance + recWeight*rec + patternWeight*pattern)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
