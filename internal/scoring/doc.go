// Package scoring computes compliance scores and overall confidence
// for evaluated estimates.
//
// Scores live on a 0..1 scale. The compliance score is derived purely
// from validation findings; overall confidence additionally weighs
// recommendation confidence and pattern support. This package is the
// single owner of severity weights so scoring stays consistent across
// the pipeline.
package scoring
