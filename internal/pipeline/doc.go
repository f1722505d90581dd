// Package pipeline orchestrates the full evaluation of an estimate:
// rule resolution, compliance validation, recommendation generation,
// automatic correction, scoring, and workflow routing.
//
// Evaluate processes one estimate. Runner processes batches with a
// bounded worker pool; estimates within a batch are independent, one
// failure never stops the rest, and duplicate estimate IDs in a batch
// are skipped so two workers cannot evaluate the same estimate
// concurrently.
package pipeline
