// Package recommend generates correction recommendations for estimates
// from program rules and historical repair patterns.
//
// Historical data comes through the PatternSource interface. Sources
// are remote and unreliable by assumption: every category of lookup is
// bounded by a timeout and a shared rate limiter, and a failing or
// slow source degrades that category instead of failing the
// evaluation. Degraded categories are reported on the result so
// downstream consumers know which recommendations could not be
// generated.
package recommend
