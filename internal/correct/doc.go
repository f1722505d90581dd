// Package correct applies high-confidence recommendations to an
// estimate, producing a new immutable version.
//
// The corrector never mutates its input. Applied corrections are
// written to a deep-copied snapshot whose version ID derives from the
// parent version and the applied change set, so re-running the same
// corrections yields the same version. When two recommendations target
// the same field, the higher dollar impact wins and the loser is
// recorded as rejected. If the corrected estimate validates worse than
// the original, the correction is discarded and the original passes
// through with the failure recorded.
package correct
