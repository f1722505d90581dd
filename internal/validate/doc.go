// Package validate runs DRP compliance checks over an estimate.
//
// The validator is a set of independent check groups (labor rates,
// parts guidelines, operation time, included operations, refinish
// overlap and calculations, structural sectioning, weld quality,
// corrosion protection, measurements, diagnostic scans, calibration,
// safety-system restoration, repair quality, documentation). Groups
// share no state and run concurrently; their findings are concatenated
// in a fixed group order so results are deterministic.
//
// Findings are data, not errors: a Violation is a soft finding that is
// collected and scored. The only hard failure is a malformed estimate
// (estimate.MalformedError), which aborts before any group runs.
package validate
