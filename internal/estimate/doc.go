// Package estimate defines the collision-repair estimate data model.
//
// An Estimate is an immutable snapshot of a structured repair estimate:
// labor operations, parts, refinish operations, photos, measurements,
// diagnostic scans, calibrations, and safety-system restoration plans.
// Estimates are never mutated in place; corrections produce successive
// versions linked through ParentVersion, so the original is always
// retained for audit.
//
// # Versioning
//
// Snapshot derives a new version from an existing estimate:
//
//	corrected := est.Snapshot("corrections:" + digest)
//	corrected.Operations[2].Hours = 7.5
//
// Version IDs are content-derived (UUIDv5 over the parent version and
// the seed), so deriving the same snapshot from the same base twice
// yields the same version ID. This is what makes auto-correction
// idempotent end to end.
//
// # Validation
//
// Validate checks structural integrity only (required fields, sane
// ranges). Program compliance is the validate package's job.
package estimate
