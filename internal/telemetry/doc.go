// Package telemetry wires OpenTelemetry tracing and metrics for
// drpcheck.
//
// Telemetry is optional: when disabled the package returns no-op
// providers and the pipeline runs unchanged. Provider initialization
// failures degrade the instance instead of failing startup, so a
// missing collector never blocks estimate processing.
package telemetry
