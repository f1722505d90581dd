// Package logging provides structured, context-aware logging for
// drpcheck on top of Zap.
//
// # Outputs
//
// Logs are written to stdout (JSON or console format) and optionally
// bridged to an OpenTelemetry log provider through otelzap. Both
// outputs share one core, so level filtering behaves identically.
//
// # Context correlation
//
// Logging methods take a context.Context and automatically attach
// trace/span IDs plus pipeline correlation fields (estimate ID,
// program, batch ID) placed in the context by the pipeline:
//
//	ctx = logging.WithEstimateID(ctx, est.ID)
//	ctx = logging.WithProgram(ctx, "geico_arx")
//	logger.Info(ctx, "estimate routed", zap.String("path", path))
//
// # Testing
//
// NewTestLogger returns a logger backed by an observer core with
// assertion helpers for messages and fields.
package logging
