// Package logging builds slog loggers with forge's console and JSON handler
// conventions and provides the standardized attribute helpers used across
// the batch pipeline.
package logging
