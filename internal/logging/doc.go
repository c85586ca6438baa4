// Package logging assembles the structured slog loggers used across the
// racenotes services.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with filenames, stages, and correlation IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
