// Package logging assembles structured slog loggers and formatting helpers used
// across sitedrift.
//
// It owns the console and JSON handlers, level parsing, and output plumbing
// (stderr plus the state directory log file), and exposes context helpers so
// every line of a run carries the same run_id. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// the same shape of records as the rest of the system.
package logging
