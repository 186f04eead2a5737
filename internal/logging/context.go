package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for the run identifier.
	FieldRunID = "run_id"
	// FieldSlug is the standardized structured logging key for entity slugs.
	FieldSlug = "slug"
	// FieldInvariant is the standardized structured logging key for invariant names.
	FieldInvariant = "invariant"
	// FieldEventType classifies warnings and errors for log filtering.
	FieldEventType = "event_type"
	// FieldErrorHint is the suggested next step attached to warnings.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type runIDKey struct{}

// WithRunID stores the run identifier on ctx.
func WithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runIDKey{}, strings.TrimSpace(runID))
}

// RunIDFromContext returns the run identifier stored by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if id, ok := RunIDFromContext(ctx); ok {
		return logger.With(slog.String(FieldRunID, id))
	}
	return logger
}
