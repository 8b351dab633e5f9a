package logging

import (
	"context"
	"log/slog"

	"captionsync/internal/services"
)

// Structured field keys shared by the handlers and the log reader.
const (
	FieldComponent     = "component"
	FieldJobID         = "job_id"
	FieldStage         = "stage"
	FieldCorrelationID = "correlation_id"
	// FieldEventType names what happened, e.g. caption_track_built or job_complete.
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	// FieldImpact says what the operator loses when a warning fires.
	FieldImpact = "impact"
)

var contextKeys = []struct {
	field  string
	lookup func(context.Context) (string, bool)
}{
	{FieldJobID, services.JobIDFromContext},
	{FieldStage, services.StageFromContext},
	{FieldCorrelationID, services.RequestIDFromContext},
}

// ContextFields returns job, stage and request identifiers carried by ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	for _, key := range contextKeys {
		if value, ok := key.lookup(ctx); ok {
			fields = append(fields, slog.String(key.field, value))
		}
	}
	return fields
}

// WithContext binds ContextFields(ctx) to logger. A nil logger discards.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return slog.New(logger.Handler().WithAttrs(fields))
	}
	return logger
}
