package logging

import (
	"context"
	"log/slog"

	"minutes/internal/services"
)

const (
	FieldComponent     = "component"
	FieldGroupID       = "group_id"
	FieldRecordID      = "record_id"
	FieldStage         = "stage"
	FieldTopic         = "topic"
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a line for filtering: stage_start, engine_failed, ...
	FieldEventType = "event_type"
	// FieldErrorHint is the operator's next step.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries the services error marker kind.
	FieldErrorKind = "error_kind"
	// FieldImpact says what the user loses when a warning fires.
	FieldImpact = "impact"
	FieldAlert  = "alert"
)

// ContextFields returns the record key, stage and correlation id carried by
// ctx as log attributes.
func ContextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	var fields []any
	add := func(key, value string, ok bool) {
		if ok && value != "" {
			fields = append(fields, slog.String(key, value))
		}
	}
	group, ok := services.GroupIDFromContext(ctx)
	add(FieldGroupID, group, ok)
	id, ok := services.RecordIDFromContext(ctx)
	add(FieldRecordID, id, ok)
	stage, ok := services.StageFromContext(ctx)
	add(FieldStage, stage, ok)
	rid, ok := services.RequestIDFromContext(ctx)
	add(FieldCorrelationID, rid, ok)
	return fields
}

// WithContext scopes logger to the fields carried by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(fields...)
	}
	return logger
}
