package services

import "context"

// ctxKey identifies one piece of work metadata carried on a context.
type ctxKey uint8

const (
	keyGroup ctxKey = iota
	keyRecord
	keyStage
	keyRequest
)

func attach(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key ctxKey) (string, bool) {
	value, _ := ctx.Value(key).(string)
	return value, value != ""
}

// WithRecord tags ctx with both halves of a record key.
func WithRecord(ctx context.Context, group, id string) context.Context {
	return attach(attach(ctx, keyGroup, group), keyRecord, id)
}

func WithGroupID(ctx context.Context, group string) context.Context {
	return attach(ctx, keyGroup, group)
}

func GroupIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, keyGroup) }

func WithRecordID(ctx context.Context, id string) context.Context {
	return attach(ctx, keyRecord, id)
}

func RecordIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, keyRecord) }

// WithStage names the pipeline stage (transcription, analysis) doing the work.
func WithStage(ctx context.Context, stage string) context.Context {
	return attach(ctx, keyStage, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return lookup(ctx, keyStage) }

// WithRequestID sets the correlation id shared by every log line of one
// request or stage run.
func WithRequestID(ctx context.Context, id string) context.Context {
	return attach(ctx, keyRequest, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, keyRequest) }
