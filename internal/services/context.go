package services

import "context"

type contextKey string

const (
	filenameKey   contextKey = "filename"
	stageKey      contextKey = "stage"
	batchIndexKey contextKey = "batch_index"
	requestIDKey  contextKey = "request_id"
)

// WithFilename annotates context with the upload's original filename.
func WithFilename(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, filenameKey, name)
}

// FilenameFromContext returns the upload filename if present.
func FilenameFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(filenameKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBatchIndex annotates context with the item's position in a batch.
func WithBatchIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, batchIndexKey, index)
}

// BatchIndexFromContext extracts the batch position if present.
func BatchIndexFromContext(ctx context.Context) (int, bool) {
	switch v := ctx.Value(batchIndexKey).(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
