package log

import (
	"context"
	"maps"
)

type ctxKey struct{ name string }

var (
	requestIDKey = ctxKey{"request_id"}
	fieldsKey    = ctxKey{"fields"}
)

// WithRequestID returns a copy of ctx carrying id. Entries logged through
// the Ctx methods pick it up.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID in ctx, or "". A nil ctx is
// allowed.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithFields returns a copy of ctx whose fields are the ones already in ctx
// plus keysAndValues. The parent's fields are not modified.
func WithFields(ctx context.Context, keysAndValues ...any) context.Context {
	fields := maps.Clone(FieldsFromContext(ctx))
	if fields == nil {
		fields = make(map[string]any, len(keysAndValues)/2)
	}
	addPairs(fields, keysAndValues)
	return context.WithValue(ctx, fieldsKey, fields)
}

// FieldsFromContext returns the fields in ctx, or nil. Callers must not
// modify the result.
func FieldsFromContext(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey).(map[string]any)
	return fields
}
