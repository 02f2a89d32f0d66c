package log

import (
	"context"
	"maps"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Logger writes structured entries through an async Buffer. Loggers made
// by With and Named share their parent's level and buffer.
type Logger struct {
	level  *atomic.Int64
	buffer *Buffer
	fields map[string]any
}

// New returns a logger writing entries at level or above to transporters.
func New(level Level, transporters ...Transporter) *Logger {
	l := &Logger{
		level:  new(atomic.Int64),
		buffer: NewBuffer(1000, transporters...),
		fields: map[string]any{},
	}
	l.level.Store(int64(level))
	return l
}

// SetLevel changes the minimum level of l and every logger derived from it.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int64(level))
}

func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

// Enabled reports whether an entry at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l.buffer != nil && l.Level().Enables(level)
}

// With returns a logger that adds keysAndValues to every entry.
func (l *Logger) With(keysAndValues ...any) *Logger {
	fields := maps.Clone(l.fields)
	if fields == nil {
		fields = map[string]any{}
	}
	addPairs(fields, keysAndValues)
	return &Logger{level: l.level, buffer: l.buffer, fields: fields}
}

// Named tags entries with a component. Nested names are joined with dots.
func (l *Logger) Named(component string) *Logger {
	if parent, ok := l.fields["component"].(string); ok && parent != "" {
		component = parent + "." + component
	}
	return l.With("component", component)
}

// Close flushes queued entries. Transporters stay open.
func (l *Logger) Close() {
	if l.buffer != nil {
		l.buffer.Close()
	}
}

// output builds and queues one entry. It must be called directly by the
// exported method so the caller frame is two levels up.
func (l *Logger) output(level Level, ctx context.Context, msg string, keysAndValues []any) {
	if !l.Enabled(level) {
		return
	}

	ctxFields := FieldsFromContext(ctx)
	fields := make(map[string]any, len(l.fields)+len(ctxFields)+len(keysAndValues)/2)
	maps.Copy(fields, l.fields)
	maps.Copy(fields, ctxFields)
	addPairs(fields, keysAndValues)

	l.buffer.Send(Entry{
		Timestamp: time.Now(),
		Level:     level,
		Caller:    caller(3),
		RequestID: RequestIDFromContext(ctx),
		Message:   msg,
		Fields:    fields,
	})
}

// caller formats the frame skip levels up as "dir/file.go:line".
func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	dir, name := filepath.Split(file)
	if parent := filepath.Base(strings.TrimSuffix(dir, string(filepath.Separator))); parent != "." && parent != string(filepath.Separator) {
		name = parent + "/" + name
	}
	return name + ":" + strconv.Itoa(line)
}

func (l *Logger) Trace(msg string, keysAndValues ...any) { l.output(Trace, nil, msg, keysAndValues) }
func (l *Logger) Debug(msg string, keysAndValues ...any) { l.output(Debug, nil, msg, keysAndValues) }
func (l *Logger) Info(msg string, keysAndValues ...any)  { l.output(Info, nil, msg, keysAndValues) }
func (l *Logger) Warn(msg string, keysAndValues ...any)  { l.output(Warn, nil, msg, keysAndValues) }
func (l *Logger) Error(msg string, keysAndValues ...any) { l.output(Error, nil, msg, keysAndValues) }

// Fatal logs at Fatal level. It does not exit.
func (l *Logger) Fatal(msg string, keysAndValues ...any) { l.output(Fatal, nil, msg, keysAndValues) }

// The Ctx variants add the request ID and fields carried by ctx.

func (l *Logger) TraceCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.output(Trace, ctx, msg, keysAndValues)
}

func (l *Logger) DebugCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.output(Debug, ctx, msg, keysAndValues)
}

func (l *Logger) InfoCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.output(Info, ctx, msg, keysAndValues)
}

func (l *Logger) WarnCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.output(Warn, ctx, msg, keysAndValues)
}

func (l *Logger) ErrorCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.output(Error, ctx, msg, keysAndValues)
}

func (l *Logger) FatalCtx(ctx context.Context, msg string, keysAndValues ...any) {
	l.output(Fatal, ctx, msg, keysAndValues)
}
