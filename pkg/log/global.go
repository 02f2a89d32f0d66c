package log

import (
	"context"
	"sync/atomic"
)

var (
	defaultLogger atomic.Pointer[Logger]

	// discard has no buffer, so nothing it is given is ever queued.
	discard = func() *Logger {
		l := &Logger{level: new(atomic.Int64), fields: map[string]any{}}
		l.level.Store(int64(disabled))
		return l
	}()
)

// SetDefault installs l as the process logger. nil restores the discarding
// default.
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}

// Default returns the process logger, or one that discards everything.
func Default() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	return discard
}

func GlobalTrace(msg string, keysAndValues ...any) { Default().output(Trace, nil, msg, keysAndValues) }
func GlobalDebug(msg string, keysAndValues ...any) { Default().output(Debug, nil, msg, keysAndValues) }
func GlobalInfo(msg string, keysAndValues ...any)  { Default().output(Info, nil, msg, keysAndValues) }
func GlobalWarn(msg string, keysAndValues ...any)  { Default().output(Warn, nil, msg, keysAndValues) }
func GlobalError(msg string, keysAndValues ...any) { Default().output(Error, nil, msg, keysAndValues) }
func GlobalFatal(msg string, keysAndValues ...any) { Default().output(Fatal, nil, msg, keysAndValues) }

func GlobalTraceCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().output(Trace, ctx, msg, keysAndValues)
}

func GlobalDebugCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().output(Debug, ctx, msg, keysAndValues)
}

func GlobalInfoCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().output(Info, ctx, msg, keysAndValues)
}

func GlobalWarnCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().output(Warn, ctx, msg, keysAndValues)
}

func GlobalErrorCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().output(Error, ctx, msg, keysAndValues)
}

func GlobalFatalCtx(ctx context.Context, msg string, keysAndValues ...any) {
	Default().output(Fatal, ctx, msg, keysAndValues)
}
