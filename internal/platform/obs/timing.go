package obs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "req_id"
	loggerKey    ctxKey = "logger"
)

// WithLogger returns a context carrying l for Logger and Time.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// Logger returns the request-scoped logger, or a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// Time logs the duration of op when the returned func is deferred with a
// pointer to the caller's named error.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	log := Logger(ctx)

	return func(errp *error) {
		fields := []zap.Field{
			zap.String("op", name),
			zap.Int64("dur_ms", time.Since(start).Milliseconds()),
		}
		if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
			fields = append(fields, zap.String("req_id", reqID))
		}

		if errp != nil && *errp != nil {
			log.Debug("operation failed", append(fields, zap.Error(*errp))...)
			return
		}
		log.Debug("operation finished", fields...)
	}
}
