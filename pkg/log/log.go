package log

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey int

const defaultLoggerContextKey loggerContextKey = 0

// Logger wraps a zap.Logger with a few conveniences used across the bridge.
type Logger struct {
	*zap.Logger
}

// WithError returns a child logger carrying err as a field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{l.Logger.With(zap.Error(err))}
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{l.Logger.With(fields...)}
}

// IntoContext stores logger in ctx.
func IntoContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, defaultLoggerContextKey, logger)
}

// FromContext returns the logger stored in ctx, or the global zap logger.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(defaultLoggerContextKey).(*zap.Logger)
	if !ok || logger == nil {
		return &Logger{zap.L()}
	}
	return &Logger{logger}
}

// New builds a zap logger at the given level. Development loggers use the
// console encoder.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
