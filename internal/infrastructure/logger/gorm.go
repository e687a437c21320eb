package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's logging through zap.
type GormLogger struct {
	zap                       *zap.Logger
	level                     gormlogger.LogLevel
	slowThreshold             time.Duration
	ignoreRecordNotFoundError bool
}

// GormOption configures a GormLogger.
type GormOption func(*GormLogger)

func WithSlowThreshold(d time.Duration) GormOption {
	return func(l *GormLogger) { l.slowThreshold = d }
}

func WithIgnoreRecordNotFoundError(ignore bool) GormOption {
	return func(l *GormLogger) { l.ignoreRecordNotFoundError = ignore }
}

// NewGormLogger creates a gorm logger writing to z.
func NewGormLogger(z *zap.Logger, level gormlogger.LogLevel, opts ...GormOption) *GormLogger {
	l := &GormLogger{
		zap:                       z.Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		level:                     level,
		slowThreshold:             200 * time.Millisecond,
		ignoreRecordNotFoundError: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.zap.Sugar().Infof(msg, args...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.zap.Sugar().Warnf(msg, args...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.zap.Sugar().Errorf(msg, args...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error &&
		!(l.ignoreRecordNotFoundError && errors.Is(err, gorm.ErrRecordNotFound)):
		sql, rows := fc()
		l.zap.Error("query failed",
			zap.Error(err), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.zap.Warn("slow query",
			zap.Duration("elapsed", elapsed), zap.Duration("threshold", l.slowThreshold),
			zap.Int64("rows", rows), zap.String("sql", sql))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.zap.Debug("query", zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	}
}

// MapGormLogLevel converts a textual level to gorm's log level.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn", "warning":
		return gormlogger.Warn
	default:
		return gormlogger.Info
	}
}
