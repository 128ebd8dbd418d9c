package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// defaultSlowQuery applies when database.slow_threshold is unset
const defaultSlowQuery = 200 * time.Millisecond

// GormLogger routes GORM's SQL log through zap. Entries carry the request id
// and the actor found in the statement's context.
type GormLogger struct {
	base     *zap.Logger
	level    gormlogger.LogLevel
	slow     time.Duration
	expected func(error) bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a query is logged as slow.
// Zero keeps the default.
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		if threshold > 0 {
			l.slow = threshold
		}
	}
}

// WithExpectedErrors marks errors the caller recovers from itself, such as
// lock timeouts that end in a retry. They are logged at warn level.
func WithExpectedErrors(match func(error) bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.expected = match
	}
}

// NewGormLogger creates a GORM logger backed by zap. Record-not-found is never
// logged; the repositories turn it into a domain error.
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		base:  zapLogger.Named("gorm"),
		level: level,
		slow:  defaultSlowQuery,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.base.Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.base.Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.base.Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	if err != nil && errors.Is(err, gormlogger.ErrRecordNotFound) {
		return
	}

	elapsed := time.Since(begin)
	log := l.base.With(statementFields(ctx)...)
	entry := func() []zap.Field {
		sql, rows := fc()
		return []zap.Field{
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", rows),
			zap.String("sql", sql),
		}
	}

	switch {
	case err != nil && l.expected != nil && l.expected(err):
		if l.level >= gormlogger.Warn {
			log.Warn("SQL conflict", append(entry(), zap.Error(err))...)
		}
	case err != nil:
		if l.level >= gormlogger.Error {
			log.Error("SQL Error", append(entry(), zap.Error(err))...)
		}
	case elapsed > l.slow:
		if l.level >= gormlogger.Warn {
			log.Warn("Slow SQL", append(entry(), zap.Duration("threshold", l.slow))...)
		}
	case l.level >= gormlogger.Info:
		log.Debug("SQL Query", entry()...)
	}
}

func statementFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if actor := GetActorID(ctx); actor != "" {
		fields = append(fields, zap.String("actor_id", actor))
	}
	return fields
}

// MapGormLogLevel maps log.level onto GORM's levels. Debug and info show
// every statement; the default only shows slow queries and failures.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
