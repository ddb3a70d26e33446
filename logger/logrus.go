package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aachurin/sqldantic/utils"
)

// LogrusLogger implements Interface using logrus
type LogrusLogger struct {
	Logger                    *logrus.Logger
	LogLevel                  LogLevel
	SlowThreshold             time.Duration
	Parameterized             bool
	IgnoreRecordNotFoundError bool
	fields                    logrus.Fields
}

// NewLogrusLogger creates a new logger using logrus
func NewLogrusLogger(logger *logrus.Logger, config Config) Interface {
	return &LogrusLogger{
		Logger:                    logger,
		LogLevel:                  config.LogLevel,
		SlowThreshold:             config.SlowThreshold,
		Parameterized:             config.ParameterizedQueries,
		IgnoreRecordNotFoundError: config.IgnoreRecordNotFoundError,
	}
}

// LogMode sets the log level
func (l *LogrusLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *LogrusLogger) entry(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithContext(ctx)
	if len(l.fields) > 0 {
		entry = entry.WithFields(l.fields)
	}
	return entry
}

func (l *LogrusLogger) emit(ctx context.Context, level logrus.Level, msg string, data []interface{}) {
	l.entry(ctx).WithFields(logrus.Fields{
		"file": utils.FileWithLineNum(),
		"data": data,
	}).Log(level, msg)
}

// Info logs info messages
func (l *LogrusLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.emit(ctx, logrus.InfoLevel, msg, data)
	}
}

// Warn logs warning messages
func (l *LogrusLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.emit(ctx, logrus.WarnLevel, msg, data)
	}
}

// Error logs error messages
func (l *LogrusLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.emit(ctx, logrus.ErrorLevel, msg, data)
	}
}

// Trace logs SQL execution details
func (l *LogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= Silent {
		return
	}

	elapsed := time.Since(begin)

	var level logrus.Level
	msg := "SQL executed"
	extra := logrus.Fields{}

	switch {
	case err != nil && (!l.IgnoreRecordNotFoundError || !errors.Is(err, ErrRecordNotFound)):
		level = logrus.ErrorLevel
		extra["error"] = err.Error()
	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold:
		level = logrus.WarnLevel
		msg = "SLOW SQL executed"
		extra["slow_threshold"] = l.SlowThreshold.String()
	case l.LogLevel >= Info:
		level = logrus.InfoLevel
	default:
		return
	}

	sql, rows := fc()
	fields := logrus.Fields{
		"file":     utils.FileWithLineNum(),
		"duration": fmt.Sprintf("%.3fms", float64(elapsed.Nanoseconds())/1e6),
		"sql":      sql,
	}
	if rows != -1 {
		fields["rows"] = rows
	}
	for k, v := range extra {
		fields[k] = v
	}

	l.entry(ctx).WithFields(fields).Log(level, msg)
}

// ParamsFilter filters SQL parameters
func (l *LogrusLogger) ParamsFilter(ctx context.Context, sql string, params ...interface{}) (string, []interface{}) {
	if l.Parameterized {
		return sql, nil
	}
	return sql, params
}

// WithContext returns a copy of the logger for ctx-scoped use.
func (l *LogrusLogger) WithContext(ctx context.Context) *LogrusLogger {
	newLogger := *l
	return &newLogger
}

// WithField returns a copy that attaches the field to every entry.
func (l *LogrusLogger) WithField(key string, value interface{}) *LogrusLogger {
	return l.WithFields(logrus.Fields{key: value})
}

// WithFields returns a copy that attaches the fields to every entry.
func (l *LogrusLogger) WithFields(fields logrus.Fields) *LogrusLogger {
	newLogger := *l
	newLogger.fields = logrus.Fields{}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	for k, v := range fields {
		newLogger.fields[k] = v
	}
	return &newLogger
}
