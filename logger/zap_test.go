package logger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newZapTest(config Config) (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core), config)
	return l.(*ZapLogger), logs
}

func TestZapLoggerLevels(t *testing.T) {
	ctx := context.Background()

	l, logs := newZapTest(Config{LogLevel: Warn})

	l.Info(ctx, "parsing schemas")
	assert.Zero(t, logs.Len())

	l.Warn(ctx, "no primary key")
	l.Error(ctx, "table redefined")
	require.Equal(t, 2, logs.Len())

	entries := logs.All()
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "no primary key", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestZapLoggerLogMode(t *testing.T) {
	l, _ := newZapTest(Config{LogLevel: Error})

	verbose := l.LogMode(Info)
	assert.Equal(t, Info, verbose.(*ZapLogger).LogLevel)
	assert.Equal(t, Error, l.LogLevel)
}

func TestZapLoggerTrace(t *testing.T) {
	ctx := context.Background()

	t.Run("query with row count", func(t *testing.T) {
		l, logs := newZapTest(Config{LogLevel: Info})
		l.Trace(ctx, time.Now(), func() (string, int64) {
			return `SELECT "id","email" FROM "users"`, 5
		}, nil)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		fields := entry.ContextMap()
		assert.Equal(t, "SQL executed", entry.Message)
		assert.Equal(t, `SELECT "id","email" FROM "users"`, fields["sql"])
		assert.Equal(t, int64(5), fields["rows"])
	})

	t.Run("statement without row count", func(t *testing.T) {
		l, logs := newZapTest(Config{LogLevel: Info})
		l.Trace(ctx, time.Now(), func() (string, int64) {
			return `CREATE TABLE "users" ("id" bigserial,PRIMARY KEY ("id"))`, -1
		}, nil)

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		_, ok := fields["rows"]
		assert.False(t, ok)
	})

	t.Run("slow statement warns", func(t *testing.T) {
		l, logs := newZapTest(Config{LogLevel: Info, SlowThreshold: 25 * time.Millisecond})
		l.Trace(ctx, time.Now().Add(-time.Second), func() (string, int64) {
			return `SELECT "id" FROM "orders"`, 300
		}, nil)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.WarnLevel, entry.Level)
		assert.Equal(t, "25ms", entry.ContextMap()["slow_threshold"])
	})

	t.Run("failed statement", func(t *testing.T) {
		l, logs := newZapTest(Config{LogLevel: Error})
		l.Trace(ctx, time.Now(), func() (string, int64) {
			return `DROP TABLE "missing"`, 0
		}, assert.AnError)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		assert.Equal(t, assert.AnError.Error(), entry.ContextMap()["error"])
	})

	t.Run("ignored record not found", func(t *testing.T) {
		l, logs := newZapTest(Config{LogLevel: Error, IgnoreRecordNotFoundError: true})
		l.Trace(ctx, time.Now(), func() (string, int64) {
			return `SELECT "id" FROM "users" WHERE "id" = $1`, 0
		}, ErrRecordNotFound)

		assert.Zero(t, logs.Len())
	})

	t.Run("silent", func(t *testing.T) {
		l, logs := newZapTest(Config{LogLevel: Silent})
		l.Trace(ctx, time.Now(), func() (string, int64) {
			return `SELECT 1`, 1
		}, assert.AnError)

		assert.Zero(t, logs.Len())
	})
}

func TestZapLoggerParamsFilter(t *testing.T) {
	ctx := context.Background()

	l, _ := newZapTest(Config{})
	sql, params := l.ParamsFilter(ctx, "SELECT * FROM users WHERE id = ?", 1)
	assert.Equal(t, "SELECT * FROM users WHERE id = ?", sql)
	assert.Equal(t, []interface{}{1}, params)

	l, _ = newZapTest(Config{ParameterizedQueries: true})
	_, params = l.ParamsFilter(ctx, "SELECT * FROM users WHERE id = ?", 1)
	assert.Nil(t, params)
}

func TestZapLoggerFields(t *testing.T) {
	ctx := context.Background()

	l, logs := newZapTest(Config{LogLevel: Info})
	tagged := l.WithField("component", "ddl").WithFields(zap.String("dialect", "sqlite"))

	tagged.Info(ctx, "creating tables")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "ddl", fields["component"])
	assert.Equal(t, "sqlite", fields["dialect"])

	// source logger is untouched
	l.Info(ctx, "plain entry")
	fields = logs.All()[1].ContextMap()
	_, ok := fields["component"]
	assert.False(t, ok)
}

func TestZapLoggerWithContextAndSugar(t *testing.T) {
	l, _ := newZapTest(Config{LogLevel: Info})

	copied := l.WithContext(context.Background())
	require.NotNil(t, copied)
	assert.Equal(t, Info, copied.LogLevel)

	require.NotNil(t, l.Sugar())
}

func TestZapLevelMapping(t *testing.T) {
	assert.Equal(t, zapcore.DPanicLevel, ZapLevel(Silent))
	assert.Equal(t, zapcore.ErrorLevel, ZapLevel(Error))
	assert.Equal(t, zapcore.WarnLevel, ZapLevel(Warn))
	assert.Equal(t, zapcore.InfoLevel, ZapLevel(Info))
	assert.Equal(t, zapcore.InfoLevel, ZapLevel(LogLevel(42)))
}

func TestNewZapLoggerWithConfig(t *testing.T) {
	l := NewZapLoggerWithConfig(Config{
		LogLevel:      Info,
		SlowThreshold: 200 * time.Millisecond,
	})

	require.NotNil(t, l)
	assert.Equal(t, Info, l.(*ZapLogger).LogLevel)
	assert.Equal(t, 200*time.Millisecond, l.(*ZapLogger).SlowThreshold)
}

func BenchmarkZapLoggerTrace(b *testing.B) {
	l := NewZapLogger(zap.NewNop(), Config{LogLevel: Info})
	ctx := context.Background()

	for i := 0; i < b.N; i++ {
		l.Trace(ctx, time.Now(), func() (string, int64) {
			return `SELECT 1`, 1
		}, nil)
	}
}
