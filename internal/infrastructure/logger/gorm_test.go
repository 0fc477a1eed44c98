package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

const settlementQuery = `SELECT * FROM "investments" WHERE status = 'active' AND category = 'fixed'`

func settlementTrace() (string, int64) { return settlementQuery, 3 }

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func TestNewGormLogger_Defaults(t *testing.T) {
	gormLog, _ := newObservedGormLogger(gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	assert.Equal(t, 200*time.Millisecond, gormLog.slowThreshold)
	assert.True(t, gormLog.ignoreRecordNotFoundError)
	assert.False(t, gormLog.omitSQL)

	var _ gormlogger.Interface = gormLog
}

func TestNewGormLogger_Options(t *testing.T) {
	gormLog, _ := newObservedGormLogger(
		gormlogger.Warn,
		WithSlowThreshold(time.Second),
		WithIgnoreRecordNotFoundError(false),
		WithOmitSQL(true),
	)

	assert.Equal(t, time.Second, gormLog.slowThreshold)
	assert.False(t, gormLog.ignoreRecordNotFoundError)
	assert.True(t, gormLog.omitSQL)
}

func TestGormLogger_LogModeReturnsCopy(t *testing.T) {
	gormLog, _ := newObservedGormLogger(gormlogger.Info)

	switched, ok := gormLog.LogMode(gormlogger.Error).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Error, switched.logLevel)
	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
}

func TestGormLogger_MessageLevels(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Warn)
	ctx := context.Background()

	gormLog.Info(ctx, "migrating %s", "investments")
	gormLog.Warn(ctx, "pool at %d%%", 90)
	gormLog.Error(ctx, "lost connection: %v", errors.New("eof"))

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "pool at 90%", entries[0].Message)
	assert.Equal(t, "lost connection: eof", entries[1].Message)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		begin     time.Time
		err       error
		opts      []GormLoggerOption
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{
			name:      "query logged at debug",
			level:     gormlogger.Info,
			begin:     time.Now(),
			wantMsg:   "SQL query",
			wantLevel: zapcore.DebugLevel,
		},
		{
			name:      "slow query warns",
			level:     gormlogger.Warn,
			begin:     time.Now().Add(-time.Second),
			opts:      []GormLoggerOption{WithSlowThreshold(100 * time.Millisecond)},
			wantMsg:   "Slow SQL",
			wantLevel: zapcore.WarnLevel,
		},
		{
			name:      "error logged",
			level:     gormlogger.Error,
			begin:     time.Now(),
			err:       errors.New("deadlock detected"),
			wantMsg:   "SQL error",
			wantLevel: zapcore.ErrorLevel,
		},
		{
			name:      "record not found surfaced when not ignored",
			level:     gormlogger.Error,
			begin:     time.Now(),
			err:       gormlogger.ErrRecordNotFound,
			opts:      []GormLoggerOption{WithIgnoreRecordNotFoundError(false)},
			wantMsg:   "SQL error",
			wantLevel: zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormLog, recorded := newObservedGormLogger(tt.level, tt.opts...)
			gormLog.Trace(context.Background(), tt.begin, settlementTrace, tt.err)

			entries := recorded.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantMsg, entries[0].Message)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			assert.Equal(t, settlementQuery, entries[0].ContextMap()["sql"])
			assert.Equal(t, int64(3), entries[0].ContextMap()["rows"])
		})
	}
}

func TestGormLogger_Trace_Suppressed(t *testing.T) {
	t.Run("silent", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Silent)
		gormLog.Trace(context.Background(), time.Now(), settlementTrace, errors.New("boom"))
		assert.Zero(t, recorded.Len())
	})

	t.Run("record not found ignored", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Error)
		gormLog.Trace(context.Background(), time.Now(), settlementTrace, gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())
	})

	t.Run("fast query below info", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Warn)
		gormLog.Trace(context.Background(), time.Now(), settlementTrace, nil)
		assert.Zero(t, recorded.Len())
	})
}

func TestGormLogger_Trace_JobCorrelation(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Info)
	ctx, _ := WithJobRun(context.Background(), zap.NewNop(), "settlement", "run-42")

	gormLog.Trace(ctx, time.Now(), settlementTrace, nil)

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "settlement", fields["job"])
	assert.Equal(t, "run-42", fields["run_id"])
	assert.NotContains(t, fields, "request_id")
}

func TestGormLogger_Trace_OmitSQL(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Info, WithOmitSQL(true))
	gormLog.Trace(context.Background(), time.Now(), settlementTrace, nil)

	require.Equal(t, 1, recorded.Len())
	assert.NotContains(t, recorded.All()[0].ContextMap(), "sql")
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, MapGormLogLevel(tt.level), tt.level)
	}
}
