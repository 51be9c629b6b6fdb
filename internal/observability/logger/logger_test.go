package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	obscontext "github.com/smallbiznis/ticketprice/internal/observability/context"
	"github.com/smallbiznis/ticketprice/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestWithContextAddsRequestAndEventFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithEventID(ctx, "42")
	WithContext(ctx, base).Info("priced")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "42", fields["event_id"])
	}
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("  select * from pricing_rules"))
	assert.Equal(t, "UPDATE", operationFromSQL("UPDATE events SET attendee_count = attendee_count + 1"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestRequestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, requestLevel("/health", 200))
	assert.Equal(t, zapcore.InfoLevel, requestLevel("/events/:id/price", 200))
	assert.Equal(t, zapcore.WarnLevel, requestLevel("/events/:id/price", 429))
	assert.Equal(t, zapcore.WarnLevel, requestLevel("/events/:id/price", 503))
	assert.Equal(t, zapcore.ErrorLevel, requestLevel("/events/:id/price", 500))
}

func TestWithContextAddsCorrelationID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	ctx := correlation.WithID(context.Background(), "cid-7")
	WithContext(ctx, zap.New(core)).Info("quoted")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "cid-7", entries[0].ContextMap()["correlation_id"])
	}
}

func TestGormTraceLevel(t *testing.T) {
	l := NewGormLogger(DefaultGormLoggerConfig())

	lvl, ok := l.traceLevel(time.Millisecond, errors.New("boom"))
	assert.True(t, ok)
	assert.Equal(t, zapcore.ErrorLevel, lvl)

	_, ok = l.traceLevel(time.Millisecond, gormlogger.ErrRecordNotFound)
	assert.False(t, ok)

	lvl, ok = l.traceLevel(time.Second, nil)
	assert.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, ok = l.traceLevel(time.Millisecond, nil)
	assert.False(t, ok)

	silent := l.LogMode(gormlogger.Silent).(*GormLogger)
	_, ok = silent.traceLevel(time.Second, errors.New("boom"))
	assert.False(t, ok)
}

func TestTableFromSQL(t *testing.T) {
	assert.Equal(t, "pricing_rules", tableFromSQL("SELECT * FROM pricing_rules WHERE event_id = ?"))
	assert.Equal(t, "events", tableFromSQL("UPDATE events SET attendee_count = ?"))
	assert.Equal(t, "other", tableFromSQL("SELECT 1"))
}
