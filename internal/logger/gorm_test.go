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

func TestGormLogger_Trace(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewFromZap(zap.New(core)).NewGormLogger(gormlogger.Warn, 100*time.Millisecond)
	query := func() (string, int64) { return "SELECT * FROM invoices", 2 }
	ctx := context.Background()

	gl.Trace(ctx, time.Now(), query, nil)
	assert.Zero(t, recorded.Len(), "fast queries are not logged below Info")

	gl.Trace(ctx, time.Now(), query, gormlogger.ErrRecordNotFound)
	assert.Zero(t, recorded.Len())

	gl.Trace(ctx, time.Now(), query, errors.New("disk I/O error"))
	gl.Trace(ctx, time.Now().Add(-time.Second), query, nil)

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "SQL error", entries[0].Message)
	assert.Equal(t, "disk I/O error", entries[0].ContextMap()["error"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "gorm", entries[1].LoggerName)

	recorded.TakeAll()
	gl.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), query, errors.New("ignored"))
	assert.Zero(t, recorded.Len())
}
