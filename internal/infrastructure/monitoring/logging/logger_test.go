package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestZapLoggerLevels(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	log.Debug("d")
	log.Info("i")
	log.Warn("w")
	log.Error("e")

	require.Equal(t, 4, logs.Len())
	entries := logs.All()
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestFieldConversion(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	log.Info("fields",
		String("s", "v"),
		Int("i", 7),
		Int64("i64", int64(-3)),
		Uint64("cell", uint64(0x851fb467)),
		Bool("b", true),
		Duration("d", 250*time.Millisecond),
		Err(errors.New("boom")),
		Any("m", map[string]int{"x": 1}),
	)

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "v", ctx["s"])
	assert.Equal(t, int64(7), ctx["i"])
	assert.Equal(t, uint64(0x851fb467), ctx["cell"])
	assert.Equal(t, true, ctx["b"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestErrNil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestWithAndNamed(t *testing.T) {
	log, logs := newObserved(zapcore.InfoLevel)

	child := log.With(String("query_id", "q-1")).Named("topology")
	child.Info("evaluated")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "topology", entry.LoggerName)
	assert.Equal(t, "q-1", entry.ContextMap()["query_id"])

	// Parent stays clean.
	log.Info("parent")
	assert.Empty(t, logs.All()[1].ContextMap())
}

func TestNewLoggerDefaults(t *testing.T) {
	log, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	log := NewNopLogger()
	SetDefault(log)
	assert.Equal(t, log, Default())

	// nil is ignored rather than clobbering the default.
	SetDefault(nil)
	assert.Equal(t, log, Default())
}
