package logger

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(level LogLevel, json bool) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(&Config{Level: level, Output: &buf, JSON: json, TimeFormat: "15:04:05"}), &buf
}

func TestFromContext(t *testing.T) {
	t.Run("Should return logger stored in context", func(t *testing.T) {
		expected := NewLogger(TestConfig())
		ctx := ContextWithLogger(t.Context(), expected)
		assert.Same(t, expected, FromContext(ctx))
	})

	t.Run("Should fall back to default logger", func(t *testing.T) {
		require.NotNil(t, FromContext(t.Context()))
		//nolint:staticcheck // nil context is tolerated
		require.NotNil(t, FromContext(nil))
	})

	t.Run("Should fall back when context holds the wrong type or nil", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, "not a logger")
		require.NotNil(t, FromContext(ctx))
		ctx = context.WithValue(t.Context(), LoggerCtxKey, (Logger)(nil))
		require.NotNil(t, FromContext(ctx))
	})
}

func TestLogLevel_ToCharmlogLevel(t *testing.T) {
	t.Run("Should map every level", func(t *testing.T) {
		cases := map[LogLevel]int{
			DebugLevel:          -4,
			InfoLevel:           0,
			WarnLevel:           4,
			ErrorLevel:          8,
			DisabledLevel:       1000,
			LogLevel("unknown"): 0,
		}
		for level, expected := range cases {
			assert.Equal(t, expected, int(level.ToCharmlogLevel()), "level %s", level)
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write text output", func(t *testing.T) {
		l, buf := bufferLogger(InfoLevel, false)
		l.Info("pool ready", "pool", "postgres-session-pool-1")
		assert.Contains(t, buf.String(), "pool ready")
		assert.Contains(t, buf.String(), "postgres-session-pool-1")
	})

	t.Run("Should write JSON output when enabled", func(t *testing.T) {
		l, buf := bufferLogger(InfoLevel, true)
		l.Info("pool ready")
		out := buf.String()
		assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
		assert.Contains(t, out, `"msg":"pool ready"`)
	})

	t.Run("Should carry fields added with With", func(t *testing.T) {
		l, buf := bufferLogger(InfoLevel, false)
		l.With("tier", "transaction").Warn("slow acquire")
		assert.Contains(t, buf.String(), "tier")
		assert.Contains(t, buf.String(), "transaction")
	})

	t.Run("Should filter below the configured level", func(t *testing.T) {
		l, buf := bufferLogger(WarnLevel, false)
		l.Debug("debug message")
		l.Info("info message")
		l.Error("error message")
		assert.NotContains(t, buf.String(), "info message")
		assert.Contains(t, buf.String(), "error message")
	})

	t.Run("Should emit nothing when disabled", func(t *testing.T) {
		l, buf := bufferLogger(DisabledLevel, false)
		l.Error("error message")
		assert.Empty(t, buf.String())
	})
}

func TestConfigDefaults(t *testing.T) {
	t.Run("Should provide defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Equal(t, InfoLevel, cfg.Level)
		assert.Equal(t, os.Stderr, cfg.Output)
		assert.Equal(t, io.Discard, TestConfig().Output)
		assert.Equal(t, DisabledLevel, TestConfig().Level)
	})
}

func TestInit(t *testing.T) {
	t.Run("Should replace the default logger", func(t *testing.T) {
		prev := GetDefault()
		t.Cleanup(func() {
			defaultMu.Lock()
			defaultLogger = prev
			defaultMu.Unlock()
		})
		Init(TestConfig())
		assert.NotSame(t, prev, GetDefault())
	})
}
