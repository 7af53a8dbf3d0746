package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"Warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, ok := ParseLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	got, ok := ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, got)
}

func TestInitZap_InstallsDefaultLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(previous)
		globalLogger = nil
	})

	zapLogger, err := InitZap("warn", false)
	require.NoError(t, err)
	require.NotNil(t, zapLogger)

	assert.Same(t, globalLogger, slog.Default())
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelError))
}

func TestSlogAdapter_PrependsAttrs(t *testing.T) {
	a := NewSlogAdapter("component", "refresh").(*slogAdapter)
	assert.Equal(t, []any{"component", "refresh", "k", 1}, a.with([]any{"k", 1}))

	plain := NewSlogAdapter().(*slogAdapter)
	assert.Equal(t, []any{"k", 1}, plain.with([]any{"k", 1}))
}
