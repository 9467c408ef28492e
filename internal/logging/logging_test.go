package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fenilsonani/sortdir/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"8", slog.LevelError},
		{"", slog.LevelWarn},
		{"loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in, slog.LevelWarn))
		})
	}
}

func TestNewWritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sortdir.log")

	logger, closer := New(config.LogConfig{File: path, Level: "info", MaxSize: 1}, false)
	logger.Info("organize finished", "run_id", "abc")
	logger.Debug("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "organize finished")
	assert.Contains(t, string(data), "run_id=abc")
	assert.NotContains(t, string(data), "hidden")
}

func TestNewVerboseForcesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sortdir.log")

	logger, closer := New(config.LogConfig{File: path, Level: "error"}, true)
	logger.Debug("visible")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
}

func TestNewWithoutFile(t *testing.T) {
	logger, closer := New(config.LogConfig{}, false)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.NoError(t, closer.Close())
}
