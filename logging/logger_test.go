package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exoml.log")

	logger := New(&Config{Level: "debug", Format: "json", Output: "file", FilePath: path, MaxSize: 1})
	logger.Debug("notebook finished")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"notebook finished"`)
	assert.Contains(t, string(data), `"level":"debug"`)
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exoml.log")

	logger := New(&Config{Level: "warn", Format: "json", Output: "file", FilePath: path})
	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestNew_NilConfig(t *testing.T) {
	assert.NotNil(t, New(nil))
}

func TestConsoleSink(t *testing.T) {
	assert.Equal(t, os.Stdout, consoleSink(&Config{}))
	assert.Equal(t, os.Stderr, consoleSink(&Config{Stderr: true}))
}
