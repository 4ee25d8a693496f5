package obslog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewJSONToStream(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Level: "debug", Console: true, Stream: &buf, Format: "json"})
	require.NoError(t, err)
	defer closeFn()

	logger.Debug("snapshot_applied", zap.Uint64("seq", 3))
	require.NoError(t, logger.Sync())
	out := buf.String()
	assert.Contains(t, out, `"msg":"snapshot_applied"`)
	assert.Contains(t, out, `"seq":3`)
	assert.Contains(t, out, `"level":"debug"`)
}

func TestNewFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "checkers.log")
	logger, closeFn, err := New(Options{Level: "info", ToFile: true, File: path, Format: "legacy"})
	require.NoError(t, err)
	logger.Info("request_failed")
	logger.Debug("hidden")
	_ = logger.Sync()
	closeFn()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "INFO | ")
	assert.Contains(t, string(raw), "request_failed")
	assert.False(t, strings.Contains(string(raw), "hidden"))
}

func TestNoSinksIsNop(t *testing.T) {
	logger, _, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_TO_CONSOLE", "yes")
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_FORMAT", " JSON ")
	o := OptionsFromEnv(Defaults())

	assert.True(t, o.Console)
	assert.False(t, o.ToFile)
	assert.Equal(t, "json", o.Format)
	assert.Equal(t, zapcore.WarnLevel, parseLevel(o.Level))
	assert.Equal(t, filepath.Join("logs", "checkers.log"), o.File)
}

func TestInitInstallsGlobal(t *testing.T) {
	var buf bytes.Buffer
	cleanup, err := Init(Options{Level: "info", Console: true, Stream: &buf, Format: "console"})
	require.NoError(t, err)
	t.Cleanup(func() {
		cleanup()
		mu.Lock()
		globalLogger = zap.NewNop()
		mu.Unlock()
	})

	L().Info("hello")
	assert.Contains(t, buf.String(), "hello")
}
