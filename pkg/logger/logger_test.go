package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetupLogger_WritesRotatingFile(t *testing.T) {
	dir := t.TempDir()

	log, err := SetupLogger(Options{Level: "debug", Dir: dir, ServiceName: "condo-test"})
	require.NoError(t, err)

	log.Info("hello")
	Info("formatted %d", 1)
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"service_name":"condo-test"`)
	assert.Contains(t, string(data), "formatted 1")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}
