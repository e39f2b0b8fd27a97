package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatali-fataliyev/intelliwealth/internal/contextutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitFileWritesOnlyToFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitFile("debug", "production", dir))
	t.Cleanup(func() { Logger = logrus.New() })

	assert.Equal(t, logrus.DebugLevel, Logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, Logger.Formatter)

	FromContext(contextutil.WithTraceID(context.Background(), "trace-1")).Info("hello")

	files, err := filepath.Glob(filepath.Join(dir, "*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	body, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"trace_id":"trace-1"`)
	assert.Contains(t, string(body), `"msg":"hello"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"WARN":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"":        logrus.InfoLevel,
		"verbose": logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
