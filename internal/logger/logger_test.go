package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SergeiKhy/shrinkurl/internal/config"
	"github.com/SergeiKhy/shrinkurl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	log, err := logger.New(config.LogConfig{
		Level:     "debug",
		Format:    "json",
		File:      path,
		MaxSizeMB: 1,
	})
	require.NoError(t, err)

	log.Info("link created")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"link created"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := logger.New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
