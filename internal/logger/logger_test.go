package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybook/internal/config"
)

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daybook.log")
	log, err := New(config.LogConfig{Level: "debug", Format: "json", Output: "file", Filename: path})
	require.NoError(t, err)

	log.Infow("tasks loaded", "days", 3)
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"tasks loaded"`)
	assert.Contains(t, string(data), `"days":3`)
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNoOutputDiscards(t *testing.T) {
	log, err := New(config.LogConfig{Level: "info", Output: "file"})
	require.NoError(t, err)
	assert.NotPanics(t, func() { log.Infow("dropped") })
}
