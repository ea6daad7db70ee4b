package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintrag/internal/config"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, closer, err := New(config.LoggingConfig{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("index.persist", "version", "v1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"index.persist"`)
	assert.Contains(t, string(data), `"version":"v1"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_RejectsBadSettings(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Level: "loud", Format: "text"})
	assert.Error(t, err)
	_, _, err = New(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestOrDefault(t *testing.T) {
	assert.NotNil(t, OrDefault(nil))
}
