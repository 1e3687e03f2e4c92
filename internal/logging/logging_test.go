package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Cyclone1070/kiro/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer()

	logger.Info().Msg("hidden")
	Component(logger, "loop").Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"component":"loop"`)
}

func TestNew_InvalidLevel_ReturnsError(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud", Format: "json"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_FileOutput_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kiro.log")
	logger, closer, err := New(config.LogConfig{Level: "info", Format: "json", File: path}, nil)
	require.NoError(t, err)

	logger.Info().Msg("to file")
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
