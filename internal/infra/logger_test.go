package infra

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerProductionEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("production", &buf)
	logger.Info().Str("component", "api").Msg("started")

	line := buf.Bytes()
	require.True(t, json.Valid(line), "production log line must be JSON: %s", line)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(line, &entry))
	assert.Equal(t, "started", entry["message"])
	assert.Equal(t, "api", entry["component"])
	assert.Contains(t, entry, "time")
}

func TestNewLoggerDevelopmentUsesConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("development", &buf)
	logger.Info().Msg("started")

	assert.False(t, json.Valid(buf.Bytes()))
	assert.Contains(t, buf.String(), "started")
}
