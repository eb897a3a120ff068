package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]pterm.LogLevel{
		"trace":   pterm.LogLevelTrace,
		"DEBUG":   pterm.LogLevelDebug,
		"info":    pterm.LogLevelInfo,
		"":        pterm.LogLevelInfo,
		"warning": pterm.LogLevelWarn,
		"error":   pterm.LogLevelError,
		"off":     pterm.LogLevelDisabled,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "json", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("session transition", logger.Args("to", "anonymous"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug must be filtered at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Contains(t, string(lines[0]), "session transition")
	assert.Equal(t, "anonymous", entry["to"])
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New("info", "xml", &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown log format")
}
