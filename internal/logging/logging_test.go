// internal/logging/logging_test.go
package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_TerminalRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, closeLog, err := New(&buf, Options{Level: "warn"})
	require.NoError(t, err)
	defer closeLog()

	log.Info("hidden")
	log.Warn("shown", "slot", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "slot=3")
}

func TestNew_FanoutToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "routined.json")

	log, closeLog, err := New(&buf, Options{Level: "debug", File: path})
	require.NoError(t, err)

	log.Debug("tick", "delta_ms", 10)
	require.NoError(t, closeLog())

	assert.Contains(t, buf.String(), "msg=tick")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &rec))
	assert.Equal(t, "tick", rec["msg"])
	assert.Equal(t, float64(10), rec["delta_ms"])
}

func TestNew_BadFile(t *testing.T) {
	_, _, err := New(&bytes.Buffer{}, Options{File: filepath.Join(t.TempDir(), "missing", "x.json")})
	assert.Error(t, err)
}

func TestJournalKey(t *testing.T) {
	assert.Equal(t, "BUTTON_PIN", journalKey("button-pin"))
	assert.Equal(t, "SLOT2", journalKey("slot2"))
}
