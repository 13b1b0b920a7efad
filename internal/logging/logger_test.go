package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanout_ErrKey(t *testing.T) {
	var text, js bytes.Buffer
	logger := NewFanout(newTextHandler(&text, slog.LevelInfo), newJSONHandler(&js, slog.LevelDebug))

	logger.Debug("only json")
	logger.Warn("move refused", "error", errors.New("blocked"))

	assert.NotContains(t, text.String(), "only json")
	assert.Contains(t, text.String(), "err=blocked")

	lines := strings.Split(strings.TrimSpace(js.String()), "\n")
	require.Len(t, lines, 2)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	assert.Equal(t, "move refused", rec["msg"])
	assert.Equal(t, "blocked", rec["err"])
	assert.NotContains(t, rec, "error")
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mazecode.log")
	logger, closer, err := NewWithFile(slog.LevelInfo, path)
	require.NoError(t, err)

	logger.Info("run finished", "steps", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"steps":3`)
}
