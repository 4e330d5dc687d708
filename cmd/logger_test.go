package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, slog.LevelInfo, true))
	log.Debug("hidden")
	log.Info("card saved", slog.String("id", "c1"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "card saved", line["msg"])
	assert.Equal(t, "c1", line["id"])
}

func TestConsoleHandlerFormatsErrors(t *testing.T) {
	var buf bytes.Buffer
	h := newHandler(&buf, slog.LevelDebug, false)
	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	slog.New(h).Error("request failed", slog.Any("error", errors.New("boom")))
	assert.Contains(t, buf.String(), "request failed")
	assert.Contains(t, buf.String(), "boom")
}
