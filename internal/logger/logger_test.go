package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fd1az/quote-engine/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelInfo, "quote-engine", func(context.Context) string { return "trace-1" })

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "quote resolved", "source", "uniswap-v2", "provenance", "live")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "quote resolved", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "quote-engine", entry["service"])
	assert.Equal(t, "uniswap-v2", entry["source"])
	assert.Equal(t, "trace-1", entry["trace_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logger.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, logger.LevelWarn, logger.ParseLevel("warn"))
	assert.Equal(t, logger.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, logger.LevelInfo, logger.ParseLevel("nonsense"))
}

func TestNewConsole_IsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewConsole(&buf, logger.LevelDebug, "quote-engine", nil)

	log.Debug(context.Background(), "gas price refreshed", "gwei", "12.5")

	out := buf.String()
	assert.Contains(t, out, "gas price refreshed")
	assert.Contains(t, out, "12.5")
	assert.False(t, json.Valid([]byte(strings.TrimSpace(out))))
}
