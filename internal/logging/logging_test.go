package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCtxAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug")

	ctx := AppendCtx(context.Background(), slog.String("request_id", "req-1"))
	ctx = AppendCtx(ctx, slog.String("complaint_id", "BHRC202610191234"))
	logger.InfoContext(ctx, "complaint submitted")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "BHRC202610191234", line["complaint_id"])
	assert.Equal(t, "complaint submitted", line["msg"])
}

func TestAppendCtxDoesNotLeakIntoParent(t *testing.T) {
	parent := AppendCtx(context.Background(), slog.String("a", "1"))
	_ = AppendCtx(parent, slog.String("b", "2"))

	attrs := parent.Value(slogFields).([]slog.Attr)
	assert.Len(t, attrs, 1)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("whatever"))
}
