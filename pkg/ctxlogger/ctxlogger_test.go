package ctxlogger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(ContextHandler{Handler: slog.NewJSONHandler(&buf, nil)})

	ctx := AppendCtx(context.Background(), slog.String("connection_id", "c1"))
	child := AppendCtx(ctx, slog.String("message_type", "room:join"))

	logger.InfoContext(child, "handled")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "c1", line["connection_id"])
	assert.Equal(t, "room:join", line["message_type"])

	buf.Reset()
	logger.InfoContext(ctx, "parent untouched")
	var parentLine map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parentLine))
	_, ok := parentLine["message_type"]
	assert.False(t, ok, "parent context must not see child attrs")
}
