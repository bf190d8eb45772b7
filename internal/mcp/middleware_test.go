package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := recoverMiddleware(logger)(func(context.Context, string, sdkmcp.Request) (sdkmcp.Result, error) {
		panic("boom")
	})
	result, err := handler(context.Background(), "tools/call", nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, buf.String(), "mcp handler panic")
}

func TestTrafficLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := trafficLoggingMiddleware(logger, "inbound")(func(context.Context, string, sdkmcp.Request) (sdkmcp.Result, error) {
		return &sdkmcp.CallToolResult{IsError: true}, nil
	})
	req := &sdkmcp.CallToolRequest{Params: &sdkmcp.CallToolParamsRaw{
		Name:      "get_activities",
		Arguments: json.RawMessage(`{"project_id":"acme","month":"2026-02"}`),
	}}
	_, err := handler(context.Background(), "tools/call", req)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "tool=get_activities")
	assert.Contains(t, out, "project_id=acme")
	assert.Contains(t, out, "tool_error=true")
	assert.Equal(t, 2, strings.Count(out, "direction=inbound"))
}

func TestTrafficLoggingMiddleware_SkipsBelowDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	called := false
	handler := trafficLoggingMiddleware(logger, "inbound")(func(context.Context, string, sdkmcp.Request) (sdkmcp.Result, error) {
		called = true
		return nil, nil
	})
	_, err := handler(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Empty(t, buf.String())
}

func TestFormatPayloadTruncates(t *testing.T) {
	long := strings.Repeat("x", maxPayloadLog*2)
	out := formatPayload(map[string]string{"content": long})
	assert.Less(t, len(out), maxPayloadLog+64)
	assert.Contains(t, out, "bytes)")
	assert.Equal(t, "<nil>", formatPayload(nil))
}
