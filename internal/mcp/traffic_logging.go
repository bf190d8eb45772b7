package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxPayloadLog bounds logged payloads; exports and month views can be large.
const maxPayloadLog = 4096

// trafficLoggingMiddleware logs every message at Debug. Tool calls are tagged with the
// tool name and the project they target.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			params := requestParams(req)
			attrs := []any{"direction", direction, "method", method}
			if call, ok := params.(*sdkmcp.CallToolParamsRaw); ok && call != nil {
				attrs = append(attrs, "tool", call.Name)
				if id := projectIDOf(call.Arguments); id != "" {
					attrs = append(attrs, "project_id", id)
				}
			}
			logger.DebugContext(ctx, "mcp request", append(attrs, "params", formatPayload(params))...)

			start := time.Now()
			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}
			attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())
			if res, ok := result.(*sdkmcp.CallToolResult); ok && res != nil && res.IsError {
				attrs = append(attrs, "tool_error", true)
			}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			logger.DebugContext(ctx, "mcp response", append(attrs, "result", formatPayload(result))...)
			return result, err
		}
	}
}

// requestParams tolerates requests whose params accessor panics on a nil receiver.
func requestParams(req sdkmcp.Request) (params any) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	return req.GetParams()
}

func projectIDOf(args json.RawMessage) string {
	if len(args) == 0 {
		return ""
	}
	var v struct {
		ProjectID string `json:"project_id"`
	}
	if json.Unmarshal(args, &v) != nil {
		return ""
	}
	return v.ProjectID
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	if len(data) > maxPayloadLog {
		return fmt.Sprintf("%s... (%d bytes)", data[:maxPayloadLog], len(data))
	}
	return string(data)
}
