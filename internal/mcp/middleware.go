package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// recoverMiddleware turns a panic in a method handler into an error response.
func recoverMiddleware(logger *slog.Logger) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (result sdkmcp.Result, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "mcp handler panic", "method", method, "panic", r, "stack", string(debug.Stack()))
					result, err = nil, fmt.Errorf("internal error handling %s: %v", method, r)
				}
			}()
			return next(ctx, method, req)
		}
	}
}
