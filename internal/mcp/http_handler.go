package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// NewHTTPHandler serves single JSON-RPC requests over plain HTTP POST. Each request is
// forwarded to the SDK server through an in-memory client session, so tool calls run
// through the same handlers and middleware as the stdio and streamable transports.
func NewHTTPHandler(server *sdkmcp.Server, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &httpHandler{
		server: server,
		client: sdkmcp.NewClient(&sdkmcp.Implementation{Name: serverName + "-rpc", Version: serverVersion}, nil),
		logger: logger,
	}
}

type httpHandler struct {
	server *sdkmcp.Server
	client *sdkmcp.Client
	logger *slog.Logger
}

type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonrpcError `json:"error,omitempty"`
	ID      any           `json:"id"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.write(w, nil, nil, &jsonrpcError{Code: codeParseError, Message: "Parse error"})
		return
	}
	var req jsonrpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.write(w, nil, nil, &jsonrpcError{Code: codeParseError, Message: "Parse error"})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		h.write(w, req.ID, nil, &jsonrpcError{Code: codeInvalidRequest, Message: "Invalid request"})
		return
	}
	if req.ID == nil {
		// Notifications get no response body.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	result, rpcErr := h.dispatch(r.Context(), req)
	if rpcErr != nil {
		h.logger.WarnContext(r.Context(), "rpc request failed", "method", req.Method, "code", rpcErr.Code, "error", rpcErr.Message)
	}
	h.write(w, req.ID, result, rpcErr)
}

func (h *httpHandler) dispatch(ctx context.Context, req jsonrpcRequest) (any, *jsonrpcError) {
	switch req.Method {
	case "initialize":
		var params InitializeParams
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, err
		}
		return initializeResult(params), nil
	case "ping", "tools/list", "tools/call", "resources/list", "resources/read":
	default:
		return nil, &jsonrpcError{Code: codeMethodNotFound, Message: "Method not found: " + req.Method}
	}

	session, err := h.connect(ctx)
	if err != nil {
		return nil, &jsonrpcError{Code: codeInternalError, Message: fmt.Sprintf("Internal error: %v", err)}
	}
	defer session.Close()

	var (
		result  any
		callErr error
	)
	switch req.Method {
	case "ping":
		callErr = session.Ping(ctx, nil)
		result = struct{}{}
	case "tools/list":
		var params sdkmcp.ListToolsParams
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, err
		}
		result, callErr = session.ListTools(ctx, &params)
	case "tools/call":
		var params sdkmcp.CallToolParams
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, err
		}
		if params.Name == "" {
			return nil, &jsonrpcError{Code: codeInvalidParams, Message: "Invalid params: missing tool name"}
		}
		result, callErr = session.CallTool(ctx, &params)
	case "resources/list":
		var params sdkmcp.ListResourcesParams
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, err
		}
		result, callErr = session.ListResources(ctx, &params)
	case "resources/read":
		var params sdkmcp.ReadResourceParams
		if err := decodeParams(req.Params, &params); err != nil {
			return nil, err
		}
		result, callErr = session.ReadResource(ctx, &params)
	}
	if callErr != nil {
		return nil, &jsonrpcError{Code: codeInternalError, Message: callErr.Error()}
	}
	return result, nil
}

// connect opens a client session against the server over in-memory transports.
func (h *httpHandler) connect(ctx context.Context) (*sdkmcp.ClientSession, error) {
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	if _, err := h.server.Connect(ctx, serverTransport, nil); err != nil {
		return nil, fmt.Errorf("connect server: %w", err)
	}
	session, err := h.client.Connect(ctx, clientTransport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect client: %w", err)
	}
	return session, nil
}

func decodeParams(raw json.RawMessage, v any) *jsonrpcError {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &jsonrpcError{Code: codeInvalidParams, Message: fmt.Sprintf("Invalid params: %v", err)}
	}
	return nil
}

func (h *httpHandler) write(w http.ResponseWriter, id, result any, rpcErr *jsonrpcError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK) // JSON-RPC errors are still 200 OK
	resp := jsonrpcResponse{JSONRPC: "2.0", ID: id, Result: result, Error: rpcErr}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to write rpc response", "error", err)
	}
}
