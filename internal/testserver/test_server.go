package testserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/timesheet-mcp/internal/clock"
	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/rpggio/timesheet-mcp/internal/mcp"
	"github.com/rpggio/timesheet-mcp/internal/sqlite"
	"github.com/rpggio/timesheet-mcp/internal/store/file"
	"github.com/rpggio/timesheet-mcp/internal/transport"
	"github.com/stretchr/testify/require"
)

// Now is the instant every test server's clock is fixed at.
var Now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type TestServer struct {
	Server   *httptest.Server
	Clock    *clock.Fixed
	Projects *project.Service
	// DataPath is the file store path, empty for sqlite.
	DataPath string
	nextID   int
}

// New starts an HTTP server backed by the given store driver: "file" or "sqlite".
func New(t *testing.T, driver string) *TestServer {
	t.Helper()
	clk := &clock.Fixed{At: Now}

	var (
		repo     project.Repository
		dataPath string
	)
	switch driver {
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		db, err := sqlite.New(dsn)
		require.NoError(t, err)
		require.NoError(t, db.RunMigrations())
		t.Cleanup(func() { _ = db.Close() })
		repo = sqlite.NewProjectRepository(db)
	case "file":
		dataPath = filepath.Join(t.TempDir(), "timesheet_data.json")
		store, err := file.Open(dataPath, clk, nil)
		require.NoError(t, err)
		repo = store
	default:
		t.Fatalf("unknown store driver %q", driver)
	}

	svc := project.NewService(repo, nil, clk, nil)
	mcpServer := mcp.NewServer(mcp.Config{Projects: svc, Clock: clk})
	streamable := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{Stateless: true},
	)
	server := httptest.NewServer(transport.NewServer(transport.Options{
		MCP:      streamable,
		RPC:      mcp.NewHTTPHandler(mcpServer, nil),
		Projects: repo,
		Store:    driver,
	}))
	t.Cleanup(server.Close)

	return &TestServer{Server: server, Clock: clk, Projects: svc, DataPath: dataPath}
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPC posts one JSON-RPC request to /rpc and returns the raw result.
func (ts *TestServer) RPC(t *testing.T, method string, params any) (json.RawMessage, *RPCError) {
	t.Helper()
	ts.nextID++
	payload := map[string]any{"jsonrpc": "2.0", "id": ts.nextID, "method": method}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(ts.Server.URL+"/rpc", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Result, out.Error
}

// ToolResult is the decoded outcome of a tools/call.
type ToolResult struct {
	IsError bool
	Text    string
}

// Decode unmarshals the result text into a zeroed v.
func (r ToolResult) Decode(t *testing.T, v any) {
	t.Helper()
	require.False(t, r.IsError, "tool failed: %s", r.Text)
	reflect.ValueOf(v).Elem().SetZero()
	require.NoError(t, json.Unmarshal([]byte(r.Text), v))
}

// ErrorCode returns the code of a failed tool call.
func (r ToolResult) ErrorCode(t *testing.T) string {
	t.Helper()
	require.True(t, r.IsError, "tool succeeded: %s", r.Text)
	var apiErr mcp.APIError
	require.NoError(t, json.Unmarshal([]byte(r.Text), &apiErr))
	return apiErr.Code
}

// CallTool invokes a tool through the JSON-RPC bridge.
func (ts *TestServer) CallTool(t *testing.T, name string, args map[string]any) ToolResult {
	t.Helper()
	raw, rpcErr := ts.RPC(t, "tools/call", map[string]any{"name": name, "arguments": args})
	require.Nil(t, rpcErr, "tools/call %s", name)

	var res struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	var text strings.Builder
	for _, c := range res.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	return ToolResult{IsError: res.IsError, Text: text.String()}
}
