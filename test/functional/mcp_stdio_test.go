package functional_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// stdioSession wraps an MCP client session for stdio transport testing
type stdioSession struct {
	session  *sdkmcp.ClientSession
	dataPath string
}

func newStdioSession(t *testing.T, dataPath string, extraEnv ...string) *stdioSession {
	t.Helper()

	// Find the binary
	binaryPath := "./bin/timesheet-mcp"
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		binaryPath = "../../bin/timesheet-mcp"
		if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
			t.Skip("Server binary not found. Run 'go build -o bin/timesheet-mcp ./cmd/server' first.")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = append(os.Environ(),
		"TIMESHEET_TRANSPORT=stdio",
		"TIMESHEET_STORE_DRIVER=file",
		"TIMESHEET_DATA_PATH="+dataPath,
		"TIMESHEET_AMQP_URL=",
	)
	cmd.Env = append(cmd.Env, extraEnv...)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		cancel()
		t.Fatalf("Failed to connect: %v", err)
	}

	t.Cleanup(func() {
		session.Close()
		cancel()
	})

	return &stdioSession{session: session, dataPath: dataPath}
}

func (s *stdioSession) call(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := s.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool %s failed", name)
	require.NotEmpty(t, result.Content, "Tool %s returned no content", name)
	return result
}

func (s *stdioSession) callTool(t *testing.T, name string, args map[string]any, out any) {
	t.Helper()
	result := s.call(t, name, args)
	text := resultText(t, result)
	require.False(t, result.IsError, "Tool %s returned error: %s", name, text)
	if out != nil {
		reflect.ValueOf(out).Elem().SetZero()
		require.NoError(t, json.Unmarshal([]byte(text), out))
	}
}

func resultText(t *testing.T, result *sdkmcp.CallToolResult) string {
	t.Helper()
	for _, content := range result.Content {
		if textContent, ok := content.(*sdkmcp.TextContent); ok {
			return textContent.Text
		}
	}
	t.Fatalf("result has no text content")
	return ""
}

func TestStdioFunctional_ServerInfo(t *testing.T) {
	s := newStdioSession(t, filepath.Join(t.TempDir(), "timesheet_data.json"))

	info := s.session.InitializeResult()
	require.NotNil(t, info)
	require.Equal(t, "timesheet-mcp", info.ServerInfo.Name)
	require.NotEmpty(t, info.Instructions)

	tools, err := s.session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 21)

	resources, err := s.session.ListResources(context.Background(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, resources.Resources)
}

func TestStdioFunctional_PersistsAcrossRestarts(t *testing.T) {
	dataPath := filepath.Join(t.TempDir(), "timesheet_data.json")

	first := newStdioSession(t, dataPath)
	var created struct {
		ID string `json:"id"`
	}
	first.callTool(t, "create_project", map[string]any{"name": "ACME", "daily_rate": 400}, &created)
	first.callTool(t, "import_activities", map[string]any{"project_id": created.ID, "rows": februaryRows}, nil)
	first.callTool(t, "close_month", map[string]any{"project_id": created.ID, "month": "2026-02"}, nil)
	require.NoError(t, first.session.Close())

	var doc struct {
		Type    string `json:"_type"`
		Version int    `json:"_version"`
	}
	raw, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Equal(t, "timesheet_data", doc.Type)
	require.Equal(t, 2, doc.Version)

	second := newStdioSession(t, dataPath)
	var got struct {
		Months []struct {
			Month  string `json:"month"`
			Status string `json:"status"`
		} `json:"months"`
	}
	second.callTool(t, "get_project", map[string]any{"project_id": created.ID}, &got)
	require.Len(t, got.Months, 1)
	require.Equal(t, "2026-02", got.Months[0].Month)
	require.Equal(t, "closed", got.Months[0].Status)

	result := second.call(t, "reopen_month", map[string]any{"project_id": created.ID, "month": "2026-03"})
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "MONTH_NOT_FOUND")
}
