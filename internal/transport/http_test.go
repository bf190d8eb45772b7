package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	projects []*project.Project
	err      error
}

func (s stubLister) List(context.Context) ([]*project.Project, error) {
	return s.projects, s.err
}

func TestHTTPServer_Health(t *testing.T) {
	lister := stubLister{projects: []*project.Project{{ID: "a"}, {ID: "b"}}}
	server := httptest.NewServer(NewServer(Options{Projects: lister, Store: "sqlite"}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, healthResponse{Status: "ok", Projects: 2, Store: "sqlite"}, body)
}

func TestHTTPServer_HealthStoreFailure(t *testing.T) {
	lister := stubLister{err: errors.New("database is locked")}
	server := httptest.NewServer(NewServer(Options{Projects: lister, Store: "file"}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "database is locked", body.Error)
}

func TestHTTPServer_Mounts(t *testing.T) {
	var mcpSession, rpcMethod string
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mcpSession, _ = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})
	rpc := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rpcMethod = r.Method
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(NewServer(Options{MCP: mcp, RPC: rpc}))
	t.Cleanup(server.Close)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/mcp", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("Mcp-Session-Id", "sess1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "sess1", mcpSession)

	resp, err = http.Post(server.URL+"/rpc", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.MethodPost, rpcMethod)

	resp, err = http.Get(server.URL + "/rpc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHTTPServer_RecoversPanics(t *testing.T) {
	mcp := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	server := httptest.NewServer(NewServer(Options{MCP: mcp}))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
