package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/timesheet-mcp/internal/domain/project"
)

// ProjectLister reports the stored projects for the health check.
type ProjectLister interface {
	List(ctx context.Context) ([]*project.Project, error)
}

// Options wires the HTTP handlers.
type Options struct {
	// MCP serves the streamable MCP transport.
	MCP http.Handler
	// RPC serves single JSON-RPC requests over POST. Optional.
	RPC      http.Handler
	Projects ProjectLister
	// Store names the persistence driver reported by /health.
	Store  string
	Logger *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(SessionMiddleware)
	r.Use(RequestLogger(logger))

	h := &healthHandler{projects: opts.Projects, store: opts.Store, logger: logger}
	r.Get("/health", h.ServeHTTP)

	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}
	if opts.RPC != nil {
		r.Post("/rpc", opts.RPC.ServeHTTP)
	}
	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Projects int    `json:"projects"`
	Store    string `json:"store"`
	Error    string `json:"error,omitempty"`
}

type healthHandler struct {
	projects ProjectLister
	store    string
	logger   *slog.Logger
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Store: h.store}
	status := http.StatusOK
	if h.projects != nil {
		projects, err := h.projects.List(r.Context())
		if err != nil {
			h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
			resp.Status = "error"
			resp.Error = err.Error()
			status = http.StatusServiceUnavailable
		}
		resp.Projects = len(projects)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to write health response", "error", err)
	}
}
