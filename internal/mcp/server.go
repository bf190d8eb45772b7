package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/timesheet-mcp/internal/clock"
	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/rpggio/timesheet-mcp/internal/importer/sheets"
)

const (
	serverName    = "timesheet-mcp"
	serverVersion = "0.1.0"
)

// ProjectService defines the project operations needed by MCP.
type ProjectService interface {
	List(ctx context.Context) ([]project.Summary, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	UpdateSettings(ctx context.Context, id string, settings project.Settings) (*project.SettingsResult, error)
	Delete(ctx context.Context, id string) error

	CreateCluster(ctx context.Context, id, name, color string) (project.Cluster, error)
	UpdateCluster(ctx context.Context, id, clusterID string, upd project.ClusterUpdate) (project.Cluster, error)
	DeleteCluster(ctx context.Context, id, clusterID string) (int, error)
	Rates(ctx context.Context, id string) (map[string]float64, error)
	SetRate(ctx context.Context, id, name string, rate float64) error
	DeleteRate(ctx context.Context, id, name string) error

	MonthActivities(ctx context.Context, id, month string) (*project.MonthView, error)
	MonthSummary(ctx context.Context, id, month string) (*project.MonthSummary, error)
	Import(ctx context.Context, id string, req project.ImportRequest) (*project.ImportResult, error)
	AssignCluster(ctx context.Context, id, month string, hashes []string, clusterID string) (int, error)
	EditActivity(ctx context.Context, id, month, hash string, edit project.Edit) (*activity.Activity, error)
	Restore(ctx context.Context, id, month string, hashes []string, all bool) (int, error)
	ApplyRounding(ctx context.Context, id, month string, hashes []string, target float64) (activity.Outcome, error)
	DistributeUniform(ctx context.Context, id, month string, hashes []string, total float64) (activity.Outcome, error)
	RedistributeExcess(ctx context.Context, id, month string, hashes []string) (activity.Outcome, error)
	CloseMonth(ctx context.Context, id, month string) (project.MonthInfo, error)
	ReopenMonth(ctx context.Context, id, month string) (project.MonthInfo, error)
}

// Config contains server configuration.
type Config struct {
	Projects ProjectService
	// Sheets is nil when no service account is configured.
	Sheets *sheets.Client
	Clock  clock.Clock
	Logger *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(recoverMiddleware(cfg.Logger))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, &tools{
		projects: cfg.Projects,
		sheets:   cfg.Sheets,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	})

	return server
}
