package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/timesheet-mcp/internal/clock"
	"github.com/rpggio/timesheet-mcp/internal/config"
	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/rpggio/timesheet-mcp/internal/events"
	"github.com/rpggio/timesheet-mcp/internal/importer/sheets"
	"github.com/rpggio/timesheet-mcp/internal/mcp"
	"github.com/rpggio/timesheet-mcp/internal/sqlite"
	"github.com/rpggio/timesheet-mcp/internal/store/file"
	"github.com/rpggio/timesheet-mcp/internal/transport"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == config.TransportStdio {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("TIMESHEET_LOG_PATH"); logPath != "" {
		logFile, err := openCappedLog(logPath, maxLogSizeBytes, keepLogSizeBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer logFile.Close()
			logWriter = logFile
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()
	clk := clock.System{}

	repo, closeStore, err := openStore(cfg.Store, clk, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher := openPublisher(cfg.Events, logger)
	defer publisher.Close()

	var sheetsClient *sheets.Client
	if cfg.SheetsEnabled() {
		sheetsClient, err = sheets.New(ctx, sheets.Credentials{
			JSON: cfg.Sheets.CredentialsJSON,
			File: cfg.Sheets.CredentialsFile,
		})
		if err != nil {
			// Imports from rows and CSV files still work.
			logger.Warn("google sheets import disabled", "error", err)
			sheetsClient = nil
		}
	}

	projectSvc := project.NewService(repo, publisher, clk, logger)
	mcpServer := mcp.NewServer(mcp.Config{
		Projects: projectSvc,
		Sheets:   sheetsClient,
		Clock:    clk,
		Logger:   logger,
	})

	if cfg.Transport.Mode == config.TransportStdio {
		return runStdioMode(logger, mcpServer)
	}
	return runHTTPMode(logger, mcpServer, transport.Options{
		Projects: repo,
		Store:    cfg.Store.Driver,
		Logger:   logger,
	}, cfg.Server.Host, cfg.Server.Port)
}

// openStore opens the configured repository and returns its close function.
func openStore(cfg config.StoreConfig, clk clock.Clock, logger *slog.Logger) (project.Repository, func(), error) {
	if cfg.Driver == config.DriverSQLite {
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, nil, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("sqlite store opened", "path", cfg.Path)
		return sqlite.NewProjectRepository(db), func() { db.Close() }, nil
	}

	store, err := file.Open(cfg.Path, clk, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open data file: %w", err)
	}
	return store, func() {}, nil
}

// openPublisher connects to the broker when configured, falling back to logging events.
func openPublisher(cfg config.EventsConfig, logger *slog.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.NewLogPublisher(logger)
	}
	pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange, cfg.Queue, logger)
	if err != nil {
		logger.Warn("event broker unavailable, logging events instead", "error", err)
		return events.NewLogPublisher(logger)
	}
	logger.Info("publishing events", "exchange", cfg.Exchange, "queue", cfg.Queue)
	return pub
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(logger *slog.Logger, mcpServer *sdkmcp.Server, opts transport.Options, host string, port int) error {
	opts.MCP = sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)
	opts.RPC = mcp.NewHTTPHandler(mcpServer, logger)

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(logger, httpServer, errCh)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
