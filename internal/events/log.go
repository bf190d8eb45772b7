package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to a logger. It is used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger uses slog.Default.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.InfoContext(ctx, "event",
		"id", e.ID,
		"type", string(e.Type),
		"project_id", e.ProjectID,
		"month", e.Month)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
