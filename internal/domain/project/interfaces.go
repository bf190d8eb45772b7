package project

import (
	"context"

	"github.com/rpggio/timesheet-mcp/internal/events"
)

// Repository persists whole projects. Get must return a copy the caller may mutate
// freely; nothing is stored until Save.
type Repository interface {
	List(ctx context.Context) ([]*Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	Save(ctx context.Context, proj *Project) error
	Delete(ctx context.Context, id string) error
}

// Publisher receives domain events after a mutation is saved.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}
