package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type names a domain event.
type Type string

const (
	ProjectCreated  Type = "project.created"
	ProjectDeleted  Type = "project.deleted"
	SettingsChanged Type = "project.settings_changed"
	ImportCompleted Type = "month.import_completed"
	MonthClosed     Type = "month.closed"
	MonthReopened   Type = "month.reopened"
)

// Event is a change notification for downstream consumers such as invoicing.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	ProjectID string         `json:"project_id"`
	Month     string         `json:"month,omitempty"`
	At        time.Time      `json:"at"`
	Data      map[string]any `json:"data,omitempty"`
}

// New builds an event with a fresh id.
func New(t Type, projectID, month string, at time.Time, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		ProjectID: projectID,
		Month:     month,
		At:        at.UTC(),
		Data:      data,
	}
}

// Encode renders the event as a JSON message body.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a JSON message body.
func Decode(body []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(body, &e)
	return e, err
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
