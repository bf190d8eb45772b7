package report

import (
	"time"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
)

// Status is the lifecycle state of a monthly report.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// MaxHistory bounds the import history of a report.
const MaxHistory = 20

// ImportEntry records one import into a month.
type ImportEntry struct {
	Date     time.Time `json:"date"`
	FileName string    `json:"file_name"`
	Loaded   int       `json:"loaded"`
	New      int       `json:"new"`
}

// Report holds one calendar month of a project: its activities by hash, the import
// history (most recent first) and the open/closed status gating every mutation.
type Report struct {
	Status   Status
	ClosedAt *time.Time
	Records  map[string]activity.Record
	History  []ImportEntry
}

// New returns an empty open report.
func New() *Report {
	return &Report{
		Status:  StatusOpen,
		Records: make(map[string]activity.Record),
	}
}

// Len returns the number of activities in the report.
func (r *Report) Len() int {
	return len(r.Records)
}

// IsClosed reports whether mutations are currently rejected.
func (r *Report) IsClosed() bool {
	return r.Status == StatusClosed
}
