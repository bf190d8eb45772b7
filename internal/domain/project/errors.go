package project

import (
	"errors"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/report"
)

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectExists indicates a create request for an id already in use.
	ErrProjectExists = errors.New("project already exists")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrInvalidMode indicates an unknown calculation mode.
	ErrInvalidMode = errors.New("invalid calculation mode")
	// ErrMonthNotFound indicates the project has no report for the month.
	ErrMonthNotFound = errors.New("month not found")
	// ErrClusterNotFound indicates an unknown cluster id.
	ErrClusterNotFound = errors.New("cluster not found")
	// ErrDuplicateCluster indicates a cluster name already in use.
	ErrDuplicateCluster = errors.New("cluster name already exists")
	// ErrActivityNotFound indicates a hash not present in the month.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrCollaboratorNotFound indicates a rate lookup for an unknown collaborator.
	ErrCollaboratorNotFound = errors.New("collaborator not found")
)

// Rejections raised by the month and activity layers, re-exported for callers of Service.
var (
	ErrMonthClosed        = report.ErrMonthClosed
	ErrMonthAlreadyClosed = report.ErrAlreadyClosed
	ErrMonthEmpty         = report.ErrMonthEmpty
	ErrInvalidMonth       = report.ErrInvalidMonth
	ErrEmptySelection     = activity.ErrEmptySelection
	ErrZeroTotal          = activity.ErrZeroTotal
	ErrNoExcess           = activity.ErrNoExcess
	ErrNoRecipients       = activity.ErrNoRecipients
	ErrUnknownField       = activity.ErrUnknownField
	ErrInvalidValue       = activity.ErrInvalidValue
)
