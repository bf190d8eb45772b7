package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/rpggio/timesheet-mcp/internal/export"
	"github.com/rpggio/timesheet-mcp/internal/importer/sheets"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type errorCode struct {
	err  error
	code string
	hint string
}

// Order matters: the first match wins.
var errorCodes = []errorCode{
	{project.ErrProjectNotFound, "PROJECT_NOT_FOUND", "Call list_projects for valid ids"},
	{project.ErrProjectExists, "PROJECT_EXISTS", "Omit id to generate one"},
	{project.ErrMonthNotFound, "MONTH_NOT_FOUND", "Call get_project for the months with data"},
	{project.ErrInvalidMonth, "INVALID_MONTH", "Use the YYYY-MM format"},
	{project.ErrMonthClosed, "MONTH_CLOSED", "Call reopen_month before changing a closed month"},
	{project.ErrMonthAlreadyClosed, "MONTH_ALREADY_CLOSED", ""},
	{project.ErrMonthEmpty, "MONTH_EMPTY", "Import activities before closing the month"},
	{project.ErrClusterNotFound, "CLUSTER_NOT_FOUND", "Call get_project for valid cluster ids"},
	{project.ErrDuplicateCluster, "DUPLICATE_CLUSTER", "Pick a name not used by another cluster"},
	{project.ErrActivityNotFound, "ACTIVITY_NOT_FOUND", "Call get_activities for valid hashes"},
	{project.ErrCollaboratorNotFound, "COLLABORATOR_NOT_FOUND", ""},
	{project.ErrEmptySelection, "EMPTY_SELECTION", "Pass at least one activity hash"},
	{project.ErrZeroTotal, "ZERO_TOTAL", "Use distribute_uniform when the selection totals zero"},
	{project.ErrNoExcess, "NO_EXCESS", "No selected activity is above one day"},
	{project.ErrNoRecipients, "NO_RECIPIENTS", "Include activities at or below one day in the selection"},
	{project.ErrUnknownField, "UNKNOWN_FIELD", "Editable fields: date, task, collaborator, description, duration"},
	{project.ErrInvalidValue, "INVALID_VALUE", "Quantities must be finite and not negative"},
	{project.ErrInvalidMode, "INVALID_MODE", "Modes: tariffa, ore, tariffa_collaboratore"},
	{project.ErrInvalidInput, "INVALID_INPUT", ""},
	{export.ErrUnknownFormat, "INVALID_FORMAT", "Formats: json, csv"},
	{sheets.ErrNoCredentials, "SHEETS_NOT_CONFIGURED", "Set GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON"},
	{errSheetsUnavailable, "SHEETS_NOT_CONFIGURED", "Set GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON"},
	{errNoSource, "INVALID_INPUT", "Pass rows, csv_path, or sheet_id with range"},
}

var (
	errSheetsUnavailable = errors.New("google sheets import is not configured")
	errNoSource          = errors.New("no import source")
)

// mapError maps domain errors to MCP error codes. Unknown errors map to INTERNAL_ERROR.
func mapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return &APIError{Code: c.code, Message: err.Error(), RecoveryHint: c.hint}
		}
	}
	return &APIError{Code: "INTERNAL_ERROR", Message: err.Error()}
}
