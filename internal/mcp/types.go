package mcp

import (
	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/rpggio/timesheet-mcp/internal/importer"
)

type ListProjectsParams struct{}

type ProjectParams struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID"`
}

type MonthParams struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID"`
	Month     string `json:"month" jsonschema:"Month key in YYYY-MM format"`
}

type CreateProjectParams struct {
	ID          string   `json:"id,omitempty" jsonschema:"Unique project identifier, generated when omitted"`
	Name        string   `json:"name" jsonschema:"Project display name"`
	DailyRate   *float64 `json:"daily_rate,omitempty" jsonschema:"Daily rate, default 600"`
	HoursPerDay *float64 `json:"hours_per_day,omitempty" jsonschema:"Working hours in one day, default 8"`
	Mode        string   `json:"mode,omitempty" jsonschema:"Calculation mode: tariffa, ore or tariffa_collaboratore"`
}

type UpdateSettingsParams struct {
	ProjectID    string   `json:"project_id" jsonschema:"Project ID"`
	Name         *string  `json:"name,omitempty" jsonschema:"New project name"`
	DailyRate    *float64 `json:"daily_rate,omitempty" jsonschema:"New daily rate"`
	HoursPerDay  *float64 `json:"hours_per_day,omitempty" jsonschema:"New working hours in one day"`
	Mode         *string  `json:"mode,omitempty" jsonschema:"New calculation mode: tariffa, ore or tariffa_collaboratore"`
	CurrentMonth *string  `json:"current_month,omitempty" jsonschema:"Month shown by default, YYYY-MM"`
}

type ImportParams struct {
	ProjectID string     `json:"project_id" jsonschema:"Project ID"`
	Month     string     `json:"month,omitempty" jsonschema:"Target month YYYY-MM; defaults to the month of the first dated row"`
	FileName  string     `json:"file_name,omitempty" jsonschema:"Name recorded in the import history"`
	Rows      [][]string `json:"rows,omitempty" jsonschema:"Spreadsheet rows, header first"`
	CSVPath   string     `json:"csv_path,omitempty" jsonschema:"Path of a CSV export to read"`
	SheetID   string     `json:"sheet_id,omitempty" jsonschema:"Google Sheets spreadsheet ID"`
	Range     string     `json:"range,omitempty" jsonschema:"A1 range of the sheet, e.g. Foglio1!A:I"`
}

type AssignClusterParams struct {
	ProjectID string   `json:"project_id" jsonschema:"Project ID"`
	Month     string   `json:"month" jsonschema:"Month key in YYYY-MM format"`
	Hashes    []string `json:"hashes" jsonschema:"Activity hashes"`
	ClusterID string   `json:"cluster_id,omitempty" jsonschema:"Cluster ID; empty unassigns"`
}

type EditActivityParams struct {
	ProjectID      string            `json:"project_id" jsonschema:"Project ID"`
	Month          string            `json:"month" jsonschema:"Month key in YYYY-MM format"`
	Hash           string            `json:"hash" jsonschema:"Activity hash"`
	Fields         map[string]string `json:"fields,omitempty" jsonschema:"Text overrides by field: date, task, collaborator, description, duration"`
	Duration       *string           `json:"duration,omitempty" jsonschema:"New duration (H:MM or decimal hours); rescales the day-equivalents"`
	DayEquivalents *float64          `json:"day_equivalents,omitempty" jsonschema:"New day-equivalents"`
}

type RestoreParams struct {
	ProjectID string   `json:"project_id" jsonschema:"Project ID"`
	Month     string   `json:"month" jsonschema:"Month key in YYYY-MM format"`
	Hashes    []string `json:"hashes,omitempty" jsonschema:"Activity hashes to restore"`
	All       bool     `json:"all,omitempty" jsonschema:"Restore every activity of the month"`
}

type SelectionParams struct {
	ProjectID string   `json:"project_id" jsonschema:"Project ID"`
	Month     string   `json:"month" jsonschema:"Month key in YYYY-MM format"`
	Hashes    []string `json:"hashes" jsonschema:"Activity hashes"`
}

type RoundingParams struct {
	ProjectID string   `json:"project_id" jsonschema:"Project ID"`
	Month     string   `json:"month" jsonschema:"Month key in YYYY-MM format"`
	Hashes    []string `json:"hashes" jsonschema:"Activity hashes"`
	Target    float64  `json:"target" jsonschema:"Day-equivalents the selection must sum to"`
}

type UniformParams struct {
	ProjectID string   `json:"project_id" jsonschema:"Project ID"`
	Month     string   `json:"month" jsonschema:"Month key in YYYY-MM format"`
	Hashes    []string `json:"hashes" jsonschema:"Activity hashes"`
	Total     float64  `json:"total" jsonschema:"Day-equivalents split evenly across the selection"`
}

type CreateClusterParams struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID"`
	Name      string `json:"name" jsonschema:"Cluster name, unique ignoring case"`
	Color     string `json:"color,omitempty" jsonschema:"Hex color, default #3498db"`
}

type UpdateClusterParams struct {
	ProjectID string  `json:"project_id" jsonschema:"Project ID"`
	ClusterID string  `json:"cluster_id" jsonschema:"Cluster ID"`
	Name      *string `json:"name,omitempty" jsonschema:"New name"`
	Color     *string `json:"color,omitempty" jsonschema:"New color"`
}

type DeleteClusterParams struct {
	ProjectID string `json:"project_id" jsonschema:"Project ID"`
	ClusterID string `json:"cluster_id" jsonschema:"Cluster ID"`
}

type RatesParams struct {
	ProjectID    string   `json:"project_id" jsonschema:"Project ID"`
	Action       string   `json:"action" jsonschema:"list, set or delete"`
	Collaborator string   `json:"collaborator,omitempty" jsonschema:"Collaborator name, required for set and delete"`
	Rate         *float64 `json:"rate,omitempty" jsonschema:"Daily rate, required for set"`
}

type ExportParams struct {
	ProjectID  string `json:"project_id" jsonschema:"Project ID"`
	Month      string `json:"month" jsonschema:"Month key in YYYY-MM format"`
	Format     string `json:"format,omitempty" jsonschema:"json (default) or csv"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"Directory to write the export to; content is returned inline when omitted"`
}

type ProjectListResponse struct {
	Projects []project.Summary `json:"projects"`
}

type ProjectResponse struct {
	Project *project.Project    `json:"project"`
	Months  []project.MonthInfo `json:"months"`
}

type SettingsResponse struct {
	Project      *project.Project `json:"project"`
	Recalculated int              `json:"recalculated"`
}

type DeletedResponse struct {
	Deleted    bool `json:"deleted"`
	Unassigned int  `json:"unassigned,omitempty"`
}

type ImportResponse struct {
	*project.ImportResult
	Source string         `json:"source"`
	Parsed importer.Stats `json:"parsed"`
}

type CountResponse struct {
	Updated int `json:"updated"`
}

type RestoreResponse struct {
	Restored int `json:"restored"`
}

type ActivityResponse struct {
	Activity *activity.Activity `json:"activity"`
}

type RatesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

type ExportResponse struct {
	FileName string `json:"file_name"`
	Format   string `json:"format"`
	Path     string `json:"path,omitempty"`
	Content  string `json:"content,omitempty"`
}
