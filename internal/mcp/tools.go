package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/timesheet-mcp/internal/clock"
	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/rpggio/timesheet-mcp/internal/export"
	"github.com/rpggio/timesheet-mcp/internal/importer"
	"github.com/rpggio/timesheet-mcp/internal/importer/sheets"
)

// defaultSheetRange covers the nine columns of a timesheet export.
const defaultSheetRange = "A:I"

type tools struct {
	projects ProjectService
	sheets   *sheets.Client
	clock    clock.Clock
	logger   *slog.Logger
}

type toolFunc[In any] func(ctx context.Context, in In) (any, error)

// addTool registers fn under name. Errors become tool results carrying an APIError so
// the caller gets a code and a recovery hint.
func addTool[In any](server *sdkmcp.Server, logger *slog.Logger, name, description string, fn toolFunc[In]) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			out, err := fn(ctx, in)
			if err != nil {
				apiErr := mapError(err)
				logger.WarnContext(ctx, "tool rejected", "tool", name, "code", apiErr.Code, "error", err)
				return errorResult(apiErr), nil, nil
			}
			return nil, out, nil
		})
}

func errorResult(apiErr *APIError) *sdkmcp.CallToolResult {
	data, err := json.Marshal(apiErr)
	if err != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

func registerTools(server *sdkmcp.Server, t *tools) {
	log := t.logger

	// Projects
	addTool(server, log, "list_projects", "List every project with its billing settings and activity counts", t.listProjects)
	addTool(server, log, "get_project", "Get a project with its clusters, collaborator rates and months (newest first)", t.getProject)
	addTool(server, log, "create_project", "Create a project. Defaults: daily rate 600, 8 hours per day, mode tariffa", t.createProject)
	addTool(server, log, "update_project_settings", "Change name or billing settings; billing changes recalculate every month, keeping manual day-equivalents", t.updateSettings)
	addTool(server, log, "delete_project", "Delete a project and all its months", t.deleteProject)

	// Months
	addTool(server, log, "get_activities", "List the activities of a month sorted by date, with totals and import history", t.getActivities)
	addTool(server, log, "get_month_summary", "Summarize a month by cluster; unassigned activities come last", t.getMonthSummary)
	addTool(server, log, "import_activities", "Import timesheet rows into a month from inline rows, a CSV file or a Google Sheets range. Known activities keep their edits", t.importActivities)
	addTool(server, log, "close_month", "Close a month; closed months reject every change", t.closeMonth)
	addTool(server, log, "reopen_month", "Reopen a closed month", t.reopenMonth)
	addTool(server, log, "export_month", "Export a month as JSON or semicolon separated CSV", t.exportMonth)

	// Activities
	addTool(server, log, "assign_cluster", "Assign activities to a cluster, or unassign them with an empty cluster_id", t.assignCluster)
	addTool(server, log, "edit_activity", "Override text fields, the duration or the day-equivalents of one activity", t.editActivity)
	addTool(server, log, "restore_activities", "Drop every override of the selected activities, or of the whole month with all", t.restoreActivities)
	addTool(server, log, "apply_rounding", "Scale the selected activities proportionally so their day-equivalents sum to target", t.applyRounding)
	addTool(server, log, "distribute_uniform", "Set every selected activity to total divided by the selection size", t.distributeUniform)
	addTool(server, log, "redistribute_excess", "Cap selected activities at one day and move the surplus onto the others", t.redistributeExcess)

	// Clusters and rates
	addTool(server, log, "create_cluster", "Create a cluster for grouping activities", t.createCluster)
	addTool(server, log, "update_cluster", "Rename or recolor a cluster", t.updateCluster)
	addTool(server, log, "delete_cluster", "Delete a cluster and unassign its activities in every month", t.deleteCluster)
	addTool(server, log, "manage_collaborator_rates", "List, set or delete per-collaborator daily rates", t.manageRates)
}

func (t *tools) listProjects(ctx context.Context, _ ListProjectsParams) (any, error) {
	list, err := t.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	return ProjectListResponse{Projects: list}, nil
}

func (t *tools) getProject(ctx context.Context, in ProjectParams) (any, error) {
	p, err := t.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	return ProjectResponse{Project: p, Months: p.MonthInfos(t.clock.Now())}, nil
}

func (t *tools) createProject(ctx context.Context, in CreateProjectParams) (any, error) {
	req := project.CreateRequest{ID: in.ID, Name: in.Name, Mode: activity.Mode(in.Mode)}
	if in.DailyRate != nil {
		if *in.DailyRate <= 0 {
			return nil, fmt.Errorf("%w: daily_rate must be positive", project.ErrInvalidInput)
		}
		req.DailyRate = *in.DailyRate
	}
	if in.HoursPerDay != nil {
		if *in.HoursPerDay <= 0 {
			return nil, fmt.Errorf("%w: hours_per_day must be positive", project.ErrInvalidInput)
		}
		req.HoursPerDay = *in.HoursPerDay
	}
	return t.projects.Create(ctx, req)
}

func (t *tools) updateSettings(ctx context.Context, in UpdateSettingsParams) (any, error) {
	settings := project.Settings{
		Name:         in.Name,
		DailyRate:    in.DailyRate,
		HoursPerDay:  in.HoursPerDay,
		CurrentMonth: in.CurrentMonth,
	}
	if in.Mode != nil {
		m := activity.Mode(*in.Mode)
		settings.Mode = &m
	}
	res, err := t.projects.UpdateSettings(ctx, in.ProjectID, settings)
	if err != nil {
		return nil, err
	}
	return SettingsResponse{Project: res.Project, Recalculated: res.Recalculated}, nil
}

func (t *tools) deleteProject(ctx context.Context, in ProjectParams) (any, error) {
	if err := t.projects.Delete(ctx, in.ProjectID); err != nil {
		return nil, err
	}
	return DeletedResponse{Deleted: true}, nil
}

func (t *tools) getActivities(ctx context.Context, in MonthParams) (any, error) {
	return t.projects.MonthActivities(ctx, in.ProjectID, in.Month)
}

func (t *tools) getMonthSummary(ctx context.Context, in MonthParams) (any, error) {
	return t.projects.MonthSummary(ctx, in.ProjectID, in.Month)
}

func (t *tools) importActivities(ctx context.Context, in ImportParams) (any, error) {
	src, err := t.source(in)
	if err != nil {
		return nil, err
	}
	rows, stats, err := importer.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	fileName := in.FileName
	if fileName == "" {
		fileName = src.Name()
	}
	res, err := t.projects.Import(ctx, in.ProjectID, project.ImportRequest{
		Month:    in.Month,
		FileName: fileName,
		Rows:     rows,
	})
	if err != nil {
		return nil, err
	}
	return ImportResponse{ImportResult: res, Source: src.Name(), Parsed: stats}, nil
}

func (t *tools) source(in ImportParams) (importer.Source, error) {
	switch {
	case len(in.Rows) > 0:
		return importer.Static{Label: in.FileName, Rows: in.Rows}, nil
	case in.CSVPath != "":
		return importer.CSVFile{Path: in.CSVPath}, nil
	case in.SheetID != "":
		if t.sheets == nil {
			return nil, errSheetsUnavailable
		}
		rng := in.Range
		if rng == "" {
			rng = defaultSheetRange
		}
		return sheets.Range{Client: t.sheets, SpreadsheetID: in.SheetID, Range: rng}, nil
	default:
		return nil, errNoSource
	}
}

func (t *tools) closeMonth(ctx context.Context, in MonthParams) (any, error) {
	return t.projects.CloseMonth(ctx, in.ProjectID, in.Month)
}

func (t *tools) reopenMonth(ctx context.Context, in MonthParams) (any, error) {
	return t.projects.ReopenMonth(ctx, in.ProjectID, in.Month)
}

func (t *tools) exportMonth(ctx context.Context, in ExportParams) (any, error) {
	format := export.Format(strings.ToLower(in.Format))
	if format == "" {
		format = export.FormatJSON
	}
	p, err := t.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	r, err := p.Report(in.Month)
	if err != nil {
		return nil, err
	}
	doc := export.Build(export.Input{
		ProjectName: p.Name,
		Month:       in.Month,
		Billing:     p.Billing(),
		Clusters:    p.ClusterNames(),
		Activities:  r.Activities(p.Billing()),
		Now:         t.clock.Now(),
	})

	var buf bytes.Buffer
	if err := export.Write(&buf, doc, format); err != nil {
		return nil, err
	}
	resp := ExportResponse{FileName: export.FileName(p.Name, in.Month, format), Format: string(format)}
	if in.OutputPath == "" {
		resp.Content = buf.String()
		return resp, nil
	}
	resp.Path = filepath.Join(in.OutputPath, resp.FileName)
	if err := os.WriteFile(resp.Path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("writing export: %w", err)
	}
	t.logger.InfoContext(ctx, "month exported", "project_id", p.ID, "month", in.Month, "path", resp.Path)
	return resp, nil
}

func (t *tools) assignCluster(ctx context.Context, in AssignClusterParams) (any, error) {
	n, err := t.projects.AssignCluster(ctx, in.ProjectID, in.Month, in.Hashes, in.ClusterID)
	if err != nil {
		return nil, err
	}
	return CountResponse{Updated: n}, nil
}

func (t *tools) editActivity(ctx context.Context, in EditActivityParams) (any, error) {
	edit := project.Edit{
		Fields:         make(map[activity.Field]string, len(in.Fields)+1),
		DayEquivalents: in.DayEquivalents,
	}
	for k, v := range in.Fields {
		edit.Fields[activity.Field(k)] = v
	}
	if in.Duration != nil {
		edit.Fields[activity.FieldDuration] = *in.Duration
	}
	a, err := t.projects.EditActivity(ctx, in.ProjectID, in.Month, in.Hash, edit)
	if err != nil {
		return nil, err
	}
	return ActivityResponse{Activity: a}, nil
}

func (t *tools) restoreActivities(ctx context.Context, in RestoreParams) (any, error) {
	n, err := t.projects.Restore(ctx, in.ProjectID, in.Month, in.Hashes, in.All)
	if err != nil {
		return nil, err
	}
	return RestoreResponse{Restored: n}, nil
}

func (t *tools) applyRounding(ctx context.Context, in RoundingParams) (any, error) {
	return t.projects.ApplyRounding(ctx, in.ProjectID, in.Month, in.Hashes, in.Target)
}

func (t *tools) distributeUniform(ctx context.Context, in UniformParams) (any, error) {
	return t.projects.DistributeUniform(ctx, in.ProjectID, in.Month, in.Hashes, in.Total)
}

func (t *tools) redistributeExcess(ctx context.Context, in SelectionParams) (any, error) {
	return t.projects.RedistributeExcess(ctx, in.ProjectID, in.Month, in.Hashes)
}

func (t *tools) createCluster(ctx context.Context, in CreateClusterParams) (any, error) {
	return t.projects.CreateCluster(ctx, in.ProjectID, in.Name, in.Color)
}

func (t *tools) updateCluster(ctx context.Context, in UpdateClusterParams) (any, error) {
	return t.projects.UpdateCluster(ctx, in.ProjectID, in.ClusterID, project.ClusterUpdate{Name: in.Name, Color: in.Color})
}

func (t *tools) deleteCluster(ctx context.Context, in DeleteClusterParams) (any, error) {
	n, err := t.projects.DeleteCluster(ctx, in.ProjectID, in.ClusterID)
	if err != nil {
		return nil, err
	}
	return DeletedResponse{Deleted: true, Unassigned: n}, nil
}

func (t *tools) manageRates(ctx context.Context, in RatesParams) (any, error) {
	switch in.Action {
	case "list":
	case "set":
		if in.Collaborator == "" || in.Rate == nil {
			return nil, fmt.Errorf("%w: set needs collaborator and rate", project.ErrInvalidInput)
		}
		if err := t.projects.SetRate(ctx, in.ProjectID, in.Collaborator, *in.Rate); err != nil {
			return nil, err
		}
	case "delete":
		if in.Collaborator == "" {
			return nil, fmt.Errorf("%w: delete needs collaborator", project.ErrInvalidInput)
		}
		if err := t.projects.DeleteRate(ctx, in.ProjectID, in.Collaborator); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown action %q", project.ErrInvalidInput, in.Action)
	}
	rates, err := t.projects.Rates(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	return RatesResponse{Rates: rates}, nil
}
