package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `timesheet-mcp reconciles monthly timesheet exports and turns them into billable day-equivalents.

Core concepts:
- Project: billing settings (daily rate, hours per day, calculation mode), clusters, collaborator rates and monthly reports.
- Month (YYYY-MM): one monthly report, OPEN or CLOSED. Closed months reject every change until reopened.
- Activity: one imported timesheet row, identified by a stable hash. Imports never touch activities already present.
- Day-equivalents: the billable quantity of an activity. Amount = day-equivalents x rate.

Default workflow:
1) Orient: list_projects, then get_project for the months and clusters.
2) Import: import_activities (inline rows, csv_path, or sheet_id + range). Re-importing is safe; known hashes keep their edits.
3) Review: get_activities and get_month_summary.
4) Adjust: assign_cluster, edit_activity, apply_rounding, distribute_uniform, redistribute_excess, restore_activities.
5) Close: close_month when the month is final; export_month for the invoice.

Errors come back as tool errors with a code and a recovery hint, e.g. MONTH_CLOSED -> reopen_month.

Docs:
- timesheet://docs/index
- timesheet://docs/calculation
- timesheet://docs/redistribution
- timesheet://docs/import
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "timesheet://docs/index",
		Name:        "docs_index",
		Title:       "timesheet-mcp docs index",
		Description: "Entry point: what each doc covers and the month lifecycle.",
		Content: `# timesheet-mcp: Docs Index

## Month lifecycle

- A month is created OPEN by its first import.
- ` + "`close_month`" + ` needs at least one activity and stamps ` + "`closed_at`" + `.
- ` + "`reopen_month`" + ` clears ` + "`closed_at`" + `. Reopening an open month is a no-op.
- Open months before the current month carry ` + "`past_month_open`" + `. This is advisory only.

## Docs

- ` + "`timesheet://docs/calculation`" + ` - calculation modes, rates and rate errors.
- ` + "`timesheet://docs/redistribution`" + ` - rounding, uniform distribution and excess redistribution.
- ` + "`timesheet://docs/import`" + ` - row layout, sources and reconciliation.
`,
	},
	{
		URI:         "timesheet://docs/calculation",
		Name:        "docs_calculation",
		Title:       "Calculation modes",
		Description: "How day-equivalents, hours and amounts are derived from the original rows.",
		Content: `# Calculation modes

| mode | day-equivalents | rate |
|---|---|---|
| ` + "`tariffa`" + ` | original amount / project daily rate | project daily rate |
| ` + "`ore`" + ` | hours / hours per day | project daily rate |
| ` + "`tariffa_collaboratore`" + ` | original amount / collaborator rate | collaborator rate, falling back to the project rate |

- Hours are always day-equivalents x hours per day.
- A zero or missing rate gives zero day-equivalents and flags ` + "`has_rate_error`" + `.
- Changing settings recalculates every month. Manual day-equivalents are kept; amounts follow the new rate.

## Overrides

- ` + "`edit_activity`" + ` with ` + "`fields`" + ` overrides text only.
- ` + "`duration`" + ` rescales day-equivalents by new hours / original hours.
- ` + "`day_equivalents`" + ` sets the quantity directly.
- ` + "`restore_activities`" + ` recomputes from the original row.
`,
	},
	{
		URI:         "timesheet://docs/redistribution",
		Name:        "docs_redistribution",
		Title:       "Redistribution",
		Description: "Semantics of the three redistribution tools.",
		Content: `# Redistribution

All three tools work on a selection of hashes in one open month.

- ` + "`apply_rounding`" + `: every activity is scaled by target / current total. The last one absorbs the residual so the target is met exactly. Fails with ZERO_TOTAL when the selection sums to zero.
- ` + "`distribute_uniform`" + `: each selected activity becomes total / count.
- ` + "`redistribute_excess`" + `: activities above one day are capped at one. The surplus goes to the rest of the selection, proportionally to their values (evenly when they are all zero). Fails with NO_EXCESS or NO_RECIPIENTS.

Display totals are rounded to two decimals; stored values are not.
`,
	},
	{
		URI:         "timesheet://docs/import",
		Name:        "docs_import",
		Title:       "Import",
		Description: "Row layout, supported sources and how re-imports reconcile.",
		Content: `# Import

## Row layout

Header row first. Columns: task, date (DD/MM/YYYY), collaborator, reason code, description, duration (H:MM or decimal), -, -, amount.
A task starting with ` + "`CLIENTE:`" + ` sets the client for the rows below. Tasks starting with ` + "`TOTALE`" + ` and rows without a date are skipped.

## Sources

- ` + "`rows`" + `: inline array of string arrays.
- ` + "`csv_path`" + `: comma or semicolon separated file readable by the server.
- ` + "`sheet_id`" + ` + ` + "`range`" + `: Google Sheets, needs a configured service account.

## Reconciliation

- Each row is hashed from date, collaborator, description and original amount.
- A hash already in the month keeps its cluster and edits; only new hashes are added.
- Rows repeated inside one import count once.
- The month keeps the 20 most recent imports in its history.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
