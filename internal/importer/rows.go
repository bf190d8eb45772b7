// Package importer turns spreadsheet rows into imported activities.
//
// Row 0 is a header. A task starting with "CLIENTE:" sets the client for the rows that
// follow, a task starting with "TOTALE" is a subtotal line, and rows without a date are
// skipped.
package importer

import (
	"strconv"
	"strings"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
)

// Column positions in an import row.
const (
	ColTask         = 0
	ColDate         = 1
	ColCollaborator = 2
	ColReason       = 3
	ColDescription  = 4
	ColDuration     = 5
	ColAmount       = 8
)

const (
	clientMarker = "CLIENTE:"
	totalMarker  = "TOTALE"
)

// Stats counts how rows were consumed.
type Stats struct {
	Rows    int `json:"rows"`
	Clients int `json:"clients"`
	Totals  int `json:"totals"`
	Skipped int `json:"skipped"`
}

// ParseRows converts raw rows, header included, into activities.
func ParseRows(rows [][]string) ([]activity.Original, Stats) {
	var (
		out    []activity.Original
		stats  Stats
		client string
	)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		stats.Rows++
		if len(row) == 0 {
			stats.Skipped++
			continue
		}
		task := cell(row, ColTask)
		switch {
		case strings.HasPrefix(task, clientMarker):
			client = strings.TrimSpace(strings.TrimPrefix(task, clientMarker))
			stats.Clients++
			continue
		case strings.HasPrefix(task, totalMarker):
			stats.Totals++
			continue
		}
		date := cell(row, ColDate)
		if date == "" {
			stats.Skipped++
			continue
		}
		out = append(out, activity.Original{
			Client:       client,
			Task:         task,
			Date:         date,
			Collaborator: cell(row, ColCollaborator),
			ReasonCode:   cell(row, ColReason),
			Description:  cell(row, ColDescription),
			Duration:     cell(row, ColDuration),
			Amount:       ParseAmount(cell(row, ColAmount)),
		})
	}
	return out, stats
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseAmount reads a decimal amount written with a dot or a comma. A value using both
// is read with the comma as decimal separator and dots as thousands separators.
// Anything unparsable is 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
