// Package export renders a month of activities as JSON or semicolon separated CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/report"
	"github.com/shopspring/decimal"
)

// Format selects the export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ErrUnknownFormat indicates an unsupported export format.
var ErrUnknownFormat = errors.New("unknown export format")

// Input is everything an export needs. Activities are read as projected; nothing is
// recomputed.
type Input struct {
	ProjectName string
	Month       string
	Billing     activity.Billing
	Clusters    map[string]string
	Activities  []activity.Activity
	Now         time.Time
}

// Configuration echoes the billing settings in the JSON document.
type Configuration struct {
	DailyRate   float64       `json:"daily_rate"`
	HoursPerDay float64       `json:"hours_per_day"`
	Mode        activity.Mode `json:"mode"`
}

// Summary totals the export.
type Summary struct {
	Activities     int                   `json:"activities"`
	DayEquivalents float64               `json:"day_equivalents"`
	BillableAmount float64               `json:"billable_amount"`
	ByCluster      []report.ClusterTotal `json:"by_cluster"`
}

// Row is one exported activity with its current values.
type Row struct {
	Hash           string              `json:"hash"`
	Client         string              `json:"client"`
	Task           string              `json:"task"`
	Date           string              `json:"date"`
	Collaborator   string              `json:"collaborator"`
	ReasonCode     string              `json:"reason_code"`
	Description    string              `json:"description"`
	Duration       string              `json:"duration"`
	Cluster        string              `json:"cluster,omitempty"`
	OriginalAmount float64             `json:"original_amount"`
	BillableAmount float64             `json:"billable_amount"`
	DayEquivalents float64             `json:"day_equivalents"`
	Hours          float64             `json:"hours"`
	Modified       bool                `json:"modified"`
	RateError      bool                `json:"rate_error,omitempty"`
	Original       *activity.Reference `json:"original_values,omitempty"`
}

// Document is the JSON export.
type Document struct {
	Project       string        `json:"project"`
	Month         string        `json:"month"`
	ExportedAt    time.Time     `json:"exported_at"`
	Configuration Configuration `json:"configuration"`
	Summary       Summary       `json:"summary"`
	Activities    []Row         `json:"activities"`
}

// Build assembles the export document.
func Build(in Input) Document {
	groups, totals := report.Summarize(in.Activities, in.Clusters)
	rows := make([]Row, 0, len(in.Activities))
	for i := range in.Activities {
		a := &in.Activities[i]
		row := Row{
			Hash:           a.Hash,
			Client:         a.Original.Client,
			Task:           a.Value(activity.FieldTask),
			Date:           a.Value(activity.FieldDate),
			Collaborator:   a.Collaborator(),
			ReasonCode:     a.Original.ReasonCode,
			Description:    a.Value(activity.FieldDescription),
			Duration:       a.Value(activity.FieldDuration),
			Cluster:        in.Clusters[a.ClusterID],
			OriginalAmount: a.Original.Amount,
			BillableAmount: a.BillableAmount,
			DayEquivalents: a.DayEquivalents,
			Hours:          a.Hours,
			Modified:       a.IsModified,
			RateError:      a.HasRateError,
		}
		if a.IsModified {
			row.Original = a.Reference
		}
		rows = append(rows, row)
	}
	return Document{
		Project:    in.ProjectName,
		Month:      in.Month,
		ExportedAt: in.Now.UTC(),
		Configuration: Configuration{
			DailyRate:   in.Billing.DailyRate,
			HoursPerDay: in.Billing.HoursPerDay,
			Mode:        in.Billing.Mode,
		},
		Summary: Summary{
			Activities:     totals.Count,
			DayEquivalents: totals.DayEquivalents,
			BillableAmount: totals.BillableAmount,
			ByCluster:      groups,
		},
		Activities: rows,
	}
}

// Write encodes doc in the requested format.
func Write(w io.Writer, doc Document, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatCSV:
		return WriteCSV(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// WriteJSON writes the indented JSON document.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

var csvHeader = []string{
	"Cliente", "Incarico", "Data", "Collaboratore", "Causale", "Descrizione", "Tempo",
	"Cluster", "ImportoOriginale", "Importo", "Giornate", "Ore", "Arrotondato",
}

// WriteCSV writes one semicolon separated line per activity with decimal commas.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range doc.Activities {
		rounded := "No"
		if r.Modified {
			rounded = "Si"
		}
		record := []string{
			r.Client, r.Task, r.Date, r.Collaborator, r.ReasonCode, r.Description, r.Duration,
			r.Cluster,
			comma(strconv.FormatFloat(r.OriginalAmount, 'f', -1, 64)),
			fixed(r.BillableAmount, 2),
			fixed(r.DayEquivalents, 2),
			fixed(r.Hours, 1),
			rounded,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fixed(v float64, places int32) string {
	return comma(decimal.NewFromFloat(v).StringFixed(places))
}

func comma(s string) string {
	return strings.Replace(s, ".", ",", 1)
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_\-.]`)

// FileName returns a filesystem-safe export file name.
func FileName(projectName, month string, f Format) string {
	return unsafeName.ReplaceAllString(projectName+"_"+month+"_export."+string(f), "_")
}
