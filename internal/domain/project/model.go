package project

import (
	"sort"
	"time"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/report"
)

const (
	// DefaultDailyRate applies when a project is created without a rate.
	DefaultDailyRate = 600
	// DefaultClusterColor applies when a cluster is created without a color.
	DefaultClusterColor = "#3498db"
)

// Cluster is a named, colored tag for grouping activities.
type Cluster struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Project holds the billing configuration of a customer engagement and its monthly
// reports keyed by YYYY-MM.
type Project struct {
	ID                string                    `json:"id"`
	Name              string                    `json:"name"`
	DailyRate         float64                   `json:"daily_rate"`
	HoursPerDay       float64                   `json:"hours_per_day"`
	Mode              activity.Mode             `json:"mode"`
	CollaboratorRates map[string]float64        `json:"collaborator_rates"`
	Clusters          []Cluster                 `json:"clusters"`
	CurrentMonth      string                    `json:"current_month,omitempty"`
	Reports           map[string]*report.Report `json:"-"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`

	// LegacyActivities and LegacyHistory carry the flat layout used before monthly
	// reports existed. Migrate moves them into Reports.
	LegacyActivities map[string]activity.Record `json:"-"`
	LegacyHistory    []report.ImportEntry       `json:"-"`
}

// Summary is a lightweight representation for listing.
type Summary struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	DailyRate          float64       `json:"daily_rate"`
	HoursPerDay        float64       `json:"hours_per_day"`
	Mode               activity.Mode `json:"mode"`
	CollaboratorsRated int           `json:"collaborator_rates_count"`
	CurrentMonth       string        `json:"current_month,omitempty"`
	TotalMonths        int           `json:"total_months"`
	TotalActivities    int           `json:"total_activities"`
}

// MonthInfo describes one monthly report.
type MonthInfo struct {
	Month      string        `json:"month"`
	Status     report.Status `json:"status"`
	Activities int           `json:"activities_count"`
	ClosedAt   *time.Time    `json:"closed_at,omitempty"`
	// PastMonthOpen flags an open month before the current one. It is advisory only.
	PastMonthOpen bool `json:"past_month_open,omitempty"`
}

// Billing returns the configuration the calculation engine needs.
func (p *Project) Billing() activity.Billing {
	return activity.Billing{
		DailyRate:         p.DailyRate,
		HoursPerDay:       p.HoursPerDay,
		Mode:              p.Mode,
		CollaboratorRates: p.CollaboratorRates,
	}
}

// Report returns the report for month.
func (p *Project) Report(month string) (*report.Report, error) {
	if _, err := report.ParseMonth(month); err != nil {
		return nil, err
	}
	r, ok := p.Reports[month]
	if !ok {
		return nil, ErrMonthNotFound
	}
	return r, nil
}

// Months returns the month keys, newest first.
func (p *Project) Months() []string {
	keys := make([]string, 0, len(p.Reports))
	for k := range p.Reports {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// MonthInfos describes every month, newest first.
func (p *Project) MonthInfos(now time.Time) []MonthInfo {
	keys := p.Months()
	out := make([]MonthInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, monthInfo(k, p.Reports[k], now))
	}
	return out
}

func monthInfo(key string, r *report.Report, now time.Time) MonthInfo {
	return MonthInfo{
		Month:         key,
		Status:        r.Status,
		Activities:    r.Len(),
		ClosedAt:      r.ClosedAt,
		PastMonthOpen: !r.IsClosed() && report.IsPast(key, now),
	}
}

// Summary computes listing statistics.
func (p *Project) Summary() Summary {
	total := 0
	for _, r := range p.Reports {
		total += r.Len()
	}
	mode := p.Mode
	if mode == "" {
		mode = activity.ModeRate
	}
	return Summary{
		ID:                 p.ID,
		Name:               p.Name,
		DailyRate:          p.DailyRate,
		HoursPerDay:        p.HoursPerDay,
		Mode:               mode,
		CollaboratorsRated: len(p.CollaboratorRates),
		CurrentMonth:       p.CurrentMonth,
		TotalMonths:        len(p.Reports),
		TotalActivities:    total,
	}
}

// ClusterNames maps cluster ids to names.
func (p *Project) ClusterNames() map[string]string {
	names := make(map[string]string, len(p.Clusters))
	for _, c := range p.Clusters {
		names[c.ID] = c.Name
	}
	return names
}
