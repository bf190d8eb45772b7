package project

import (
	"sort"
	"time"

	"github.com/rpggio/timesheet-mcp/internal/domain/report"
)

// Migrate moves legacy flat activities into monthly reports grouped by the month of
// their date, or the current month when the date cannot be parsed. Months created this
// way start closed when they lie in the past. The legacy history goes to the latest
// migrated month. It returns the number of months touched.
func (p *Project) Migrate(now time.Time) int {
	if p.Reports == nil {
		p.Reports = make(map[string]*report.Report)
	}
	current := report.MonthKey(now)
	if len(p.LegacyActivities) == 0 {
		p.LegacyActivities = nil
		if p.CurrentMonth == "" {
			p.CurrentMonth = current
		}
		return 0
	}

	touched := make(map[string]struct{})
	for hash, rec := range p.LegacyActivities {
		month, ok := report.MonthOf(rec.Original.Date)
		if !ok {
			month = current
		}
		r, exists := p.Reports[month]
		if !exists {
			r = report.New()
			if report.IsPast(month, now) {
				r.Status = report.StatusClosed
			}
			p.Reports[month] = r
		}
		r.Records[hash] = rec
		touched[month] = struct{}{}
	}

	months := make([]string, 0, len(touched))
	for m := range touched {
		months = append(months, m)
	}
	sort.Strings(months)
	if len(p.LegacyHistory) > 0 {
		latest := months[len(months)-1]
		p.Reports[latest].History = p.LegacyHistory
	}

	p.LegacyActivities = nil
	p.LegacyHistory = nil
	p.CurrentMonth = current
	return len(months)
}
