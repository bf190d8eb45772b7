package file

import (
	"time"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/rpggio/timesheet-mcp/internal/domain/report"
)

// Document discriminators.
const (
	typeData    = "timesheet_data"
	typeProject = "timesheet_project"

	versionData    = 2
	versionProject = 3
)

// dataDocument is the single-file layout holding every project.
type dataDocument struct {
	Type     string        `json:"_type"`
	Version  int           `json:"_version"`
	Projects []projectJSON `json:"projects"`
}

// header is decoded first to pick the layout.
type header struct {
	Type    string `json:"_type"`
	Version int    `json:"_version"`
}

type projectJSON struct {
	Type              string                `json:"_type,omitempty"`
	Version           int                   `json:"_version,omitempty"`
	LastSaved         string                `json:"_lastSaved,omitempty"`
	ID                string                `json:"id"`
	Name              string                `json:"name"`
	FolderName        string                `json:"folderName,omitempty"`
	Tariffa           float64               `json:"tariffa"`
	OreGiornata       float64               `json:"oreGiornata"`
	CalcMode          string                `json:"calcMode,omitempty"`
	CollaboratorRates map[string]float64    `json:"collaboratorRates"`
	Clusters          []clusterJSON         `json:"clusters"`
	CurrentMonth      string                `json:"currentMonth,omitempty"`
	MonthlyReports    map[string]reportJSON `json:"monthlyReports"`
	Activities        map[string]recordJSON `json:"activities,omitempty"`
	History           []historyJSON         `json:"history,omitempty"`
	CreatedAt         string                `json:"createdAt,omitempty"`
	UpdatedAt         string                `json:"updatedAt,omitempty"`
}

type clusterJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type reportJSON struct {
	Status     string                `json:"status"`
	ClosedAt   string                `json:"closedAt,omitempty"`
	Activities map[string]recordJSON `json:"activities"`
	History    []historyJSON         `json:"history"`
}

type originalJSON struct {
	Cliente          string  `json:"Cliente"`
	Incarico         string  `json:"Incarico"`
	Data             string  `json:"Data"`
	Collaboratore    string  `json:"Collaboratore"`
	Causale          string  `json:"Causale"`
	Descrizione      string  `json:"Descrizione"`
	Tempo            string  `json:"Tempo"`
	ImportoOriginale float64 `json:"ImportoOriginale"`
}

type recordJSON struct {
	OriginalData       *originalJSON `json:"originalData,omitempty"`
	ClusterID          *string       `json:"clusterId"`
	GiornateModificate *float64      `json:"giornateModificate,omitempty"`
	Data               *string       `json:"Data,omitempty"`
	Incarico           *string       `json:"Incarico,omitempty"`
	Collaboratore      *string       `json:"Collaboratore,omitempty"`
	Descrizione        *string       `json:"Descrizione,omitempty"`
	Tempo              *string       `json:"Tempo,omitempty"`
}

type historyJSON struct {
	Date     string `json:"date"`
	FileName string `json:"fileName"`
	Loaded   int    `json:"loaded"`
	New      int    `json:"new"`
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func (d projectJSON) toDomain() *project.Project {
	p := &project.Project{
		ID:                d.ID,
		Name:              d.Name,
		DailyRate:         d.Tariffa,
		HoursPerDay:       d.OreGiornata,
		Mode:              activity.Mode(d.CalcMode),
		CollaboratorRates: d.CollaboratorRates,
		CurrentMonth:      d.CurrentMonth,
		Reports:           make(map[string]*report.Report, len(d.MonthlyReports)),
		CreatedAt:         parseTime(d.CreatedAt),
		UpdatedAt:         parseTime(d.UpdatedAt),
	}
	if p.CollaboratorRates == nil {
		p.CollaboratorRates = map[string]float64{}
	}
	for _, c := range d.Clusters {
		p.Clusters = append(p.Clusters, project.Cluster(c))
	}
	for month, r := range d.MonthlyReports {
		p.Reports[month] = r.toDomain()
	}
	for hash, rec := range d.Activities {
		if rec.OriginalData == nil {
			continue
		}
		if p.LegacyActivities == nil {
			p.LegacyActivities = make(map[string]activity.Record)
		}
		p.LegacyActivities[hash] = rec.toDomain()
	}
	p.LegacyHistory = historyToDomain(d.History)
	return p
}

func (d reportJSON) toDomain() *report.Report {
	r := report.New()
	if d.Status == string(report.StatusClosed) {
		r.Status = report.StatusClosed
	}
	if d.ClosedAt != "" {
		t := parseTime(d.ClosedAt)
		r.ClosedAt = &t
	}
	for hash, rec := range d.Activities {
		if rec.OriginalData == nil {
			continue
		}
		r.Records[hash] = rec.toDomain()
	}
	r.History = historyToDomain(d.History)
	return r
}

func (d recordJSON) toDomain() activity.Record {
	o := d.OriginalData
	rec := activity.Record{
		Original: activity.Original{
			Client:       o.Cliente,
			Task:         o.Incarico,
			Date:         o.Data,
			Collaborator: o.Collaboratore,
			ReasonCode:   o.Causale,
			Description:  o.Descrizione,
			Duration:     o.Tempo,
			Amount:       o.ImportoOriginale,
		},
		DayEquivalentsOverride: d.GiornateModificate,
		Overrides: activity.FieldOverrides{
			Date:         d.Data,
			Task:         d.Incarico,
			Collaborator: d.Collaboratore,
			Description:  d.Descrizione,
			Duration:     d.Tempo,
		},
	}
	if d.ClusterID != nil {
		rec.ClusterID = *d.ClusterID
	}
	return rec
}

func historyToDomain(in []historyJSON) []report.ImportEntry {
	if len(in) == 0 {
		return nil
	}
	out := make([]report.ImportEntry, len(in))
	for i, h := range in {
		out[i] = report.ImportEntry{Date: parseTime(h.Date), FileName: h.FileName, Loaded: h.Loaded, New: h.New}
	}
	return out
}

func historyFromDomain(in []report.ImportEntry) []historyJSON {
	out := make([]historyJSON, len(in))
	for i, h := range in {
		out[i] = historyJSON{Date: formatTime(h.Date), FileName: h.FileName, Loaded: h.Loaded, New: h.New}
	}
	return out
}

func fromDomain(p *project.Project, folder string) projectJSON {
	d := projectJSON{
		ID:                p.ID,
		Name:              p.Name,
		FolderName:        folder,
		Tariffa:           p.DailyRate,
		OreGiornata:       p.HoursPerDay,
		CalcMode:          string(p.Mode),
		CollaboratorRates: p.CollaboratorRates,
		Clusters:          make([]clusterJSON, 0, len(p.Clusters)),
		CurrentMonth:      p.CurrentMonth,
		MonthlyReports:    make(map[string]reportJSON, len(p.Reports)),
		CreatedAt:         formatTime(p.CreatedAt),
		UpdatedAt:         formatTime(p.UpdatedAt),
	}
	if d.CollaboratorRates == nil {
		d.CollaboratorRates = map[string]float64{}
	}
	for _, c := range p.Clusters {
		d.Clusters = append(d.Clusters, clusterJSON(c))
	}
	for month, r := range p.Reports {
		rj := reportJSON{
			Status:     string(r.Status),
			Activities: make(map[string]recordJSON, len(r.Records)),
			History:    historyFromDomain(r.History),
		}
		if r.ClosedAt != nil {
			rj.ClosedAt = formatTime(*r.ClosedAt)
		}
		for hash, rec := range r.Records {
			rj.Activities[hash] = recordFromDomain(rec)
		}
		d.MonthlyReports[month] = rj
	}
	return d
}

func recordFromDomain(rec activity.Record) recordJSON {
	o := rec.Original
	d := recordJSON{
		OriginalData: &originalJSON{
			Cliente:          o.Client,
			Incarico:         o.Task,
			Data:             o.Date,
			Collaboratore:    o.Collaborator,
			Causale:          o.ReasonCode,
			Descrizione:      o.Description,
			Tempo:            o.Duration,
			ImportoOriginale: o.Amount,
		},
		GiornateModificate: rec.DayEquivalentsOverride,
		Data:               rec.Overrides.Date,
		Incarico:           rec.Overrides.Task,
		Collaboratore:      rec.Overrides.Collaborator,
		Descrizione:        rec.Overrides.Description,
		Tempo:              rec.Overrides.Duration,
	}
	if rec.ClusterID != "" {
		id := rec.ClusterID
		d.ClusterID = &id
	}
	return d
}
