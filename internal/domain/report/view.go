package report

import (
	"sort"
	"strings"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
)

// Activities projects every stored record into an activity, sorted by date.
func (r *Report) Activities(b activity.Billing) []activity.Activity {
	acts := make([]activity.Activity, 0, len(r.Records))
	for hash, rec := range r.Records {
		acts = append(acts, activity.FromRecord(hash, rec, b))
	}
	SortByDate(acts)
	return acts
}

// Store persists the current state of a into the report.
func (r *Report) Store(a *activity.Activity) {
	r.Records[a.Hash] = a.Record()
}

// StoreAll persists every activity of acts.
func (r *Report) StoreAll(acts []*activity.Activity) {
	for _, a := range acts {
		r.Store(a)
	}
}

// SortByDate orders activities by their current date. Unparsable dates sort first and
// ties fall back to the hash.
func SortByDate(acts []activity.Activity) {
	keys := make(map[string]int64, len(acts))
	for i := range acts {
		if t, ok := ParseDate(acts[i].Value(activity.FieldDate)); ok {
			keys[acts[i].Hash] = t.Unix()
		}
	}
	sort.SliceStable(acts, func(i, j int) bool {
		ki, kj := keys[acts[i].Hash], keys[acts[j].Hash]
		if ki != kj {
			return ki < kj
		}
		return acts[i].Hash < acts[j].Hash
	})
}

// Totals aggregates a set of activities.
type Totals struct {
	Count          int     `json:"count"`
	DayEquivalents float64 `json:"day_equivalents"`
	Hours          float64 `json:"hours"`
	BillableAmount float64 `json:"billable_amount"`
	Modified       int     `json:"modified"`
	RateErrors     int     `json:"rate_errors"`
}

func (t *Totals) add(a *activity.Activity) {
	t.Count++
	t.DayEquivalents += a.DayEquivalents
	t.Hours += a.Hours
	t.BillableAmount += a.BillableAmount
	if a.IsModified {
		t.Modified++
	}
	if a.HasRateError {
		t.RateErrors++
	}
}

func (t Totals) rounded() Totals {
	t.DayEquivalents = Round2(t.DayEquivalents)
	t.Hours = Round2(t.Hours)
	t.BillableAmount = Round2(t.BillableAmount)
	return t
}

// Sum totals acts, rounded to two decimals.
func Sum(acts []activity.Activity) Totals {
	var t Totals
	for i := range acts {
		t.add(&acts[i])
	}
	return t.rounded()
}

// UnassignedName labels the group of activities without a cluster.
const UnassignedName = "unassigned"

// ClusterTotal is the share of a month assigned to one cluster. An empty ClusterID
// groups the unassigned activities.
type ClusterTotal struct {
	ClusterID string `json:"cluster_id"`
	Name      string `json:"name"`
	Totals
}

// Summarize groups acts by cluster. Groups are ordered by cluster name, unknown cluster
// ids are named after the id and the unassigned group comes last.
func Summarize(acts []activity.Activity, names map[string]string) ([]ClusterTotal, Totals) {
	groups := make(map[string]*Totals)
	var all Totals
	for i := range acts {
		a := &acts[i]
		g, ok := groups[a.ClusterID]
		if !ok {
			g = &Totals{}
			groups[a.ClusterID] = g
		}
		g.add(a)
		all.add(a)
	}

	out := make([]ClusterTotal, 0, len(groups))
	for id, g := range groups {
		name := names[id]
		switch {
		case id == "":
			name = UnassignedName
		case name == "":
			name = id
		}
		out = append(out, ClusterTotal{ClusterID: id, Name: name, Totals: g.rounded()})
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].ClusterID == "") != (out[j].ClusterID == "") {
			return out[j].ClusterID == ""
		}
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ClusterID < out[j].ClusterID
	})
	return out, all.rounded()
}
