package report

import (
	"time"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
)

// Batch is the result of reconciling one import into a report.
type Batch struct {
	Activities []activity.Activity
	Loaded     int
	New        int
	Duplicates int
	// Collaborators lists the distinct collaborators of the batch in first-seen order.
	Collaborators []string
}

// Reconcile merges freshly parsed rows into the report. Rows whose hash is already known
// keep their stored original data, cluster and overrides; unknown rows are stored and
// flagged new. A row repeated within the same batch is counted once. The import is
// prepended to the history.
func (r *Report) Reconcile(rows []activity.Original, b activity.Billing, fileName string, now time.Time) (Batch, error) {
	if err := r.RequireOpen(); err != nil {
		return Batch{}, err
	}
	if r.Records == nil {
		r.Records = make(map[string]activity.Record)
	}

	var batch Batch
	inBatch := make(map[string]struct{}, len(rows))
	seenCollab := make(map[string]struct{})
	for _, row := range rows {
		hash := activity.Hash(row)
		if _, dup := inBatch[hash]; dup {
			batch.Duplicates++
			continue
		}
		inBatch[hash] = struct{}{}

		rec, exists := r.Records[hash]
		if !exists {
			rec = activity.Record{Original: row}
			r.Records[hash] = rec
			batch.New++
		}
		a := activity.FromRecord(hash, rec, b)
		a.IsNew = !exists
		batch.Activities = append(batch.Activities, a)

		if name := a.Collaborator(); name != "" {
			if _, ok := seenCollab[name]; !ok {
				seenCollab[name] = struct{}{}
				batch.Collaborators = append(batch.Collaborators, name)
			}
		}
	}
	batch.Loaded = len(batch.Activities)
	SortByDate(batch.Activities)

	r.record(ImportEntry{Date: now, FileName: fileName, Loaded: batch.Loaded, New: batch.New})
	return batch, nil
}

func (r *Report) record(e ImportEntry) {
	r.History = append([]ImportEntry{e}, r.History...)
	if len(r.History) > MaxHistory {
		r.History = r.History[:MaxHistory]
	}
}
