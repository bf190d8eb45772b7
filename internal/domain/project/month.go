package project

import (
	"context"
	"fmt"
	"time"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/report"
	"github.com/rpggio/timesheet-mcp/internal/events"
)

// MonthView is the activity list of a month with its totals.
type MonthView struct {
	MonthInfo
	Activities []activity.Activity  `json:"activities"`
	Totals     report.Totals        `json:"totals"`
	History    []report.ImportEntry `json:"history"`
	Clusters   map[string]string    `json:"clusters,omitempty"`
}

// MonthSummary groups a month by cluster.
type MonthSummary struct {
	MonthInfo
	Clusters []report.ClusterTotal `json:"by_cluster"`
	Totals   report.Totals         `json:"totals"`
}

// ImportRequest carries parsed rows for one month.
type ImportRequest struct {
	// Month defaults to the month of the first dated row, then to the current month.
	Month    string
	FileName string
	Rows     []activity.Original
}

// ImportResult reports the outcome of an import.
type ImportResult struct {
	Month            string              `json:"month"`
	Loaded           int                 `json:"loaded"`
	New              int                 `json:"new"`
	Duplicates       int                 `json:"duplicates"`
	NewCollaborators []string            `json:"new_collaborators,omitempty"`
	UnratedWarning   []string            `json:"unrated_collaborators,omitempty"`
	Activities       []activity.Activity `json:"activities"`
	Totals           report.Totals       `json:"totals"`
}

// Edit holds the changes to one activity. Field edits apply first, in display order,
// then DayEquivalents.
type Edit struct {
	Fields         map[activity.Field]string
	DayEquivalents *float64
}

// monthOp is an operation over the projected activities of an open month. It must store
// every activity it changes back into the report.
type monthOp func(p *Project, r *report.Report, acts []activity.Activity) error

// mutateMonth loads the project, gates on the month being open and applies fn.
func (s *Service) mutateMonth(ctx context.Context, id, month string, fn monthOp) (*Project, error) {
	return s.mutate(ctx, id, func(p *Project) error {
		r, err := p.Report(month)
		if err != nil {
			return err
		}
		if err := r.RequireOpen(); err != nil {
			return fmt.Errorf("%w: %s", err, month)
		}
		return fn(p, r, r.Activities(p.Billing()))
	})
}

// selectActivities resolves hashes against acts in request order, dropping repeats.
// Any unknown hash rejects the whole selection.
func selectActivities(acts []activity.Activity, hashes []string) ([]*activity.Activity, error) {
	if len(hashes) == 0 {
		return nil, ErrEmptySelection
	}
	byHash := make(map[string]*activity.Activity, len(acts))
	for i := range acts {
		byHash[acts[i].Hash] = &acts[i]
	}
	seen := make(map[string]struct{}, len(hashes))
	sel := make([]*activity.Activity, 0, len(hashes))
	for _, h := range hashes {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		a, ok := byHash[h]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrActivityNotFound, h)
		}
		sel = append(sel, a)
	}
	return sel, nil
}

func (s *Service) view(p *Project, month string) (*report.Report, MonthInfo, error) {
	r, err := p.Report(month)
	if err != nil {
		return nil, MonthInfo{}, err
	}
	return r, monthInfo(month, r, s.clock.Now()), nil
}

// MonthActivities returns the activities of a month sorted by date.
func (s *Service) MonthActivities(ctx context.Context, id, month string) (*MonthView, error) {
	proj, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	r, info, err := s.view(proj, month)
	if err != nil {
		return nil, err
	}
	acts := r.Activities(proj.Billing())
	return &MonthView{
		MonthInfo:  info,
		Activities: acts,
		Totals:     report.Sum(acts),
		History:    r.History,
		Clusters:   proj.ClusterNames(),
	}, nil
}

// MonthSummary groups the activities of a month by cluster.
func (s *Service) MonthSummary(ctx context.Context, id, month string) (*MonthSummary, error) {
	proj, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	r, info, err := s.view(proj, month)
	if err != nil {
		return nil, err
	}
	groups, totals := report.Summarize(r.Activities(proj.Billing()), proj.ClusterNames())
	return &MonthSummary{MonthInfo: info, Clusters: groups, Totals: totals}, nil
}

func importMonth(req ImportRequest, now time.Time) (string, error) {
	if req.Month != "" {
		if _, err := report.ParseMonth(req.Month); err != nil {
			return "", err
		}
		return req.Month, nil
	}
	for _, row := range req.Rows {
		if m, ok := report.MonthOf(row.Date); ok {
			return m, nil
		}
	}
	return report.MonthKey(now), nil
}

// Import reconciles parsed rows into a month, creating the month when needed. Unseen
// collaborators are registered with a zero rate.
func (s *Service) Import(ctx context.Context, id string, req ImportRequest) (*ImportResult, error) {
	now := s.clock.Now()
	month, err := importMonth(req, now)
	if err != nil {
		return nil, err
	}

	var res ImportResult
	_, err = s.mutate(ctx, id, func(p *Project) error {
		r, ok := p.Reports[month]
		if !ok {
			r = report.New()
		}
		batch, err := r.Reconcile(req.Rows, p.Billing(), req.FileName, now)
		if err != nil {
			return fmt.Errorf("%w: %s", err, month)
		}
		if p.Reports == nil {
			p.Reports = make(map[string]*report.Report)
		}
		p.Reports[month] = r
		p.CurrentMonth = month

		res = ImportResult{
			Month:            month,
			Loaded:           batch.Loaded,
			New:              batch.New,
			Duplicates:       batch.Duplicates,
			NewCollaborators: p.RegisterCollaborators(batch.Collaborators),
			Activities:       batch.Activities,
			Totals:           report.Sum(batch.Activities),
		}
		if p.Mode == activity.ModeCollaboratorRate {
			res.UnratedWarning = p.UnratedCollaborators(batch.Collaborators)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "activities imported",
		"project_id", id,
		"month", month,
		"loaded", res.Loaded,
		"new", res.New)
	s.publish(ctx, events.ImportCompleted, id, month, map[string]any{
		"file_name": req.FileName,
		"loaded":    res.Loaded,
		"new":       res.New,
	})
	return &res, nil
}

// AssignCluster sets the cluster of the selected activities. An empty clusterID
// unassigns them.
func (s *Service) AssignCluster(ctx context.Context, id, month string, hashes []string, clusterID string) (int, error) {
	var updated int
	_, err := s.mutateMonth(ctx, id, month, func(p *Project, r *report.Report, acts []activity.Activity) error {
		if clusterID != "" {
			if _, err := p.Cluster(clusterID); err != nil {
				return err
			}
		}
		sel, err := selectActivities(acts, hashes)
		if err != nil {
			return err
		}
		for _, a := range sel {
			a.ClusterID = clusterID
			r.Store(a)
		}
		updated = len(sel)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "cluster assigned", "project_id", id, "month", month, "cluster_id", clusterID, "count", updated)
	return updated, nil
}

// EditActivity applies field and quantity overrides to one activity.
func (s *Service) EditActivity(ctx context.Context, id, month, hash string, edit Edit) (*activity.Activity, error) {
	if len(edit.Fields) == 0 && edit.DayEquivalents == nil {
		return nil, fmt.Errorf("%w: nothing to edit", ErrInvalidInput)
	}
	for f := range edit.Fields {
		if !knownField(f) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
	}

	var edited activity.Activity
	_, err := s.mutateMonth(ctx, id, month, func(p *Project, r *report.Report, acts []activity.Activity) error {
		sel, err := selectActivities(acts, []string{hash})
		if err != nil {
			return err
		}
		a, b := sel[0], p.Billing()
		for _, f := range activity.Fields {
			v, ok := edit.Fields[f]
			if !ok {
				continue
			}
			if err := a.EditField(f, v, b); err != nil {
				return fmt.Errorf("editing %s: %w", f, err)
			}
		}
		if edit.DayEquivalents != nil {
			if err := a.SetDayEquivalents(*edit.DayEquivalents, b); err != nil {
				return err
			}
		}
		r.Store(a)
		edited = *a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "activity edited", "project_id", id, "month", month, "hash", hash)
	return &edited, nil
}

func knownField(f activity.Field) bool {
	for _, known := range activity.Fields {
		if f == known {
			return true
		}
	}
	return false
}

// Restore drops the overrides of the selected activities, or of every activity when
// all is set, and returns how many carried overrides.
func (s *Service) Restore(ctx context.Context, id, month string, hashes []string, all bool) (int, error) {
	var restored int
	_, err := s.mutateMonth(ctx, id, month, func(p *Project, r *report.Report, acts []activity.Activity) error {
		var sel []*activity.Activity
		if all {
			for i := range acts {
				sel = append(sel, &acts[i])
			}
		} else {
			var err error
			if sel, err = selectActivities(acts, hashes); err != nil {
				return err
			}
		}
		restored = activity.RestoreMany(sel, p.Billing())
		r.StoreAll(sel)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "activities restored", "project_id", id, "month", month, "count", restored)
	return restored, nil
}

type redistribution func(sel []*activity.Activity, b activity.Billing) (activity.Outcome, error)

func (s *Service) redistribute(ctx context.Context, op, id, month string, hashes []string, fn redistribution) (activity.Outcome, error) {
	var out activity.Outcome
	_, err := s.mutateMonth(ctx, id, month, func(p *Project, r *report.Report, acts []activity.Activity) error {
		sel, err := selectActivities(acts, hashes)
		if err != nil {
			return err
		}
		if out, err = fn(sel, p.Billing()); err != nil {
			return err
		}
		r.StoreAll(sel)
		return nil
	})
	if err != nil {
		return activity.Outcome{}, err
	}
	s.logger.InfoContext(ctx, op,
		"project_id", id,
		"month", month,
		"affected", out.Affected,
		"old_total", out.OldTotal,
		"new_total", out.NewTotal)
	return out, nil
}

// ApplyRounding scales the selection so its day-equivalents sum to target.
func (s *Service) ApplyRounding(ctx context.Context, id, month string, hashes []string, target float64) (activity.Outcome, error) {
	return s.redistribute(ctx, "rounding applied", id, month, hashes, func(sel []*activity.Activity, b activity.Billing) (activity.Outcome, error) {
		return activity.ApplyRounding(sel, target, b)
	})
}

// DistributeUniform splits total evenly across the selection.
func (s *Service) DistributeUniform(ctx context.Context, id, month string, hashes []string, total float64) (activity.Outcome, error) {
	return s.redistribute(ctx, "uniform distribution applied", id, month, hashes, func(sel []*activity.Activity, b activity.Billing) (activity.Outcome, error) {
		return activity.DistributeUniform(sel, total, b)
	})
}

// RedistributeExcess caps the selection at one day each and moves the surplus.
func (s *Service) RedistributeExcess(ctx context.Context, id, month string, hashes []string) (activity.Outcome, error) {
	return s.redistribute(ctx, "excess redistributed", id, month, hashes, activity.RedistributeExcess)
}

// CloseMonth closes a month. It fails when the month is empty or already closed.
func (s *Service) CloseMonth(ctx context.Context, id, month string) (MonthInfo, error) {
	now := s.clock.Now()
	var info MonthInfo
	_, err := s.mutate(ctx, id, func(p *Project) error {
		r, err := p.Report(month)
		if err != nil {
			return err
		}
		if err := r.Close(now); err != nil {
			return fmt.Errorf("%w: %s", err, month)
		}
		info = monthInfo(month, r, now)
		return nil
	})
	if err != nil {
		return MonthInfo{}, err
	}
	s.logger.InfoContext(ctx, "month closed", "project_id", id, "month", month, "activities", info.Activities)
	s.publish(ctx, events.MonthClosed, id, month, map[string]any{"activities": info.Activities})
	return info, nil
}

// ReopenMonth reopens a month. Reopening an open month succeeds without change.
func (s *Service) ReopenMonth(ctx context.Context, id, month string) (MonthInfo, error) {
	now := s.clock.Now()
	var (
		info      MonthInfo
		wasClosed bool
	)
	_, err := s.mutate(ctx, id, func(p *Project) error {
		r, err := p.Report(month)
		if err != nil {
			return err
		}
		wasClosed = r.Reopen()
		info = monthInfo(month, r, now)
		return nil
	})
	if err != nil {
		return MonthInfo{}, err
	}
	if wasClosed {
		s.logger.InfoContext(ctx, "month reopened", "project_id", id, "month", month)
		s.publish(ctx, events.MonthReopened, id, month, nil)
	}
	return info, nil
}
