package report_test

import (
	"testing"
	"time"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/report"
	"github.com/stretchr/testify/require"
)

var billing = activity.Billing{DailyRate: 400, HoursPerDay: 8, Mode: activity.ModeRate}

func row(date, collab, desc string, amount float64) activity.Original {
	return activity.Original{
		Client:       "ACME",
		Task:         "Consulting",
		Date:         date,
		Collaborator: collab,
		Description:  desc,
		Duration:     "8:00",
		Amount:       amount,
	}
}

func TestValidateTransition(t *testing.T) {
	require.NoError(t, report.ValidateTransition(report.StatusOpen, report.StatusClosed, 1))
	require.ErrorIs(t, report.ValidateTransition(report.StatusOpen, report.StatusClosed, 0), report.ErrMonthEmpty)
	require.ErrorIs(t, report.ValidateTransition(report.StatusClosed, report.StatusClosed, 3), report.ErrAlreadyClosed)
	require.NoError(t, report.ValidateTransition(report.StatusClosed, report.StatusOpen, 0))
	require.NoError(t, report.ValidateTransition(report.StatusOpen, report.StatusOpen, 0))
	require.ErrorIs(t, report.ValidateTransition("archived", report.StatusOpen, 0), report.ErrInvalidTransition)
}

func TestCloseAndReopen(t *testing.T) {
	r := report.New()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.ErrorIs(t, r.Close(now), report.ErrMonthEmpty)
	require.False(t, r.IsClosed())

	_, err := r.Reconcile([]activity.Original{row("01/02/2026", "Anna", "Audit", 400)}, billing, "feb.csv", now)
	require.NoError(t, err)

	require.NoError(t, r.Close(now))
	require.True(t, r.IsClosed())
	require.Equal(t, now, *r.ClosedAt)
	require.ErrorIs(t, r.Close(now), report.ErrAlreadyClosed)
	require.ErrorIs(t, r.RequireOpen(), report.ErrMonthClosed)

	require.True(t, r.Reopen())
	require.Nil(t, r.ClosedAt)
	require.False(t, r.Reopen())
	require.NoError(t, r.RequireOpen())
}

func TestReconcile_NewAndExisting(t *testing.T) {
	r := report.New()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	first := []activity.Original{
		row("02/02/2026", "Anna", "Audit", 400),
		row("01/02/2026", "Marco", "Review", 200),
	}

	batch, err := r.Reconcile(first, billing, "feb.csv", now)
	require.NoError(t, err)
	require.Equal(t, 2, batch.Loaded)
	require.Equal(t, 2, batch.New)
	require.Equal(t, "01/02/2026", batch.Activities[0].Original.Date)
	require.True(t, batch.Activities[0].IsNew)
	require.ElementsMatch(t, []string{"Anna", "Marco"}, batch.Collaborators)

	acts := r.Activities(billing)
	a := &acts[1]
	a.ClusterID = "cl_1"
	require.NoError(t, a.SetDayEquivalents(0.5, billing))
	r.Store(a)

	second := append(first, row("03/02/2026", "Anna", "Audit", 400))
	batch, err = r.Reconcile(second, billing, "feb-2.csv", now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 3, batch.Loaded)
	require.Equal(t, 1, batch.New)

	var kept *activity.Activity
	for i := range batch.Activities {
		if batch.Activities[i].Hash == a.Hash {
			kept = &batch.Activities[i]
		}
	}
	require.NotNil(t, kept)
	require.False(t, kept.IsNew)
	require.Equal(t, "cl_1", kept.ClusterID)
	require.InDelta(t, 0.5, kept.DayEquivalents, 1e-9)
	require.InDelta(t, 1.0, kept.Reference.DayEquivalents, 1e-9)

	require.Len(t, r.History, 2)
	require.Equal(t, "feb-2.csv", r.History[0].FileName)
	require.Equal(t, 1, r.History[0].New)
}

func TestReconcile_DuplicateRowsInBatch(t *testing.T) {
	r := report.New()
	rows := []activity.Original{
		row("01/02/2026", "Anna", "Audit", 400),
		row("01/02/2026", "Anna", "Audit", 400),
	}
	batch, err := r.Reconcile(rows, billing, "dup.csv", time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, batch.Loaded)
	require.Equal(t, 1, batch.New)
	require.Equal(t, 1, batch.Duplicates)
	require.Equal(t, 1, r.Len())
}

func TestReconcile_ClosedMonthUnchanged(t *testing.T) {
	r := report.New()
	now := time.Now()
	_, err := r.Reconcile([]activity.Original{row("01/02/2026", "Anna", "Audit", 400)}, billing, "a.csv", now)
	require.NoError(t, err)
	require.NoError(t, r.Close(now))

	_, err = r.Reconcile([]activity.Original{row("02/02/2026", "Anna", "Audit", 400)}, billing, "b.csv", now)
	require.ErrorIs(t, err, report.ErrMonthClosed)
	require.Equal(t, 1, r.Len())
	require.Len(t, r.History, 1)
}

func TestReconcile_HistoryCapped(t *testing.T) {
	r := report.New()
	for i := 0; i < report.MaxHistory+5; i++ {
		_, err := r.Reconcile(nil, billing, "empty.csv", time.Now())
		require.NoError(t, err)
	}
	require.Len(t, r.History, report.MaxHistory)
}

func TestMonthHelpers(t *testing.T) {
	key, ok := report.MonthOf("15/01/2026")
	require.True(t, ok)
	require.Equal(t, "2026-01", key)

	_, ok = report.MonthOf("2026-01-15")
	require.False(t, ok)

	prev, err := report.Previous("2026-01")
	require.NoError(t, err)
	require.Equal(t, "2025-12", prev)

	next, err := report.Next("2025-12")
	require.NoError(t, err)
	require.Equal(t, "2026-01", next)

	_, err = report.Next("2025-13")
	require.ErrorIs(t, err, report.ErrInvalidMonth)

	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	require.True(t, report.IsPast("2026-01", now))
	require.False(t, report.IsPast("2026-02", now))
	require.False(t, report.IsPast("bogus", now))
}

func TestSummarize(t *testing.T) {
	acts := []activity.Activity{
		{Hash: "a", ClusterID: "cl_2", DayEquivalents: 0.333, BillableAmount: 133.2},
		{Hash: "b", ClusterID: "cl_1", DayEquivalents: 1, BillableAmount: 400},
		{Hash: "c", DayEquivalents: 0.5, BillableAmount: 200},
		{Hash: "d", ClusterID: "cl_2", DayEquivalents: 0.333, BillableAmount: 133.2},
		{Hash: "e", ClusterID: "cl_gone", DayEquivalents: 0.25, BillableAmount: 100},
	}
	groups, total := report.Summarize(acts, map[string]string{"cl_1": "Design", "cl_2": "Build"})

	require.Len(t, groups, 4)
	require.Equal(t, "Build", groups[0].Name)
	require.Equal(t, 2, groups[0].Count)
	require.Equal(t, 0.67, groups[0].DayEquivalents)
	require.Equal(t, "cl_gone", groups[1].Name)
	require.Equal(t, "Design", groups[2].Name)
	require.Equal(t, "", groups[3].ClusterID)
	require.Equal(t, report.UnassignedName, groups[3].Name)

	require.Equal(t, 5, total.Count)
	require.Equal(t, 2.42, total.DayEquivalents)
	require.Equal(t, 966.4, total.BillableAmount)
}

func TestRound2(t *testing.T) {
	require.Equal(t, 1.01, report.Round2(1.005))
	require.Equal(t, -0.13, report.Round2(-0.125))
	require.Equal(t, 0.0, report.Round2(0.001))
}
