package project_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/timesheet-mcp/internal/clock"
	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/rpggio/timesheet-mcp/internal/domain/report"
	"github.com/rpggio/timesheet-mcp/internal/events"
	"github.com/rpggio/timesheet-mcp/internal/repository"
	"github.com/rpggio/timesheet-mcp/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

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

var febRows = []activity.Original{
	row("02/02/2026", "Anna", "Audit", 800),
	row("03/02/2026", "Marco", "Review", 200),
	row("04/02/2026", "Anna", "Report", 400),
}

// seeded returns a project with February imported.
func seeded(t *testing.T) *project.Project {
	t.Helper()
	p := &project.Project{
		ID:                "proj1",
		Name:              "ACME",
		DailyRate:         400,
		HoursPerDay:       8,
		Mode:              activity.ModeRate,
		CollaboratorRates: map[string]float64{},
		Reports:           map[string]*report.Report{"2026-02": report.New()},
	}
	_, err := p.Reports["2026-02"].Reconcile(febRows, p.Billing(), "feb.csv", now)
	require.NoError(t, err)
	return p
}

func newService(repo *mocks.ProjectRepository, pub *mocks.Publisher) *project.Service {
	var publisher project.Publisher
	if pub != nil {
		publisher = pub
	}
	return project.NewService(repo, publisher, &clock.Fixed{At: now}, nil)
}

func hashes(rows ...activity.Original) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = activity.Hash(r)
	}
	return out
}

func TestService_Create_Defaults(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	pub := &mocks.Publisher{}
	repo.On("Save", ctx, mock.Anything).Return(nil)
	pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.ProjectCreated
	})).Return(nil)

	svc := newService(repo, pub)
	proj, err := svc.Create(ctx, project.CreateRequest{Name: "  ACME  "})
	require.NoError(t, err)
	require.Equal(t, "ACME", proj.Name)
	require.NotEmpty(t, proj.ID)
	require.Equal(t, float64(project.DefaultDailyRate), proj.DailyRate)
	require.Equal(t, float64(activity.DefaultHoursPerDay), proj.HoursPerDay)
	require.Equal(t, activity.ModeRate, proj.Mode)
	require.Equal(t, "2026-03", proj.CurrentMonth)
	pub.AssertExpectations(t)
}

func TestService_Create_Invalid(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	svc := newService(repo, nil)

	_, err := svc.Create(ctx, project.CreateRequest{Name: ""})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	_, err = svc.Create(ctx, project.CreateRequest{Name: "x", DailyRate: -1})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	_, err = svc.Create(ctx, project.CreateRequest{Name: "x", Mode: "daily"})
	require.ErrorIs(t, err, project.ErrInvalidMode)

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_Create_DuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "proj1").Return(seeded(t), nil)

	_, err := newService(repo, nil).Create(ctx, project.CreateRequest{ID: "proj1", Name: "Again"})
	require.ErrorIs(t, err, project.ErrProjectExists)
}

func TestService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)

	_, err := newService(repo, nil).Get(ctx, "missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestService_List_SortedWithStats(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	b := seeded(t)
	b.Name = "beta"
	a := &project.Project{ID: "p2", Name: "Alpha"}
	repo.On("List", ctx).Return([]*project.Project{b, a}, nil)

	list, err := newService(repo, nil).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Alpha", list[0].Name)
	require.Equal(t, activity.ModeRate, list[0].Mode)
	require.Equal(t, 1, list[1].TotalMonths)
	require.Equal(t, 3, list[1].TotalActivities)
}

func TestService_MonthActivities(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "proj1").Return(seeded(t), nil)

	view, err := newService(repo, nil).MonthActivities(ctx, "proj1", "2026-02")
	require.NoError(t, err)
	require.Len(t, view.Activities, 3)
	require.Equal(t, "02/02/2026", view.Activities[0].Original.Date)
	require.Equal(t, 3.5, view.Totals.DayEquivalents)
	require.Equal(t, 1400.0, view.Totals.BillableAmount)
	require.True(t, view.PastMonthOpen)
	require.Len(t, view.History, 1)

	_, err = newService(repo, nil).MonthActivities(ctx, "proj1", "2026-01")
	require.ErrorIs(t, err, project.ErrMonthNotFound)

	_, err = newService(repo, nil).MonthActivities(ctx, "proj1", "Feb")
	require.ErrorIs(t, err, project.ErrInvalidMonth)
}

func TestService_Import_ReimportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	pub := &mocks.Publisher{}
	p := seeded(t)
	p.Clusters = []project.Cluster{{ID: "cl_1", Name: "Design"}}
	repo.On("Get", ctx, "proj1").Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)
	pub.On("Publish", ctx, mock.Anything).Return(nil)
	svc := newService(repo, pub)

	_, err := svc.AssignCluster(ctx, "proj1", "2026-02", hashes(febRows[0]), "cl_1")
	require.NoError(t, err)

	res, err := svc.Import(ctx, "proj1", project.ImportRequest{FileName: "feb-2.csv", Rows: febRows})
	require.NoError(t, err)
	require.Equal(t, "2026-02", res.Month)
	require.Equal(t, 3, res.Loaded)
	require.Equal(t, 0, res.New)
	for _, a := range res.Activities {
		require.False(t, a.IsNew)
		if a.Hash == activity.Hash(febRows[0]) {
			require.Equal(t, "cl_1", a.ClusterID)
		}
	}
	require.ElementsMatch(t, []string{"Anna", "Marco"}, res.NewCollaborators)
	require.Equal(t, 0.0, p.CollaboratorRates["Anna"])
	require.Len(t, p.Reports["2026-02"].History, 2)
}

func TestService_Import_NewMonthAndRateWarnings(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	p := seeded(t)
	p.Mode = activity.ModeCollaboratorRate
	p.CollaboratorRates = map[string]float64{"Anna": 500}
	repo.On("Get", ctx, "proj1").Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)

	rows := []activity.Original{
		row("", "Nobody", "no date", 0),
		row("05/03/2026", "Anna", "Audit", 500),
		row("06/03/2026", "Luca", "Setup", 300),
	}
	res, err := newService(repo, nil).Import(ctx, "proj1", project.ImportRequest{Rows: rows})
	require.NoError(t, err)
	require.Equal(t, "2026-03", res.Month)
	require.Equal(t, "2026-03", p.CurrentMonth)
	require.Contains(t, res.UnratedWarning, "Luca")
	require.NotContains(t, res.UnratedWarning, "Anna")

	for _, a := range res.Activities {
		switch a.Collaborator() {
		case "Anna":
			require.InDelta(t, 1.0, a.DayEquivalents, 1e-9)
			require.False(t, a.HasRateError)
		case "Luca":
			require.Equal(t, 0.0, a.DayEquivalents)
			require.True(t, a.HasRateError)
		}
	}
}

func TestService_ClosedMonthRejectsMutations(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	p := seeded(t)
	require.NoError(t, p.Reports["2026-02"].Close(now))
	p.Clusters = []project.Cluster{{ID: "cl_1", Name: "Design"}}
	repo.On("Get", ctx, "proj1").Return(p, nil)
	svc := newService(repo, nil)
	all := hashes(febRows...)
	one := 1.0

	_, err := svc.AssignCluster(ctx, "proj1", "2026-02", all, "cl_1")
	require.ErrorIs(t, err, project.ErrMonthClosed)
	_, err = svc.EditActivity(ctx, "proj1", "2026-02", all[0], project.Edit{DayEquivalents: &one})
	require.ErrorIs(t, err, project.ErrMonthClosed)
	_, err = svc.Restore(ctx, "proj1", "2026-02", nil, true)
	require.ErrorIs(t, err, project.ErrMonthClosed)
	_, err = svc.ApplyRounding(ctx, "proj1", "2026-02", all, 4)
	require.ErrorIs(t, err, project.ErrMonthClosed)
	_, err = svc.DistributeUniform(ctx, "proj1", "2026-02", all, 3)
	require.ErrorIs(t, err, project.ErrMonthClosed)
	_, err = svc.RedistributeExcess(ctx, "proj1", "2026-02", all)
	require.ErrorIs(t, err, project.ErrMonthClosed)
	_, err = svc.Import(ctx, "proj1", project.ImportRequest{Rows: febRows})
	require.ErrorIs(t, err, project.ErrMonthClosed)
	_, err = svc.CloseMonth(ctx, "proj1", "2026-02")
	require.ErrorIs(t, err, project.ErrMonthAlreadyClosed)

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	for _, rec := range p.Reports["2026-02"].Records {
		require.False(t, rec.Modified())
		require.Empty(t, rec.ClusterID)
	}
}

func TestService_CloseAndReopen(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	pub := &mocks.Publisher{}
	p := seeded(t)
	p.Reports["2026-01"] = report.New()
	repo.On("Get", ctx, "proj1").Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)
	pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.MonthClosed && e.Month == "2026-02"
	})).Return(errors.New("broker down")).Once()
	pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.MonthReopened
	})).Return(nil).Once()
	svc := newService(repo, pub)

	_, err := svc.CloseMonth(ctx, "proj1", "2026-01")
	require.ErrorIs(t, err, project.ErrMonthEmpty)

	info, err := svc.CloseMonth(ctx, "proj1", "2026-02")
	require.NoError(t, err)
	require.Equal(t, report.StatusClosed, info.Status)
	require.Equal(t, now, *info.ClosedAt)
	require.False(t, info.PastMonthOpen)

	info, err = svc.ReopenMonth(ctx, "proj1", "2026-02")
	require.NoError(t, err)
	require.Equal(t, report.StatusOpen, info.Status)
	require.Nil(t, info.ClosedAt)

	// already open: succeeds without a second event
	_, err = svc.ReopenMonth(ctx, "proj1", "2026-02")
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestService_ApplyRounding(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	p := seeded(t)
	repo.On("Get", ctx, "proj1").Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)
	svc := newService(repo, nil)

	out, err := svc.ApplyRounding(ctx, "proj1", "2026-02", hashes(febRows...), 4)
	require.NoError(t, err)
	require.Equal(t, 3, out.Affected)
	require.InDelta(t, 3.5, out.OldTotal, 1e-9)
	require.Equal(t, 4.0, out.NewTotal)

	view, err := svc.MonthActivities(ctx, "proj1", "2026-02")
	require.NoError(t, err)
	require.Equal(t, 4.0, view.Totals.DayEquivalents)
	for _, a := range view.Activities {
		require.True(t, a.IsModified)
		require.NotNil(t, a.Reference)
	}
}

func TestService_SelectionErrors(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "proj1").Return(seeded(t), nil)
	svc := newService(repo, nil)

	_, err := svc.ApplyRounding(ctx, "proj1", "2026-02", nil, 4)
	require.ErrorIs(t, err, project.ErrEmptySelection)

	_, err = svc.ApplyRounding(ctx, "proj1", "2026-02", []string{activity.Hash(febRows[0]), "act_nope"}, 4)
	require.ErrorIs(t, err, project.ErrActivityNotFound)

	_, err = svc.RedistributeExcess(ctx, "proj1", "2026-02", hashes(febRows[1], febRows[2]))
	require.ErrorIs(t, err, project.ErrNoExcess)

	_, err = svc.RedistributeExcess(ctx, "proj1", "2026-02", hashes(febRows[0]))
	require.ErrorIs(t, err, project.ErrNoRecipients)

	_, err = svc.AssignCluster(ctx, "proj1", "2026-02", hashes(febRows[0]), "cl_missing")
	require.ErrorIs(t, err, project.ErrClusterNotFound)

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestService_RedistributeExcess(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	p := seeded(t)
	repo.On("Get", ctx, "proj1").Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)
	svc := newService(repo, nil)

	// 2.0 + 0.5 + 1.0: one day of excess goes to the two recipients
	out, err := svc.RedistributeExcess(ctx, "proj1", "2026-02", hashes(febRows...))
	require.NoError(t, err)
	require.InDelta(t, out.OldTotal, out.NewTotal, 1e-9)

	acts := p.Reports["2026-02"].Activities(p.Billing())
	byHash := map[string]activity.Activity{}
	for _, a := range acts {
		byHash[a.Hash] = a
	}
	require.Equal(t, 1.0, byHash[activity.Hash(febRows[0])].DayEquivalents)
	require.InDelta(t, 0.5+1.0/3, byHash[activity.Hash(febRows[1])].DayEquivalents, 1e-9)
	require.InDelta(t, 1.0+2.0/3, byHash[activity.Hash(febRows[2])].DayEquivalents, 1e-9)
}

func TestService_EditAndRestore(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	p := seeded(t)
	repo.On("Get", ctx, "proj1").Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)
	svc := newService(repo, nil)
	hash := activity.Hash(febRows[2])

	a, err := svc.EditActivity(ctx, "proj1", "2026-02", hash, project.Edit{
		Fields: map[activity.Field]string{
			activity.FieldDescription: "Final report",
			activity.FieldDuration:    "4:00",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Final report", a.Value(activity.FieldDescription))
	require.InDelta(t, 0.5, a.DayEquivalents, 1e-9)
	require.InDelta(t, 1.0, a.Reference.DayEquivalents, 1e-9)
	require.Equal(t, hash, a.Hash)

	_, err = svc.EditActivity(ctx, "proj1", "2026-02", hash, project.Edit{
		Fields: map[activity.Field]string{"amount": "1"},
	})
	require.ErrorIs(t, err, project.ErrUnknownField)

	n, err := svc.Restore(ctx, "proj1", "2026-02", nil, true)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	view, err := svc.MonthActivities(ctx, "proj1", "2026-02")
	require.NoError(t, err)
	for _, act := range view.Activities {
		require.False(t, act.IsModified)
		if act.Hash == hash {
			require.Equal(t, "Report", act.Value(activity.FieldDescription))
			require.InDelta(t, 1.0, act.DayEquivalents, 1e-9)
		}
	}
}

func TestService_UpdateSettings_KeepsManualDays(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	p := seeded(t)
	repo.On("Get", ctx, "proj1").Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)
	svc := newService(repo, nil)
	hash := activity.Hash(febRows[0])
	days := 1.5

	_, err := svc.EditActivity(ctx, "proj1", "2026-02", hash, project.Edit{DayEquivalents: &days})
	require.NoError(t, err)

	rate := 800.0
	res, err := svc.UpdateSettings(ctx, "proj1", project.Settings{DailyRate: &rate})
	require.NoError(t, err)
	require.Equal(t, 3, res.Recalculated)

	for _, a := range p.Reports["2026-02"].Activities(p.Billing()) {
		if a.Hash == hash {
			require.Equal(t, 1.5, a.DayEquivalents)
			require.Equal(t, 1200.0, a.BillableAmount)
			require.InDelta(t, 1.0, a.Reference.DayEquivalents, 1e-9)
			continue
		}
		require.InDelta(t, a.Original.Amount/800, a.DayEquivalents, 1e-9)
	}

	_, err = svc.UpdateSettings(ctx, "proj1", project.Settings{})
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestService_Clusters(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	p := seeded(t)
	repo.On("Get", ctx, "proj1").Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)
	svc := newService(repo, nil)

	c, err := svc.CreateCluster(ctx, "proj1", "Design", "#ff0000")
	require.NoError(t, err)
	require.Equal(t, "cl_1773144000000", c.ID)

	_, err = svc.CreateCluster(ctx, "proj1", "design", "")
	require.ErrorIs(t, err, project.ErrDuplicateCluster)

	c2, err := svc.CreateCluster(ctx, "proj1", "Build", "")
	require.NoError(t, err)
	require.NotEqual(t, c.ID, c2.ID)
	require.Equal(t, project.DefaultClusterColor, c2.Color)

	name := "DESIGN"
	_, err = svc.UpdateCluster(ctx, "proj1", c2.ID, project.ClusterUpdate{Name: &name})
	require.ErrorIs(t, err, project.ErrDuplicateCluster)

	_, err = svc.AssignCluster(ctx, "proj1", "2026-02", hashes(febRows...), c.ID)
	require.NoError(t, err)

	n, err := svc.DeleteCluster(ctx, "proj1", c.ID)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Len(t, p.Clusters, 1)
}

func TestService_Rates(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	p := seeded(t)
	repo.On("Get", ctx, "proj1").Return(p, nil)
	repo.On("Save", ctx, p).Return(nil)
	svc := newService(repo, nil)

	require.NoError(t, svc.SetRate(ctx, "proj1", "Anna", 450))
	require.ErrorIs(t, svc.SetRate(ctx, "proj1", "Anna", -1), project.ErrInvalidInput)
	require.ErrorIs(t, svc.DeleteRate(ctx, "proj1", "Ghost"), project.ErrCollaboratorNotFound)

	rates, err := svc.Rates(ctx, "proj1")
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"Anna": 450}, rates)

	require.NoError(t, svc.DeleteRate(ctx, "proj1", "Anna"))
	require.Empty(t, p.CollaboratorRates)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, "proj1").Return(seeded(t), nil)
	repo.On("Delete", ctx, "proj1").Return(nil)

	require.NoError(t, newService(repo, nil).Delete(ctx, "proj1"))
	repo.AssertExpectations(t)
}
