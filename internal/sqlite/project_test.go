package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/rpggio/timesheet-mcp/internal/domain/report"
	"github.com/rpggio/timesheet-mcp/internal/repository"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleProject(id, name string) *project.Project {
	created := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	closed := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	jan := report.New()
	jan.Status = report.StatusClosed
	jan.ClosedAt = &closed
	jan.Records["act_a"] = activity.Record{
		Original: activity.Original{
			Client: "ACME", Task: "Consulting", Date: "12/01/2026", Collaborator: "Anna",
			ReasonCode: "C1", Description: "Audit", Duration: "8:00", Amount: 800,
		},
		ClusterID:              "cl_1",
		DayEquivalentsOverride: ptr(1.5),
		Overrides:              activity.FieldOverrides{Description: ptr("Audit (final)")},
	}
	jan.History = []report.ImportEntry{
		{Date: time.Date(2026, 1, 31, 18, 0, 0, 0, time.UTC), FileName: "jan-2.csv", Loaded: 1, New: 0},
		{Date: time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC), FileName: "jan-1.csv", Loaded: 1, New: 1},
	}

	feb := report.New()
	feb.Records["act_b"] = activity.Record{
		Original: activity.Original{Date: "03/02/2026", Collaborator: "Marco", Description: "Review", Duration: "2:00", Amount: 150},
	}

	return &project.Project{
		ID:                id,
		Name:              name,
		DailyRate:         400,
		HoursPerDay:       8,
		Mode:              activity.ModeCollaboratorRate,
		CollaboratorRates: map[string]float64{"Anna": 500, "Marco": 0},
		Clusters: []project.Cluster{
			{ID: "cl_2", Name: "Build", Color: "#00ff00"},
			{ID: "cl_1", Name: "Design", Color: "#ff0000"},
		},
		CurrentMonth: "2026-02",
		Reports:      map[string]*report.Report{"2026-01": jan, "2026-02": feb},
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestProjectRepository_SaveAndGet(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))
	ctx := context.Background()

	want := sampleProject("p1", "ACME")
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "ACME", got.Name)
	require.Equal(t, activity.ModeCollaboratorRate, got.Mode)
	require.Equal(t, want.CollaboratorRates, got.CollaboratorRates)
	require.Equal(t, want.Clusters, got.Clusters)
	require.Equal(t, "2026-02", got.CurrentMonth)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt))

	jan := got.Reports["2026-01"]
	require.Equal(t, report.StatusClosed, jan.Status)
	require.NotNil(t, jan.ClosedAt)
	require.True(t, want.Reports["2026-01"].ClosedAt.Equal(*jan.ClosedAt))
	require.Equal(t, want.Reports["2026-01"].Records, jan.Records)
	require.Len(t, jan.History, 2)
	require.Equal(t, "jan-2.csv", jan.History[0].FileName)
	require.Equal(t, 1, jan.History[1].New)

	feb := got.Reports["2026-02"]
	require.Equal(t, report.StatusOpen, feb.Status)
	require.Nil(t, feb.ClosedAt)
	rec := feb.Records["act_b"]
	require.Nil(t, rec.DayEquivalentsOverride)
	require.True(t, rec.Overrides.Empty())
	require.Empty(t, rec.ClusterID)
}

func TestProjectRepository_SaveReplaces(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))
	ctx := context.Background()

	p := sampleProject("p1", "ACME")
	require.NoError(t, repo.Save(ctx, p))

	p.Name = "ACME Srl"
	p.Clusters = p.Clusters[:1]
	delete(p.CollaboratorRates, "Marco")
	delete(p.Reports, "2026-02")
	p.Reports["2026-01"].Reopen()
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "ACME Srl", got.Name)
	require.Len(t, got.Clusters, 1)
	require.Equal(t, map[string]float64{"Anna": 500}, got.CollaboratorRates)
	require.Len(t, got.Reports, 1)
	require.Equal(t, report.StatusOpen, got.Reports["2026-01"].Status)
	require.Nil(t, got.Reports["2026-01"].ClosedAt)
}

func TestProjectRepository_GetReturnsCopy(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, sampleProject("p1", "ACME")))

	first, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	first.Reports["2026-02"].Records["act_b"] = activity.Record{}

	second, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Review", second.Reports["2026-02"].Records["act_b"].Original.Description)
}

func TestProjectRepository_List(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	require.NoError(t, repo.Save(ctx, sampleProject("p2", "beta")))
	require.NoError(t, repo.Save(ctx, sampleProject("p1", "Alpha")))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Alpha", list[0].Name)
	require.Equal(t, "beta", list[1].Name)
	require.Len(t, list[1].Reports, 2)
}

func TestProjectRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, sampleProject("p1", "ACME")))

	require.NoError(t, repo.Delete(ctx, "p1"))
	_, err := repo.Get(ctx, "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "p1"), repository.ErrNotFound)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM activities`).Scan(&n))
	require.Zero(t, n)
}

func TestProjectRepository_WithService(t *testing.T) {
	repo := NewProjectRepository(NewTestDB(t))
	ctx := context.Background()
	svc := project.NewService(repo, nil, nil, nil)

	p, err := svc.Create(ctx, project.CreateRequest{Name: "ACME", DailyRate: 400})
	require.NoError(t, err)

	res, err := svc.Import(ctx, p.ID, project.ImportRequest{
		FileName: "feb.csv",
		Rows: []activity.Original{
			{Date: "02/02/2026", Collaborator: "Anna", Description: "Audit", Duration: "8:00", Amount: 800},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "2026-02", res.Month)
	require.Equal(t, 1, res.New)

	view, err := svc.MonthActivities(ctx, p.ID, "2026-02")
	require.NoError(t, err)
	require.Len(t, view.Activities, 1)
	require.Equal(t, 2.0, view.Activities[0].DayEquivalents)
}
