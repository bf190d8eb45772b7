package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/project"
	"github.com/rpggio/timesheet-mcp/internal/domain/report"
	"github.com/rpggio/timesheet-mcp/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite. A project is spread over
// normalized tables and rewritten as a whole inside one transaction on Save.
type ProjectRepository struct {
	db *DB
}

var _ project.Repository = (*ProjectRepository)(nil)

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// List returns every project ordered by name
func (r *ProjectRepository) List(ctx context.Context) ([]*project.Project, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM projects ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	out := make([]*project.Project, 0, len(ids))
	for _, id := range ids {
		p, err := load(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	return load(ctx, r.db, id)
}

func load(ctx context.Context, q querier, id string) (*project.Project, error) {
	var (
		p    project.Project
		mode string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, name, daily_rate, hours_per_day, mode, current_month, created_at, updated_at
		FROM projects
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.DailyRate, &p.HoursPerDay, &mode, &p.CurrentMonth, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	p.Mode = activity.Mode(mode)

	if err := loadRates(ctx, q, &p); err != nil {
		return nil, err
	}
	if err := loadClusters(ctx, q, &p); err != nil {
		return nil, err
	}
	if err := loadReports(ctx, q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func loadRates(ctx context.Context, q querier, p *project.Project) error {
	rows, err := q.QueryContext(ctx, `SELECT collaborator, rate FROM collaborator_rates WHERE project_id = ?`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to get collaborator rates: %w", err)
	}
	defer rows.Close()

	p.CollaboratorRates = make(map[string]float64)
	for rows.Next() {
		var (
			name string
			rate float64
		)
		if err := rows.Scan(&name, &rate); err != nil {
			return fmt.Errorf("failed to scan collaborator rate: %w", err)
		}
		p.CollaboratorRates[name] = rate
	}
	return rows.Err()
}

func loadClusters(ctx context.Context, q querier, p *project.Project) error {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, color FROM clusters WHERE project_id = ? ORDER BY position
	`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to get clusters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c project.Cluster
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return fmt.Errorf("failed to scan cluster: %w", err)
		}
		p.Clusters = append(p.Clusters, c)
	}
	return rows.Err()
}

func loadReports(ctx context.Context, q querier, p *project.Project) error {
	p.Reports = make(map[string]*report.Report)

	rows, err := q.QueryContext(ctx, `
		SELECT month, status, closed_at FROM monthly_reports WHERE project_id = ?
	`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to get monthly reports: %w", err)
	}
	for rows.Next() {
		var (
			month, status string
			closedAt      sql.NullTime
		)
		if err := rows.Scan(&month, &status, &closedAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan monthly report: %w", err)
		}
		rep := report.New()
		rep.Status = report.Status(status)
		if closedAt.Valid {
			t := closedAt.Time
			rep.ClosedAt = &t
		}
		p.Reports[month] = rep
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating monthly reports: %w", err)
	}

	if err := loadActivities(ctx, q, p); err != nil {
		return err
	}
	return loadHistory(ctx, q, p)
}

func loadActivities(ctx context.Context, q querier, p *project.Project) error {
	rows, err := q.QueryContext(ctx, `
		SELECT month, hash, client, task, date, collaborator, reason_code, description, duration, amount,
			cluster_id, day_equivalents_override,
			date_override, task_override, collaborator_override, description_override, duration_override
		FROM activities
		WHERE project_id = ?
	`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to get activities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			month, hash string
			rec         activity.Record
			days        sql.NullFloat64
			ov          [5]sql.NullString
		)
		o := &rec.Original
		err := rows.Scan(
			&month, &hash,
			&o.Client, &o.Task, &o.Date, &o.Collaborator, &o.ReasonCode, &o.Description, &o.Duration, &o.Amount,
			&rec.ClusterID, &days,
			&ov[0], &ov[1], &ov[2], &ov[3], &ov[4],
		)
		if err != nil {
			return fmt.Errorf("failed to scan activity: %w", err)
		}
		if days.Valid {
			d := days.Float64
			rec.DayEquivalentsOverride = &d
		}
		rec.Overrides = activity.FieldOverrides{
			Date:         fromNull(ov[0]),
			Task:         fromNull(ov[1]),
			Collaborator: fromNull(ov[2]),
			Description:  fromNull(ov[3]),
			Duration:     fromNull(ov[4]),
		}
		rep, ok := p.Reports[month]
		if !ok {
			continue
		}
		rep.Records[hash] = rec
	}
	return rows.Err()
}

func loadHistory(ctx context.Context, q querier, p *project.Project) error {
	rows, err := q.QueryContext(ctx, `
		SELECT month, imported_at, file_name, loaded_count, new_count
		FROM import_history
		WHERE project_id = ?
		ORDER BY month, position
	`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to get import history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			month string
			e     report.ImportEntry
		)
		if err := rows.Scan(&month, &e.Date, &e.FileName, &e.Loaded, &e.New); err != nil {
			return fmt.Errorf("failed to scan import history: %w", err)
		}
		if rep, ok := p.Reports[month]; ok {
			rep.History = append(rep.History, e)
		}
	}
	return rows.Err()
}

// Save replaces the stored project with p
func (r *ProjectRepository) Save(ctx context.Context, p *project.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, daily_rate, hours_per_day, mode, current_month, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			daily_rate = excluded.daily_rate,
			hours_per_day = excluded.hours_per_day,
			mode = excluded.mode,
			current_month = excluded.current_month,
			updated_at = excluded.updated_at
	`, p.ID, p.Name, p.DailyRate, p.HoursPerDay, string(p.Mode), p.CurrentMonth, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	if err := deleteChildren(ctx, tx, p.ID); err != nil {
		return err
	}

	for name, rate := range p.CollaboratorRates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collaborator_rates (project_id, collaborator, rate) VALUES (?, ?, ?)`,
			p.ID, name, rate); err != nil {
			return fmt.Errorf("failed to save collaborator rate: %w", err)
		}
	}

	for i, c := range p.Clusters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clusters (project_id, id, name, color, position) VALUES (?, ?, ?, ?, ?)`,
			p.ID, c.ID, c.Name, c.Color, i); err != nil {
			return fmt.Errorf("failed to save cluster: %w", err)
		}
	}

	for month, rep := range p.Reports {
		if err := saveReport(ctx, tx, p.ID, month, rep); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func saveReport(ctx context.Context, tx *sql.Tx, projectID, month string, rep *report.Report) error {
	var closedAt any
	if rep.ClosedAt != nil {
		closedAt = rep.ClosedAt.UTC()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO monthly_reports (project_id, month, status, closed_at) VALUES (?, ?, ?, ?)`,
		projectID, month, string(rep.Status), closedAt); err != nil {
		return fmt.Errorf("failed to save monthly report %s: %w", month, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activities (
			project_id, month, hash, client, task, date, collaborator, reason_code, description, duration, amount,
			cluster_id, day_equivalents_override,
			date_override, task_override, collaborator_override, description_override, duration_override
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare activity insert: %w", err)
	}
	defer stmt.Close()

	for hash, rec := range rep.Records {
		o := rec.Original
		var days any
		if rec.DayEquivalentsOverride != nil {
			days = *rec.DayEquivalentsOverride
		}
		_, err := stmt.ExecContext(ctx,
			projectID, month, hash, o.Client, o.Task, o.Date, o.Collaborator, o.ReasonCode, o.Description, o.Duration, o.Amount,
			rec.ClusterID, days,
			toNull(rec.Overrides.Date), toNull(rec.Overrides.Task), toNull(rec.Overrides.Collaborator),
			toNull(rec.Overrides.Description), toNull(rec.Overrides.Duration),
		)
		if err != nil {
			return fmt.Errorf("failed to save activity %s: %w", hash, err)
		}
	}

	for i, e := range rep.History {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO import_history (project_id, month, position, imported_at, file_name, loaded_count, new_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, projectID, month, i, e.Date.UTC(), e.FileName, e.Loaded, e.New); err != nil {
			return fmt.Errorf("failed to save import history: %w", err)
		}
	}
	return nil
}

func deleteChildren(ctx context.Context, tx *sql.Tx, projectID string) error {
	for _, table := range []string{"import_history", "activities", "monthly_reports", "clusters", "collaborator_rates"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE project_id = ?", projectID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Delete removes a project and everything it owns
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteChildren(ctx, tx, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit()
}

func toNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
