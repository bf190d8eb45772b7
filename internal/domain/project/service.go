package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/timesheet-mcp/internal/clock"
	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/report"
	"github.com/rpggio/timesheet-mcp/internal/events"
	"github.com/rpggio/timesheet-mcp/internal/repository"
)

// Service loads a project, applies one operation to it and saves it back. A rejected
// operation returns before Save, so the stored project is left untouched.
type Service struct {
	repo      Repository
	publisher Publisher
	clock     clock.Clock
	logger    *slog.Logger
}

// NewService creates a new project service. Publisher, clock and logger may be nil.
func NewService(repo Repository, publisher Publisher, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, clock: clk, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	ID          string
	Name        string
	DailyRate   float64
	HoursPerDay float64
	Mode        activity.Mode
}

// SettingsResult reports a settings update.
type SettingsResult struct {
	Project      *Project `json:"project"`
	Recalculated int      `json:"recalculated"`
}

func (s *Service) load(ctx context.Context, id string) (*Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	proj, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	if n := proj.Migrate(s.clock.Now()); n > 0 {
		s.logger.InfoContext(ctx, "migrated legacy activities", "project_id", id, "months", n)
	}
	return proj, nil
}

func (s *Service) save(ctx context.Context, proj *Project) error {
	proj.UpdatedAt = s.clock.Now()
	if err := s.repo.Save(ctx, proj); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	return nil
}

// mutate applies fn to a freshly loaded project and saves it when fn succeeds.
func (s *Service) mutate(ctx context.Context, id string, fn func(p *Project) error) (*Project, error) {
	proj, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(proj); err != nil {
		s.logger.WarnContext(ctx, "operation rejected", "project_id", id, "error", err)
		return nil, err
	}
	if err := s.save(ctx, proj); err != nil {
		return nil, err
	}
	return proj, nil
}

func (s *Service) publish(ctx context.Context, t events.Type, projectID, month string, data map[string]any) {
	if s.publisher == nil {
		return
	}
	e := events.New(t, projectID, month, s.clock.Now(), data)
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "publishing event", "type", string(t), "project_id", projectID, "error", err)
	}
}

// List returns project summaries sorted by name.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	now := s.clock.Now()
	out := make([]Summary, 0, len(projects))
	for _, p := range projects {
		p.Migrate(now)
		out = append(out, p.Summary())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	return s.load(ctx, id)
}

// Months describes the months of a project, newest first.
func (s *Service) Months(ctx context.Context, id string) ([]MonthInfo, error) {
	proj, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return proj.MonthInfos(s.clock.Now()), nil
}

// Create creates a new project.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if req.DailyRate == 0 {
		req.DailyRate = DefaultDailyRate
	}
	if req.HoursPerDay == 0 {
		req.HoursPerDay = activity.DefaultHoursPerDay
	}
	if req.Mode == "" {
		req.Mode = activity.ModeRate
	}
	if err := ValidateSettings(Settings{DailyRate: &req.DailyRate, HoursPerDay: &req.HoursPerDay, Mode: &req.Mode}); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	} else if _, err := s.repo.Get(ctx, id); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, id)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("getting project: %w", err)
	}

	now := s.clock.Now()
	proj := &Project{
		ID:                id,
		Name:              strings.TrimSpace(req.Name),
		DailyRate:         req.DailyRate,
		HoursPerDay:       req.HoursPerDay,
		Mode:              req.Mode,
		CollaboratorRates: map[string]float64{},
		Clusters:          []Cluster{},
		CurrentMonth:      report.MonthKey(now),
		Reports:           map[string]*report.Report{},
		CreatedAt:         now,
	}
	if err := s.save(ctx, proj); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "project created", "project_id", id, "name", proj.Name)
	s.publish(ctx, events.ProjectCreated, id, "", map[string]any{"name": proj.Name})
	return proj, nil
}

// UpdateSettings changes name and billing settings. A billing change re-derives every
// month under the new configuration, keeping manual day-equivalents.
func (s *Service) UpdateSettings(ctx context.Context, id string, settings Settings) (*SettingsResult, error) {
	if settings.Empty() {
		return nil, fmt.Errorf("%w: no settings to update", ErrInvalidInput)
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	recalculated := 0
	proj, err := s.mutate(ctx, id, func(p *Project) error {
		before := p.Billing()
		p.Apply(settings)
		if !settings.BillingChanged() {
			return nil
		}
		after := p.Billing()
		for _, r := range p.Reports {
			acts := r.Activities(before)
			activity.RecalculateAll(acts, after)
			for i := range acts {
				r.Store(&acts[i])
			}
			recalculated += len(acts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "project settings updated", "project_id", id, "recalculated", recalculated)
	s.publish(ctx, events.SettingsChanged, id, "", map[string]any{
		"daily_rate":    proj.DailyRate,
		"hours_per_day": proj.HoursPerDay,
		"mode":          string(proj.Mode),
	})
	return &SettingsResult{Project: proj, Recalculated: recalculated}, nil
}

// Delete removes a project.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	s.logger.InfoContext(ctx, "project deleted", "project_id", id)
	s.publish(ctx, events.ProjectDeleted, id, "", nil)
	return nil
}

// CreateCluster adds a cluster to the project.
func (s *Service) CreateCluster(ctx context.Context, id, name, color string) (Cluster, error) {
	var created Cluster
	_, err := s.mutate(ctx, id, func(p *Project) error {
		c, err := p.AddCluster(name, color, s.clock.Now())
		created = c
		return err
	})
	if err != nil {
		return Cluster{}, err
	}
	s.logger.InfoContext(ctx, "cluster created", "project_id", id, "cluster_id", created.ID)
	return created, nil
}

// UpdateCluster renames or recolors a cluster.
func (s *Service) UpdateCluster(ctx context.Context, id, clusterID string, upd ClusterUpdate) (Cluster, error) {
	var updated Cluster
	_, err := s.mutate(ctx, id, func(p *Project) error {
		c, err := p.UpdateCluster(clusterID, upd)
		updated = c
		return err
	})
	if err != nil {
		return Cluster{}, err
	}
	return updated, nil
}

// DeleteCluster removes a cluster and returns how many activities it was assigned to.
func (s *Service) DeleteCluster(ctx context.Context, id, clusterID string) (int, error) {
	var unassigned int
	_, err := s.mutate(ctx, id, func(p *Project) error {
		n, err := p.RemoveCluster(clusterID)
		unassigned = n
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "cluster deleted", "project_id", id, "cluster_id", clusterID, "unassigned", unassigned)
	return unassigned, nil
}

// Rates returns the collaborator rate table.
func (s *Service) Rates(ctx context.Context, id string) (map[string]float64, error) {
	proj, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if proj.CollaboratorRates == nil {
		return map[string]float64{}, nil
	}
	return proj.CollaboratorRates, nil
}

// SetRate sets the daily rate of a collaborator.
func (s *Service) SetRate(ctx context.Context, id, name string, rate float64) error {
	_, err := s.mutate(ctx, id, func(p *Project) error {
		return p.SetRate(name, rate)
	})
	return err
}

// DeleteRate removes a collaborator from the rate table.
func (s *Service) DeleteRate(ctx context.Context, id, name string) error {
	_, err := s.mutate(ctx, id, func(p *Project) error {
		return p.DeleteRate(name)
	})
	return err
}
