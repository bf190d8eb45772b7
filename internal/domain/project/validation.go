package project

import (
	"fmt"
	"math"
	"strings"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
	"github.com/rpggio/timesheet-mcp/internal/domain/report"
)

// Settings holds the optional billing and naming changes to a project.
type Settings struct {
	Name         *string
	DailyRate    *float64
	HoursPerDay  *float64
	Mode         *activity.Mode
	CurrentMonth *string
}

// Empty reports whether no setting is present.
func (s Settings) Empty() bool {
	return s.Name == nil && s.DailyRate == nil && s.HoursPerDay == nil && s.Mode == nil && s.CurrentMonth == nil
}

// BillingChanged reports whether applying s can change computed quantities.
func (s Settings) BillingChanged() bool {
	return s.DailyRate != nil || s.HoursPerDay != nil || s.Mode != nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ValidateSettings checks every present setting.
func ValidateSettings(s Settings) error {
	if s.Name != nil && strings.TrimSpace(*s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if s.DailyRate != nil && !positive(*s.DailyRate) {
		return fmt.Errorf("%w: daily rate must be positive", ErrInvalidInput)
	}
	if s.HoursPerDay != nil && !positive(*s.HoursPerDay) {
		return fmt.Errorf("%w: hours per day must be positive", ErrInvalidInput)
	}
	if s.Mode != nil && !s.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, *s.Mode)
	}
	if s.CurrentMonth != nil {
		if _, err := report.ParseMonth(*s.CurrentMonth); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes validated settings onto the project.
func (p *Project) Apply(s Settings) {
	if s.Name != nil {
		p.Name = strings.TrimSpace(*s.Name)
	}
	if s.DailyRate != nil {
		p.DailyRate = *s.DailyRate
	}
	if s.HoursPerDay != nil {
		p.HoursPerDay = *s.HoursPerDay
	}
	if s.Mode != nil {
		p.Mode = *s.Mode
	}
	if s.CurrentMonth != nil {
		p.CurrentMonth = *s.CurrentMonth
	}
}
