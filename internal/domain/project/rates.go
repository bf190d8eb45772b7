package project

import (
	"fmt"
	"math"
	"strings"
)

// SetRate sets the daily rate of a collaborator.
func (p *Project) SetRate(name string, rate float64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: collaborator name is required", ErrInvalidInput)
	}
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: rate must be a non-negative number", ErrInvalidInput)
	}
	if p.CollaboratorRates == nil {
		p.CollaboratorRates = make(map[string]float64)
	}
	p.CollaboratorRates[name] = rate
	return nil
}

// DeleteRate removes a collaborator from the rate table.
func (p *Project) DeleteRate(name string) error {
	if _, ok := p.CollaboratorRates[name]; !ok {
		return fmt.Errorf("%w: %s", ErrCollaboratorNotFound, name)
	}
	delete(p.CollaboratorRates, name)
	return nil
}

// RegisterCollaborators adds unseen names with a zero rate and returns the ones added.
func (p *Project) RegisterCollaborators(names []string) []string {
	var added []string
	for _, name := range names {
		if _, ok := p.CollaboratorRates[name]; ok {
			continue
		}
		if p.CollaboratorRates == nil {
			p.CollaboratorRates = make(map[string]float64)
		}
		p.CollaboratorRates[name] = 0
		added = append(added, name)
	}
	return added
}

// UnratedCollaborators returns the names among names without a positive rate.
func (p *Project) UnratedCollaborators(names []string) []string {
	var out []string
	for _, name := range names {
		if p.CollaboratorRates[name] <= 0 {
			out = append(out, name)
		}
	}
	return out
}
