// Package store provides the case repository: an in-memory implementation used
// by unit tests and a PostgreSQL implementation used in production.
package store

import (
	"context"
	"sort"
	"sync"

	"aktivitetskrav/internal/cases/models"
	"aktivitetskrav/pkg/domain"
	"aktivitetskrav/pkg/platform/sentinel"
)

// MemoryStore keeps cases per person, newest first, guarded by one lock.
type MemoryStore struct {
	mu    sync.RWMutex
	cases map[domain.CaseID]*models.Case
}

func NewMemory() *MemoryStore {
	return &MemoryStore{cases: make(map[domain.CaseID]*models.Case)}
}

func (s *MemoryStore) Get(_ context.Context, id domain.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCase(c), nil
}

func (s *MemoryStore) GetByPerson(_ context.Context, personident domain.PersonIdent) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.Case
	for _, c := range s.cases {
		if c.PersonIdent == personident {
			result = append(result, cloneCase(c))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.cases[c.ID] = cloneCase(c)
	return nil
}

func (s *MemoryStore) CreateAssessment(_ context.Context, assessment *models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[assessment.CaseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.Assessments = append([]*models.Assessment{cloneAssessment(assessment)}, c.Assessments...)
	return nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, updated *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[updated.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.Status = updated.Status
	c.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *MemoryStore) UpdateStoppunkt(_ context.Context, updated *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[updated.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.StoppunktAt = updated.StoppunktAt
	c.ReferenceEpisodeStart = updated.ReferenceEpisodeStart
	c.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *MemoryStore) ReassignPerson(_ context.Context, oldIdents []domain.PersonIdent, newIdent domain.PersonIdent) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := make(map[domain.PersonIdent]bool, len(oldIdents))
	for _, ident := range oldIdents {
		old[ident] = true
	}
	count := 0
	for _, c := range s.cases {
		if old[c.PersonIdent] {
			c.PersonIdent = newIdent
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) DeleteAssessment(_ context.Context, updated *models.Case, assessmentID domain.AssessmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[updated.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	remaining := c.Assessments[:0]
	found := false
	for _, a := range c.Assessments {
		if a.ID == assessmentID {
			found = true
			continue
		}
		remaining = append(remaining, a)
	}
	if !found {
		return sentinel.ErrNotFound
	}
	c.Assessments = remaining
	c.Status = updated.Status
	c.UpdatedAt = updated.UpdatedAt
	return nil
}

func cloneCase(c *models.Case) *models.Case {
	clone := *c
	clone.Assessments = make([]*models.Assessment, len(c.Assessments))
	for i, a := range c.Assessments {
		clone.Assessments[i] = cloneAssessment(a)
	}
	return &clone
}

func cloneAssessment(a *models.Assessment) *models.Assessment {
	clone := *a
	clone.Reasons = append([]models.Reason(nil), a.Reasons...)
	if a.Varsel != nil {
		v := *a.Varsel
		clone.Varsel = &v
	}
	return &clone
}
