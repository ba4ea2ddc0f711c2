// Package store provides the varsel repository: notices with their rendered
// documents, archival references, and publication markers.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	models "aktivitetskrav/internal/varsel/models"
	"aktivitetskrav/pkg/domain"
	"aktivitetskrav/pkg/platform/sentinel"
)

// PersonVarsel pairs a varsel with the person it concerns and the rendered
// document, which the archival worker needs together.
type PersonVarsel struct {
	PersonIdent domain.PersonIdent
	Varsel      *models.Varsel
	PDF         []byte
}

type memoryEntry struct {
	personident domain.PersonIdent
	varsel      *models.Varsel
	pdf         []byte
}

// MemoryStore is the in-memory varsel repository used by unit tests.
type MemoryStore struct {
	mu      sync.RWMutex
	varsler map[domain.VarselID]*memoryEntry
}

func NewMemory() *MemoryStore {
	return &MemoryStore{varsler: make(map[domain.VarselID]*memoryEntry)}
}

func (s *MemoryStore) Create(_ context.Context, personident domain.PersonIdent, v *models.Varsel, pdf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.varsler[v.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *v
	s.varsler[v.ID] = &memoryEntry{
		personident: personident,
		varsel:      &clone,
		pdf:         append([]byte(nil), pdf...),
	}
	return nil
}

func (s *MemoryStore) GetByAssessment(_ context.Context, assessmentID domain.AssessmentID) (*models.Varsel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.varsler {
		if entry.varsel.AssessmentID == assessmentID {
			clone := *entry.varsel
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) GetUnarchived(_ context.Context) ([]PersonVarsel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []PersonVarsel
	for _, entry := range s.varsler {
		if entry.varsel.JournalpostID == nil {
			clone := *entry.varsel
			result = append(result, PersonVarsel{
				PersonIdent: entry.personident,
				Varsel:      &clone,
				PDF:         append([]byte(nil), entry.pdf...),
			})
		}
	}
	sortByCreated(result)
	return result, nil
}

func (s *MemoryStore) GetUnpublished(_ context.Context) ([]PersonVarsel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []PersonVarsel
	for _, entry := range s.varsler {
		if entry.varsel.JournalpostID != nil && entry.varsel.PublishedAt == nil {
			clone := *entry.varsel
			result = append(result, PersonVarsel{PersonIdent: entry.personident, Varsel: &clone})
		}
	}
	sortByCreated(result)
	return result, nil
}

func (s *MemoryStore) GetExpired(_ context.Context, asOf time.Time) ([]PersonVarsel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []PersonVarsel
	for _, entry := range s.varsler {
		if entry.varsel.IsExpired(asOf) {
			clone := *entry.varsel
			result = append(result, PersonVarsel{PersonIdent: entry.personident, Varsel: &clone})
		}
	}
	sortByCreated(result)
	return result, nil
}

func (s *MemoryStore) MarkJournalfort(_ context.Context, v *models.Varsel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.varsler[v.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	entry.varsel.JournalpostID = v.JournalpostID
	return nil
}

func (s *MemoryStore) MarkPublished(_ context.Context, v *models.Varsel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.varsler[v.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	entry.varsel.PublishedAt = v.PublishedAt
	return nil
}

func (s *MemoryStore) MarkExpiredPublished(_ context.Context, v *models.Varsel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.varsler[v.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	entry.varsel.ExpiredPublishedAt = v.ExpiredPublishedAt
	return nil
}

func sortByCreated(entries []PersonVarsel) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Varsel.CreatedAt.Before(entries[j].Varsel.CreatedAt)
	})
}
