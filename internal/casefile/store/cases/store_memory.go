// Package cases persists case records.
package cases

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"casefile/internal/casefile/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

type entry struct {
	seq uint64
	c   *models.Case
}

// InMemory is a map-backed case store.
type InMemory struct {
	mu      sync.RWMutex
	cases   map[id.CaseID]entry
	nextSeq uint64
}

func NewInMemory() *InMemory {
	return &InMemory{cases: make(map[id.CaseID]entry)}
}

func (s *InMemory) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrConflict)
	}
	s.nextSeq++
	s.cases[c.ID] = entry{seq: s.nextSeq, c: c.Clone()}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.c.Clone(), nil
}

// FindByIDs returns the cases that exist among caseIDs. Unknown ids are skipped.
func (s *InMemory) FindByIDs(_ context.Context, caseIDs []id.CaseID) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Case, 0, len(caseIDs))
	seen := make(map[id.CaseID]struct{}, len(caseIDs))
	for _, cid := range caseIDs {
		if _, dup := seen[cid]; dup {
			continue
		}
		seen[cid] = struct{}{}
		if e, ok := s.cases[cid]; ok {
			out = append(out, e.c.Clone())
		}
	}
	return out, nil
}

// FindAll returns cases in insertion order.
func (s *InMemory) FindAll(_ context.Context) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]entry, 0, len(s.cases))
	for _, e := range s.cases {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	out := make([]*models.Case, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.c.Clone())
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cases[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.c = c.Clone()
	s.cases[c.ID] = e
	return nil
}

func (s *InMemory) Delete(_ context.Context, caseID id.CaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[caseID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.cases, caseID)
	return nil
}

// AddVictim is a set-union add on the case's victim set.
func (s *InMemory) AddVictim(_ context.Context, caseID id.CaseID, victimID id.VictimID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cases[caseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.c.AddVictim(victimID) {
		e.c.UpdatedAt = now
	}
	return nil
}

func (s *InMemory) RemoveVictim(_ context.Context, caseID id.CaseID, victimID id.VictimID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cases[caseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.c.RemoveVictim(victimID) {
		e.c.UpdatedAt = now
	}
	return nil
}
