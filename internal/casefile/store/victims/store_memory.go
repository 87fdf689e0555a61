// Package victims persists victim records.
package victims

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
	seq    uint64
	victim *models.Victim
}

// InMemory is a map-backed victim store. Records are cloned on the way in
// and out so callers never alias stored state.
type InMemory struct {
	mu      sync.RWMutex
	victims map[id.VictimID]entry
	nextSeq uint64
}

func NewInMemory() *InMemory {
	return &InMemory{victims: make(map[id.VictimID]entry)}
}

func (s *InMemory) Create(_ context.Context, victim *models.Victim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.victims[victim.ID]; exists {
		return fmt.Errorf("victim %s: %w", victim.ID, sentinel.ErrConflict)
	}
	s.nextSeq++
	s.victims[victim.ID] = entry{seq: s.nextSeq, victim: victim.Clone()}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, victimID id.VictimID) (*models.Victim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.victims[victimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.victim.Clone(), nil
}

// FindByIDs returns the victims that exist among victimIDs. Unknown ids are skipped.
func (s *InMemory) FindByIDs(_ context.Context, victimIDs []id.VictimID) ([]*models.Victim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Victim, 0, len(victimIDs))
	seen := make(map[id.VictimID]struct{}, len(victimIDs))
	for _, vid := range victimIDs {
		if _, dup := seen[vid]; dup {
			continue
		}
		seen[vid] = struct{}{}
		if e, ok := s.victims[vid]; ok {
			out = append(out, e.victim.Clone())
		}
	}
	return out, nil
}

// FindAll returns victims in insertion order.
func (s *InMemory) FindAll(_ context.Context) ([]*models.Victim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(), nil
}

// FindByNameAndFamily returns the earliest inserted exact match.
func (s *InMemory) FindByNameAndFamily(_ context.Context, name, family string) (*models.Victim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.sortedLocked() {
		if v.Name == name && v.Family == family {
			return v, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, victim *models.Victim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.victims[victim.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	e.victim = victim.Clone()
	s.victims[victim.ID] = e
	return nil
}

func (s *InMemory) Delete(_ context.Context, victimID id.VictimID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.victims[victimID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.victims, victimID)
	return nil
}

// SetCase points every existing victim in victimIDs at caseID.
func (s *InMemory) SetCase(_ context.Context, victimIDs []id.VictimID, caseID id.CaseID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, vid := range victimIDs {
		if e, ok := s.victims[vid]; ok {
			e.victim.AssignCase(&caseID, now)
		}
	}
	return nil
}

// ClearCase unassigns every existing victim in victimIDs.
func (s *InMemory) ClearCase(_ context.Context, victimIDs []id.VictimID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, vid := range victimIDs {
		if e, ok := s.victims[vid]; ok {
			e.victim.AssignCase(nil, now)
		}
	}
	return nil
}

func (s *InMemory) sortedLocked() []*models.Victim {
	entries := make([]entry, 0, len(s.victims))
	for _, e := range s.victims {
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
	out := make([]*models.Victim, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.victim.Clone())
	}
	return out
}
