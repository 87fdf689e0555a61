package victims

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"casefile/internal/casefile/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

type VictimStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *VictimStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestVictimStoreSuite(t *testing.T) {
	suite.Run(t, new(VictimStoreSuite))
}

func (s *VictimStoreSuite) newVictim(name, family string) *models.Victim {
	v, err := models.NewVictim(id.NewVictimID(), name, 30, family, "poison", nil, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, v))
	return v
}

// TestCreationAndLookups verifies the store creates and retrieves victims.
func (s *VictimStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds victim by ID", func() {
		v := s.newVictim("Alice", "Smith")

		found, err := s.store.FindByID(s.ctx, v.ID)
		s.Require().NoError(err)
		s.Equal(v.Name, found.Name)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewVictimID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects a duplicate ID", func() {
		v := s.newVictim("Dup", "Licate")
		s.Require().ErrorIs(s.store.Create(s.ctx, v), sentinel.ErrConflict)
	})

	s.Run("returned records are copies", func() {
		v := s.newVictim("Copy", "Check")
		found, err := s.store.FindByID(s.ctx, v.ID)
		s.Require().NoError(err)
		found.Name = "Mutated"

		again, err := s.store.FindByID(s.ctx, v.ID)
		s.Require().NoError(err)
		s.Equal("Copy", again.Name)
	})
}

// TestFindByIDs verifies set lookups skip unknown and duplicate ids.
func (s *VictimStoreSuite) TestFindByIDs() {
	v1 := s.newVictim("A", "One")
	v2 := s.newVictim("B", "Two")

	found, err := s.store.FindByIDs(s.ctx, []id.VictimID{v1.ID, id.NewVictimID(), v2.ID, v1.ID})
	s.Require().NoError(err)
	s.Len(found, 2)
}

// TestFindByNameAndFamily verifies exact, case-sensitive, first-match lookup.
func (s *VictimStoreSuite) TestFindByNameAndFamily() {
	first := s.newVictim("Alice", "Smith")
	s.newVictim("Alice", "Smith")

	found, err := s.store.FindByNameAndFamily(s.ctx, "Alice", "Smith")
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)

	_, err = s.store.FindByNameAndFamily(s.ctx, "alice", "Smith")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestBulkCaseAssignment verifies SetCase and ClearCase.
func (s *VictimStoreSuite) TestBulkCaseAssignment() {
	v1 := s.newVictim("A", "One")
	v2 := s.newVictim("B", "Two")
	caseID := id.NewCaseID()
	now := time.Now()

	s.Require().NoError(s.store.SetCase(s.ctx, []id.VictimID{v1.ID, v2.ID, id.NewVictimID()}, caseID, now))
	for _, vid := range []id.VictimID{v1.ID, v2.ID} {
		found, err := s.store.FindByID(s.ctx, vid)
		s.Require().NoError(err)
		s.True(found.BelongsTo(caseID))
	}

	s.Require().NoError(s.store.ClearCase(s.ctx, []id.VictimID{v1.ID}, now))
	found, err := s.store.FindByID(s.ctx, v1.ID)
	s.Require().NoError(err)
	s.False(found.HasCase())
}

// TestUpdateAndDelete verifies missing records surface ErrNotFound.
func (s *VictimStoreSuite) TestUpdateAndDelete() {
	v := s.newVictim("A", "One")
	v.Age = 44
	s.Require().NoError(s.store.Update(s.ctx, v))

	s.Require().NoError(s.store.Delete(s.ctx, v.ID))
	s.Require().ErrorIs(s.store.Delete(s.ctx, v.ID), sentinel.ErrNotFound)
	s.Require().ErrorIs(s.store.Update(s.ctx, v), sentinel.ErrNotFound)

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}
