//go:build integration

package victims_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"casefile/internal/casefile/models"
	"casefile/internal/casefile/store/cases"
	"casefile/internal/casefile/store/victims"
	"casefile/internal/platform/postgres"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *victims.PostgresStore
	cases    *cases.PostgresStore
	tx       *postgres.TxManager
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = victims.NewPostgres(s.postgres.DB)
	s.cases = cases.NewPostgres(s.postgres.DB)
	s.tx = postgres.NewTxManager(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	// Truncate in dependency order
	err := s.postgres.TruncateTables(context.Background(), "victims", "cases")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newVictim(name, family string) *models.Victim {
	v, err := models.NewVictim(id.NewVictimID(), name, 30, family, "poison", nil, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), v))
	return v
}

func (s *PostgresStoreSuite) newCase(victimIDs ...id.VictimID) *models.Case {
	c, err := models.NewCase(id.NewCaseID(), "Holmes", "revolver", "", "", victimIDs, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.cases.Create(context.Background(), c))
	return c
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	v := s.newVictim("Alice", "Smith")

	found, err := s.store.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(v.Name, found.Name)
	s.Equal(v.MurderMethod, found.MurderMethod)
	s.Nil(found.CaseID)
	s.True(v.CreatedAt.Equal(found.CreatedAt))

	_, err = s.store.FindByID(ctx, id.NewVictimID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Create(ctx, v), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestFindByNameAndFamilyReturnsFirstInserted() {
	ctx := context.Background()
	first := s.newVictim("Alice", "Smith")
	s.newVictim("Alice", "Smith")

	found, err := s.store.FindByNameAndFamily(ctx, "Alice", "Smith")
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)

	_, err = s.store.FindByNameAndFamily(ctx, "ALICE", "Smith")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestBulkCaseAssignment() {
	ctx := context.Background()
	v1 := s.newVictim("A", "One")
	v2 := s.newVictim("B", "Two")
	c := s.newCase(v1.ID, v2.ID)

	s.Require().NoError(s.store.SetCase(ctx, []id.VictimID{v1.ID, v2.ID}, c.ID, time.Now()))
	found, err := s.store.FindByIDs(ctx, []id.VictimID{v1.ID, v2.ID, id.NewVictimID()})
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	for _, v := range found {
		s.True(v.BelongsTo(c.ID))
	}

	s.Require().NoError(s.store.ClearCase(ctx, []id.VictimID{v1.ID}, time.Now()))
	cleared, err := s.store.FindByID(ctx, v1.ID)
	s.Require().NoError(err)
	s.False(cleared.HasCase())
}

func (s *PostgresStoreSuite) TestCaseVictimSet() {
	ctx := context.Background()
	v1 := s.newVictim("A", "One")
	v2 := s.newVictim("B", "Two")
	c := s.newCase(v1.ID)

	s.Require().NoError(s.cases.AddVictim(ctx, c.ID, v2.ID, time.Now()))
	s.Require().NoError(s.cases.AddVictim(ctx, c.ID, v2.ID, time.Now()))
	found, err := s.cases.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]id.VictimID{v1.ID, v2.ID}, found.Victims)

	s.Require().NoError(s.cases.RemoveVictim(ctx, c.ID, v1.ID, time.Now()))
	found, err = s.cases.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal([]id.VictimID{v2.ID}, found.Victims)

	s.ErrorIs(s.cases.AddVictim(ctx, id.NewCaseID(), v1.ID, time.Now()), sentinel.ErrNotFound)
}

// TestRollback verifies a failing step undoes every write in the transaction.
func (s *PostgresStoreSuite) TestRollback() {
	ctx := context.Background()
	v := s.newVictim("A", "One")
	c := s.newCase(v.ID)
	boom := errors.New("boom")

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.SetCase(txCtx, []id.VictimID{v.ID}, c.ID, time.Now()); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	found, err := s.store.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.False(found.HasCase(), "write inside the rolled back transaction must not persist")
}

// TestDeleteCaseNullsReference verifies the foreign key backstop.
func (s *PostgresStoreSuite) TestDeleteCaseNullsReference() {
	ctx := context.Background()
	v := s.newVictim("A", "One")
	c := s.newCase(v.ID)
	s.Require().NoError(s.store.SetCase(ctx, []id.VictimID{v.ID}, c.ID, time.Now()))

	s.Require().NoError(s.cases.Delete(ctx, c.ID))
	found, err := s.store.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.False(found.HasCase())
	s.ErrorIs(s.cases.Delete(ctx, c.ID), sentinel.ErrNotFound)
}
