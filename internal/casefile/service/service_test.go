package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	casemetrics "casefile/internal/casefile/metrics"
	"casefile/internal/casefile/models"
	"casefile/internal/casefile/service"
	"casefile/internal/casefile/store/cases"
	"casefile/internal/casefile/store/victims"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	victimStore *victims.InMemory
	caseStore   *cases.InMemory
	victims     *service.VictimService
	cases       *service.CaseService
	metrics     *casemetrics.Metrics
	logs        *bytes.Buffer
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithRequestID(context.Background(), "req-test")
	s.victimStore = victims.NewInMemory()
	s.caseStore = cases.NewInMemory()
	s.metrics = casemetrics.NewWithRegisterer(prometheus.NewRegistry())
	s.logs = &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(s.logs, nil))

	tx := service.NewInMemoryStoreTx()
	opts := []service.Option{service.WithLogger(logger), service.WithMetrics(s.metrics), service.WithTx(tx)}
	s.victims = service.NewVictimService(s.victimStore, s.caseStore, opts...)
	s.cases = service.NewCaseService(s.victimStore, s.caseStore, opts...)
}

func (s *ServiceSuite) createVictim(name, family string, caseID *id.CaseID) *models.Victim {
	v, err := s.victims.Create(s.ctx, service.CreateVictimCommand{
		Name: name, Age: 30, Family: family, MurderMethod: "poison", CaseID: caseID,
	})
	s.Require().NoError(err)
	return v
}

func (s *ServiceSuite) createCase(victimIDs ...id.VictimID) *models.Case {
	c, err := s.cases.Create(s.ctx, service.CreateCaseCommand{
		Detective: "Holmes", Weapon: "revolver", Victims: victimIDs,
	})
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) loadVictim(victimID id.VictimID) *models.Victim {
	v, err := s.victimStore.FindByID(s.ctx, victimID)
	s.Require().NoError(err)
	return v
}

func (s *ServiceSuite) loadCase(caseID id.CaseID) *models.Case {
	c, err := s.caseStore.FindByID(s.ctx, caseID)
	s.Require().NoError(err)
	return c
}

// assertLinked checks both sides of the reference.
func (s *ServiceSuite) assertLinked(victimID id.VictimID, caseID id.CaseID) {
	s.True(s.loadVictim(victimID).BelongsTo(caseID), "victim should point at case")
	s.True(s.loadCase(caseID).HasVictim(victimID), "case should list victim")
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code) {
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func (s *ServiceSuite) TestVictimCreate() {
	s.Run("with a case adds the victim to the case's set", func() {
		v1 := s.createVictim("Bob", "Jones", nil)
		c := s.createCase(v1.ID)

		alice := s.createVictim("Alice", "Smith", &c.ID)
		s.assertLinked(alice.ID, c.ID)
		s.assertLinked(v1.ID, c.ID)
	})

	s.Run("with an unknown case fails with NotFound and persists nothing", func() {
		missing := id.NewCaseID()
		before, err := s.victimStore.FindAll(s.ctx)
		s.Require().NoError(err)

		_, err = s.victims.Create(s.ctx, service.CreateVictimCommand{
			Name: "Ghost", Age: 40, Family: "Nobody", MurderMethod: "unknown", CaseID: &missing,
		})
		s.requireCode(err, dErrors.CodeNotFound)
		s.Equal("Case with ID "+missing.String()+" not found", dErrors.Message(err))

		after, err := s.victimStore.FindAll(s.ctx)
		s.Require().NoError(err)
		s.Len(after, len(before))
	})

	s.Run("without a case stays unassigned", func() {
		v := s.createVictim("Solo", "Case", nil)
		s.False(s.loadVictim(v.ID).HasCase())
	})

	s.Run("rejects an out of range age", func() {
		_, err := s.victims.Create(s.ctx, service.CreateVictimCommand{Name: "A", Age: 101, Family: "B", MurderMethod: "C"})
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *ServiceSuite) TestCaseCreate() {
	s.Run("points every listed victim at the new case", func() {
		v1 := s.createVictim("A", "One", nil)
		v2 := s.createVictim("B", "Two", nil)

		c := s.createCase(v1.ID, v2.ID)
		s.ElementsMatch([]id.VictimID{v1.ID, v2.ID}, c.Victims)
		s.assertLinked(v1.ID, c.ID)
		s.assertLinked(v2.ID, c.ID)
	})

	s.Run("with an unknown victim fails with NotFound and persists no case", func() {
		v1 := s.createVictim("C", "Three", nil)
		before, err := s.caseStore.FindAll(s.ctx)
		s.Require().NoError(err)

		_, err = s.cases.Create(s.ctx, service.CreateCaseCommand{
			Detective: "Marple", Weapon: "rope", Victims: []id.VictimID{v1.ID, id.NewVictimID()},
		})
		s.requireCode(err, dErrors.CodeNotFound)
		s.Equal("One or more victim IDs are invalid", dErrors.Message(err))

		after, err := s.caseStore.FindAll(s.ctx)
		s.Require().NoError(err)
		s.Len(after, len(before))
		s.False(s.loadVictim(v1.ID).HasCase())
	})

	s.Run("with a repeated victim id fails with NotFound and persists no case", func() {
		v1 := s.createVictim("R", "Repeat", nil)
		before, err := s.caseStore.FindAll(s.ctx)
		s.Require().NoError(err)

		_, err = s.cases.Create(s.ctx, service.CreateCaseCommand{
			Detective: "Marple", Weapon: "rope", Victims: []id.VictimID{v1.ID, v1.ID},
		})
		s.requireCode(err, dErrors.CodeNotFound)
		s.Equal("One or more victim IDs are invalid", dErrors.Message(err))

		after, err := s.caseStore.FindAll(s.ctx)
		s.Require().NoError(err)
		s.Len(after, len(before))
		s.False(s.loadVictim(v1.ID).HasCase())
	})

	s.Run("moves a victim out of its previous case", func() {
		v := s.createVictim("D", "Four", nil)
		other := s.createVictim("E", "Five", nil)
		first := s.createCase(v.ID, other.ID)

		second := s.createCase(v.ID)
		s.assertLinked(v.ID, second.ID)
		s.False(s.loadCase(first.ID).HasVictim(v.ID), "previous case must not keep a one-sided reference")
		s.assertLinked(other.ID, first.ID)
	})

	s.Run("requires at least one victim", func() {
		_, err := s.cases.Create(s.ctx, service.CreateCaseCommand{Detective: "Marple", Weapon: "rope"})
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *ServiceSuite) TestCaseRemove() {
	v1 := s.createVictim("A", "One", nil)
	v2 := s.createVictim("B", "Two", nil)
	c := s.createCase(v1.ID, v2.ID)

	s.Require().NoError(s.cases.Remove(s.ctx, c.ID))

	_, err := s.caseStore.FindByID(s.ctx, c.ID)
	s.Error(err)
	for _, vid := range []id.VictimID{v1.ID, v2.ID} {
		v := s.loadVictim(vid)
		s.False(v.HasCase(), "case reference must be cleared")
	}

	err = s.cases.Remove(s.ctx, c.ID)
	s.requireCode(err, dErrors.CodeNotFound)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CasesDeleted))
}

func (s *ServiceSuite) TestVictimRemove() {
	v1 := s.createVictim("A", "One", nil)
	v2 := s.createVictim("B", "Two", nil)
	c := s.createCase(v1.ID, v2.ID)

	s.Require().NoError(s.victims.Remove(s.ctx, v1.ID))

	remaining := s.loadCase(c.ID)
	s.Equal([]id.VictimID{v2.ID}, remaining.Victims)

	err := s.victims.Remove(s.ctx, v1.ID)
	s.requireCode(err, dErrors.CodeNotFound)
	s.Equal("Victim with ID "+v1.ID.String()+" not found", dErrors.Message(err))
}

func (s *ServiceSuite) TestCaseUpdateVictims() {
	s.Run("reconciles both sides of the diff", func() {
		v1 := s.createVictim("A", "One", nil)
		v2 := s.createVictim("B", "Two", nil)
		v3 := s.createVictim("C", "Three", nil)
		c := s.createCase(v1.ID, v2.ID)
		v2Before := s.loadVictim(v2.ID)

		details, err := s.cases.Update(s.ctx, c.ID, models.CasePatch{Victims: []id.VictimID{v2.ID, v3.ID}})
		s.Require().NoError(err)
		s.ElementsMatch([]id.VictimID{v2.ID, v3.ID}, details.Victims)
		s.Len(details.VictimRecords, 2)

		s.False(s.loadVictim(v1.ID).HasCase())
		s.assertLinked(v2.ID, c.ID)
		s.Equal(v2Before.UpdatedAt, s.loadVictim(v2.ID).UpdatedAt, "retained victim is untouched")
		s.assertLinked(v3.ID, c.ID)
	})

	s.Run("an unknown new victim fails with NotFound and changes nothing", func() {
		v1 := s.createVictim("D", "Four", nil)
		v2 := s.createVictim("E", "Five", nil)
		c := s.createCase(v1.ID, v2.ID)

		_, err := s.cases.Update(s.ctx, c.ID, models.CasePatch{Victims: []id.VictimID{v2.ID, id.NewVictimID()}})
		s.requireCode(err, dErrors.CodeNotFound)

		s.assertLinked(v1.ID, c.ID)
		s.assertLinked(v2.ID, c.ID)
		s.ElementsMatch([]id.VictimID{v1.ID, v2.ID}, s.loadCase(c.ID).Victims)
	})

	s.Run("an empty victim list is rejected", func() {
		v := s.createVictim("F", "Six", nil)
		c := s.createCase(v.ID)
		_, err := s.cases.Update(s.ctx, c.ID, models.CasePatch{Victims: []id.VictimID{}})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("scalar fields apply independently of the victim set", func() {
		v := s.createVictim("G", "Seven", nil)
		c := s.createCase(v.ID)
		suspect := "the butler"

		details, err := s.cases.Update(s.ctx, c.ID, models.CasePatch{Suspect: &suspect})
		s.Require().NoError(err)
		s.Equal("the butler", details.Suspect)
		s.Equal("Holmes", details.Detective)
		s.assertLinked(v.ID, c.ID)
	})

	s.Run("unknown case fails with NotFound", func() {
		_, err := s.cases.Update(s.ctx, id.NewCaseID(), models.CasePatch{})
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

func (s *ServiceSuite) TestVictimUpdateMovesBetweenCases() {
	paths := map[string]func(v *models.Victim, patch models.VictimPatch) (*models.VictimDetails, error){
		"by id": func(v *models.Victim, patch models.VictimPatch) (*models.VictimDetails, error) {
			return s.victims.Update(s.ctx, v.ID, patch)
		},
		"by name and family": func(v *models.Victim, patch models.VictimPatch) (*models.VictimDetails, error) {
			return s.victims.UpdateByNameAndFamily(s.ctx, v.Name, v.Family, patch)
		},
	}

	for name, update := range paths {
		s.Run(name, func() {
			v := s.createVictim("Mover", name, nil)
			from := s.createCase(v.ID)
			filler := s.createVictim("Filler", name, nil)
			to := s.createCase(filler.ID)

			details, err := update(v, models.VictimPatch{CaseID: &to.ID})
			s.Require().NoError(err)
			s.Require().NotNil(details.Case)
			s.Equal(to.ID, details.Case.ID)
			s.assertLinked(v.ID, to.ID)
			s.False(s.loadCase(from.ID).HasVictim(v.ID))

			unassign := id.CaseID{}
			details, err = update(v, models.VictimPatch{CaseID: &unassign})
			s.Require().NoError(err)
			s.Nil(details.Case)
			s.False(s.loadVictim(v.ID).HasCase())
			s.False(s.loadCase(to.ID).HasVictim(v.ID))

			missing := id.NewCaseID()
			_, err = update(v, models.VictimPatch{CaseID: &missing})
			s.requireCode(err, dErrors.CodeNotFound)
		})
	}
}

func (s *ServiceSuite) TestVictimPartialUpdate() {
	v := s.createVictim("Alice", "Smith", nil)
	age := 55

	details, err := s.victims.Update(s.ctx, v.ID, models.VictimPatch{Age: &age})
	s.Require().NoError(err)
	s.Equal(55, details.Age)
	s.Equal("poison", details.MurderMethod)

	bad := 0
	_, err = s.victims.Update(s.ctx, v.ID, models.VictimPatch{Age: &bad})
	s.requireCode(err, dErrors.CodeValidation)
	s.Equal(55, s.loadVictim(v.ID).Age)

	_, err = s.victims.Update(s.ctx, id.NewVictimID(), models.VictimPatch{Age: &age})
	s.requireCode(err, dErrors.CodeNotFound)
}

func (s *ServiceSuite) TestNameAndFamilyLifecycle() {
	created := s.createVictim("Alice", "Smith", nil)
	c := s.createCase(created.ID)

	found, err := s.victims.FindByNameAndFamily(s.ctx, "Alice", "Smith")
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
	s.Require().NotNil(found.Case)
	s.Equal(c.ID, found.Case.ID)

	s.Require().NoError(s.victims.DeleteByNameAndFamily(s.ctx, "Alice", "Smith"))
	s.Empty(s.loadCase(c.ID).Victims)

	_, err = s.victims.FindByNameAndFamily(s.ctx, "Alice", "Smith")
	s.requireCode(err, dErrors.CodeNotFound)
	s.Equal("Victim not found with given name and family", dErrors.Message(err))

	err = s.victims.DeleteByNameAndFamily(s.ctx, "Alice", "Smith")
	s.requireCode(err, dErrors.CodeNotFound)

	_, err = s.victims.UpdateByNameAndFamily(s.ctx, "Alice", "Smith", models.VictimPatch{})
	s.requireCode(err, dErrors.CodeNotFound)
}

func (s *ServiceSuite) TestNameAndFamilyMatchExactly() {
	padded := s.createVictim("Alice ", "Smith", nil)
	s.Equal("Alice ", s.loadVictim(padded.ID).Name)

	_, err := s.victims.FindByNameAndFamily(s.ctx, "Alice", "Smith")
	s.requireCode(err, dErrors.CodeNotFound)
	_, err = s.victims.FindByNameAndFamily(s.ctx, " Alice", "Smith ")
	s.requireCode(err, dErrors.CodeNotFound)
	_, err = s.victims.FindByNameAndFamily(s.ctx, "alice ", "Smith")
	s.requireCode(err, dErrors.CodeNotFound)

	found, err := s.victims.FindByNameAndFamily(s.ctx, "Alice ", "Smith")
	s.Require().NoError(err)
	s.Equal(padded.ID, found.ID)
}

func (s *ServiceSuite) TestReadsResolveReferences() {
	v1 := s.createVictim("A", "One", nil)
	v2 := s.createVictim("B", "Two", nil)
	loose := s.createVictim("C", "Three", nil)
	c := s.createCase(v1.ID, v2.ID)

	all, err := s.victims.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	for _, d := range all {
		if d.ID == loose.ID {
			s.Nil(d.Case)
			continue
		}
		s.Require().NotNil(d.Case)
		s.Equal(c.ID, d.Case.ID)
	}

	one, err := s.cases.FindOne(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Len(one.VictimRecords, 2)

	cs, err := s.cases.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(cs, 1)
	s.Len(cs[0].VictimRecords, 2)

	_, err = s.cases.FindOne(s.ctx, id.NewCaseID())
	s.requireCode(err, dErrors.CodeNotFound)
	_, err = s.victims.FindOne(s.ctx, id.NewVictimID())
	s.requireCode(err, dErrors.CodeNotFound)
}

func (s *ServiceSuite) TestObservability() {
	v := s.createVictim("A", "One", nil)
	s.createCase(v.ID)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.VictimsCreated))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CasesCreated))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.LinkChanges.WithLabelValues("claim")))
	s.Contains(s.logs.String(), `"event":"case_created"`)
	s.Contains(s.logs.String(), `"request_id":"req-test"`)
}

func (s *ServiceSuite) TestRequestTimeStampsBothSides() {
	pinned := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, pinned)
	v := s.createVictim("A", "One", nil)

	c, err := s.cases.Create(ctx, service.CreateCaseCommand{Detective: "Holmes", Weapon: "revolver", Victims: []id.VictimID{v.ID}})
	s.Require().NoError(err)
	s.Equal(pinned, c.CreatedAt)
	s.Equal(pinned, s.loadVictim(v.ID).UpdatedAt)
}

type failingCaseStore struct {
	service.CaseStore
	err error
}

func (f failingCaseStore) FindAll(context.Context) ([]*models.Case, error) {
	return nil, f.err
}

func TestStoreFailuresAreInternal(t *testing.T) {
	boom := errors.New("connection reset")
	svc := service.NewCaseService(victims.NewInMemory(), failingCaseStore{CaseStore: cases.NewInMemory(), err: boom})

	_, err := svc.FindAll(context.Background())
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
}

func TestStoreFailureClassification(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
		code dErrors.Code
	}{
		{"lock conflict is retryable", fmt.Errorf("list cases: %w", sentinel.ErrUnavailable), dErrors.CodeUnavailable},
		{"deadline is a timeout", fmt.Errorf("list cases: %w", context.DeadlineExceeded), dErrors.CodeTimeout},
	} {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewCaseService(victims.NewInMemory(), failingCaseStore{CaseStore: cases.NewInMemory(), err: tt.err})
			_, err := svc.FindAll(context.Background())
			if !dErrors.HasCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

// failingTx fails at the boundary itself, as a commit would.
type failingTx struct{ err error }

func (f failingTx) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return f.err
}

func TestCommitFailureIsCoded(t *testing.T) {
	commitErr := fmt.Errorf("commit transaction: %w", sentinel.ErrUnavailable)
	svc := service.NewVictimService(victims.NewInMemory(), cases.NewInMemory(), service.WithTx(failingTx{err: commitErr}))

	_, err := svc.Create(context.Background(), service.CreateVictimCommand{
		Name: "Alice", Age: 30, Family: "Smith", MurderMethod: "poison",
	})
	if !dErrors.HasCode(err, dErrors.CodeUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestCancelledContextAbortsTransaction(t *testing.T) {
	svc := service.NewVictimService(victims.NewInMemory(), cases.NewInMemory())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Create(ctx, service.CreateVictimCommand{Name: "A", Age: 1, Family: "B", MurderMethod: "C"})
	if !dErrors.HasCode(err, dErrors.CodeTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}
