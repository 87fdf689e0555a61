package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	casemetrics "casefile/internal/casefile/metrics"
	"casefile/internal/casefile/models"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	"casefile/pkg/requestcontext"
)

// CreateCaseCommand carries the fields of a new case.
type CreateCaseCommand struct {
	Detective   string
	Weapon      string
	Description string
	Suspect     string
	Victims     []id.VictimID
}

// CaseService owns case records and keeps each referenced victim's case
// reference in step.
type CaseService struct {
	cases   CaseStore
	links   *links
	logger  *slog.Logger
	metrics *casemetrics.Metrics
	tx      StoreTx
}

func NewCaseService(victims VictimStore, cases CaseStore, opts ...Option) *CaseService {
	cfg := newConfig(opts)
	return &CaseService{
		cases:   cases,
		links:   newLinks(victims, cases, cfg.metrics),
		logger:  cfg.logger,
		metrics: cfg.metrics,
		tx:      cfg.tx,
	}
}

// Create persists a case after checking that every listed victim exists,
// then points each of those victims at it. The found count must equal the
// requested count, so a repeated id fails like an unknown one.
func (s *CaseService) Create(ctx context.Context, cmd CreateCaseCommand) (created *models.Case, err error) {
	ctx, span := startSpan(ctx, "Case.create")
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("case.create", time.Now())

	victimIDs := cmd.Victims
	if len(victimIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "victims must contain at least 1 element")
	}
	if len(models.UniqueVictims(victimIDs)) != len(victimIDs) {
		return nil, InvalidVictimIDs()
	}

	err = runInTx(ctx, s.tx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		victims, err := s.links.requireVictims(txCtx, victimIDs)
		if err != nil {
			return err
		}

		c, err := models.NewCase(id.NewCaseID(), cmd.Detective, cmd.Weapon, cmd.Description, cmd.Suspect, victimIDs, now)
		if err != nil {
			return asValidation(err)
		}
		if err := s.cases.Create(txCtx, c); err != nil {
			return wrapStoreErr(err, "create case")
		}
		if err := s.links.claim(txCtx, c.ID, victims, now); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("case_id", created.ID.String()))
	logEvent(ctx, s.logger, "case_created", "case_id", created.ID, "victim_count", len(created.Victims))
	s.metrics.IncrementCasesCreated()
	return created, nil
}

// FindAll returns every case with its victims resolved.
func (s *CaseService) FindAll(ctx context.Context) (details []*models.CaseDetails, err error) {
	ctx, span := startSpan(ctx, "Case.findAll")
	defer func() { endSpan(span, err) }()

	cases, err := s.cases.FindAll(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "list cases")
	}
	return s.links.resolveVictims(ctx, cases)
}

// FindOne returns one case with its victims resolved.
func (s *CaseService) FindOne(ctx context.Context, caseID id.CaseID) (details *models.CaseDetails, err error) {
	ctx, span := startSpan(ctx, "Case.findOne", attribute.String("case_id", caseID.String()))
	defer func() { endSpan(span, err) }()

	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, wrapCaseErr(err, caseID, "load case")
	}
	return s.resolveOne(ctx, c)
}

// Update applies the supplied fields. When Victims is supplied the new set is
// validated before any write, removed victims are released and added ones claimed.
func (s *CaseService) Update(ctx context.Context, caseID id.CaseID, patch models.CasePatch) (details *models.CaseDetails, err error) {
	ctx, span := startSpan(ctx, "Case.update", attribute.String("case_id", caseID.String()))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("case.update", time.Now())

	if patch.Victims != nil {
		patch.Victims = models.UniqueVictims(patch.Victims)
		if len(patch.Victims) == 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "victims must contain at least 1 element")
		}
	}

	var updated *models.Case
	var added, removed []id.VictimID
	err = runInTx(ctx, s.tx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		c, err := s.cases.FindByID(txCtx, caseID)
		if err != nil {
			return wrapCaseErr(err, caseID, "load case")
		}

		var addedVictims []*models.Victim
		if patch.Victims != nil {
			added, removed = models.DiffVictims(c.Victims, patch.Victims)
			if addedVictims, err = s.links.requireVictims(txCtx, added); err != nil {
				return err
			}
		}
		if err := patch.Apply(c, now); err != nil {
			return asValidation(err)
		}

		if patch.Victims != nil {
			if err := s.links.release(txCtx, removed, now); err != nil {
				return err
			}
			c.Victims = patch.Victims
		}
		if err := s.cases.Update(txCtx, c); err != nil {
			return wrapCaseErr(err, caseID, "update case")
		}
		if err := s.links.claim(txCtx, c.ID, addedVictims, now); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	logEvent(ctx, s.logger, "case_updated", "case_id", updated.ID, "victims_added", len(added), "victims_removed", len(removed))
	return s.resolveOne(ctx, updated)
}

// Remove clears the case reference on every referenced victim, then deletes
// the case. Victims are never deleted with it.
func (s *CaseService) Remove(ctx context.Context, caseID id.CaseID) (err error) {
	ctx, span := startSpan(ctx, "Case.remove", attribute.String("case_id", caseID.String()))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("case.remove", time.Now())

	var released int
	err = runInTx(ctx, s.tx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		c, err := s.cases.FindByID(txCtx, caseID)
		if err != nil {
			return wrapCaseErr(err, caseID, "load case")
		}
		if err := s.links.release(txCtx, c.Victims, now); err != nil {
			return err
		}
		if err := s.cases.Delete(txCtx, caseID); err != nil {
			return wrapCaseErr(err, caseID, "delete case")
		}
		released = len(c.Victims)
		return nil
	})
	if err != nil {
		return err
	}

	logEvent(ctx, s.logger, "case_deleted", "case_id", caseID, "victims_released", released)
	s.metrics.IncrementCasesDeleted()
	return nil
}

func (s *CaseService) resolveOne(ctx context.Context, c *models.Case) (*models.CaseDetails, error) {
	details, err := s.links.resolveVictims(ctx, []*models.Case{c})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}
