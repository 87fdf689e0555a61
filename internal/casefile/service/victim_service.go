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

// CreateVictimCommand carries the fields of a new victim.
type CreateVictimCommand struct {
	Name         string
	Age          int
	Family       string
	MurderMethod string
	CaseID       *id.CaseID
}

// VictimService owns victim records and keeps the owning case's victim set in step.
type VictimService struct {
	victims VictimStore
	links   *links
	logger  *slog.Logger
	metrics *casemetrics.Metrics
	tx      StoreTx
}

func NewVictimService(victims VictimStore, cases CaseStore, opts ...Option) *VictimService {
	cfg := newConfig(opts)
	return &VictimService{
		victims: victims,
		links:   newLinks(victims, cases, cfg.metrics),
		logger:  cfg.logger,
		metrics: cfg.metrics,
		tx:      cfg.tx,
	}
}

// Create persists a victim. When CaseID is set the case must exist, and the
// new victim is added to its victim set.
func (s *VictimService) Create(ctx context.Context, cmd CreateVictimCommand) (victim *models.Victim, err error) {
	ctx, span := startSpan(ctx, "Victim.create")
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("victim.create", time.Now())

	err = runInTx(ctx, s.tx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		caseID := cmd.CaseID
		if caseID != nil && caseID.IsNil() {
			caseID = nil
		}
		if caseID != nil {
			if _, err := s.links.requireCase(txCtx, *caseID); err != nil {
				return err
			}
		}

		v, err := models.NewVictim(id.NewVictimID(), cmd.Name, cmd.Age, cmd.Family, cmd.MurderMethod, caseID, now)
		if err != nil {
			return asValidation(err)
		}
		if err := s.victims.Create(txCtx, v); err != nil {
			return wrapStoreErr(err, "create victim")
		}
		if v.HasCase() {
			if err := s.links.attach(txCtx, v.ID, *v.CaseID, now); err != nil {
				return err
			}
		}
		victim = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("victim_id", victim.ID.String()))
	logEvent(ctx, s.logger, "victim_created", "victim_id", victim.ID, "case_id", caseAttr(victim))
	s.metrics.IncrementVictimsCreated()
	return victim, nil
}

// FindAll returns every victim with its case resolved.
func (s *VictimService) FindAll(ctx context.Context) (details []*models.VictimDetails, err error) {
	ctx, span := startSpan(ctx, "Victim.findAll")
	defer func() { endSpan(span, err) }()

	victims, err := s.victims.FindAll(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "list victims")
	}
	return s.links.resolveCases(ctx, victims)
}

// FindOne returns one victim with its case resolved.
func (s *VictimService) FindOne(ctx context.Context, victimID id.VictimID) (details *models.VictimDetails, err error) {
	ctx, span := startSpan(ctx, "Victim.findOne", attribute.String("victim_id", victimID.String()))
	defer func() { endSpan(span, err) }()

	v, err := s.victims.FindByID(ctx, victimID)
	if err != nil {
		return nil, wrapVictimErr(err, victimID, "load victim")
	}
	return s.links.resolveCase(ctx, v)
}

// FindByNameAndFamily returns the first victim matching both fields exactly.
func (s *VictimService) FindByNameAndFamily(ctx context.Context, name, family string) (details *models.VictimDetails, err error) {
	ctx, span := startSpan(ctx, "Victim.findByNameAndFamily")
	defer func() { endSpan(span, err) }()

	v, err := s.findByNameAndFamily(ctx, name, family)
	if err != nil {
		return nil, err
	}
	return s.links.resolveCase(ctx, v)
}

// Update applies the supplied fields. A CaseID change moves the victim
// between case victim sets.
func (s *VictimService) Update(ctx context.Context, victimID id.VictimID, patch models.VictimPatch) (details *models.VictimDetails, err error) {
	ctx, span := startSpan(ctx, "Victim.update", attribute.String("victim_id", victimID.String()))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("victim.update", time.Now())

	return s.update(ctx, patch, func(txCtx context.Context) (*models.Victim, error) {
		v, err := s.victims.FindByID(txCtx, victimID)
		if err != nil {
			return nil, wrapVictimErr(err, victimID, "load victim")
		}
		return v, nil
	})
}

// UpdateByNameAndFamily is Update keyed by the (name, family) pair.
func (s *VictimService) UpdateByNameAndFamily(ctx context.Context, name, family string, patch models.VictimPatch) (details *models.VictimDetails, err error) {
	ctx, span := startSpan(ctx, "Victim.updateByNameAndFamily")
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("victim.update", time.Now())

	return s.update(ctx, patch, func(txCtx context.Context) (*models.Victim, error) {
		return s.findByNameAndFamily(txCtx, name, family)
	})
}

// Remove pulls the victim from its case's set, then deletes it.
func (s *VictimService) Remove(ctx context.Context, victimID id.VictimID) (err error) {
	ctx, span := startSpan(ctx, "Victim.remove", attribute.String("victim_id", victimID.String()))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("victim.remove", time.Now())

	return s.remove(ctx, func(txCtx context.Context) (*models.Victim, error) {
		v, err := s.victims.FindByID(txCtx, victimID)
		if err != nil {
			return nil, wrapVictimErr(err, victimID, "load victim")
		}
		return v, nil
	})
}

// DeleteByNameAndFamily is Remove keyed by the (name, family) pair.
func (s *VictimService) DeleteByNameAndFamily(ctx context.Context, name, family string) (err error) {
	ctx, span := startSpan(ctx, "Victim.deleteByNameAndFamily")
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("victim.remove", time.Now())

	return s.remove(ctx, func(txCtx context.Context) (*models.Victim, error) {
		return s.findByNameAndFamily(txCtx, name, family)
	})
}

func (s *VictimService) findByNameAndFamily(ctx context.Context, name, family string) (*models.Victim, error) {
	if name == "" || family == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name and family are required")
	}
	v, err := s.victims.FindByNameAndFamily(ctx, name, family)
	if err != nil {
		if isNotFound(err) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgVictimByNameNotFound)
		}
		return nil, wrapStoreErr(err, "find victim by name and family")
	}
	return v, nil
}

// update is shared by both update paths so they re-synchronize identically.
func (s *VictimService) update(ctx context.Context, patch models.VictimPatch, load func(context.Context) (*models.Victim, error)) (*models.VictimDetails, error) {
	var updated *models.Victim
	var moved bool
	err := runInTx(ctx, s.tx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		v, err := load(txCtx)
		if err != nil {
			return err
		}
		if err := patch.Apply(v, now); err != nil {
			return asValidation(err)
		}

		moved = patch.ChangesCase(v)
		if !moved {
			if err := s.victims.Update(txCtx, v); err != nil {
				return wrapVictimErr(err, v.ID, "update victim")
			}
			updated = v
			return nil
		}

		target := patch.CaseID
		if target.IsNil() {
			target = nil
		}
		if target != nil {
			if _, err := s.links.requireCase(txCtx, *target); err != nil {
				return err
			}
		}
		if err := s.links.detach(txCtx, v, now); err != nil {
			return err
		}
		v.AssignCase(target, now)
		if err := s.victims.Update(txCtx, v); err != nil {
			return wrapVictimErr(err, v.ID, "update victim")
		}
		if target != nil {
			if err := s.links.attach(txCtx, v.ID, *target, now); err != nil {
				return err
			}
		}
		updated = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	logEvent(ctx, s.logger, "victim_updated", "victim_id", updated.ID, "case_id", caseAttr(updated), "case_changed", moved)
	return s.links.resolveCase(ctx, updated)
}

func (s *VictimService) remove(ctx context.Context, load func(context.Context) (*models.Victim, error)) error {
	var removed *models.Victim
	err := runInTx(ctx, s.tx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		v, err := load(txCtx)
		if err != nil {
			return err
		}
		if err := s.links.detach(txCtx, v, now); err != nil {
			return err
		}
		if err := s.victims.Delete(txCtx, v.ID); err != nil {
			return wrapVictimErr(err, v.ID, "delete victim")
		}
		removed = v
		return nil
	})
	if err != nil {
		return err
	}

	logEvent(ctx, s.logger, "victim_deleted", "victim_id", removed.ID, "case_id", caseAttr(removed))
	s.metrics.IncrementVictimsDeleted()
	return nil
}

func caseAttr(v *models.Victim) string {
	if !v.HasCase() {
		return ""
	}
	return v.CaseID.String()
}
