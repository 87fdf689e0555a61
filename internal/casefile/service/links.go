package service

import (
	"context"
	"errors"
	"time"

	casemetrics "casefile/internal/casefile/metrics"
	"casefile/internal/casefile/models"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

// links keeps Victim.CaseID and Case.Victims symmetric. Both services share
// one instance built on the two stores, so neither service calls the other.
type links struct {
	victims VictimStore
	cases   CaseStore
	metrics *casemetrics.Metrics
}

func newLinks(victims VictimStore, cases CaseStore, m *casemetrics.Metrics) *links {
	return &links{victims: victims, cases: cases, metrics: m}
}

// requireCase fails with NotFound when caseID does not resolve.
func (l *links) requireCase(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	c, err := l.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, wrapCaseErr(err, caseID, "load case")
	}
	return c, nil
}

// requireVictims loads every id or fails with NotFound when any is missing.
func (l *links) requireVictims(ctx context.Context, victimIDs []id.VictimID) ([]*models.Victim, error) {
	if len(victimIDs) == 0 {
		return nil, nil
	}
	found, err := l.victims.FindByIDs(ctx, victimIDs)
	if err != nil {
		return nil, wrapStoreErr(err, "load victims")
	}
	if len(found) != len(victimIDs) {
		return nil, InvalidVictimIDs()
	}
	return found, nil
}

// attach adds the victim to caseID's set. The victim record must already
// point at caseID.
func (l *links) attach(ctx context.Context, victimID id.VictimID, caseID id.CaseID, now time.Time) error {
	if err := l.cases.AddVictim(ctx, caseID, victimID, now); err != nil {
		return wrapCaseErr(err, caseID, "link victim to case")
	}
	l.metrics.IncrementLinkChange("attach")
	return nil
}

// detach pulls the victim from its current case's set. A case that has
// already disappeared leaves nothing to clean up.
func (l *links) detach(ctx context.Context, v *models.Victim, now time.Time) error {
	if !v.HasCase() {
		return nil
	}
	err := l.cases.RemoveVictim(ctx, *v.CaseID, v.ID, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return wrapStoreErr(err, "unlink victim from case")
	}
	l.metrics.IncrementLinkChange("detach")
	return nil
}

// claim points every victim at caseID. Victims currently recorded against a
// different case are first pulled from that case's set so it is not left
// referencing a victim that no longer points back.
func (l *links) claim(ctx context.Context, caseID id.CaseID, victims []*models.Victim, now time.Time) error {
	ids := make([]id.VictimID, 0, len(victims))
	for _, v := range victims {
		if v.HasCase() && !v.BelongsTo(caseID) {
			if err := l.detach(ctx, v, now); err != nil {
				return err
			}
		}
		ids = append(ids, v.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := l.victims.SetCase(ctx, ids, caseID, now); err != nil {
		return wrapStoreErr(err, "assign victims to case")
	}
	l.metrics.AddLinkChanges("claim", len(ids))
	return nil
}

// release clears the case reference on every listed victim.
func (l *links) release(ctx context.Context, victimIDs []id.VictimID, now time.Time) error {
	if len(victimIDs) == 0 {
		return nil
	}
	if err := l.victims.ClearCase(ctx, victimIDs, now); err != nil {
		return wrapStoreErr(err, "release victims from case")
	}
	l.metrics.AddLinkChanges("release", len(victimIDs))
	return nil
}

// resolveCase loads the case a victim points at. A dangling reference
// resolves to nil rather than failing the read.
func (l *links) resolveCase(ctx context.Context, v *models.Victim) (*models.VictimDetails, error) {
	details := &models.VictimDetails{Victim: v}
	if !v.HasCase() {
		return details, nil
	}
	c, err := l.cases.FindByID(ctx, *v.CaseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return details, nil
		}
		return nil, wrapStoreErr(err, "resolve case")
	}
	details.Case = c
	return details, nil
}

// resolveCases resolves a batch of victims with a single case lookup.
func (l *links) resolveCases(ctx context.Context, victims []*models.Victim) ([]*models.VictimDetails, error) {
	var caseIDs []id.CaseID
	seen := make(map[id.CaseID]struct{})
	for _, v := range victims {
		if !v.HasCase() {
			continue
		}
		if _, ok := seen[*v.CaseID]; ok {
			continue
		}
		seen[*v.CaseID] = struct{}{}
		caseIDs = append(caseIDs, *v.CaseID)
	}

	byID := make(map[id.CaseID]*models.Case, len(caseIDs))
	if len(caseIDs) > 0 {
		cases, err := l.cases.FindByIDs(ctx, caseIDs)
		if err != nil {
			return nil, wrapStoreErr(err, "resolve cases")
		}
		for _, c := range cases {
			byID[c.ID] = c
		}
	}

	out := make([]*models.VictimDetails, 0, len(victims))
	for _, v := range victims {
		d := &models.VictimDetails{Victim: v}
		if v.HasCase() {
			d.Case = byID[*v.CaseID]
		}
		out = append(out, d)
	}
	return out, nil
}

// resolveVictims resolves the victim set of each case with one batched lookup.
// Missing victims are skipped, and resolved order follows Case.Victims.
func (l *links) resolveVictims(ctx context.Context, cases []*models.Case) ([]*models.CaseDetails, error) {
	var victimIDs []id.VictimID
	seen := make(map[id.VictimID]struct{})
	for _, c := range cases {
		for _, vid := range c.Victims {
			if _, ok := seen[vid]; ok {
				continue
			}
			seen[vid] = struct{}{}
			victimIDs = append(victimIDs, vid)
		}
	}

	byID := make(map[id.VictimID]*models.Victim, len(victimIDs))
	if len(victimIDs) > 0 {
		victims, err := l.victims.FindByIDs(ctx, victimIDs)
		if err != nil {
			return nil, wrapStoreErr(err, "resolve victims")
		}
		for _, v := range victims {
			byID[v.ID] = v
		}
	}

	out := make([]*models.CaseDetails, 0, len(cases))
	for _, c := range cases {
		d := &models.CaseDetails{Case: c, VictimRecords: make([]*models.Victim, 0, len(c.Victims))}
		for _, vid := range c.Victims {
			if v, ok := byID[vid]; ok {
				d.VictimRecords = append(d.VictimRecords, v)
			}
		}
		out = append(out, d)
	}
	return out, nil
}
