package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"casefile/internal/casefile/models"
	"casefile/internal/casefile/service"
	id "casefile/pkg/domain"
)

// Cases is a caching service.CaseStore.
type Cases struct {
	base
	next service.CaseStore
}

func NewCases(next service.CaseStore, client *redis.Client, opts ...Option) *Cases {
	return &Cases{base: newBase(client, "case", opts), next: next}
}

func caseKey(caseID id.CaseID) string {
	return caseKeyPrefix + caseID.String()
}

func (c *Cases) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	if inTx(ctx) {
		return c.next.FindByID(ctx, caseID)
	}
	key := caseKey(caseID)
	var cached models.Case
	hit, l := c.get(ctx, key, &cached)
	if hit {
		return &cached, nil
	}
	found, err := c.next.FindByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, l, found)
	return found, nil
}

func (c *Cases) FindByIDs(ctx context.Context, caseIDs []id.CaseID) ([]*models.Case, error) {
	return c.next.FindByIDs(ctx, caseIDs)
}

func (c *Cases) FindAll(ctx context.Context) ([]*models.Case, error) {
	return c.next.FindAll(ctx)
}

func (c *Cases) Create(ctx context.Context, cs *models.Case) error {
	if err := c.next.Create(ctx, cs); err != nil {
		return err
	}
	c.invalidate(ctx, caseKey(cs.ID))
	return nil
}

func (c *Cases) Update(ctx context.Context, cs *models.Case) error {
	err := c.next.Update(ctx, cs)
	c.invalidate(ctx, caseKey(cs.ID))
	return err
}

func (c *Cases) Delete(ctx context.Context, caseID id.CaseID) error {
	err := c.next.Delete(ctx, caseID)
	c.invalidate(ctx, caseKey(caseID))
	return err
}

func (c *Cases) AddVictim(ctx context.Context, caseID id.CaseID, victimID id.VictimID, now time.Time) error {
	err := c.next.AddVictim(ctx, caseID, victimID, now)
	c.invalidate(ctx, caseKey(caseID))
	return err
}

func (c *Cases) RemoveVictim(ctx context.Context, caseID id.CaseID, victimID id.VictimID, now time.Time) error {
	err := c.next.RemoveVictim(ctx, caseID, victimID, now)
	c.invalidate(ctx, caseKey(caseID))
	return err
}
