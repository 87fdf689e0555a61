package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"casefile/internal/casefile/models"
	"casefile/internal/casefile/service"
	id "casefile/pkg/domain"
)

// Victims is a caching service.VictimStore.
type Victims struct {
	base
	next service.VictimStore
}

func NewVictims(next service.VictimStore, client *redis.Client, opts ...Option) *Victims {
	return &Victims{base: newBase(client, "victim", opts), next: next}
}

func victimKey(victimID id.VictimID) string {
	return victimKeyPrefix + victimID.String()
}

func (c *Victims) FindByID(ctx context.Context, victimID id.VictimID) (*models.Victim, error) {
	if inTx(ctx) {
		return c.next.FindByID(ctx, victimID)
	}
	key := victimKey(victimID)
	var cached models.Victim
	hit, l := c.get(ctx, key, &cached)
	if hit {
		return &cached, nil
	}
	v, err := c.next.FindByID(ctx, victimID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, key, l, v)
	return v, nil
}

func (c *Victims) FindByIDs(ctx context.Context, victimIDs []id.VictimID) ([]*models.Victim, error) {
	return c.next.FindByIDs(ctx, victimIDs)
}

func (c *Victims) FindAll(ctx context.Context) ([]*models.Victim, error) {
	return c.next.FindAll(ctx)
}

func (c *Victims) FindByNameAndFamily(ctx context.Context, name, family string) (*models.Victim, error) {
	return c.next.FindByNameAndFamily(ctx, name, family)
}

func (c *Victims) Create(ctx context.Context, victim *models.Victim) error {
	if err := c.next.Create(ctx, victim); err != nil {
		return err
	}
	c.invalidate(ctx, victimKey(victim.ID))
	return nil
}

func (c *Victims) Update(ctx context.Context, victim *models.Victim) error {
	err := c.next.Update(ctx, victim)
	c.invalidate(ctx, victimKey(victim.ID))
	return err
}

func (c *Victims) Delete(ctx context.Context, victimID id.VictimID) error {
	err := c.next.Delete(ctx, victimID)
	c.invalidate(ctx, victimKey(victimID))
	return err
}

func (c *Victims) SetCase(ctx context.Context, victimIDs []id.VictimID, caseID id.CaseID, now time.Time) error {
	err := c.next.SetCase(ctx, victimIDs, caseID, now)
	c.invalidate(ctx, victimKeys(victimIDs)...)
	return err
}

func (c *Victims) ClearCase(ctx context.Context, victimIDs []id.VictimID, now time.Time) error {
	err := c.next.ClearCase(ctx, victimIDs, now)
	c.invalidate(ctx, victimKeys(victimIDs)...)
	return err
}

func victimKeys(victimIDs []id.VictimID) []string {
	keys := make([]string, len(victimIDs))
	for i, vid := range victimIDs {
		keys[i] = victimKey(vid)
	}
	return keys
}
