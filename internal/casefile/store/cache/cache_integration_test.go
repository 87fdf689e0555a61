//go:build integration

package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"casefile/internal/casefile/models"
	"casefile/internal/casefile/service"
	"casefile/internal/casefile/store/cache"
	"casefile/internal/casefile/store/cases"
	"casefile/internal/casefile/store/victims"
	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
	"casefile/pkg/testutil/containers"
)

type CacheSuite struct {
	suite.Suite
	redis        *containers.RedisContainer
	victimsInner *victims.InMemory
	casesInner   *cases.InMemory
	victims      *cache.Victims
	cases        *cache.Cases
}

func TestCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.Require().NoError(s.redis.Client.Health(context.Background()))
}

func (s *CacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.victimsInner = victims.NewInMemory()
	s.casesInner = cases.NewInMemory()
	s.victims = cache.NewVictims(s.victimsInner, s.redis.Client.Client, cache.WithTTL(time.Minute))
	s.cases = cache.NewCases(s.casesInner, s.redis.Client.Client, cache.WithTTL(time.Minute))
}

func (s *CacheSuite) TestReadThrough() {
	ctx := context.Background()
	v, err := models.NewVictim(id.NewVictimID(), "Alice", 30, "Smith", "poison", nil, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.victims.Create(ctx, v))

	found, err := s.victims.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.Equal("Alice", found.Name)

	n, err := s.redis.Client.Exists(ctx, "casefile:victim:"+v.ID.String()).Result()
	s.Require().NoError(err)
	s.Equal(int64(1), n, "first read populates the cache")

	// Bypass the decorator so only the cached copy would still say Alice.
	changed := found.Clone()
	changed.Name = "Alicia"
	s.Require().NoError(s.victimsInner.Update(ctx, changed))
	cached, err := s.victims.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.Equal("Alice", cached.Name)
}

func (s *CacheSuite) TestWritesInvalidate() {
	ctx := context.Background()
	v, err := models.NewVictim(id.NewVictimID(), "Alice", 30, "Smith", "poison", nil, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.victims.Create(ctx, v))
	c, err := models.NewCase(id.NewCaseID(), "Holmes", "revolver", "", "", []id.VictimID{v.ID}, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.cases.Create(ctx, c))

	_, err = s.victims.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	_, err = s.cases.FindByID(ctx, c.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.victims.SetCase(ctx, []id.VictimID{v.ID}, c.ID, time.Now()))
	found, err := s.victims.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.True(found.BelongsTo(c.ID), "bulk set-field must invalidate the cached victim")

	other := id.NewVictimID()
	s.Require().NoError(s.cases.AddVictim(ctx, c.ID, other, time.Now()))
	foundCase, err := s.cases.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.True(foundCase.HasVictim(other), "set add must invalidate the cached case")

	s.Require().NoError(s.cases.Delete(ctx, c.ID))
	_, err = s.cases.FindByID(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// pausingVictims holds the first FindByID after the row has been read, so a
// write can land between the store read and the cache fill.
type pausingVictims struct {
	service.VictimStore
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *pausingVictims) FindByID(ctx context.Context, victimID id.VictimID) (*models.Victim, error) {
	v, err := p.VictimStore.FindByID(ctx, victimID)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return v, err
}

func (s *CacheSuite) TestReadStartedBeforeWriteDoesNotFillCache() {
	ctx := context.Background()
	v, err := models.NewVictim(id.NewVictimID(), "Alice", 30, "Smith", "poison", nil, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.victimsInner.Create(ctx, v))

	paused := &pausingVictims{VictimStore: s.victimsInner, read: make(chan struct{}), release: make(chan struct{})}
	cached := cache.NewVictims(paused, s.redis.Client.Client, cache.WithTTL(time.Minute))

	done := make(chan error, 1)
	go func() {
		_, err := cached.FindByID(ctx, v.ID)
		done <- err
	}()
	<-paused.read

	caseID := id.NewCaseID()
	s.Require().NoError(cached.SetCase(ctx, []id.VictimID{v.ID}, caseID, time.Now()))
	close(paused.release)
	s.Require().NoError(<-done)

	found, err := cached.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.True(found.BelongsTo(caseID), "a row read before the write must not be cached after it")
}

// stagedVictims makes an Update visible only once stagedTx commits, like a
// database transaction.
type stagedVictims struct {
	service.VictimStore
	mu        sync.Mutex
	committed *models.Victim
	staged    *models.Victim
}

func (v *stagedVictims) FindByID(_ context.Context, _ id.VictimID) (*models.Victim, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.committed.Clone(), nil
}

func (v *stagedVictims) Update(_ context.Context, victim *models.Victim) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.staged = victim.Clone()
	return nil
}

type stagedTx struct{ store *stagedVictims }

func (t stagedTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.staged != nil {
		t.store.committed = t.store.staged
	}
	return nil
}

func (s *CacheSuite) TestTransactionInvalidatesAgainAfterCommit() {
	ctx := context.Background()
	v, err := models.NewVictim(id.NewVictimID(), "Alice", 30, "Smith", "poison", nil, time.Now())
	s.Require().NoError(err)

	store := &stagedVictims{committed: v}
	client := s.redis.Client.Client
	cached := cache.NewVictims(store, client, cache.WithTTL(time.Minute))
	txm := cache.NewTx(stagedTx{store: store}, client, cache.WithTTL(time.Minute))
	caseID := id.NewCaseID()

	err = txm.RunInTx(ctx, func(txCtx context.Context) error {
		changed := v.Clone()
		changed.AssignCase(&caseID, time.Now())
		if err := cached.Update(txCtx, changed); err != nil {
			return err
		}

		// outside the transaction the old row is still the committed one
		outside, err := cached.FindByID(ctx, v.ID)
		s.Require().NoError(err)
		s.False(outside.HasCase())
		n, err := client.Exists(ctx, "casefile:victim:"+v.ID.String()).Result()
		s.Require().NoError(err)
		s.Equal(int64(1), n)
		return nil
	})
	s.Require().NoError(err)

	found, err := cached.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.True(found.BelongsTo(caseID), "commit must clear the copy cached during the transaction")
}

func (s *CacheSuite) TestReadsInsideTransactionBypassCache() {
	ctx := context.Background()
	v, err := models.NewVictim(id.NewVictimID(), "Alice", 30, "Smith", "poison", nil, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.victims.Create(ctx, v))

	txm := cache.NewTx(service.NewInMemoryStoreTx(), s.redis.Client.Client)
	s.Require().NoError(txm.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := s.victims.FindByID(txCtx, v.ID)
		return err
	}))

	n, err := s.redis.Client.Exists(ctx, "casefile:victim:"+v.ID.String()).Result()
	s.Require().NoError(err)
	s.Zero(n)
}
