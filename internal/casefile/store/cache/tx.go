package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"casefile/internal/casefile/service"
)

// Tx wraps a service.StoreTx. Keys a decorator invalidates inside the
// transaction are invalidated again after it ends, because until the commit
// a reader outside it can still load the old row and fill the cache.
type Tx struct {
	base
	next service.StoreTx
}

// NewTx must share client with the store decorators it covers.
func NewTx(next service.StoreTx, client *redis.Client, opts ...Option) *Tx {
	return &Tx{base: newBase(client, "tx", opts), next: next}
}

func (t *Tx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, nested := pendingFrom(ctx); nested {
		return t.next.RunInTx(ctx, fn)
	}
	p := &pending{}
	err := t.next.RunInTx(context.WithValue(ctx, pendingKey{}, p), fn)
	// also after a rollback
	t.invalidate(context.WithoutCancel(ctx), p.drain()...)
	return err
}
