package service

import (
	"context"
	"sync"
	"time"

	dErrors "casefile/pkg/domain-errors"
)

// StoreTx provides a transactional boundary for multi-step store mutations.
// Implementations may wrap a database transaction or, in-memory, a coarse lock.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// defaultTxTimeout bounds a transaction when the caller set no deadline.
const defaultTxTimeout = 5 * time.Second

// inMemoryStoreTx serializes every linked write behind one mutex. A link
// touches a victim and a case at once, so per-entity sharding cannot help.
type inMemoryStoreTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewInMemoryStoreTx returns the lock-based StoreTx used with the memory stores.
func NewInMemoryStoreTx() StoreTx {
	return &inMemoryStoreTx{timeout: defaultTxTimeout}
}

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}
