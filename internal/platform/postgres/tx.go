package postgres

import (
	"context"
	"database/sql"
	"time"

	dErrors "casefile/pkg/domain-errors"
	txcontext "casefile/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// TxManager runs a function inside a SQL transaction carried in the context.
// Stores pick the transaction up through txcontext.From.
type TxManager struct {
	db      *sql.DB
	timeout time.Duration
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db, timeout: defaultTxTimeout}
}

// RunInTx commits when fn returns nil and rolls back otherwise. A context
// that already carries a transaction joins it.
func (t *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return WrapErr("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return WrapErr("commit transaction", tx.Commit())
}
