package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/intrence/catalog/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// runner executes statements against a tier source, applying the acquire
// and statement timeouts. Inside a transaction it reuses tx.
type runner struct {
	src              Handle
	acquireTimeout   time.Duration
	statementTimeout time.Duration
	tx               pgx.Tx
}

// Timeouts bound connection acquisition and statement execution. Zero
// disables a bound.
type Timeouts struct {
	Acquire   time.Duration
	Statement time.Duration
}

func newRunner(src Handle, t Timeouts) runner {
	return runner{src: src, acquireTimeout: t.Acquire, statementTimeout: t.Statement}
}

func (r runner) withTx(tx pgx.Tx) runner {
	r.tx = tx
	return r
}

func (r runner) run(ctx context.Context, fn func(ctx context.Context, db DB) error) error {
	if r.tx != nil {
		return r.exec(ctx, r.tx, fn)
	}
	db, release, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return r.exec(ctx, db, fn)
}

func (r runner) acquire(ctx context.Context) (DB, func(), error) {
	actx, cancel := withOptionalTimeout(ctx, r.acquireTimeout)
	defer cancel()
	db, release, err := r.src.Acquire(actx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return nil, nil, &PoolExhaustedError{Pool: r.src.Name(), Timeout: r.acquireTimeout, Err: err}
		}
		return nil, nil, fmt.Errorf("acquiring connection from %s: %w", r.src.Name(), err)
	}
	return db, release, nil
}

func (r runner) exec(ctx context.Context, db DB, fn func(ctx context.Context, db DB) error) error {
	sctx, cancel := withOptionalTimeout(ctx, r.statementTimeout)
	defer cancel()
	return classifyStatementError(ctx, sctx, r.statementTimeout, fn(sctx, db))
}

// transaction runs fn inside one transaction on one connection. A nested
// call joins the outer transaction.
func (r runner) transaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	if r.tx != nil {
		return fn(r.tx)
	}
	db, release, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			rollback(ctx, tx)
			panic(p)
		} else if err != nil {
			rollback(ctx, tx)
		} else if cErr := tx.Commit(ctx); cErr != nil {
			logger.FromContext(ctx).Error("Failed to commit transaction", "error", cErr)
			err = fmt.Errorf("commit transaction: %w", cErr)
		}
	}()
	return fn(tx)
}

// rollback outlives the caller's context so a canceled request still
// returns its connection clean.
func rollback(ctx context.Context, tx pgx.Tx) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPingTimeout)
	defer cancel()
	if err := tx.Rollback(rbCtx); err != nil {
		logger.FromContext(ctx).Error("Failed to rollback transaction", "error", err)
	}
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
