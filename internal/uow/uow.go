// Package uow implements the scoped transactional session described in
// spec.md §4.5: one session (a pgx.Tx) per unit of work, lending out
// exactly one cached repository instance per concrete repository type,
// committed on normal exit and rolled back on any error or panic.
package uow

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/skywatch/internal/errs"
	"github.com/wisbric/skywatch/internal/repository"
)

// UnitOfWork owns a single database transaction and the repositories bound
// to it. A UnitOfWork must not be used after Run returns: its transaction
// is then finished, so calls on repositories obtained from it fail with
// pgx's closed-transaction error, and GetRepository returns
// errs.SessionMisuse for a repository type it had not cached while open.
type UnitOfWork struct {
	tx     pgx.Tx
	closed bool
	cache  map[reflect.Type]any

	AsteroidRepo *repository.AsteroidRepository
	ApproachRepo *repository.CloseApproachRepository
	ThreatRepo   *repository.ThreatAssessmentRepository
}

func newUnitOfWork(tx pgx.Tx) *UnitOfWork {
	u := &UnitOfWork{tx: tx, cache: make(map[reflect.Type]any)}
	u.AsteroidRepo = repository.NewAsteroidRepository(tx)
	u.ApproachRepo = repository.NewCloseApproachRepository(tx)
	u.ThreatRepo = repository.NewThreatAssessmentRepository(tx)
	u.cache[reflect.TypeOf(u.AsteroidRepo)] = u.AsteroidRepo
	u.cache[reflect.TypeOf(u.ApproachRepo)] = u.ApproachRepo
	u.cache[reflect.TypeOf(u.ThreatRepo)] = u.ThreatRepo
	return u
}

// Session returns the underlying transaction, for call sites that need
// direct SQL access outside the repository layer (migrations, pruning's
// independent transactions are built at a higher level, not through this
// accessor).
func (u *UnitOfWork) Session() pgx.Tx {
	return u.tx
}

// GetRepository returns the repository instance of type R cached on this
// UnitOfWork, constructing and caching it on first use with the supplied
// constructor. This mirrors the generic get_repository(T) helper in
// spec.md §4.5 for repository types beyond the three built in above. On a
// closed UnitOfWork an already-cached type is still returned; any other
// type gets errs.SessionMisusef rather than a zero value.
func GetRepository[R any](u *UnitOfWork, construct func(repository.Queryer) R) (R, error) {
	key := reflect.TypeOf((*R)(nil)).Elem()
	if cached, ok := u.cache[key]; ok {
		return cached.(R), nil
	}
	if u.closed {
		var zero R
		return zero, errs.SessionMisusef("GetRepository called on a closed unit of work")
	}
	r := construct(u.tx)
	u.cache[key] = r
	return r, nil
}

// commit finalizes the transaction.
func (u *UnitOfWork) commit(ctx context.Context) error {
	if u.closed {
		return errs.SessionMisusef("unit of work already closed")
	}
	u.closed = true
	return u.tx.Commit(ctx)
}

// rollback aborts the transaction. Rollback after a commit, or after an
// already-rolled-back transaction, is a no-op per pgx.Tx's own contract.
func (u *UnitOfWork) rollback(ctx context.Context) {
	u.closed = true
	_ = u.tx.Rollback(ctx)
}

// Run opens a transaction against pool, constructs a UnitOfWork around it,
// and invokes fn. fn's error (including a panic, which is re-raised after
// rollback) triggers a rollback; a nil return commits. This is the sole
// entry point for obtaining a UnitOfWork — callers never construct one
// directly, enforcing the "no session" SessionMisuse rule by construction.
func Run(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, u *UnitOfWork) error) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	u := newUnitOfWork(tx)
	defer func() {
		if p := recover(); p != nil {
			u.rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, u); err != nil {
		u.rollback(ctx)
		return err
	}

	if err := u.commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
