package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ds124wfegd/gameroom/internal/entity"
	"github.com/lib/pq"
)

type txKey struct{}

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// conn returns the transaction stored in ctx, or db when there is none.
func conn(ctx context.Context, db *sql.DB) executor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

type txManager struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) Transactor {
	return &txManager{db: db}
}

// WithinTx begins a read committed transaction, commits when fn succeeds
// and rolls back otherwise. Nested calls reuse the outer transaction.
func (m *txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", translate(err))
	}
	return nil
}

const (
	uniqueViolation    = "23505"
	exclusionViolation = "23P01"
)

// translate maps constraint violations raised during the race window
// onto domain conflicts so that raw storage errors never leak.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case uniqueViolation:
		if pqErr.Constraint == "uq_reservation_slots_room_date_slot" {
			return entity.ErrSlotAlreadyBooked
		}
		return fmt.Errorf("%w: %s", entity.ErrConflict, pqErr.Message)
	case exclusionViolation:
		return entity.ErrPeriodOverlap
	}
	return err
}

// advisoryLock takes a transaction scoped lock keyed by an arbitrary string.
func advisoryLock(ctx context.Context, db *sql.DB, key string) error {
	return lockKey(ctx, db, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
}

// advisoryLockShared conflicts only with advisoryLock on the same key.
func advisoryLockShared(ctx context.Context, db *sql.DB, key string) error {
	return lockKey(ctx, db, `SELECT pg_advisory_xact_lock_shared(hashtext($1))`, key)
}

func lockKey(ctx context.Context, db *sql.DB, query, key string) error {
	if _, err := conn(ctx, db).ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	return nil
}
