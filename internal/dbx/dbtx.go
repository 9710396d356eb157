// Package dbx holds the handle type the repositories are written against
// and the transaction runner the auth service uses for its multi-statement
// writes.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so a repository can be
// bound to either.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MaxTxAttempts bounds how often WithTx runs fn when Postgres aborts the
// transaction with a serialization failure or a deadlock.
const MaxTxAttempts = 3

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// Retryable reports whether err is a transaction abort that is expected to
// succeed when the whole transaction is run again.
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}

// WithTx runs fn inside a transaction and commits when fn returns nil.
// Errors and panics roll back; a panic is re-raised after the rollback.
// Retryable aborts rerun fn from a fresh transaction, so fn must not have
// side effects outside tx.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return repomanager.RefreshTokens(tx).DeleteAllForUser(ctx, userID)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	var err error
	for attempt := 1; attempt <= MaxTxAttempts; attempt++ {
		err = runTx(ctx, db, opts, fn)
		if err == nil || !Retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", MaxTxAttempts, err)
}

func runTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	return fn(ctx, tx)
}
