package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// DBTxKey is the context key under which an open transaction is stored.
const DBTxKey contextKey = "db_tx"

// TxFromContext retrieves the open transaction from context, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// WithTx returns a child context carrying tx. Repositories that resolve their
// connection via TxFromContext will then participate in the transaction.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, DBTxKey, tx)
}

// isSerializationFailure detects a serialization failure or deadlock,
// surfaced by Postgres when two serializable transactions collide.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// SerializationFailure reports whether err is a Postgres serialization
// conflict. Callers may retry the whole operation; this package never does.
func SerializationFailure(err error) bool {
	return isSerializationFailure(err)
}

// RunInTx executes fn inside a transaction with the given isolation level.
// The transaction is stored in the context passed to fn so that repository
// calls made within fn share it. Any error from fn rolls the transaction back.
func RunInTx(ctx context.Context, pool *pgxpool.Pool, iso pgx.TxIsoLevel, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		// Already inside a transaction; just run in it.
		return fn(ctx)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: iso})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RunSerializable executes fn in a serializable transaction. All multi-step
// mutations of bed, ledger, and admission state go through this.
func RunSerializable(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	return RunInTx(ctx, pool, pgx.Serializable, fn)
}
