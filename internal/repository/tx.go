package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type txContextKey struct{}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLTransactor implements Transactor over database/sql. Repositories built
// on the same *sql.DB automatically join a transaction carried in the
// context, so a single WithinTransaction call covers every write issued
// inside fn.
type SQLTransactor struct {
	db *sql.DB
}

// NewSQLTransactor creates a transactor over the given database handle.
func NewSQLTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: db}
}

var _ Transactor = (*SQLTransactor)(nil)

// WithinTransaction runs fn inside a transaction: commit on success,
// rollback and return the error otherwise. Nested calls join the
// transaction already in flight.
func (t *SQLTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// LockOrder takes a session-level advisory lock keyed on the order ID,
// serializing concurrent finalize attempts for the same order. The returned
// unlock releases the lock and its connection; it must always be called.
func (t *SQLTransactor) LockOrder(ctx context.Context, orderID string) (func(), error) {
	conn, err := t.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, orderID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("acquire order lock: %w", err)
	}

	unlock := func() {
		// Unlock with a fresh context so a cancelled request still
		// releases the lock before the connection is returned.
		conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, orderID)
		conn.Close()
	}
	return unlock, nil
}

// q returns the transaction carried in ctx, or the base handle.
func q(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txContextKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}
