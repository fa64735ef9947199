package database

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn returns tx when the caller is inside a transaction, otherwise db.
func Conn(db *sql.DB, tx *sql.Tx) Querier {
	if tx != nil {
		return tx
	}
	return db
}

// Transactor runs fn inside a single transaction. Services depend on this
// rather than *sql.DB so they can be exercised without a database.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type SQLTransactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back on error or panic.
// Panics are re-raised after the rollback.
func (t *SQLTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
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
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
