package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
)

// TxFunc is the body of a transaction.
type TxFunc func(ctx context.Context, tx bun.Tx) error

// WithWriteTx runs fn in an explicit write transaction. SQLite allows a single
// writer, so every state change of every visitor is serialized here.
func (db *DB) WithWriteTx(ctx context.Context, fn TxFunc) error {
	if db == nil || db.W == nil {
		return fmt.Errorf("write db is not initialized")
	}
	return db.W.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

// WithReadTx runs fn in a read-only transaction.
func (db *DB) WithReadTx(ctx context.Context, fn TxFunc) error {
	if db == nil || db.R == nil {
		return fmt.Errorf("read db is not initialized")
	}
	return db.R.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
