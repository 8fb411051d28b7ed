// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type
// over a [DBTX], so the same code runs against the pool or inside a transaction.
package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// DBTX is the query surface shared by [sqlx.DB] and [sqlx.Tx].
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

var (
	_ DBTX = (*sqlx.DB)(nil)
	_ DBTX = (*sqlx.Tx)(nil)
)

// insertReturningID runs an INSERT ... RETURNING id statement written with '?' placeholders.
func insertReturningID(ctx context.Context, db DBTX, query string, args ...any) (int64, error) {
	var id int64
	if err := db.QueryRowxContext(ctx, db.Rebind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// get scans a single row into dest, mapping [sql.ErrNoRows] to notFound.
func get(ctx context.Context, db DBTX, notFound error, dest any, query string, args ...any) error {
	err := db.GetContext(ctx, dest, db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// nullableID stores zero identifiers as NULL.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
