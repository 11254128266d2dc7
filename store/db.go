// Package store is the relational layer: bun models and the CRUD and
// transactional queries the handlers delegate to. The cache layer treats
// all of this as the source of truth.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Domain error kinds. Handlers map these onto HTTP statuses.
var (
	ErrNotFound  = errors.New("store: not found")
	ErrConflict  = errors.New("store: already exists")
	ErrForbidden = errors.New("store: not the owner")
)

// Open connects to the database named by dsn. A postgres:// DSN selects the
// pq driver, anything else is treated as a SQLite path (":memory:" included).
func Open(dsn string) (*bun.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}

	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite handles one writer at a time; a single connection also keeps
	// :memory: databases from silently splitting per connection.
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// isUniqueViolation reports whether err is the driver's unique-constraint
// violation, for either backend. Pre-insert duplicate checks race under
// concurrency; the constraint is the authority and its violation must read
// as a conflict, not an internal error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	return false
}

// Migrate creates any missing tables. Idempotent.
func Migrate(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*Recipe)(nil),
		(*Ingredient)(nil),
		(*RecipeImage)(nil),
		(*Review)(nil),
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
