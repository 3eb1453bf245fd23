// Package localdb opens the client's local SQLite database, applies the
// embedded goose migrations and hands out the repositories bound to it.
package localdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/urbannest/internal/client/localdb/migrations"
	"github.com/dmitrijs2005/urbannest/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/urbannest/internal/dbx"
	"github.com/dmitrijs2005/urbannest/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type DB struct {
	db       *sql.DB
	Metadata metadata.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the database at dsn. ":memory:" gives a
// throwaway store.
func Open(ctx context.Context, dsn string) (*DB, error) {
	if dsn != ":memory:" {
		if _, err := filex.EnsureParentDir(dsn); err != nil {
			return nil, fmt.Errorf("open local db: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("local db migrations: %w", err)
	}

	return &DB{db: db, Metadata: metadata.NewSQLiteRepository(db)}, nil
}

// InTx runs fn with a metadata repository bound to one transaction.
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context, md metadata.Repository) error) error {
	return dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, metadata.NewSQLiteRepository(tx))
	})
}

func (d *DB) Close() error {
	return d.db.Close()
}
