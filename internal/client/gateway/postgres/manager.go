// Package postgres implements the record store and the credential store on
// PostgreSQL through database/sql and the pgx driver, plus a realtime feed
// built on LISTEN/NOTIFY.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/gateway/postgres/migrations"
	"github.com/dmitrijs2005/urbannest/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var (
	_ gateway.Store    = (*Manager)(nil)
	_ gateway.Accounts = (*Manager)(nil)

	_ gateway.OwnedListingDeleter = (*Manager)(nil)
)

// Manager composes the per-table repositories over one connection pool.
type Manager struct {
	*ProfileRepository
	*ListingRepository
	*MessageRepository
	*BookmarkRepository
	*AccountRepository

	db *sql.DB
}

// NewManager binds every repository to db.
func NewManager(db *sql.DB) *Manager {
	return &Manager{
		ProfileRepository:  NewProfileRepository(db),
		ListingRepository:  NewListingRepository(db),
		MessageRepository:  NewMessageRepository(db),
		BookmarkRepository: NewBookmarkRepository(db),
		AccountRepository:  NewAccountRepository(db),
		db:                 db,
	}
}

// Open connects to dsn, checks the connection and applies migrations.
func Open(ctx context.Context, dsn string) (*Manager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := NewManager(db)
	if err := m.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func (m *Manager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

// DeleteOwnedListing removes a listing only when it belongs to ownerID.
// Both the ownership check and the delete run in one transaction.
func (m *Manager) DeleteOwnedListing(ctx context.Context, id, ownerID string) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var owner string
		err := tx.QueryRowContext(ctx, `SELECT owner_id FROM listings WHERE id = $1 FOR UPDATE`, id).Scan(&owner)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return gateway.ErrNotFound
			}
			return dbError(err)
		}
		if owner != ownerID {
			return gateway.ErrUnauthorized
		}
		return NewListingRepository(tx).DeleteListing(ctx, id)
	})
}

func (m *Manager) Close() error {
	return m.db.Close()
}
