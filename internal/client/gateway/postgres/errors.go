package postgres

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeUndefinedColumn     = "42703"
	codeUndefinedTable      = "42P01"
)

// dbError wraps a driver error and classifies the Postgres codes callers
// act upon.
func dbError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUndefinedColumn, codeUndefinedTable:
			return fmt.Errorf("db error: %w: %w", gateway.ErrSchemaMismatch, err)
		case codeUniqueViolation:
			return fmt.Errorf("db error: %w: %w", gateway.ErrConflict, err)
		case codeForeignKeyViolation:
			return fmt.Errorf("db error: %w: %w", gateway.ErrNotFound, err)
		}
	}
	return fmt.Errorf("db error: %w", err)
}
