package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/dbx"
)

type AccountRepository struct {
	db dbx.DBTX
}

func NewAccountRepository(db dbx.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) CreateAccount(ctx context.Context, a *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`

	res := *a
	res.Email = strings.ToLower(a.Email)
	if err := r.db.QueryRowContext(ctx, query, res.ID, res.Email, res.PasswordHash).Scan(&res.CreatedAt); err != nil {
		return nil, dbError(err)
	}
	return &res, nil
}

func (r *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, email, password_hash, created_at FROM accounts
		 WHERE email = $1`

	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, strings.ToLower(email)).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gateway.ErrNotFound
		}
		return nil, dbError(err)
	}
	return a, nil
}
