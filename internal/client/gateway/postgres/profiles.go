package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/dbx"
)

type ProfileRepository struct {
	db dbx.DBTX
}

func NewProfileRepository(db dbx.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	query :=
		`SELECT id, email, full_name, role, avatar_url, created_at FROM profiles
		 WHERE id = $1`

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.AvatarURL, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gateway.ErrNotFound
		}
		return nil, dbError(err)
	}
	return p, nil
}

func (r *ProfileRepository) UpsertProfile(ctx context.Context, p *models.Profile) error {
	query :=
		`INSERT INTO profiles (id, email, full_name, role, avatar_url)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   email = EXCLUDED.email,
		   full_name = EXCLUDED.full_name,
		   role = EXCLUDED.role,
		   avatar_url = EXCLUDED.avatar_url`

	if _, err := r.db.ExecContext(ctx, query, p.ID, p.Email, p.FullName, string(p.Role), p.AvatarURL); err != nil {
		return dbError(err)
	}
	return nil
}

func (r *ProfileRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.Profile, error) {
	query :=
		`UPDATE profiles SET full_name = $2, avatar_url = $3
		 WHERE id = $1
		 RETURNING id, email, full_name, role, avatar_url, created_at`

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, id, upd.FullName, upd.AvatarURL).
		Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.AvatarURL, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gateway.ErrNotFound
		}
		return nil, dbError(err)
	}
	return p, nil
}
