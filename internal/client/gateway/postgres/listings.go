package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/common"
	"github.com/dmitrijs2005/urbannest/internal/dbx"
)

const listingColumns = `id, owner_id, title, description, location, area, rent, sqft,
		 bedrooms, bathrooms, balconies, category, features, images, thumbnail,
		 is_available, is_verified, created_at`

type ListingRepository struct {
	db dbx.DBTX
}

func NewListingRepository(db dbx.DBTX) *ListingRepository {
	return &ListingRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(s rowScanner) (*models.Listing, error) {
	l := &models.Listing{}
	var features, images []byte
	err := s.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Location, &l.Area, &l.Rent, &l.Sqft,
		&l.Bedrooms, &l.Bathrooms, &l.Balconies, &l.Category, &features, &images, &l.Thumbnail,
		&l.IsAvailable, &l.IsVerified, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalList(features, &l.Features); err != nil {
		return nil, fmt.Errorf("listing %s features: %w", l.ID, err)
	}
	if err := unmarshalList(images, &l.Images); err != nil {
		return nil, fmt.Errorf("listing %s images: %w", l.ID, err)
	}
	return l, nil
}

func unmarshalList(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		*dst = []string{}
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func marshalList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *ListingRepository) query(ctx context.Context, query string, args ...any) ([]*models.Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	res := make([]*models.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, dbError(err)
		}
		res = append(res, l)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return res, nil
}

func (r *ListingRepository) ListListings(ctx context.Context) ([]*models.Listing, error) {
	return r.query(ctx, `SELECT `+listingColumns+` FROM listings
		 ORDER BY created_at DESC`)
}

func (r *ListingRepository) ListOwnerListings(ctx context.Context, ownerID string) ([]*models.Listing, error) {
	return r.query(ctx, `SELECT `+listingColumns+` FROM listings
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`, ownerID)
}

func (r *ListingRepository) ListingsByIDs(ctx context.Context, ids []string) ([]*models.Listing, error) {
	if len(ids) == 0 {
		return []*models.Listing{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	return r.query(ctx, `SELECT `+listingColumns+` FROM listings
		 WHERE id IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY created_at DESC`, args...)
}

func (r *ListingRepository) CreateListing(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	features, err := marshalList(l.Features)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}
	images, err := marshalList(l.Images)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}

	query :=
		`INSERT INTO listings (owner_id, title, description, location, area, rent, sqft,
		 bedrooms, bathrooms, balconies, category, features, images, thumbnail, is_available, is_verified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13::jsonb, $14, $15, $16)
		 RETURNING ` + listingColumns

	row := r.db.QueryRowContext(ctx, query,
		l.OwnerID, l.Title, l.Description, l.Location, l.Area, l.Rent, l.Sqft,
		l.Bedrooms, l.Bathrooms, l.Balconies, l.Category, features, images, l.Thumbnail, l.IsAvailable, l.IsVerified)
	created, err := scanListing(row)
	if err != nil {
		return nil, dbError(err)
	}
	return created, nil
}

// UpdateListing rewrites the owner-editable columns. id, owner_id,
// created_at and is_verified are not part of the SET list.
func (r *ListingRepository) UpdateListing(ctx context.Context, id string, l *models.Listing) (*models.Listing, error) {
	features, err := marshalList(l.Features)
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}
	images, err := marshalList(l.Images)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}

	query :=
		`UPDATE listings SET title = $2, description = $3, location = $4, area = $5, rent = $6, sqft = $7,
		 bedrooms = $8, bathrooms = $9, balconies = $10, category = $11, features = $12::jsonb,
		 images = $13::jsonb, thumbnail = $14, is_available = $15
		 WHERE id = $1
		 RETURNING ` + listingColumns

	row := r.db.QueryRowContext(ctx, query,
		id, l.Title, l.Description, l.Location, l.Area, l.Rent, l.Sqft,
		l.Bedrooms, l.Bathrooms, l.Balconies, l.Category, features, images, l.Thumbnail, l.IsAvailable)
	updated, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gateway.ErrNotFound
		}
		return nil, dbError(err)
	}
	return updated, nil
}

func (r *ListingRepository) DeleteListing(ctx context.Context, id string) error {
	err := dbx.MustAffect(r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return gateway.ErrNotFound
		}
		return dbError(err)
	}
	return nil
}
