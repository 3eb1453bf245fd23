package postgres

import (
	"context"

	"github.com/dmitrijs2005/urbannest/internal/dbx"
)

type BookmarkRepository struct {
	db dbx.DBTX
}

func NewBookmarkRepository(db dbx.DBTX) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// ToggleBookmark deletes the pair when present and inserts it otherwise, in
// a single statement. Two concurrent toggles of an absent pair both take the
// insert branch; the loser hits ON CONFLICT and reports false.
func (r *BookmarkRepository) ToggleBookmark(ctx context.Context, userID, listingID string) (bool, error) {
	query :=
		`WITH deleted AS (
		   DELETE FROM bookmarks WHERE user_id = $1 AND listing_id = $2
		   RETURNING id
		 ), inserted AS (
		   INSERT INTO bookmarks (user_id, listing_id)
		   SELECT $1, $2 WHERE NOT EXISTS (SELECT 1 FROM deleted)
		   ON CONFLICT (user_id, listing_id) DO NOTHING
		   RETURNING id
		 )
		 SELECT EXISTS (SELECT 1 FROM inserted)`

	var bookmarked bool
	if err := r.db.QueryRowContext(ctx, query, userID, listingID).Scan(&bookmarked); err != nil {
		return false, dbError(err)
	}
	return bookmarked, nil
}

func (r *BookmarkRepository) BookmarkedListingIDs(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT listing_id FROM bookmarks
		 WHERE user_id = $1
		 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, dbError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return ids, nil
}
