package postgres

import (
	"context"

	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/dbx"
)

type MessageRepository struct {
	db dbx.DBTX
}

func NewMessageRepository(db dbx.DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) SendMessage(ctx context.Context, senderID, receiverID, listingID, content string) (*models.Message, error) {
	query :=
		`INSERT INTO messages (sender_id, receiver_id, listing_id, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, sender_id, receiver_id, listing_id, content, created_at`

	m := &models.Message{}
	err := r.db.QueryRowContext(ctx, query, senderID, receiverID, listingID, content).
		Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.ListingID, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, dbError(err)
	}
	return m, nil
}

func (r *MessageRepository) ConversationMessages(ctx context.Context, userID, otherID, listingID string) ([]*models.Message, error) {
	query :=
		`SELECT id, sender_id, receiver_id, listing_id, content, created_at FROM messages
		 WHERE listing_id = $3
		   AND ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
		 ORDER BY created_at ASC`

	return r.query(ctx, query, userID, otherID, listingID)
}

func (r *MessageRepository) UserMessages(ctx context.Context, userID string) ([]*models.Message, error) {
	query :=
		`SELECT id, sender_id, receiver_id, listing_id, content, created_at FROM messages
		 WHERE sender_id = $1 OR receiver_id = $1
		 ORDER BY created_at DESC`

	return r.query(ctx, query, userID)
}

func (r *MessageRepository) query(ctx context.Context, query string, args ...any) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	res := make([]*models.Message, 0)
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.ListingID, &m.Content, &m.CreatedAt); err != nil {
			return nil, dbError(err)
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return res, nil
}
