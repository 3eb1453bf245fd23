package models

import "time"

// Bookmark is a renter's saved reference to a listing. There is at most one
// bookmark per (UserID, ListingID).
type Bookmark struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ListingID string    `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}
