package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/logging"
)

// BookmarkState is one user's set of bookmarked listing ids. Toggles are
// applied locally first and reconciled with the backend's answer.
type BookmarkState struct {
	bookmarks gateway.Bookmarks
	userID    string
	log       logging.Logger

	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewBookmarkState binds the state to userID; "" means signed out.
func NewBookmarkState(bookmarks gateway.Bookmarks, userID string, log logging.Logger) *BookmarkState {
	return &BookmarkState{
		bookmarks: bookmarks,
		userID:    userID,
		log:       logging.OrNop(log),
		ids:       make(map[string]struct{}),
	}
}

// Load fetches the whole set once. Failures leave the set empty and are
// only logged.
func (b *BookmarkState) Load(ctx context.Context) {
	if b.userID == "" {
		return
	}
	ids, err := b.bookmarks.BookmarkedListingIDs(ctx, b.userID)
	if err != nil {
		b.log.Warn(ctx, "failed to load bookmarks", "user_id", b.userID, "error", err)
		ids = nil
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	b.mu.Lock()
	b.ids = set
	b.mu.Unlock()
}

func (b *BookmarkState) Contains(listingID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.ids[listingID]
	return ok
}

func (b *BookmarkState) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ids)
}

func (b *BookmarkState) set(listingID string, on bool) {
	if on {
		b.ids[listingID] = struct{}{}
	} else {
		delete(b.ids, listingID)
	}
}

// Toggle flips the membership of listingID and returns the new state.
func (b *BookmarkState) Toggle(ctx context.Context, listingID string) (bool, error) {
	if b.userID == "" {
		return false, ErrLoginRequired
	}

	b.mu.Lock()
	_, was := b.ids[listingID]
	b.set(listingID, !was)
	b.mu.Unlock()

	on, err := b.bookmarks.ToggleBookmark(ctx, b.userID, listingID)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.set(listingID, was)
		return was, fmt.Errorf("toggle bookmark: %w", err)
	}
	b.set(listingID, on)
	return on, nil
}

// SavedHomes resolves a user's bookmarks to listings. An empty bookmark set
// does not touch the listings backend.
func SavedHomes(ctx context.Context, bookmarks gateway.Bookmarks, listings gateway.Listings, userID string) ([]*models.Listing, error) {
	if userID == "" {
		return nil, ErrLoginRequired
	}
	ids, err := bookmarks.BookmarkedListingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}
	if len(ids) == 0 {
		return []*models.Listing{}, nil
	}
	ls, err := listings.ListingsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load saved listings: %w", err)
	}
	return ls, nil
}
