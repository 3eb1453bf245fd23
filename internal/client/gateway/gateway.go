package gateway

import (
	"context"
	"io"

	"github.com/dmitrijs2005/urbannest/internal/client/models"
)

type Profiles interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, p *models.Profile) error
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.Profile, error)
}

// Listings returns collections newest first.
type Listings interface {
	ListListings(ctx context.Context) ([]*models.Listing, error)
	ListOwnerListings(ctx context.Context, ownerID string) ([]*models.Listing, error)
	ListingsByIDs(ctx context.Context, ids []string) ([]*models.Listing, error)
	CreateListing(ctx context.Context, l *models.Listing) (*models.Listing, error)
	// UpdateListing never overwrites id, owner_id or created_at.
	UpdateListing(ctx context.Context, id string, l *models.Listing) (*models.Listing, error)
	DeleteListing(ctx context.Context, id string) error
}

type Messages interface {
	SendMessage(ctx context.Context, senderID, receiverID, listingID, content string) (*models.Message, error)
	// ConversationMessages returns both directions between user and other
	// about the listing, oldest first.
	ConversationMessages(ctx context.Context, userID, otherID, listingID string) ([]*models.Message, error)
	// UserMessages returns every message sent or received by user, newest first.
	UserMessages(ctx context.Context, userID string) ([]*models.Message, error)
}

type Bookmarks interface {
	// ToggleBookmark flips the (user, listing) membership atomically and
	// reports whether the listing is bookmarked afterwards.
	ToggleBookmark(ctx context.Context, userID, listingID string) (bool, error)
	BookmarkedListingIDs(ctx context.Context, userID string) ([]string, error)
}

// Store is the record backend.
type Store interface {
	Profiles
	Listings
	Messages
	Bookmarks
}

type Accounts interface {
	CreateAccount(ctx context.Context, a *models.Account) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

type FileStore interface {
	Upload(ctx context.Context, path, contentType string, body io.Reader) error
	PublicURL(path string) string
}

// Realtime delivers every newly inserted message until ctx is cancelled, at
// which point the channel is closed.
type Realtime interface {
	SubscribeMessages(ctx context.Context) (<-chan *models.Message, error)
}

type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Auth interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	// CurrentSession returns nil without error when nobody is signed in.
	CurrentSession(ctx context.Context) (*models.Session, error)
	Subscribe(fn func(models.AuthEvent)) (unsubscribe func())
}

// OwnedListingDeleter is implemented by stores that can check ownership and
// delete in one step. ErrUnauthorized is returned for a foreign listing.
type OwnedListingDeleter interface {
	DeleteOwnedListing(ctx context.Context, id, ownerID string) error
}
