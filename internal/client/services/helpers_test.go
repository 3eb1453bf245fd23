package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/urbannest/internal/client/auth"
	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/gateway/memory"
	"github.com/dmitrijs2005/urbannest/internal/client/localdb"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// png is the smallest byte prefix http.DetectContentType reports as image/png.
var png = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")

func newProvider(t *testing.T, accounts gateway.Accounts) *auth.Provider {
	t.Helper()
	db, err := localdb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return auth.NewProvider(accounts, db, auth.Config{Secret: []byte("test-secret"), SessionTTL: time.Hour}, nil)
}

func owner(id string) *models.Profile {
	return &models.Profile{ID: id, Email: id + "@x.com", FullName: "Owner " + id, Role: models.RoleOwner}
}

func renter(id string) *models.Profile {
	return &models.Profile{ID: id, Email: id + "@x.com", FullName: "Renter " + id, Role: models.RoleRenter}
}

func seedListing(t *testing.T, b *memory.Backend, l models.Listing) *models.Listing {
	t.Helper()
	res, err := b.CreateListing(context.Background(), &l)
	require.NoError(t, err)
	return res
}

// listingsOnly hides the optional interfaces of the wrapped store.
type listingsOnly struct {
	gateway.Listings
}

// flakyStore injects errors in front of a memory backend.
type flakyStore struct {
	*memory.Backend

	mu           sync.Mutex
	listErr      error
	createErr    error
	byIDsErr     error
	toggleErr    error
	bookmarksErr error
	userMsgsErr  error
	convErr      error
	profileErr   error
	byIDsCalls   int
	toggleHook   func()
}

func (f *flakyStore) ListListings(ctx context.Context) ([]*models.Listing, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Backend.ListListings(ctx)
}

func (f *flakyStore) CreateListing(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.Backend.CreateListing(ctx, l)
}

func (f *flakyStore) ListingsByIDs(ctx context.Context, ids []string) ([]*models.Listing, error) {
	f.mu.Lock()
	f.byIDsCalls++
	f.mu.Unlock()
	if f.byIDsErr != nil {
		return nil, f.byIDsErr
	}
	return f.Backend.ListingsByIDs(ctx, ids)
}

func (f *flakyStore) ToggleBookmark(ctx context.Context, userID, listingID string) (bool, error) {
	if f.toggleHook != nil {
		f.toggleHook()
	}
	if f.toggleErr != nil {
		return false, f.toggleErr
	}
	return f.Backend.ToggleBookmark(ctx, userID, listingID)
}

func (f *flakyStore) BookmarkedListingIDs(ctx context.Context, userID string) ([]string, error) {
	if f.bookmarksErr != nil {
		return nil, f.bookmarksErr
	}
	return f.Backend.BookmarkedListingIDs(ctx, userID)
}

func (f *flakyStore) UserMessages(ctx context.Context, userID string) ([]*models.Message, error) {
	if f.userMsgsErr != nil {
		return nil, f.userMsgsErr
	}
	return f.Backend.UserMessages(ctx, userID)
}

func (f *flakyStore) ConversationMessages(ctx context.Context, userID, otherID, listingID string) ([]*models.Message, error) {
	if f.convErr != nil {
		return nil, f.convErr
	}
	return f.Backend.ConversationMessages(ctx, userID, otherID, listingID)
}

func (f *flakyStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.Backend.GetProfile(ctx, id)
}

// failingFiles fails the upload number failAt (1-based) and counts the rest.
type failingFiles struct {
	gateway.FileStore
	failAt int
	calls  int
}

func (f *failingFiles) Upload(ctx context.Context, path, contentType string, body io.Reader) error {
	f.calls++
	if f.calls == f.failAt {
		return errBoom
	}
	return f.FileStore.Upload(ctx, path, contentType, body)
}

// fakeGenerator records prompts and answers with text or err.
type fakeGenerator struct {
	text    string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

const (
	timeoutWait = 2 * time.Second
	tick        = 10 * time.Millisecond
)
