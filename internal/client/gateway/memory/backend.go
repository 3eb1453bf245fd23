// Package memory is an in-process implementation of every gateway contract.
// It backs the demo mode of the binary and the end-to-end tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/google/uuid"
)

var (
	_ gateway.Store     = (*Backend)(nil)
	_ gateway.Accounts  = (*Backend)(nil)
	_ gateway.FileStore = (*Backend)(nil)
	_ gateway.Realtime  = (*Backend)(nil)

	_ gateway.OwnedListingDeleter = (*Backend)(nil)
)

const DefaultBaseURL = "memory://urbannest"

type subscriber struct {
	ctx    context.Context
	ch     chan *models.Message
	mu     sync.RWMutex
	closed bool
}

type object struct {
	contentType string
	data        []byte
}

// Backend keeps all records in maps guarded by a single mutex. Returned
// records are copies; callers may mutate them freely.
type Backend struct {
	mu        sync.RWMutex
	profiles  map[string]*models.Profile
	listings  map[string]*models.Listing
	messages  []*models.Message
	bookmarks map[string]*models.Bookmark
	accounts  map[string]*models.Account
	objects   map[string]object

	subsMu sync.Mutex
	subs   map[*subscriber]struct{}

	baseURL string
	now     func() time.Time
	last    time.Time
}

type Option func(*Backend)

// WithClock replaces time.Now. Timestamps handed out by the backend are
// still forced to be strictly increasing.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

func WithBaseURL(u string) Option {
	return func(b *Backend) { b.baseURL = strings.TrimRight(u, "/") }
}

func New(opts ...Option) *Backend {
	b := &Backend{
		profiles:  make(map[string]*models.Profile),
		listings:  make(map[string]*models.Listing),
		bookmarks: make(map[string]*models.Bookmark),
		accounts:  make(map[string]*models.Account),
		objects:   make(map[string]object),
		subs:      make(map[*subscriber]struct{}),
		baseURL:   DefaultBaseURL,
		now:       time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// tick must be called with mu held for writing.
func (b *Backend) tick() time.Time {
	t := b.now().UTC()
	if !t.After(b.last) {
		t = b.last.Add(time.Microsecond)
	}
	b.last = t
	return t
}

func bookmarkKey(userID, listingID string) string {
	return userID + "\x00" + listingID
}

func cloneListing(l *models.Listing) *models.Listing {
	c := *l
	c.Features = append([]string(nil), l.Features...)
	c.Images = append([]string(nil), l.Images...)
	return &c
}

func cloneProfile(p *models.Profile) *models.Profile {
	c := *p
	return &c
}

func cloneMessage(m *models.Message) *models.Message {
	c := *m
	return &c
}

func sortNewestFirst(ls []*models.Listing) {
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].CreatedAt.After(ls[j].CreatedAt) })
}

// Profiles

func (b *Backend) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p, ok := b.profiles[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (b *Backend) UpsertProfile(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c := cloneProfile(p)
	if old, ok := b.profiles[p.ID]; ok {
		c.CreatedAt = old.CreatedAt
	} else if c.CreatedAt.IsZero() {
		c.CreatedAt = b.tick()
	}
	b.profiles[p.ID] = c
	return nil
}

func (b *Backend) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.profiles[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	p.FullName = upd.FullName
	p.AvatarURL = upd.AvatarURL
	return cloneProfile(p), nil
}

// Listings

func (b *Backend) ListListings(ctx context.Context) ([]*models.Listing, error) {
	return b.filterListings(func(*models.Listing) bool { return true }), nil
}

func (b *Backend) ListOwnerListings(ctx context.Context, ownerID string) ([]*models.Listing, error) {
	return b.filterListings(func(l *models.Listing) bool { return l.OwnerID == ownerID }), nil
}

func (b *Backend) ListingsByIDs(ctx context.Context, ids []string) ([]*models.Listing, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return b.filterListings(func(l *models.Listing) bool {
		_, ok := want[l.ID]
		return ok
	}), nil
}

func (b *Backend) filterListings(keep func(*models.Listing) bool) []*models.Listing {
	b.mu.RLock()
	defer b.mu.RUnlock()

	res := make([]*models.Listing, 0, len(b.listings))
	for _, l := range b.listings {
		if keep(l) {
			res = append(res, cloneListing(l))
		}
	}
	sortNewestFirst(res)
	return res
}

func (b *Backend) CreateListing(ctx context.Context, l *models.Listing) (*models.Listing, error) {
	if l.OwnerID == "" {
		return nil, fmt.Errorf("listing owner is required")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c := cloneListing(l)
	c.ID = uuid.NewString()
	c.CreatedAt = b.tick()
	b.listings[c.ID] = c
	return cloneListing(c), nil
}

func (b *Backend) UpdateListing(ctx context.Context, id string, l *models.Listing) (*models.Listing, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.listings[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	c := cloneListing(l)
	c.ID = old.ID
	c.OwnerID = old.OwnerID
	c.CreatedAt = old.CreatedAt
	c.IsVerified = old.IsVerified
	b.listings[id] = c
	return cloneListing(c), nil
}

func (b *Backend) DeleteListing(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.listings[id]; !ok {
		return gateway.ErrNotFound
	}
	delete(b.listings, id)
	for k, bm := range b.bookmarks {
		if bm.ListingID == id {
			delete(b.bookmarks, k)
		}
	}
	return nil
}

func (b *Backend) DeleteOwnedListing(ctx context.Context, id, ownerID string) error {
	b.mu.Lock()
	l, ok := b.listings[id]
	b.mu.Unlock()
	if !ok {
		return gateway.ErrNotFound
	}
	if l.OwnerID != ownerID {
		return gateway.ErrUnauthorized
	}
	return b.DeleteListing(ctx, id)
}

// Bookmarks

func (b *Backend) ToggleBookmark(ctx context.Context, userID, listingID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := bookmarkKey(userID, listingID)
	if _, ok := b.bookmarks[k]; ok {
		delete(b.bookmarks, k)
		return false, nil
	}
	if _, ok := b.listings[listingID]; !ok {
		return false, gateway.ErrNotFound
	}
	b.bookmarks[k] = &models.Bookmark{
		ID:        uuid.NewString(),
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: b.tick(),
	}
	return true, nil
}

func (b *Backend) BookmarkedListingIDs(ctx context.Context, userID string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var bms []*models.Bookmark
	for _, bm := range b.bookmarks {
		if bm.UserID == userID {
			bms = append(bms, bm)
		}
	}
	sort.Slice(bms, func(i, j int) bool { return bms[i].CreatedAt.After(bms[j].CreatedAt) })

	ids := make([]string, 0, len(bms))
	for _, bm := range bms {
		ids = append(ids, bm.ListingID)
	}
	return ids, nil
}

// Messages

func (b *Backend) SendMessage(ctx context.Context, senderID, receiverID, listingID, content string) (*models.Message, error) {
	b.mu.Lock()
	m := &models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		ListingID:  listingID,
		Content:    content,
		CreatedAt:  b.tick(),
	}
	b.messages = append(b.messages, m)
	b.mu.Unlock()

	b.publish(m)
	return cloneMessage(m), nil
}

func (b *Backend) ConversationMessages(ctx context.Context, userID, otherID, listingID string) ([]*models.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	res := make([]*models.Message, 0)
	for _, m := range b.messages {
		if m.ListingID == listingID && m.Involves(userID, otherID) {
			res = append(res, cloneMessage(m))
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (b *Backend) UserMessages(ctx context.Context, userID string) ([]*models.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	res := make([]*models.Message, 0)
	for _, m := range b.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			res = append(res, cloneMessage(m))
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

// Accounts

func (b *Backend) CreateAccount(ctx context.Context, a *models.Account) (*models.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	email := strings.ToLower(a.Email)
	if _, ok := b.accounts[email]; ok {
		return nil, gateway.ErrConflict
	}
	c := *a
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = b.tick()
	b.accounts[email] = &c

	res := c
	return &res, nil
}

func (b *Backend) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	a, ok := b.accounts[strings.ToLower(email)]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	c := *a
	return &c, nil
}

// Files

func (b *Backend) Upload(ctx context.Context, path, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[path] = object{contentType: contentType, data: data}
	return nil
}

func (b *Backend) PublicURL(path string) string {
	return b.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Object returns a stored upload.
func (b *Backend) Object(path string) ([]byte, string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	o, ok := b.objects[path]
	if !ok {
		return nil, "", false
	}
	return bytes.Clone(o.data), o.contentType, true
}

// ObjectCount is the number of stored uploads.
func (b *Backend) ObjectCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}
