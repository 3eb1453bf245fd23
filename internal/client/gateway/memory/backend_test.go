package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frozenClock() func() time.Time {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestBackend_TimestampsStrictlyIncrease(t *testing.T) {
	b := New(WithClock(frozenClock()))
	ctx := context.Background()

	m1, err := b.SendMessage(ctx, "a", "b", "l1", "one")
	require.NoError(t, err)
	m2, err := b.SendMessage(ctx, "b", "a", "l1", "two")
	require.NoError(t, err)

	assert.True(t, m2.CreatedAt.After(m1.CreatedAt))
}

func TestBackend_ListingsNewestFirst(t *testing.T) {
	b := New(WithClock(frozenClock()))
	ctx := context.Background()

	first, err := b.CreateListing(ctx, &models.Listing{OwnerID: "o1", Title: "first"})
	require.NoError(t, err)
	second, err := b.CreateListing(ctx, &models.Listing{OwnerID: "o2", Title: "second"})
	require.NoError(t, err)

	all, err := b.ListListings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	own, err := b.ListOwnerListings(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "first", own[0].Title)

	byID, err := b.ListingsByIDs(ctx, []string{first.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, first.ID, byID[0].ID)
}

func TestBackend_UpdateListingKeepsIdentity(t *testing.T) {
	b := New()
	ctx := context.Background()

	l, err := b.CreateListing(ctx, &models.Listing{OwnerID: "o1", Title: "old", IsVerified: true})
	require.NoError(t, err)

	upd, err := b.UpdateListing(ctx, l.ID, &models.Listing{ID: "hijack", OwnerID: "mallory", Title: "new"})
	require.NoError(t, err)
	assert.Equal(t, l.ID, upd.ID)
	assert.Equal(t, "o1", upd.OwnerID)
	assert.Equal(t, l.CreatedAt, upd.CreatedAt)
	assert.Equal(t, "new", upd.Title)
	assert.True(t, upd.IsVerified)

	_, err = b.UpdateListing(ctx, "nope", &models.Listing{})
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestBackend_ReturnsCopies(t *testing.T) {
	b := New()
	ctx := context.Background()

	l, err := b.CreateListing(ctx, &models.Listing{OwnerID: "o1", Images: []string{"x"}})
	require.NoError(t, err)
	l.Images[0] = "mutated"

	all, err := b.ListListings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, all[0].Images)
}

func TestBackend_DeleteListingDropsBookmarks(t *testing.T) {
	b := New()
	ctx := context.Background()

	l, err := b.CreateListing(ctx, &models.Listing{OwnerID: "o1"})
	require.NoError(t, err)
	_, err = b.ToggleBookmark(ctx, "u1", l.ID)
	require.NoError(t, err)

	require.NoError(t, b.DeleteListing(ctx, l.ID))
	ids, err := b.BookmarkedListingIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, b.DeleteListing(ctx, l.ID), gateway.ErrNotFound)
}

func TestBackend_ToggleBookmark(t *testing.T) {
	b := New()
	ctx := context.Background()

	l, err := b.CreateListing(ctx, &models.Listing{OwnerID: "o1"})
	require.NoError(t, err)

	on, err := b.ToggleBookmark(ctx, "u1", l.ID)
	require.NoError(t, err)
	assert.True(t, on)

	ids, err := b.BookmarkedListingIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{l.ID}, ids)

	on, err = b.ToggleBookmark(ctx, "u1", l.ID)
	require.NoError(t, err)
	assert.False(t, on)

	ids, err = b.BookmarkedListingIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = b.ToggleBookmark(ctx, "u1", "missing")
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestBackend_MessagesOrdering(t *testing.T) {
	b := New(WithClock(frozenClock()))
	ctx := context.Background()

	_, _ = b.SendMessage(ctx, "alice", "bob", "l1", "hi")
	_, _ = b.SendMessage(ctx, "bob", "alice", "l1", "hello")
	_, _ = b.SendMessage(ctx, "alice", "carol", "l1", "other thread")
	_, _ = b.SendMessage(ctx, "alice", "bob", "l2", "other listing")

	conv, err := b.ConversationMessages(ctx, "bob", "alice", "l1")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "hi", conv[0].Content)
	assert.Equal(t, "hello", conv[1].Content)

	mine, err := b.UserMessages(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 4)
	assert.Equal(t, "other listing", mine[0].Content)
	assert.Equal(t, "hi", mine[3].Content)
}

func TestBackend_Profiles(t *testing.T) {
	b := New()
	ctx := context.Background()

	_, err := b.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	require.NoError(t, b.UpsertProfile(ctx, &models.Profile{ID: "u1", FullName: "Rahim", Role: models.RoleOwner}))
	p, err := b.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Rahim", p.FullName)

	p, err = b.UpdateProfile(ctx, "u1", models.ProfileUpdate{FullName: "Rahim Uddin", AvatarURL: "http://a"})
	require.NoError(t, err)
	assert.Equal(t, "Rahim Uddin", p.FullName)
	assert.Equal(t, models.RoleOwner, p.Role)

	_, err = b.UpdateProfile(ctx, "ghost", models.ProfileUpdate{})
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	assert.Error(t, b.UpsertProfile(ctx, &models.Profile{}))
}

func TestBackend_Accounts(t *testing.T) {
	b := New()
	ctx := context.Background()

	a, err := b.CreateAccount(ctx, &models.Account{Email: "Bob@Example.com", PasswordHash: []byte("h")})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)

	_, err = b.CreateAccount(ctx, &models.Account{Email: "bob@example.com"})
	assert.ErrorIs(t, err, gateway.ErrConflict)

	got, err := b.GetAccountByEmail(ctx, "BOB@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = b.GetAccountByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestBackend_Files(t *testing.T) {
	b := New(WithBaseURL("http://cdn.local/"))
	ctx := context.Background()

	require.NoError(t, b.Upload(ctx, "listings/a.jpg", "image/jpeg", strings.NewReader("jpeg")))
	data, ct, ok := b.Object("listings/a.jpg")
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg"), data)
	assert.Equal(t, "image/jpeg", ct)
	assert.Equal(t, 1, b.ObjectCount())
	assert.Equal(t, "http://cdn.local/listings/a.jpg", b.PublicURL("listings/a.jpg"))
}

func TestBackend_SubscribeMessages(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.SubscribeMessages(ctx)
	require.NoError(t, err)

	sent := make(chan *models.Message, 1)
	go func() {
		m, _ := b.SendMessage(context.Background(), "a", "b", "l1", "ping")
		sent <- m
	}()

	select {
	case got := <-ch:
		assert.Equal(t, "ping", got.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
	<-sent

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Nobody listens anymore; sending must not block.
	_, err = b.SendMessage(context.Background(), "a", "b", "l1", "late")
	require.NoError(t, err)
}

func TestBackend_DeleteOwnedListing(t *testing.T) {
	b := New()
	ctx := context.Background()

	l, err := b.CreateListing(ctx, &models.Listing{OwnerID: "o1"})
	require.NoError(t, err)

	assert.ErrorIs(t, b.DeleteOwnedListing(ctx, l.ID, "o2"), gateway.ErrUnauthorized)
	require.NoError(t, b.DeleteOwnedListing(ctx, l.ID, "o1"))
	assert.ErrorIs(t, b.DeleteOwnedListing(ctx, l.ID, "o1"), gateway.ErrNotFound)
}
