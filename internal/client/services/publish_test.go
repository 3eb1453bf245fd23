package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/gateway/memory"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() *ListingDraft {
	d := NewListingDraft()
	d.Title = "Lake View Flat"
	d.Area = "Gulshan"
	d.Location = "Road 71"
	d.Rent = 25000
	d.Features = "Lift, , Generator ,Parking"
	return d
}

func newPublisher(b *memory.Backend, gen gateway.TextGenerator) *Publisher {
	if gen == nil {
		gen = &fakeGenerator{text: "generated"}
	}
	return NewPublisher(b, b, NewAssistant(gen, nil), nil)
}

func TestPublisher_SubmitGuards(t *testing.T) {
	b := memory.New()
	p := newPublisher(b, nil)
	ctx := context.Background()

	_, err := p.Submit(ctx, nil, validDraft())
	assert.ErrorIs(t, err, ErrLoginRequired)

	_, err = p.Submit(ctx, renter("r1"), validDraft())
	assert.ErrorIs(t, err, ErrNotOwner)

	d := validDraft()
	d.Title = ""
	_, err = p.Submit(ctx, owner("o1"), d)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = p.Submit(ctx, owner("o1"), validDraft())
	assert.ErrorIs(t, err, ErrNoImages)
	assert.EqualError(t, err, "images: At least one image is required.")

	ls, _ := b.ListListings(ctx)
	assert.Empty(t, ls)
}

func TestPublisher_SubmitCreate(t *testing.T) {
	b := memory.New()
	p := newPublisher(b, nil)
	ctx := context.Background()

	d := validDraft()
	require.NoError(t, d.StageLocal("front.png", "", png))
	require.NoError(t, d.StageLocal("back.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff}))

	l, err := p.Submit(ctx, owner("o1"), d)
	require.NoError(t, err)

	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "o1", l.OwnerID)
	assert.True(t, l.IsAvailable)
	assert.Equal(t, []string{"Lift", "Generator", "Parking"}, l.Features)
	require.Len(t, l.Images, 2)
	assert.Equal(t, l.Images[0], l.Thumbnail)
	assert.True(t, strings.HasPrefix(l.Images[0], memory.DefaultBaseURL+"/listings/"))
	assert.True(t, strings.HasSuffix(l.Images[0], ".png"))
	assert.True(t, strings.HasSuffix(l.Images[1], ".jpg"))
	assert.Equal(t, 2, b.ObjectCount())

	key := strings.TrimPrefix(l.Images[0], memory.DefaultBaseURL+"/")
	data, ct, ok := b.Object(key)
	require.True(t, ok)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, png, data)
}

func TestPublisher_EditKeepsRemoteImagesFirst(t *testing.T) {
	b := memory.New()
	p := newPublisher(b, nil)
	ctx := context.Background()
	l := seedListing(t, b, models.Listing{
		OwnerID: "o1", Title: "Old", Area: "Banani", Category: CategorySublet, Rent: 9000,
		Images: []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}, Thumbnail: "https://cdn/a.jpg",
	})

	_, err := p.Edit(ctx, l.ID, "o2")
	assert.ErrorIs(t, err, ErrForbidden)

	d, err := p.Edit(ctx, l.ID, "o1")
	require.NoError(t, err)
	require.NoError(t, d.StageLocal("new.png", "", png))
	require.NoError(t, d.Remove(0))
	// Local images go after remote ones regardless of staging order.
	d.Images = append([]StagedImage{d.Images[1]}, d.Images[0])
	d.Title = "New"

	got, err := p.Submit(ctx, owner("o1"), d)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
	assert.Equal(t, "New", got.Title)
	require.Len(t, got.Images, 2)
	assert.Equal(t, "https://cdn/b.jpg", got.Images[0])
	assert.Equal(t, "https://cdn/b.jpg", got.Thumbnail)
	assert.True(t, strings.HasPrefix(got.Images[1], memory.DefaultBaseURL))

	all, err := b.ListListings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPublisher_EditKeepsVerification(t *testing.T) {
	b := memory.New()
	p := newPublisher(b, nil)
	ctx := context.Background()
	l := seedListing(t, b, models.Listing{
		OwnerID: "o1", Title: "Verified flat", Area: "Gulshan", Category: CategoryApartment, Rent: 30000,
		Images: []string{"https://cdn/a.jpg"}, Thumbnail: "https://cdn/a.jpg", IsVerified: true, IsAvailable: true,
	})

	d, err := p.Edit(ctx, l.ID, "o1")
	require.NoError(t, err)
	d.Title = "Verified flat, renovated"

	got, err := p.Submit(ctx, owner("o1"), d)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)

	all, err := b.ListListings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Verified flat, renovated"}, titles(FilterListings(all, "", CategoryVerified)))
}

func TestPublisher_UploadFailureStops(t *testing.T) {
	b := memory.New()
	files := &failingFiles{FileStore: b, failAt: 2}
	p := NewPublisher(b, files, NewAssistant(&fakeGenerator{}, nil), nil)

	d := validDraft()
	require.NoError(t, d.StageLocal("a.png", "", png))
	require.NoError(t, d.StageLocal("b.png", "", png))
	require.NoError(t, d.StageLocal("c.png", "", png))

	_, err := p.Submit(context.Background(), owner("o1"), d)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 2, files.calls)
	assert.Equal(t, 1, b.ObjectCount(), "first upload is left behind")

	ls, _ := b.ListListings(context.Background())
	assert.Empty(t, ls)
}

func TestPublisher_SchemaMismatch(t *testing.T) {
	b := memory.New()
	store := &flakyStore{Backend: b, createErr: gateway.ErrSchemaMismatch}
	p := NewPublisher(store, b, NewAssistant(&fakeGenerator{}, nil), nil)

	d := validDraft()
	d.Images = []StagedImage{{RemoteURL: "https://cdn/a.jpg"}}

	_, err := p.Submit(context.Background(), owner("o1"), d)
	assert.ErrorIs(t, err, gateway.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), SchemaRemediation)

	store.createErr = errBoom
	_, err = p.Submit(context.Background(), owner("o1"), d)
	assert.ErrorIs(t, err, errBoom)
	assert.NotContains(t, err.Error(), SchemaRemediation)
}

func TestPublisher_DraftDescription(t *testing.T) {
	b := memory.New()
	gen := &fakeGenerator{text: "A lovely flat."}
	p := newPublisher(b, gen)
	ctx := context.Background()

	d := validDraft()
	d.Title = " "
	err := p.DraftDescription(ctx, d)
	assert.EqualError(t, err, "title: Please provide a Title first!")
	assert.Empty(t, gen.prompts)

	d = validDraft()
	d.Location = ""
	require.NoError(t, p.DraftDescription(ctx, d))
	assert.Equal(t, "A lovely flat.", d.Description)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Location: Gulshan")
	assert.Contains(t, gen.prompts[0], "Features: Lift, Generator, Parking")

	gen.err = gateway.ErrUnavailable
	d.Description = "kept"
	assert.ErrorIs(t, p.DraftDescription(ctx, d), gateway.ErrUnavailable)
	assert.Equal(t, "kept", d.Description)
}
