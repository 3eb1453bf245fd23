package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/logging"
)

// SchemaRemediation is shown instead of a raw driver error when the backend
// lacks columns the listing form writes.
const SchemaRemediation = "The listings table is missing columns this app needs " +
	"(bedrooms, bathrooms, balconies, features, images or thumbnail). " +
	"Ask the database operator to apply the latest migrations, then try again."

var ErrNoImages = &ValidationError{Field: "images", Msg: "At least one image is required."}

// Publisher turns drafts into stored listings.
type Publisher struct {
	listings  gateway.Listings
	files     gateway.FileStore
	assistant *Assistant
	log       logging.Logger
	now       func() time.Time
}

func NewPublisher(listings gateway.Listings, files gateway.FileStore, assistant *Assistant, log logging.Logger) *Publisher {
	return &Publisher{
		listings:  listings,
		files:     files,
		assistant: assistant,
		log:       logging.OrNop(log),
		now:       time.Now,
	}
}

// Submit validates d, uploads its local images, then creates or updates the
// listing and returns it. Steps run in order and the first failure stops
// the sequence. Uploads are not rolled back when the record write fails;
// their keys are logged instead.
func (p *Publisher) Submit(ctx context.Context, user *models.Profile, d *ListingDraft) (*models.Listing, error) {
	if user == nil {
		return nil, ErrLoginRequired
	}
	if !user.IsOwner() {
		return nil, ErrNotOwner
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	images := make([]string, 0, len(d.Images))
	for _, img := range d.Images {
		if !img.IsLocal() {
			images = append(images, img.RemoteURL)
		}
	}

	var uploaded []string
	for _, img := range d.Images {
		if !img.IsLocal() {
			continue
		}
		key := imageKey(p.now(), img)
		if err := p.files.Upload(ctx, key, img.ContentType, bytes.NewReader(img.Data)); err != nil {
			p.logOrphans(ctx, uploaded, err)
			return nil, fmt.Errorf("upload %s: %w", img.FileName, err)
		}
		uploaded = append(uploaded, key)
		images = append(images, p.files.PublicURL(key))
	}

	if len(images) == 0 {
		return nil, ErrNoImages
	}

	l := &models.Listing{
		OwnerID:     user.ID,
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Location:    strings.TrimSpace(d.Location),
		Area:        strings.TrimSpace(d.Area),
		Rent:        d.Rent,
		Sqft:        d.Sqft,
		Bedrooms:    d.Bedrooms,
		Bathrooms:   d.Bathrooms,
		Balconies:   d.Balconies,
		Category:    strings.TrimSpace(d.Category),
		Features:    models.ParseFeatures(d.Features),
		Images:      images,
		Thumbnail:   images[0],
		IsAvailable: true,
	}

	var (
		res *models.Listing
		err error
	)
	if d.EditingID != "" {
		res, err = p.listings.UpdateListing(ctx, d.EditingID, l)
	} else {
		res, err = p.listings.CreateListing(ctx, l)
	}
	if err != nil {
		p.logOrphans(ctx, uploaded, err)
		if errors.Is(err, gateway.ErrSchemaMismatch) {
			return nil, fmt.Errorf("%s: %w", SchemaRemediation, err)
		}
		return nil, fmt.Errorf("save listing: %w", err)
	}

	p.log.Info(ctx, "listing published", "listing_id", res.ID, "images", len(images), "uploaded", len(uploaded))
	return res, nil
}

func (p *Publisher) logOrphans(ctx context.Context, keys []string, cause error) {
	if len(keys) == 0 {
		return
	}
	p.log.Warn(ctx, "orphaned uploads left in file store", "keys", keys, "cause", cause)
}

// Edit loads listing id for its owner and returns a pre-filled draft.
func (p *Publisher) Edit(ctx context.Context, id, userID string) (*ListingDraft, error) {
	l, err := NewListingCollection(p.listings, p.log).FindForEdit(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return DraftFromListing(l), nil
}

// DraftDescription asks the assistant for a description of d. On failure d
// is left unchanged and the error is returned for display only.
func (p *Publisher) DraftDescription(ctx context.Context, d *ListingDraft) error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Msg: "Please provide a Title first!"}
	}
	location := d.Location
	if strings.TrimSpace(location) == "" {
		location = d.Area
	}

	text, err := p.assistant.Describe(ctx, ListingDetails{
		Title:    d.Title,
		Location: location,
		Rent:     d.Rent,
		Features: models.ParseFeatures(d.Features),
	})
	if err != nil {
		p.log.Error(ctx, "description generation failed", "error", err)
		return fmt.Errorf("generate description: %w", err)
	}
	d.Description = text
	return nil
}
