package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/logging"
)

const (
	CategoryAll       = "All"
	CategoryApartment = "Apartment"
	CategoryBachelors = "Bachelors"
	CategorySublet    = "Sublet"
	CategoryBudget    = "Budget"
	CategoryVerified  = "Verified"
	CategoryAvailable = "Available"

	// BudgetMaxRent is the highest monthly rent, in taka, shown under Budget.
	BudgetMaxRent = 15000
)

// Categories are the filter chips offered to the user, in display order.
var Categories = []string{CategoryAll, CategoryApartment, CategoryBachelors, CategorySublet, CategoryBudget}

// ListingCategories are the values a listing may be published under.
var ListingCategories = []string{CategoryApartment, CategoryBachelors, CategorySublet}

// FilterListings keeps the listings whose title, location or area contains
// search (case-insensitive) and that satisfy the category rule. The input
// order is preserved.
func FilterListings(all []*models.Listing, search, category string) []*models.Listing {
	needle := strings.ToLower(search)
	res := make([]*models.Listing, 0, len(all))
	for _, l := range all {
		if matchesSearch(l, needle) && matchesCategory(l, category) {
			res = append(res, l)
		}
	}
	return res
}

func matchesSearch(l *models.Listing, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Title), needle) ||
		strings.Contains(strings.ToLower(l.Location), needle) ||
		strings.Contains(strings.ToLower(l.Area), needle)
}

func matchesCategory(l *models.Listing, category string) bool {
	switch category {
	case "", CategoryAll:
		return true
	case CategoryBudget:
		return l.Rent <= BudgetMaxRent
	case CategoryVerified:
		return l.IsVerified
	case CategoryAvailable:
		return l.IsAvailable
	default:
		return l.Category == category
	}
}

// Scope selects which listings a collection loads.
type Scope struct {
	OwnerID string
}

var ScopeAll = Scope{}

func ScopeOwner(ownerID string) Scope {
	return Scope{OwnerID: ownerID}
}

// ListingCollection is the view-model behind the browse and dashboard
// pages. Each Load replaces the collection; Visible is recomputed from the
// current collection, search text and category on every call.
type ListingCollection struct {
	listings gateway.Listings
	log      logging.Logger

	mu       sync.RWMutex
	all      []*models.Listing
	search   string
	category string
}

func NewListingCollection(listings gateway.Listings, log logging.Logger) *ListingCollection {
	return &ListingCollection{listings: listings, log: logging.OrNop(log), category: CategoryAll}
}

func (c *ListingCollection) Load(ctx context.Context, scope Scope) error {
	var (
		ls  []*models.Listing
		err error
	)
	if scope.OwnerID != "" {
		ls, err = c.listings.ListOwnerListings(ctx, scope.OwnerID)
	} else {
		ls, err = c.listings.ListListings(ctx)
	}
	if err != nil {
		return fmt.Errorf("load listings: %w", err)
	}

	c.mu.Lock()
	c.all = ls
	c.mu.Unlock()
	return nil
}

func (c *ListingCollection) SetSearch(text string) {
	c.mu.Lock()
	c.search = text
	c.mu.Unlock()
}

func (c *ListingCollection) SetCategory(name string) {
	c.mu.Lock()
	c.category = name
	c.mu.Unlock()
}

func (c *ListingCollection) Search() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.search
}

func (c *ListingCollection) Category() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.category
}

func (c *ListingCollection) Visible() []*models.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return FilterListings(c.all, c.search, c.category)
}

// All returns the loaded collection without filters.
func (c *ListingCollection) All() []*models.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*models.Listing(nil), c.all...)
}

// Find fetches the full collection and returns the listing with id.
func (c *ListingCollection) Find(ctx context.Context, id string) (*models.Listing, error) {
	ls, err := c.listings.ListListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	for _, l := range ls {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, gateway.ErrNotFound
}

// FindForEdit is Find plus the ownership guard of the editor.
func (c *ListingCollection) FindForEdit(ctx context.Context, id, userID string) (*models.Listing, error) {
	if userID == "" {
		return nil, ErrLoginRequired
	}
	l, err := c.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.OwnerID != userID {
		return nil, ErrForbidden
	}
	return l, nil
}

// Delete removes one of userID's listings and drops it from the loaded
// collection.
func (c *ListingCollection) Delete(ctx context.Context, id, userID string) error {
	if userID == "" {
		return ErrLoginRequired
	}

	if d, ok := c.listings.(gateway.OwnedListingDeleter); ok {
		if err := d.DeleteOwnedListing(ctx, id, userID); err != nil {
			if errors.Is(err, gateway.ErrUnauthorized) {
				return ErrForbidden
			}
			return fmt.Errorf("delete listing: %w", err)
		}
	} else {
		if _, err := c.FindForEdit(ctx, id, userID); err != nil {
			return err
		}
		if err := c.listings.DeleteListing(ctx, id); err != nil {
			return fmt.Errorf("delete listing: %w", err)
		}
	}

	c.mu.Lock()
	kept := c.all[:0:0]
	for _, l := range c.all {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	c.all = kept
	c.mu.Unlock()

	c.log.Info(ctx, "listing deleted", "listing_id", id)
	return nil
}
