package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/client/services"
)

var filterCategories = append(append([]string{}, services.Categories...), services.CategoryVerified, services.CategoryAvailable)

func formatRent(rent float64) string {
	return "৳" + strings.TrimSuffix(fmt.Sprintf("%.2f", rent), ".00")
}

func (a *App) printListings(ls []*models.Listing) {
	if len(ls) == 0 {
		a.printf("No listings found.\n")
		return
	}
	bm := a.currentBookmarks()
	for _, l := range ls {
		mark := " "
		if bm.Contains(l.ID) {
			mark = "*"
		}
		a.printf("%s %s  %s, %s  %s  %s/month\n", mark, l.ID, l.Title, l.Area, l.Category, formatRent(l.Rent))
	}
}

// Browse reloads every listing and prints the filtered view.
func (a *App) Browse(ctx context.Context) error {
	if err := a.listings.Load(ctx, services.ScopeAll); err != nil {
		return err
	}
	a.printListings(a.listings.Visible())
	return nil
}

// Search filters by title, location or area. An empty text clears the
// search.
func (a *App) Search(ctx context.Context, text string) error {
	a.listings.SetSearch(text)
	if len(a.listings.All()) == 0 {
		return a.Browse(ctx)
	}
	a.printListings(a.listings.Visible())
	return nil
}

func (a *App) Category(ctx context.Context, name string) error {
	for _, c := range filterCategories {
		if strings.EqualFold(c, name) {
			a.listings.SetCategory(c)
			if len(a.listings.All()) == 0 {
				return a.Browse(ctx)
			}
			a.printListings(a.listings.Visible())
			return nil
		}
	}
	return fmt.Errorf("unknown category %q, choose one of %s", name, strings.Join(filterCategories, ", "))
}

func (a *App) Show(ctx context.Context, id string) error {
	l, err := a.listings.Find(ctx, id)
	if err != nil {
		return err
	}

	a.printf("%s\n", l.Title)
	a.printf("  %s/month, %s, %s\n", formatRent(l.Rent), l.Category, strings.TrimPrefix(l.Location+", "+l.Area, ", "))
	a.printf("  %d sqft, %d bed, %d bath, %d balcony\n", l.Sqft, l.Bedrooms, l.Bathrooms, l.Balconies)
	if len(l.Features) > 0 {
		a.printf("  Features: %s\n", models.JoinFeatures(l.Features))
	}
	if l.IsVerified {
		a.printf("  Verified listing\n")
	}
	if !l.IsAvailable {
		a.printf("  Currently not available\n")
	}
	if l.Description != "" {
		a.printf("\n%s\n\n", l.Description)
	}
	for i, img := range l.Gallery() {
		a.printf("  Image %d: %s\n", i+1, img)
	}

	if owner, err := a.store.GetProfile(ctx, l.OwnerID); err == nil {
		a.printf("  Listed by %s (chat %s %s)\n", owner.FullName, l.ID, l.OwnerID)
	} else {
		a.log.Debug(ctx, "owner profile unavailable", "owner_id", l.OwnerID, "error", err)
	}
	if a.currentBookmarks().Contains(l.ID) {
		a.printf("  Saved to your homes\n")
	}
	return nil
}

func (a *App) Bookmark(ctx context.Context, id string) error {
	on, err := a.currentBookmarks().Toggle(ctx, id)
	if err != nil {
		return err
	}
	if on {
		a.printf("Saved %s.\n", id)
	} else {
		a.printf("Removed %s from saved homes.\n", id)
	}
	return nil
}

func (a *App) Saved(ctx context.Context) error {
	p := a.sessions.Current()
	if p == nil {
		return services.ErrLoginRequired
	}
	ls, err := services.SavedHomes(ctx, a.store, a.store, p.ID)
	if err != nil {
		return err
	}
	a.printListings(ls)
	return nil
}

// Mine is the owner dashboard: only the signed-in owner's listings.
func (a *App) Mine(ctx context.Context) error {
	p := a.sessions.Current()
	if p == nil {
		return services.ErrLoginRequired
	}
	if !p.IsOwner() {
		return services.ErrNotOwner
	}
	if err := a.listings.Load(ctx, services.ScopeOwner(p.ID)); err != nil {
		return err
	}
	a.printListings(a.listings.Visible())
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.listings.Delete(ctx, id, a.sessions.UserID()); err != nil {
		return err
	}
	a.printf("Deleted %s.\n", id)
	return nil
}
