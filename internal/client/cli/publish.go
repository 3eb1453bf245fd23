package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/urbannest/internal/client/services"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

const aiMarker = "!ai"

// Publish walks the owner through a new listing.
func (a *App) Publish(ctx context.Context) error {
	p := a.sessions.Current()
	if p == nil {
		return services.ErrLoginRequired
	}
	if !p.IsOwner() {
		return services.ErrNotOwner
	}
	return a.submitForm(ctx, services.NewListingDraft())
}

// Edit loads one of the owner's listings into the form.
func (a *App) Edit(ctx context.Context, id string) error {
	d, err := a.publisher.Edit(ctx, id, a.sessions.UserID())
	if err != nil {
		return err
	}
	return a.submitForm(ctx, d)
}

func (a *App) submitForm(ctx context.Context, d *services.ListingDraft) error {
	if err := a.fillDraft(ctx, d); err != nil {
		return err
	}
	l, err := a.publisher.Submit(ctx, a.sessions.Current(), d)
	if err != nil {
		return err
	}
	if d.EditingID != "" {
		a.printf("Updated %s.\n", l.ID)
	} else {
		a.printf("Published %s.\n", l.ID)
	}
	return nil
}

func (a *App) fillDraft(ctx context.Context, d *services.ListingDraft) error {
	var err error
	if d.Title, err = GetTextOr(a.reader, "Title", d.Title, a.out); err != nil {
		return err
	}
	if d.Location, err = GetTextOr(a.reader, "Location (street, block)", d.Location, a.out); err != nil {
		return err
	}
	if d.Area, err = GetTextOr(a.reader, "Area ("+strings.Join(services.Areas, ", ")+")", d.Area, a.out); err != nil {
		return err
	}
	if d.Category, err = GetTextOr(a.reader, "Category ("+strings.Join(services.ListingCategories, ", ")+")", d.Category, a.out); err != nil {
		return err
	}
	if d.Rent, err = GetAmountOr(a.reader, "Monthly rent (BDT)", d.Rent, a.out); err != nil {
		return err
	}
	if d.Sqft, err = GetIntOr(a.reader, "Size (sqft)", d.Sqft, a.out); err != nil {
		return err
	}
	if d.Bedrooms, err = GetIntOr(a.reader, "Bedrooms", d.Bedrooms, a.out); err != nil {
		return err
	}
	if d.Bathrooms, err = GetIntOr(a.reader, "Bathrooms", d.Bathrooms, a.out); err != nil {
		return err
	}
	if d.Balconies, err = GetIntOr(a.reader, "Balconies", d.Balconies, a.out); err != nil {
		return err
	}
	if d.Features, err = GetTextOr(a.reader, "Features (comma separated)", d.Features, a.out); err != nil {
		return err
	}
	if err := a.fillDescription(ctx, d); err != nil {
		return err
	}
	return a.fillImages(d)
}

func (a *App) fillDescription(ctx context.Context, d *services.ListingDraft) error {
	prompt := fmt.Sprintf("Description (type %s to let the assistant write it, empty line keeps the current one)", aiMarker)
	text, err := GetMultiline(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	switch text {
	case "":
	case aiMarker:
		if err := a.publisher.DraftDescription(ctx, d); err != nil {
			a.printf("%s\n", services.DescriptionFallback)
			return nil
		}
		a.printf("Generated description:\n%s\n", d.Description)
	default:
		d.Description = text
	}
	return nil
}

func (a *App) fillImages(d *services.ListingDraft) error {
	if len(d.Images) > 0 {
		for i, p := range d.Previews() {
			a.printf("  #%d %s\n", i+1, shorten(p, 72))
		}
		remove, err := GetSimpleText(a.reader, "Image numbers to remove (comma separated, empty keeps all)", a.out)
		if err != nil {
			return err
		}
		if err := removeImages(d, remove); err != nil {
			return err
		}
	}

	paths, err := GetLines(a.reader, "Image files to add, one path per line", a.out)
	if err != nil {
		return err
	}
	for _, path := range paths {
		path = strings.TrimSpace(path)
		data, err := readFile(path)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		if err := d.StageLocal(filepath.Base(path), "", data); err != nil {
			return err
		}
	}
	return nil
}

// removeImages drops the 1-based positions in list, highest first so the
// remaining positions stay valid.
func removeImages(d *services.ListingDraft, list string) error {
	var idx []int
	for _, tok := range strings.Split(list, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return fmt.Errorf("bad image number %q", tok)
		}
		idx = append(idx, n-1)
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)
	slices.Reverse(idx)
	for _, n := range idx {
		if err := d.Remove(n); err != nil {
			return err
		}
	}
	return nil
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
