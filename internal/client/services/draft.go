package services

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/google/uuid"
)

// Areas are the neighbourhoods suggested by the listing form.
var Areas = []string{"Gulshan", "Banani", "Dhanmondi", "Uttara", "Mirpur", "Bashundhara"}

// StagedImage is either an already stored image (RemoteURL) or a local file
// waiting for upload.
type StagedImage struct {
	RemoteURL   string
	FileName    string
	ContentType string
	Data        []byte
}

func (i StagedImage) IsLocal() bool {
	return i.RemoteURL == ""
}

// Preview returns something displayable: the remote URL or a data URI.
func (i StagedImage) Preview() string {
	if !i.IsLocal() {
		return i.RemoteURL
	}
	return "data:" + i.ContentType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ListingDraft is the editable state of the listing form. Nothing in it is
// persisted until Publisher.Submit.
type ListingDraft struct {
	// EditingID is set when the draft edits an existing listing.
	EditingID string

	Title       string
	Description string
	Location    string
	Area        string
	Category    string
	Rent        float64
	Sqft        int
	Bedrooms    int
	Bathrooms   int
	Balconies   int
	// Features is the raw comma separated input.
	Features string

	Images []StagedImage
}

// NewListingDraft returns a blank form with the usual defaults.
func NewListingDraft() *ListingDraft {
	return &ListingDraft{
		Category:  CategoryApartment,
		Sqft:      1200,
		Bedrooms:  2,
		Bathrooms: 2,
		Balconies: 1,
	}
}

// DraftFromListing pre-fills a draft for editing l.
func DraftFromListing(l *models.Listing) *ListingDraft {
	d := &ListingDraft{
		EditingID:   l.ID,
		Title:       l.Title,
		Description: l.Description,
		Location:    l.Location,
		Area:        l.Area,
		Category:    l.Category,
		Rent:        l.Rent,
		Sqft:        l.Sqft,
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		Balconies:   l.Balconies,
		Features:    models.JoinFeatures(l.Features),
	}
	if d.Category == "" {
		d.Category = CategoryApartment
	}
	for _, u := range l.Gallery() {
		d.Images = append(d.Images, StagedImage{RemoteURL: u})
	}
	return d
}

// StageLocal adds a local image. An empty contentType is sniffed from data.
func (d *ListingDraft) StageLocal(fileName, contentType string, data []byte) error {
	if len(data) == 0 {
		return &ValidationError{Field: "images", Msg: fmt.Sprintf("%s is empty", fileName)}
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return &ValidationError{Field: "images", Msg: fmt.Sprintf("%s is not an image (%s)", fileName, contentType)}
	}
	d.Images = append(d.Images, StagedImage{FileName: fileName, ContentType: contentType, Data: data})
	return nil
}

// Remove drops the staged image at index. Nothing remote is touched.
func (d *ListingDraft) Remove(index int) error {
	if index < 0 || index >= len(d.Images) {
		return &ValidationError{Field: "images", Msg: fmt.Sprintf("no image #%d", index+1)}
	}
	d.Images = append(d.Images[:index:index], d.Images[index+1:]...)
	return nil
}

func (d *ListingDraft) Previews() []string {
	res := make([]string, len(d.Images))
	for i, img := range d.Images {
		res[i] = img.Preview()
	}
	return res
}

// Validate checks the required scalar fields.
func (d *ListingDraft) Validate() error {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return &ValidationError{Field: "title", Msg: "Title is required."}
	case d.Rent <= 0:
		return &ValidationError{Field: "rent", Msg: "Rent must be greater than zero."}
	case strings.TrimSpace(d.Area) == "":
		return &ValidationError{Field: "area", Msg: "Please select an area."}
	case strings.TrimSpace(d.Category) == "":
		return &ValidationError{Field: "category", Msg: "Please select a category."}
	case d.Sqft < 0 || d.Bedrooms < 0 || d.Bathrooms < 0 || d.Balconies < 0:
		return &ValidationError{Field: "rooms", Msg: "Counts cannot be negative."}
	}
	return nil
}

// imageKey names an upload: listings/<unix-ms>-<uuid>.<ext>.
func imageKey(now time.Time, img StagedImage) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(img.FileName)), ".")
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(img.ContentType); len(exts) > 0 {
			ext = strings.TrimPrefix(exts[0], ".")
		}
	}
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("listings/%d-%s.%s", now.UnixMilli(), uuid.NewString(), ext)
}
