package models

import (
	"strings"
	"time"
)

// Listing is a rentable property advertisement. It is owned by OwnerID, and
// Thumbnail always mirrors Images[0].
type Listing struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Area        string    `json:"area"`
	Rent        float64   `json:"rent"`
	Sqft        int       `json:"sqft"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	Balconies   int       `json:"balconies"`
	Category    string    `json:"category"`
	Features    []string  `json:"features"`
	Images      []string  `json:"images"`
	Thumbnail   string    `json:"thumbnail"`
	IsAvailable bool      `json:"is_available"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}

// Gallery returns the images to show on the detail view, falling back to the
// thumbnail for listings stored without an image list.
func (l *Listing) Gallery() []string {
	if len(l.Images) > 0 {
		return l.Images
	}
	if l.Thumbnail != "" {
		return []string{l.Thumbnail}
	}
	return nil
}

// ParseFeatures splits a comma separated features string into trimmed,
// non-empty tokens.
func ParseFeatures(s string) []string {
	features := make([]string, 0)
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	return features
}

// JoinFeatures is the inverse of ParseFeatures used to pre-fill edit forms.
func JoinFeatures(features []string) string {
	return strings.Join(features, ", ")
}
