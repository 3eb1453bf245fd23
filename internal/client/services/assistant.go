package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/logging"
)

const (
	DescriptionFallback    = "Failed to generate description. Please write manually."
	AssistantFallback      = "I'm having trouble connecting right now. How else can I help you with your house search?"
	DefaultListingsContext = "Multiple premium apartments in Dhaka, Chittagong, and Sylhet."
)

// ListingDetails is what the description prompt is built from.
type ListingDetails struct {
	Title    string
	Location string
	Rent     float64
	Features []string
}

func formatRent(rent float64) string {
	return strconv.FormatFloat(rent, 'f', -1, 64)
}

func DescriptionPrompt(d ListingDetails) string {
	return fmt.Sprintf(`Write a professional and enticing house rental description for a listing in Bangladesh.
Title: %s
Location: %s
Rent: ৳%s
Features: %s
Keep it concise but highlight the benefits of the location and the amenities.`,
		d.Title, d.Location, formatRent(d.Rent), strings.Join(d.Features, ", "))
}

func AssistantPrompt(query, listingsContext string) string {
	if strings.TrimSpace(listingsContext) == "" {
		listingsContext = DefaultListingsContext
	}
	return fmt.Sprintf(`You are the UrbanNest Smart Assistant, an expert in the Bangladesh real estate market.
User query: "%s"
Context of current listings: %s
Help the user with their rental search or owner listing questions. Be polite, helpful, and specific to the Bangladesh context.`,
		query, listingsContext)
}

// ListingsContext summarizes up to limit listings for the assistant prompt.
func ListingsContext(ls []*models.Listing, limit int) string {
	var b strings.Builder
	for i, l := range ls {
		if i == limit {
			break
		}
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s in %s, %s, ৳%s/month", l.Title, l.Area, l.Category, formatRent(l.Rent))
	}
	return b.String()
}

// Assistant wraps the text generator with the two UrbanNest prompts.
type Assistant struct {
	gen gateway.TextGenerator
	log logging.Logger
}

func NewAssistant(gen gateway.TextGenerator, log logging.Logger) *Assistant {
	return &Assistant{gen: gen, log: logging.OrNop(log)}
}

// Describe returns a generated description or the generator's error.
func (a *Assistant) Describe(ctx context.Context, d ListingDetails) (string, error) {
	return a.gen.Generate(ctx, DescriptionPrompt(d))
}

// DescribeListing is Describe with the canned fallback text on failure.
func (a *Assistant) DescribeListing(ctx context.Context, d ListingDetails) string {
	text, err := a.Describe(ctx, d)
	if err != nil {
		a.log.Error(ctx, "description generation failed", "error", err)
		return DescriptionFallback
	}
	return text
}

// Ask answers a free-form question, falling back to a canned reply.
func (a *Assistant) Ask(ctx context.Context, query, listingsContext string) string {
	text, err := a.gen.Generate(ctx, AssistantPrompt(query, listingsContext))
	if err != nil {
		a.log.Error(ctx, "assistant request failed", "error", err)
		return AssistantFallback
	}
	return text
}
