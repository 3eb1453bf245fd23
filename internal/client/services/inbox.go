package services

import (
	"context"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/logging"
)

const AnonymousName = "Anonymous"

// Inbox derives the conversation list of a user from their messages.
type Inbox struct {
	messages gateway.Messages
	profiles gateway.Profiles
	listings gateway.Listings
	log      logging.Logger
}

func NewInbox(messages gateway.Messages, profiles gateway.Profiles, listings gateway.Listings, log logging.Logger) *Inbox {
	return &Inbox{messages: messages, profiles: profiles, listings: listings, log: logging.OrNop(log)}
}

// Conversations returns one row per (counterparty, listing), newest first,
// each carrying the latest message. Lookup failures degrade to placeholders
// and a failed message fetch yields an empty list.
func (in *Inbox) Conversations(ctx context.Context, userID string) []*models.Conversation {
	if userID == "" {
		return []*models.Conversation{}
	}
	msgs, err := in.messages.UserMessages(ctx, userID)
	if err != nil {
		in.log.Warn(ctx, "failed to load conversations", "user_id", userID, "error", err)
		return []*models.Conversation{}
	}

	// msgs is newest first, so the first row per key carries the latest
	// message.
	rows := make([]*models.Conversation, 0)
	seen := make(map[models.ConversationKey]struct{})
	for _, m := range msgs {
		key := models.NewConversationKey(m.ListingID, userID, m.Counterparty(userID))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, &models.Conversation{
			Key:           key,
			ParticipantID: m.Counterparty(userID),
			ListingID:     m.ListingID,
			LastMessage:   m.Content,
			UpdatedAt:     m.CreatedAt,
		})
	}

	in.resolveNames(ctx, rows)
	in.resolveTitles(ctx, rows)
	return rows
}

func (in *Inbox) resolveNames(ctx context.Context, rows []*models.Conversation) {
	cache := make(map[string]*models.Profile)
	for _, r := range rows {
		p, ok := cache[r.ParticipantID]
		if !ok {
			var err error
			p, err = in.profiles.GetProfile(ctx, r.ParticipantID)
			if err != nil {
				in.log.Debug(ctx, "participant profile unavailable", "user_id", r.ParticipantID, "error", err)
				p = nil
			}
			cache[r.ParticipantID] = p
		}
		r.ParticipantName = AnonymousName
		if p != nil {
			if p.FullName != "" {
				r.ParticipantName = p.FullName
			}
			r.ParticipantAvatar = p.AvatarURL
		}
	}
}

func (in *Inbox) resolveTitles(ctx context.Context, rows []*models.Conversation) {
	if len(rows) == 0 {
		return
	}
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{})
	for _, r := range rows {
		if _, ok := seen[r.ListingID]; !ok {
			seen[r.ListingID] = struct{}{}
			ids = append(ids, r.ListingID)
		}
	}

	ls, err := in.listings.ListingsByIDs(ctx, ids)
	if err != nil {
		in.log.Warn(ctx, "failed to resolve listing titles", "error", err)
		return
	}
	titles := make(map[string]string, len(ls))
	for _, l := range ls {
		titles[l.ID] = l.Title
	}
	for _, r := range rows {
		r.ListingTitle = titles[r.ListingID]
	}
}
