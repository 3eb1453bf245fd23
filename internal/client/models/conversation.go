package models

import "time"

// ConversationKey identifies the thread between two users about one listing.
// The user pair is stored sorted, so the key does not depend on who wrote
// first.
type ConversationKey struct {
	ListingID string
	UserA     string
	UserB     string
}

func NewConversationKey(listingID, u1, u2 string) ConversationKey {
	if u2 < u1 {
		u1, u2 = u2, u1
	}
	return ConversationKey{ListingID: listingID, UserA: u1, UserB: u2}
}

// Matches reports whether m belongs to the conversation.
func (k ConversationKey) Matches(m *Message) bool {
	return m != nil && m.ListingID == k.ListingID && m.Involves(k.UserA, k.UserB)
}

// Conversation is a summary row of the inbox. It is derived from messages
// and never stored.
type Conversation struct {
	Key               ConversationKey
	ParticipantID     string
	ParticipantName   string
	ParticipantAvatar string
	ListingID         string
	ListingTitle      string
	LastMessage       string
	UpdatedAt         time.Time
}
