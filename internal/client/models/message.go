package models

import "time"

// Message is immutable once created; conversations order by CreatedAt.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	ListingID  string    `json:"listing_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Involves reports whether the message was exchanged between a and b, in
// either direction.
func (m *Message) Involves(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// Counterparty returns the other participant from me's point of view.
func (m *Message) Counterparty(me string) string {
	if m.SenderID == me {
		return m.ReceiverID
	}
	return m.SenderID
}

// Key returns the conversation the message belongs to.
func (m *Message) Key() ConversationKey {
	return NewConversationKey(m.ListingID, m.SenderID, m.ReceiverID)
}
