package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/client/realtime"
	"github.com/dmitrijs2005/urbannest/internal/logging"
)

// MessageHub routes pushed messages to per-conversation listeners.
type MessageHub interface {
	Register(key models.ConversationKey, fn realtime.Listener) (unregister func())
}

type StreamState int

const (
	StreamClosed StreamState = iota
	StreamOpen
)

func (s StreamState) String() string {
	if s == StreamOpen {
		return "open"
	}
	return "closed"
}

// ConversationStream shows one conversation at a time: the history fetched
// on Open followed by every pushed message, each message exactly once.
type ConversationStream struct {
	hub      MessageHub
	messages gateway.Messages
	profiles gateway.Profiles
	userID   string
	log      logging.Logger

	mu           sync.Mutex
	state        StreamState
	gen          uint64
	listingID    string
	otherID      string
	loading      bool
	buffered     []*models.Message
	msgs         []*models.Message
	seen         map[string]struct{}
	counterparty *models.Profile
	unregister   func()
	nextSub      int
	subs         map[int]func()
}

func NewConversationStream(hub MessageHub, messages gateway.Messages, profiles gateway.Profiles, userID string, log logging.Logger) *ConversationStream {
	return &ConversationStream{
		hub:      hub,
		messages: messages,
		profiles: profiles,
		userID:   userID,
		log:      logging.OrNop(log),
		subs:     make(map[int]func()),
	}
}

// Open switches the stream to the conversation with otherID about
// listingID. The push listener is registered before the history fetch so no
// message falls between the two; pushes arriving during the fetch are merged
// after it. A later Open or Close supersedes this one and its late results
// are dropped.
func (s *ConversationStream) Open(ctx context.Context, listingID, otherID string) error {
	if s.userID == "" {
		return ErrLoginRequired
	}
	if otherID == s.userID {
		return &ValidationError{Field: "receiver", Msg: "cannot message yourself"}
	}

	key := models.NewConversationKey(listingID, s.userID, otherID)

	s.mu.Lock()
	prev := s.unregister
	s.gen++
	g := s.gen
	s.state = StreamOpen
	s.listingID, s.otherID = listingID, otherID
	s.loading = true
	s.buffered = nil
	s.msgs = nil
	s.seen = make(map[string]struct{})
	s.counterparty = nil
	s.unregister = s.hub.Register(key, func(m *models.Message) { s.onPush(g, m) })
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	s.changed()

	history, err := s.messages.ConversationMessages(ctx, s.userID, otherID, listingID)

	s.mu.Lock()
	if g != s.gen {
		s.mu.Unlock()
		return nil
	}
	for _, m := range history {
		s.appendLocked(m)
	}
	for _, m := range s.buffered {
		s.appendLocked(m)
	}
	s.buffered = nil
	s.loading = false
	s.mu.Unlock()
	s.changed()

	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	p, perr := s.profiles.GetProfile(ctx, otherID)
	if perr != nil {
		s.log.Warn(ctx, "failed to load counterparty profile", "user_id", otherID, "error", perr)
		return nil
	}
	s.mu.Lock()
	if g == s.gen {
		s.counterparty = p
	}
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *ConversationStream) onPush(g uint64, m *models.Message) {
	s.mu.Lock()
	if g != s.gen || s.state != StreamOpen {
		s.mu.Unlock()
		return
	}
	if s.loading {
		s.buffered = append(s.buffered, m)
		s.mu.Unlock()
		return
	}
	added := s.appendLocked(m)
	s.mu.Unlock()

	if added {
		s.changed()
	}
}

// appendLocked must be called with mu held.
func (s *ConversationStream) appendLocked(m *models.Message) bool {
	if _, dup := s.seen[m.ID]; dup {
		return false
	}
	s.seen[m.ID] = struct{}{}
	s.msgs = append(s.msgs, m)
	return true
}

// Close unregisters the push listener and forgets the conversation.
func (s *ConversationStream) Close() {
	s.mu.Lock()
	unreg := s.unregister
	s.unregister = nil
	s.gen++
	s.state = StreamClosed
	s.listingID, s.otherID = "", ""
	s.loading = false
	s.buffered, s.msgs, s.seen = nil, nil, nil
	s.counterparty = nil
	s.mu.Unlock()

	if unreg != nil {
		unreg()
	}
	s.changed()
}

// Send posts content to the open conversation. The message list is not
// touched here; the message shows up when the backend pushes it back.
func (s *ConversationStream) Send(ctx context.Context, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state != StreamOpen {
		s.mu.Unlock()
		return nil, ErrConversationClosed
	}
	listingID, otherID := s.listingID, s.otherID
	s.mu.Unlock()

	m, err := s.messages.SendMessage(ctx, s.userID, otherID, listingID, content)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return m, nil
}

func (s *ConversationStream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Key returns the open conversation, ok is false when closed.
func (s *ConversationStream) Key() (models.ConversationKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StreamOpen {
		return models.ConversationKey{}, false
	}
	return models.NewConversationKey(s.listingID, s.userID, s.otherID), true
}

// Messages returns a snapshot of the visible messages.
func (s *ConversationStream) Messages() []*models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Message(nil), s.msgs...)
}

func (s *ConversationStream) Counterparty() *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counterparty
}

// OnChange registers fn to run after any change of the visible state.
func (s *ConversationStream) OnChange(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *ConversationStream) changed() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
