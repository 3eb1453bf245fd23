package cli

import (
	"context"

	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/client/services"
)

func (a *App) Inbox(ctx context.Context) error {
	p := a.sessions.Current()
	if p == nil {
		return services.ErrLoginRequired
	}
	rows := a.inbox.Conversations(ctx, p.ID)
	if len(rows) == 0 {
		a.printf("No conversations yet.\n")
		return nil
	}
	for _, r := range rows {
		title := r.ListingTitle
		if title == "" {
			title = r.ListingID
		}
		a.printf("%s  %s about %q: %s\n", r.UpdatedAt.Local().Format("Jan 02 15:04"), r.ParticipantName, title, shorten(r.LastMessage, 60))
		a.printf("    chat %s %s\n", r.ListingID, r.ParticipantID)
	}
	return nil
}

// Chat opens the conversation with userID about listingID. New messages
// are printed as they arrive until the chat is closed.
func (a *App) Chat(ctx context.Context, listingID, userID string) error {
	p := a.sessions.Current()
	if p == nil {
		return services.ErrLoginRequired
	}
	a.closeChat()

	s := services.NewConversationStream(a.hub, a.store, a.store, p.ID, a.log)
	a.mu.Lock()
	a.chat = s
	a.printed = 0
	a.mu.Unlock()

	if err := s.Open(ctx, listingID, userID); err != nil {
		a.closeChat()
		return err
	}
	name := services.AnonymousName
	if c := s.Counterparty(); c != nil && c.FullName != "" {
		name = c.FullName
	}
	a.printf("Chatting with %s. Use 'send <text>' and 'close'.\n", name)

	unsub := s.OnChange(func() { a.printChat(s) })
	a.mu.Lock()
	if a.chat == s {
		a.unsubChat = unsub
		unsub = nil
	}
	a.mu.Unlock()
	if unsub != nil {
		unsub()
		return nil
	}
	a.printChat(s)
	return nil
}

// onIncoming announces messages addressed to the signed-in user that
// belong to a conversation other than the open one.
func (a *App) onIncoming(m *models.Message) {
	me := a.sessions.UserID()
	if me == "" || m.ReceiverID != me {
		return
	}

	a.mu.Lock()
	s := a.chat
	a.mu.Unlock()
	if s != nil {
		if key, ok := s.Key(); ok && key == m.Key() {
			return
		}
	}
	a.printf("New message about listing %s (chat %s %s).\n", m.ListingID, m.ListingID, m.SenderID)
}

// printChat prints the messages of s not printed yet. It runs on the REPL
// goroutine and on the realtime hub goroutine.
func (a *App) printChat(s *services.ConversationStream) {
	msgs := s.Messages()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.chat != s {
		return
	}
	for ; a.printed < len(msgs); a.printed++ {
		a.printMessage(s, msgs[a.printed])
	}
}

func (a *App) printMessage(s *services.ConversationStream, m *models.Message) {
	who := "You"
	if m.SenderID != a.sessions.UserID() {
		who = services.AnonymousName
		if c := s.Counterparty(); c != nil && c.FullName != "" {
			who = c.FullName
		}
	}
	a.printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), who, m.Content)
}

func (a *App) Send(ctx context.Context, text string) error {
	a.mu.Lock()
	s := a.chat
	a.mu.Unlock()
	if s == nil {
		return services.ErrConversationClosed
	}
	_, err := s.Send(ctx, text)
	return err
}

func (a *App) CloseChat(ctx context.Context) error {
	a.closeChat()
	return nil
}

func (a *App) closeChat() {
	a.mu.Lock()
	s, unsub := a.chat, a.unsubChat
	a.chat, a.unsubChat = nil, nil
	a.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if s != nil {
		s.Close()
		a.log.Debug(a.ctx, "chat closed", "listeners", a.hub.Listeners())
	}
}

// Ask forwards a question to the assistant with the loaded listings as
// context.
func (a *App) Ask(ctx context.Context, question string) error {
	answer := a.assistant.Ask(ctx, question, services.ListingsContext(a.listings.All(), 5))
	a.printf("%s\n", answer)
	return nil
}
