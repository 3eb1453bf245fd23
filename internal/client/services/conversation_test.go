package services

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway/memory"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/client/realtime"
	"github.com/dmitrijs2005/urbannest/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(ms []*models.Message) []string {
	res := make([]string, 0, len(ms))
	for _, m := range ms {
		res = append(res, m.Content)
	}
	return res
}

// pushDuringFetch delivers pushed messages through the hub while the
// history request is in flight.
type pushDuringFetch struct {
	*memory.Backend
	hub  *realtime.Hub
	push []*models.Message
}

func (p *pushDuringFetch) ConversationMessages(ctx context.Context, userID, otherID, listingID string) ([]*models.Message, error) {
	res, err := p.Backend.ConversationMessages(ctx, userID, otherID, listingID)
	for _, m := range p.push {
		p.hub.Dispatch(m)
	}
	return res, err
}

func TestConversationStream_Guards(t *testing.T) {
	b := memory.New()
	hub := realtime.NewHub(b, nil)
	ctx := context.Background()

	anon := NewConversationStream(hub, b, b, "", nil)
	assert.ErrorIs(t, anon.Open(ctx, "l1", "u2"), ErrLoginRequired)

	s := NewConversationStream(hub, b, b, "u1", nil)
	assert.ErrorIs(t, s.Open(ctx, "l1", "u1"), common.ErrValidation)

	_, err := s.Send(ctx, "hi")
	assert.ErrorIs(t, err, ErrConversationClosed)
	_, err = s.Send(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, StreamClosed, s.State())
}

func TestConversationStream_HistoryThenPush(t *testing.T) {
	b := memory.New()
	require.NoError(t, b.UpsertProfile(context.Background(), owner("u2")))
	hub := realtime.NewHub(b, nil)
	ctx := context.Background()

	_, err := b.SendMessage(ctx, "u1", "u2", "l1", "hello")
	require.NoError(t, err)
	_, err = b.SendMessage(ctx, "u2", "u1", "l1", "hi there")
	require.NoError(t, err)
	_, err = b.SendMessage(ctx, "u1", "u3", "l1", "other thread")
	require.NoError(t, err)

	s := NewConversationStream(hub, b, b, "u1", nil)
	require.NoError(t, s.Open(ctx, "l1", "u2"))
	assert.Equal(t, StreamOpen, s.State())
	assert.Equal(t, []string{"hello", "hi there"}, contents(s.Messages()))
	require.NotNil(t, s.Counterparty())
	assert.Equal(t, "Owner u2", s.Counterparty().FullName)

	key, ok := s.Key()
	require.True(t, ok)
	assert.Equal(t, models.NewConversationKey("l1", "u2", "u1"), key)

	m, err := s.Send(ctx, "  is it available?  ")
	require.NoError(t, err)
	assert.Equal(t, "is it available?", m.Content)
	assert.Len(t, s.Messages(), 2, "send does not append locally")

	hub.Dispatch(m)
	hub.Dispatch(m)
	hub.Dispatch(&models.Message{ID: "x", SenderID: "u3", ReceiverID: "u1", ListingID: "l1", Content: "stranger"})
	assert.Equal(t, []string{"hello", "hi there", "is it available?"}, contents(s.Messages()))
}

func TestConversationStream_PushDuringFetchIsMergedOnce(t *testing.T) {
	b := memory.New()
	ctx := context.Background()
	hub := realtime.NewHub(b, nil)

	old, err := b.SendMessage(ctx, "u2", "u1", "l1", "old")
	require.NoError(t, err)
	fresh := &models.Message{ID: "fresh", SenderID: "u2", ReceiverID: "u1", ListingID: "l1", Content: "fresh"}

	store := &pushDuringFetch{Backend: b, hub: hub, push: []*models.Message{old, fresh}}
	s := NewConversationStream(hub, store, b, "u1", nil)
	require.NoError(t, s.Open(ctx, "l1", "u2"))

	assert.Equal(t, []string{"old", "fresh"}, contents(s.Messages()))
}

func TestConversationStream_ReopenAndClose(t *testing.T) {
	b := memory.New()
	ctx := context.Background()
	hub := realtime.NewHub(b, nil)

	s := NewConversationStream(hub, b, b, "u1", nil)
	require.NoError(t, s.Open(ctx, "l1", "u2"))
	require.NoError(t, s.Open(ctx, "l2", "u3"))
	assert.Equal(t, 1, hub.Listeners())

	hub.Dispatch(&models.Message{ID: "a", SenderID: "u2", ReceiverID: "u1", ListingID: "l1", Content: "stale"})
	assert.Empty(t, s.Messages())

	s.Close()
	assert.Equal(t, 0, hub.Listeners())
	assert.Equal(t, StreamClosed, s.State())
	_, ok := s.Key()
	assert.False(t, ok)
	assert.Nil(t, s.Messages())
}

func TestConversationStream_SoftCounterpartyFailure(t *testing.T) {
	b := memory.New()
	hub := realtime.NewHub(b, nil)
	s := NewConversationStream(hub, b, &flakyStore{Backend: b, profileErr: errBoom}, "u1", nil)

	require.NoError(t, s.Open(context.Background(), "l1", "u2"))
	assert.Nil(t, s.Counterparty())
	assert.Equal(t, StreamOpen, s.State())
}

func TestConversationStream_HistoryError(t *testing.T) {
	b := memory.New()
	hub := realtime.NewHub(b, nil)
	s := NewConversationStream(hub, &flakyStore{Backend: b, convErr: errBoom}, b, "u1", nil)

	assert.ErrorIs(t, s.Open(context.Background(), "l1", "u2"), errBoom)
	assert.Equal(t, StreamOpen, s.State(), "pushes still arrive after a failed fetch")

	hub.Dispatch(&models.Message{ID: "a", SenderID: "u2", ReceiverID: "u1", ListingID: "l1", Content: "live"})
	assert.Equal(t, []string{"live"}, contents(s.Messages()))
}

func TestConversationStream_RealtimeFeed(t *testing.T) {
	b := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := realtime.NewHub(b, nil)
	require.NoError(t, hub.Start(ctx))
	defer hub.Stop()

	s := NewConversationStream(hub, b, b, "u1", nil)
	var mu sync.Mutex
	changes := 0
	s.OnChange(func() {
		mu.Lock()
		changes++
		mu.Unlock()
	})
	require.NoError(t, s.Open(ctx, "l1", "u2"))

	other := NewConversationStream(hub, b, b, "u2", nil)
	require.NoError(t, other.Open(ctx, "l1", "u1"))
	_, err := other.Send(ctx, "ping")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return changes >= 3 && len(s.Messages()) == 1 && len(other.Messages()) == 1
	}, timeoutWait, tick)
	assert.Equal(t, "ping", s.Messages()[0].Content)
}
