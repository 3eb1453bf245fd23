// Package realtime fans the single message feed of the backend out to the
// in-process listeners interested in one conversation.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/logging"
)

var ErrAlreadyStarted = errors.New("hub already started")

type Listener func(*models.Message)

type registration struct {
	fn Listener
}

// Hub owns one subscription to the realtime feed. Listeners run on the hub
// goroutine, one message at a time, in arrival order; they must not block.
type Hub struct {
	feed gateway.Realtime
	log  logging.Logger

	mu     sync.RWMutex
	rooms  map[models.ConversationKey]map[*registration]struct{}
	global map[*registration]struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewHub(feed gateway.Realtime, log logging.Logger) *Hub {
	return &Hub{
		feed:   feed,
		log:    logging.OrNop(log),
		rooms:  make(map[models.ConversationKey]map[*registration]struct{}),
		global: make(map[*registration]struct{}),
	}
}

// Start opens the feed. It runs until ctx is cancelled or Stop is called.
func (h *Hub) Start(ctx context.Context) error {
	h.runMu.Lock()
	defer h.runMu.Unlock()

	if h.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	feed, err := h.feed.SubscribeMessages(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe messages: %w", err)
	}

	h.cancel = cancel
	h.done = make(chan struct{})
	go h.run(ctx, feed, h.done)
	return nil
}

func (h *Hub) run(ctx context.Context, feed <-chan *models.Message, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-feed:
			if !ok {
				if ctx.Err() == nil {
					h.log.Warn(ctx, "realtime feed closed")
				}
				return
			}
			h.Dispatch(m)
		}
	}
}

// Stop tears the subscription down and waits for the hub goroutine.
func (h *Hub) Stop() {
	h.runMu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Register subscribes fn to the messages of one conversation.
func (h *Hub) Register(key models.ConversationKey, fn Listener) (unregister func()) {
	r := &registration{fn: fn}

	h.mu.Lock()
	room, ok := h.rooms[key]
	if !ok {
		room = make(map[*registration]struct{})
		h.rooms[key] = room
	}
	room[r] = struct{}{}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if room, ok := h.rooms[key]; ok {
			delete(room, r)
			if len(room) == 0 {
				delete(h.rooms, key)
			}
		}
	}
}

// RegisterAny subscribes fn to every message.
func (h *Hub) RegisterAny(fn Listener) (unregister func()) {
	r := &registration{fn: fn}

	h.mu.Lock()
	h.global[r] = struct{}{}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.global, r)
		h.mu.Unlock()
	}
}

// Dispatch delivers m to its conversation listeners and to catch-all
// listeners.
func (h *Hub) Dispatch(m *models.Message) {
	if m == nil {
		return
	}

	h.mu.RLock()
	room := h.rooms[m.Key()]
	targets := make([]Listener, 0, len(room)+len(h.global))
	for r := range room {
		targets = append(targets, r.fn)
	}
	for r := range h.global {
		targets = append(targets, r.fn)
	}
	h.mu.RUnlock()

	for _, fn := range targets {
		c := *m
		fn(&c)
	}
}

// Listeners reports how many conversation listeners are registered.
func (h *Hub) Listeners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}
