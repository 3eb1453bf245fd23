package memory

import (
	"context"

	"github.com/dmitrijs2005/urbannest/internal/client/models"
)

// SubscribeMessages registers a feed that receives every message inserted
// after the call. Delivery blocks the sender until the subscriber reads or
// its context ends.
func (b *Backend) SubscribeMessages(ctx context.Context) (<-chan *models.Message, error) {
	s := &subscriber{ctx: ctx, ch: make(chan *models.Message)}

	b.subsMu.Lock()
	b.subs[s] = struct{}{}
	b.subsMu.Unlock()

	go func() {
		<-ctx.Done()

		b.subsMu.Lock()
		delete(b.subs, s)
		b.subsMu.Unlock()

		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	}()

	return s.ch, nil
}

func (b *Backend) publish(m *models.Message) {
	b.subsMu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.subsMu.Unlock()

	for _, s := range subs {
		s.mu.RLock()
		if !s.closed {
			select {
			case s.ch <- cloneMessage(m):
			case <-s.ctx.Done():
			}
		}
		s.mu.RUnlock()
	}
}
