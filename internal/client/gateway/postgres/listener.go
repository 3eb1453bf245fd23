package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/logging"
	"github.com/jackc/pgx/v5"
)

const MessagesChannel = "messages_inserted"

var _ gateway.Realtime = (*Listener)(nil)

// Listener turns NOTIFY payloads of the messages trigger into a message
// feed. Each subscription holds its own dedicated connection.
type Listener struct {
	dsn string
	log logging.Logger
}

func NewListener(dsn string, log logging.Logger) *Listener {
	return &Listener{dsn: dsn, log: logging.OrNop(log)}
}

func (l *Listener) SubscribeMessages(ctx context.Context) (<-chan *models.Message, error) {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return nil, fmt.Errorf("listener connect: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+MessagesChannel); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("listen %s: %w", MessagesChannel, err)
	}

	out := make(chan *models.Message)
	go func() {
		defer close(out)
		defer conn.Close(context.Background())

		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					l.log.Error(ctx, "realtime feed stopped", "error", err)
				}
				return
			}
			m, err := decodeMessage([]byte(n.Payload))
			if err != nil {
				l.log.Warn(ctx, "skipping malformed notification", "error", err)
				continue
			}
			select {
			case out <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func decodeMessage(payload []byte) (*models.Message, error) {
	m := &models.Message{}
	if err := json.Unmarshal(payload, m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("decode message: missing id")
	}
	return m, nil
}
