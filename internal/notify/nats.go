package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"librarygql/internal/entity"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectBookAdded carries JSON-encoded books between instances.
const SubjectBookAdded = "library.book.added"

// NATSBridge publishes through NATS and feeds every message received on the
// subject into the local hub, so each instance fans out every event.
type NATSBridge struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	hub    *Hub
	logger *zap.Logger
}

func NewNATSBridge(url string, hub *Hub, logger *zap.Logger) (*NATSBridge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "nats"))

	conn, err := nats.Connect(url,
		nats.Name("librarygql"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	b := &NATSBridge{conn: conn, hub: hub, logger: logger}
	b.sub, err = conn.Subscribe(SubjectBookAdded, b.handle)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", SubjectBookAdded, err)
	}
	logger.Info("nats bridge ready", zap.String("subject", SubjectBookAdded))
	return b, nil
}

func (b *NATSBridge) handle(msg *nats.Msg) {
	var book entity.Book
	if err := json.Unmarshal(msg.Data, &book); err != nil {
		b.logger.Warn("discarding malformed event", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := b.hub.Publish(ctx, book); err != nil {
		b.logger.Warn("local fan-out failed", zap.Error(err))
	}
}

func (b *NATSBridge) Publish(_ context.Context, book entity.Book) error {
	data, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return b.conn.Publish(SubjectBookAdded, data)
}

func (b *NATSBridge) Subscribe(ctx context.Context) <-chan entity.Book {
	return b.hub.Subscribe(ctx)
}

// Close drains the subscription and the connection.
func (b *NATSBridge) Close() error {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	return b.conn.Drain()
}
