// Package notify signals subscribers that an order changed so they can
// refresh it. Delivery is best effort.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type Notifier interface {
	Notify(ctx context.Context, orderID uuid.UUID) error
}

// Nop drops every signal. It is used when no broker is configured.
type Nop struct{}

func (Nop) Notify(context.Context, uuid.UUID) error { return nil }

type OrderUpdated struct {
	OrderID uuid.UUID `json:"order_id"`
	SentAt  time.Time `json:"sent_at"`
}

// AMQP publishes OrderUpdated messages to a fanout exchange.
type AMQP struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string

	mu  sync.Mutex
	now func() time.Time
}

func Dial(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQP{conn: conn, ch: ch, exchange: exchange, now: time.Now}, nil
}

func (a *AMQP) Close() {
	if a.ch != nil {
		_ = a.ch.Close()
	}
	if a.conn != nil {
		_ = a.conn.Close()
	}
}

func newPublishing(orderID uuid.UUID, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(OrderUpdated{OrderID: orderID, SentAt: now.UTC()})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal order update: %w", err)
	}

	return amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		Body:          body,
		MessageId:     uuid.NewString(),
		CorrelationId: orderID.String(),
		Timestamp:     now.UTC(),
	}, nil
}

func (a *AMQP) Notify(ctx context.Context, orderID uuid.UUID) error {
	pub, err := newPublishing(orderID, a.now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ch.PublishWithContext(ctx, a.exchange, "", false, false, pub); err != nil {
		return fmt.Errorf("publish order update: %w", err)
	}
	return nil
}
