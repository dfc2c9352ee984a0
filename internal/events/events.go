// Package events publishes order notifications for downstream consumers
// (receipts, fulfilment). Publishing happens after the order is committed and
// is best effort: the ledger is the source of truth.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type OrderPlaced struct {
	OrderID          string             `json:"orderId"`
	PaymentReference string             `json:"paymentIntentId"`
	CustomerEmail    string             `json:"customerEmail"`
	Total            decimal.Decimal    `json:"total"`
	Items            []domain.OrderItem `json:"items"`
	PlacedAt         time.Time          `json:"placedAt"`
}

func NewOrderPlaced(o domain.Order) OrderPlaced {
	return OrderPlaced{
		OrderID:          o.ID,
		PaymentReference: o.PaymentReference,
		CustomerEmail:    o.CustomerEmail,
		Total:            o.Total,
		Items:            o.Items,
		PlacedAt:         o.CreatedAt,
	}
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }
func (Nop) Close() error                                         { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes OrderPlaced events keyed by order id.
type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher sends one event per checkout, so batches flush almost at
// once and a dead broker is given up on quickly.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           2 * time.Second,
		MaxAttempts:            2,
	}}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, ev OrderPlaced) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte("order.placed")},
		},
	})
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }
