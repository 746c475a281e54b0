package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/salman854raza/test-sanity-e-commerce/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	OrderConfirmedTopic = "order-confirmed"
	ReconciliationTopic = "stock-reconciliation"
)

// OrderConfirmedEvent is the payload downstream consumers (notification,
// fulfillment) read off the order-confirmed topic.
type OrderConfirmedEvent struct {
	OrderID     string             `json:"order_id"`
	AttemptID   string             `json:"attempt_id"`
	UserID      string             `json:"user_id"`
	Email       string             `json:"email"`
	Items       []domain.OrderItem `json:"items"`
	TotalAmount string             `json:"total_amount"`
	ConfirmedAt time.Time          `json:"confirmed_at"`
}

// ReservationStuckEvent flags products whose compensating increment could
// not be applied; operators reconcile these by hand.
type ReservationStuckEvent struct {
	AttemptID  string    `json:"attempt_id"`
	ProductIDs []string  `json:"product_ids"`
	DetectedAt time.Time `json:"detected_at"`
}

type Publisher struct {
	orders *kafka.Writer
	alerts *kafka.Writer
}

func NewPublisher(brokers ...string) *Publisher {
	return &Publisher{
		orders: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  OrderConfirmedTopic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		alerts: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  ReconciliationTopic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Publisher) OrderConfirmed(ctx context.Context, order *domain.Order) error {
	event := OrderConfirmedEvent{
		OrderID:     order.ID.String(),
		AttemptID:   order.AttemptID.String(),
		UserID:      order.UserID,
		Email:       order.Buyer.Email,
		Items:       order.Items,
		TotalAmount: order.TotalAmount.String(),
		ConfirmedAt: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order confirmed event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.AttemptID.String()), // attempt_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("order_confirmed")},
		},
	}
	return p.orders.WriteMessages(ctx, msg)
}

func (p *Publisher) ReservationStuck(ctx context.Context, attemptID string, productIDs []string) error {
	event := ReservationStuckEvent{
		AttemptID:  attemptID,
		ProductIDs: productIDs,
		DetectedAt: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal reservation stuck event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(attemptID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("reservation_stuck")},
		},
	}
	return p.alerts.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	if err := p.orders.Close(); err != nil {
		return err
	}
	return p.alerts.Close()
}
