// Package events holds the domain events the API publishes for other
// services, and the envelope they travel in.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TypeOrderPlaced        = "OrderPlaced"
	TypeOrderStatusChanged = "OrderStatusChanged"
)

// Envelope wraps a payload with the metadata consumers route on.
type Envelope struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Data        json.RawMessage `json:"data"`
	Timestamp   time.Time       `json:"timestamp"`
}

// New encodes payload into a fresh envelope.
func New(eventType, aggregateID string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Envelope{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		Data:        data,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (e *Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

type OrderLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type OrderPlaced struct {
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        string          `json:"user_id"`
	Items         []OrderLine     `json:"items"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	PaymentMethod string          `json:"payment_method"`
	PlacedAt      time.Time       `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Reason      string    `json:"reason,omitempty"`
	ChangedAt   time.Time `json:"changed_at"`
}

// Publisher delivers envelopes to the message bus.
type Publisher interface {
	Publish(ctx context.Context, e *Envelope) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Envelope) error { return nil }
