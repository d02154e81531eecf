package order

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// ============================================
// Transition Table Tests
// ============================================

func TestOrder_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		allowed []Status
	}{
		{StatusPending, []Status{StatusProcessing, StatusCancelled, StatusRefunded}},
		{StatusProcessing, []Status{StatusShipped, StatusCancelled, StatusRefunded}},
		{StatusShipped, []Status{StatusDelivered}},
		{StatusDelivered, nil},
		{StatusCancelled, nil},
		{StatusRefunded, nil},
	}
	all := []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			o := &Order{Status: tt.from}
			for _, target := range all {
				want := false
				for _, a := range tt.allowed {
					if a == target {
						want = true
					}
				}
				assert.Equal(t, want, o.CanTransitionTo(target), "%s -> %s", tt.from, target)
			}
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusRefunded.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusShipped.Terminal())
	assert.False(t, Status("lost").Valid())
}

func TestOrder_TransitionError(t *testing.T) {
	err := (&Order{Status: StatusDelivered}).transitionError(StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "already delivered")

	err = (&Order{Status: StatusPending}).transitionError(StatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "pending to delivered")
}

func TestOrder_Apply(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	shipped := &Order{Status: StatusProcessing, PaymentStatus: PaymentPending}
	shipped.apply(StatusShipped, now, "")
	assert.Equal(t, &now, shipped.ShippedAt)

	delivered := &Order{Status: StatusShipped, PaymentStatus: PaymentPending}
	delivered.apply(StatusDelivered, now, "")
	assert.Equal(t, PaymentCompleted, delivered.PaymentStatus)
	assert.NotNil(t, delivered.DeliveredAt)

	cancelled := &Order{Status: StatusPending, PaymentStatus: PaymentPending}
	cancelled.apply(StatusCancelled, now, "changed my mind")
	assert.Equal(t, "changed my mind", cancelled.CancelReason)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, PaymentPending, cancelled.PaymentStatus)

	refunded := &Order{Status: StatusProcessing, PaymentStatus: PaymentCompleted}
	refunded.apply(StatusRefunded, now, "damaged")
	assert.Equal(t, PaymentRefunded, refunded.PaymentStatus)
	assert.NotNil(t, refunded.CancelledAt)
}

// ============================================
// Helpers
// ============================================

func TestOrder_Quantities(t *testing.T) {
	o := &Order{Items: []Item{
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 3},
	}}

	assert.Equal(t, []Quantity{{"a", 2}, {"b", 4}}, o.Quantities())
	assert.True(t, o.Contains("a"))
	assert.False(t, o.Contains("c"))
}

func TestOrderNumber(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	assert.Equal(t, "ORD-1700000000123-C9F1", orderNumber(now, "5b1e-77ab-c9f1"))
	assert.Equal(t, "ORD-1700000000123-AB", orderNumber(now, "ab"))
}

func TestStockError(t *testing.T) {
	err := &StockError{ProductID: "p1", Name: "Mug", Available: 2, Requested: 3}

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, `insufficient stock for "Mug": 2 available, 3 requested`, err.Error())
}

func TestFlatRateShipping(t *testing.T) {
	policy := DefaultShipping()

	tests := []struct {
		name   string
		method ShippingMethod
		total  string
		want   string
	}{
		{"standard below threshold", ShippingStandard, "49.99", "5.00"},
		{"standard at threshold is free", ShippingStandard, "50.00", "0"},
		{"express never free", ShippingExpress, "500", "15.00"},
		{"overnight", ShippingOvernight, "1", "25.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, err := policy.Cost(tt.method, decimal.RequireFromString(tt.total))
			assert.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(cost), "got %s", cost)
		})
	}

	_, err := policy.Cost("teleport", decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidShippingMethod)
}
