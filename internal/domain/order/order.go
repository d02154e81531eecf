package order

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentCard         PaymentMethod = "card"
	PaymentPayPal       PaymentMethod = "paypal"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

var (
	ErrOrderNotFound         = apperr.NotFound("order not found")
	ErrEmptyOrder            = apperr.Validation("order must have at least one item")
	ErrInvalidQuantity       = apperr.Validation("quantity must be at least 1")
	ErrInvalidPaymentMethod  = apperr.Validation("payment method must be cod, card, paypal or bank_transfer")
	ErrInvalidShippingMethod = apperr.Validation("shipping method must be standard, express or overnight")
	ErrInvalidAddress        = apperr.Validation("invalid shipping address")
	ErrInvalidStatus         = apperr.Validation("invalid order status")
	ErrInvalidTransition     = apperr.Validation("invalid order status transition")
	ErrProductNotFound       = apperr.NotFound("product not found")
	ErrProductUnavailable    = apperr.Validation("product is not available")
	ErrInsufficientStock     = apperr.Validation("insufficient stock")
	ErrConcurrentUpdate      = apperr.Conflict("order was modified concurrently, please retry")
	ErrDuplicateOrderNumber  = apperr.Conflict("order number already in use, please retry")
	ErrForbidden             = apperr.Forbidden("you do not have access to this order")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {}, // terminal state
	StatusCancelled:  {}, // terminal state
	StatusRefunded:   {}, // terminal state
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	allowed, ok := validTransitions[s]
	return ok && len(allowed) == 0
}

// Restocks reports whether entering s returns the order's items to stock.
func (s Status) Restocks() bool {
	return s == StatusCancelled || s == StatusRefunded
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentPayPal, PaymentBankTransfer:
		return true
	}
	return false
}

// Item is an immutable order line.
type Item struct {
	ProductID     string            `json:"product_id"`
	Name          string            `json:"name"`
	Image         string            `json:"image,omitempty"`
	Variant       map[string]string `json:"variant,omitempty"`
	Quantity      int               `json:"quantity"`
	UnitPrice     decimal.Decimal   `json:"unit_price"`
	OriginalPrice decimal.Decimal   `json:"original_price"`
	LineTotal     decimal.Decimal   `json:"line_total"`
}

// Address is the shipping address, copied into the order.
type Address struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          string          `json:"user_id"`
	Items           []Item          `json:"items"`
	ShippingAddress Address         `json:"shipping_address"`
	ShippingMethod  ShippingMethod  `json:"shipping_method"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Status          Status          `json:"status"`
	ItemsTotal      decimal.Decimal `json:"items_total"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Discount        decimal.Decimal `json:"discount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
	CancelReason    string          `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	return slices.Contains(validTransitions[o.Status], target)
}

// transitionError returns an appropriate error for an invalid transition
func (o *Order) transitionError(target Status) error {
	if o.Status.Terminal() {
		return fmt.Errorf("%w: order is already %s", ErrInvalidTransition, o.Status)
	}
	return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, o.Status, target)
}

// apply moves the order into target and stamps the matching timestamps.
func (o *Order) apply(target Status, now time.Time, reason string) {
	o.Status = target
	o.UpdatedAt = now

	switch target {
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
		o.PaymentStatus = PaymentCompleted
	case StatusCancelled:
		o.CancelledAt = &now
		o.CancelReason = reason
	case StatusRefunded:
		o.CancelledAt = &now
		o.CancelReason = reason
		if o.PaymentStatus == PaymentCompleted {
			o.PaymentStatus = PaymentRefunded
		}
	}
}

// Contains reports whether any line is for productID.
func (o *Order) Contains(productID string) bool {
	return slices.ContainsFunc(o.Items, func(it Item) bool { return it.ProductID == productID })
}

// Quantity is the total ordered quantity of one product.
type Quantity struct {
	ProductID string
	Quantity  int
}

// Quantities sums the lines per product, ordered by product id. Stores apply
// stock changes in this order.
func (o *Order) Quantities() []Quantity {
	sums := map[string]int{}
	for _, it := range o.Items {
		sums[it.ProductID] += it.Quantity
	}
	out := make([]Quantity, 0, len(sums))
	for id, q := range sums {
		out = append(out, Quantity{ProductID: id, Quantity: q})
	}
	slices.SortFunc(out, func(a, b Quantity) int { return strings.Compare(a.ProductID, b.ProductID) })
	return out
}

// StockError names the product whose stock could not cover an order.
type StockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *StockError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %q: %d available, %d requested", name, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// ListFilter narrows an order listing. Zero values match everything.
type ListFilter struct {
	UserID string
	Status Status
	Page   int
	Limit  int
}

// Stats summarizes all orders for the admin dashboard.
type Stats struct {
	Count    int             `json:"count"`
	ByStatus map[Status]int  `json:"by_status"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// Repository persists orders. Place and Transition are atomic with the stock
// changes they imply.
type Repository interface {
	// Place stores o and applies stock -= qty, sold += qty for every product
	// in o. Each decrement requires enough stock; if any fails nothing is
	// written and a *StockError is returned.
	Place(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, int, error)
	// Transition writes o, which already carries its new status, only if the
	// stored status is still from; otherwise ErrConcurrentUpdate. With
	// restock set, every product's quantity goes back to stock in the same
	// unit of work.
	Transition(ctx context.Context, o *Order, from Status, restock bool) error
	// HasPurchased reports whether the user has an order containing the
	// product whose payment completed.
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
	Stats(ctx context.Context) (*Stats, error)
}
