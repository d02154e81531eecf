package cart

import (
	"context"
	"maps"
	"time"

	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/shopspring/decimal"
)

var (
	ErrCartNotFound       = apperr.NotFound("cart not found")
	ErrItemNotFound       = apperr.NotFound("cart item not found")
	ErrInvalidQuantity    = apperr.Validation("quantity must be positive")
	ErrInvalidProduct     = apperr.Validation("product_id is required")
	ErrProductUnavailable = apperr.Validation("product is not available")
	ErrInsufficientStock  = apperr.Validation("insufficient stock")
)

// Item is one cart line. Price, Name and Image are captured when the line
// is added.
type Item struct {
	ID        string            `json:"id"`
	ProductID string            `json:"product_id"`
	Variant   map[string]string `json:"variant,omitempty"`
	Quantity  int               `json:"quantity"`
	Price     decimal.Decimal   `json:"price"`
	Name      string            `json:"name"`
	Image     string            `json:"image,omitempty"`
	LineTotal decimal.Decimal   `json:"line_total"`
	AddedAt   time.Time         `json:"added_at"`
}

// Cart is a user's cart; one per user.
type Cart struct {
	UserID     string          `json:"user_id"`
	Items      []Item          `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Recalculate derives line totals and cart totals from the lines.
func (c *Cart) Recalculate() {
	c.TotalItems = 0
	c.TotalPrice = decimal.Zero
	for i := range c.Items {
		it := &c.Items[i]
		it.LineTotal = it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		c.TotalItems += it.Quantity
		c.TotalPrice = c.TotalPrice.Add(it.LineTotal)
	}
}

// findLine returns the index of the line for productID with an identical
// variant selection, or -1.
func (c *Cart) findLine(productID string, variant map[string]string) int {
	for i, it := range c.Items {
		if it.ProductID == productID && maps.Equal(it.Variant, variant) {
			return i
		}
	}
	return -1
}

func (c *Cart) findItem(itemID string) int {
	for i, it := range c.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// QuantityOf sums the quantity of productID across all its variants.
func (c *Cart) QuantityOf(productID string) int {
	n := 0
	for _, it := range c.Items {
		if it.ProductID == productID {
			n += it.Quantity
		}
	}
	return n
}

// Repository stores whole carts. Concurrent saves for the same user are
// last-write-wins.
type Repository interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, userID string) error
}
