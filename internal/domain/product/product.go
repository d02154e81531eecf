package product

import (
	"context"
	"math"
	"time"

	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDraft    Status = "draft"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDraft:
		return true
	}
	return false
}

var (
	ErrProductNotFound       = apperr.NotFound("product not found")
	ErrInvalidName           = apperr.Validation("name is required")
	ErrInvalidPrice          = apperr.Validation("price must be zero or positive")
	ErrInvalidDiscount       = apperr.Validation("discount price must be lower than price")
	ErrInvalidDiscountWindow = apperr.Validation("discount must end after it starts")
	ErrInvalidStock          = apperr.Validation("stock cannot be negative")
	ErrInvalidStatus         = apperr.Validation("status must be active, inactive or draft")
	ErrInvalidSort           = apperr.Validation("unknown sort order")
	ErrUnknownCategory       = apperr.Validation("category does not exist")
)

// Rating is the aggregate of approved reviews. Distribution[0] counts
// one-star reviews, Distribution[4] five-star ones.
type Rating struct {
	Average      float64 `json:"average"`
	Count        int     `json:"count"`
	Distribution [5]int  `json:"distribution"`
}

// NewRating aggregates a set of 1..5 star scores. Out-of-range scores are ignored.
func NewRating(scores []int) Rating {
	var r Rating
	sum := 0
	for _, s := range scores {
		if s < 1 || s > 5 {
			continue
		}
		r.Distribution[s-1]++
		r.Count++
		sum += s
	}
	if r.Count > 0 {
		r.Average = math.Round(float64(sum)/float64(r.Count)*10) / 10
	}
	return r
}

type Product struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	Price            decimal.Decimal     `json:"price"`
	DiscountPrice    decimal.NullDecimal `json:"discount_price"`
	DiscountStartsAt *time.Time          `json:"discount_starts_at,omitempty"`
	DiscountEndsAt   *time.Time          `json:"discount_ends_at,omitempty"`
	Stock            int                 `json:"stock"`
	Sold             int                 `json:"sold"`
	Status           Status              `json:"status"`
	CategoryID       string              `json:"category_id,omitempty"`
	Images           []string            `json:"images"`
	Rating           Rating              `json:"rating"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// DiscountActive reports whether the discount price applies at now.
// A discount without a window is always active.
func (p *Product) DiscountActive(now time.Time) bool {
	if !p.DiscountPrice.Valid {
		return false
	}
	if p.DiscountStartsAt != nil && now.Before(*p.DiscountStartsAt) {
		return false
	}
	if p.DiscountEndsAt != nil && !now.Before(*p.DiscountEndsAt) {
		return false
	}
	return true
}

// EffectivePrice is the price a customer pays at now.
func (p *Product) EffectivePrice(now time.Time) decimal.Decimal {
	if p.DiscountActive(now) {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}

// Available reports whether the product can be bought at all.
func (p *Product) Available() bool {
	return p.Status == StatusActive
}

func (p *Product) validate() error {
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if p.DiscountPrice.Valid {
		if p.DiscountPrice.Decimal.IsNegative() || !p.DiscountPrice.Decimal.LessThan(p.Price) {
			return ErrInvalidDiscount
		}
	}
	if p.DiscountStartsAt != nil && p.DiscountEndsAt != nil && !p.DiscountEndsAt.After(*p.DiscountStartsAt) {
		return ErrInvalidDiscountWindow
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	if !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Repository persists products. Update writes the editable fields only;
// stock, sold and rating change through their dedicated calls or through
// order placement.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	SetStock(ctx context.Context, id string, stock int) error
	UpdateRating(ctx context.Context, id string, rating Rating) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter) ([]*Product, int, error)
	LowStock(ctx context.Context, threshold, limit int) ([]*Product, error)
	Count(ctx context.Context) (int, error)
}
