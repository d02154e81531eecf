package review

import (
	"context"
	"time"

	"github.com/example/ec-shop-api/internal/apperr"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

var (
	ErrReviewNotFound  = apperr.NotFound("review not found")
	ErrDuplicateReview = apperr.Conflict("you have already reviewed this product")
	ErrInvalidRating   = apperr.Validation("rating must be between 1 and 5")
	ErrInvalidComment  = apperr.Validation("comment is required")
	ErrInvalidStatus   = apperr.Validation("status must be pending, approved or rejected")
	ErrInvalidDecision = apperr.Validation("a review can only be approved or rejected")
	ErrInvalidProduct  = apperr.Validation("product_id is required")
	ErrForbidden       = apperr.Forbidden("you can only change your own reviews")
)

// Review is one user's review of one product; at most one per pair.
type Review struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"product_id"`
	UserID           string    `json:"user_id"`
	Rating           int       `json:"rating"`
	Title            string    `json:"title"`
	Comment          string    `json:"comment"`
	Status           Status    `json:"status"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ListFilter narrows a review listing. Zero values match everything.
type ListFilter struct {
	ProductID string
	UserID    string
	Status    Status
	Page      int
	Limit     int
}

// Repository persists reviews. Create rejects a second review by the same
// user for the same product with ErrDuplicateReview.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*Review, int, error)
	// ApprovedRatings returns the star ratings of every approved review of a product.
	ApprovedRatings(ctx context.Context, productID string) ([]int, error)
}
