package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/pagination"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductStore is the slice of the catalog reviews touch.
type ProductStore interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	UpdateRating(ctx context.Context, id string, rating product.Rating) error
}

// PurchaseChecker answers whether a user bought a product.
type PurchaseChecker interface {
	HasPurchased(ctx context.Context, userID, productID string) (bool, error)
}

// SubmitInput is a new review.
type SubmitInput struct {
	ProductID string
	Rating    int
	Title     string
	Comment   string
}

// UpdateInput lists the fields an author may edit; nil leaves a field unchanged.
type UpdateInput struct {
	Rating  *int
	Title   *string
	Comment *string
}

type Service struct {
	repo      Repository
	products  ProductStore
	purchases PurchaseChecker
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(repo Repository, products ProductStore, purchases PurchaseChecker, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		purchases: purchases,
		logger:    logger.Named("review"),
		now:       time.Now,
	}
}

// Submit stores a pending review. Whether it is a verified purchase is
// decided here, once.
func (s *Service) Submit(ctx context.Context, userID string, in SubmitInput) (*Review, error) {
	if in.ProductID == "" {
		return nil, ErrInvalidProduct
	}
	if err := validateContent(in.Rating, in.Comment); err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
		return nil, err
	}

	verified, err := s.purchases.HasPurchased(ctx, userID, in.ProductID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r := &Review{
		ID:               uuid.New().String(),
		ProductID:        in.ProductID,
		UserID:           userID,
		Rating:           in.Rating,
		Title:            strings.TrimSpace(in.Title),
		Comment:          strings.TrimSpace(in.Comment),
		Status:           StatusPending,
		VerifiedPurchase: verified,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("review submitted",
		zap.String("review_id", r.ID),
		zap.String("product_id", r.ProductID),
		zap.Bool("verified_purchase", verified))
	return r, nil
}

// Update edits the caller's own review. An approved review goes back to
// moderation and stops counting toward the product rating.
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*Review, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, ErrForbidden
	}

	if in.Rating != nil {
		r.Rating = *in.Rating
	}
	if in.Title != nil {
		r.Title = strings.TrimSpace(*in.Title)
	}
	if in.Comment != nil {
		r.Comment = strings.TrimSpace(*in.Comment)
	}
	if err := validateContent(r.Rating, r.Comment); err != nil {
		return nil, err
	}

	wasApproved := r.Status == StatusApproved
	r.Status = StatusPending
	r.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	if wasApproved {
		if err := s.recompute(ctx, r.ProductID); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Delete removes a review by its author or an administrator.
func (s *Service) Delete(ctx context.Context, userID string, isAdmin bool, id string) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && r.UserID != userID {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if r.Status == StatusApproved {
		return s.recompute(ctx, r.ProductID)
	}
	return nil
}

// Moderate approves or rejects a review and refreshes the product rating.
func (s *Service) Moderate(ctx context.Context, id string, decision Status) (*Review, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, ErrInvalidDecision
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.Status = decision
	r.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, r.ProductID); err != nil {
		return nil, err
	}

	s.logger.Info("review moderated", zap.String("review_id", r.ID), zap.String("status", string(decision)))
	return r, nil
}

// ListForProduct is the public listing: approved reviews only.
func (s *Service) ListForProduct(ctx context.Context, productID string, page, limit int) (*pagination.Page[*Review], error) {
	return s.list(ctx, ListFilter{ProductID: productID, Status: StatusApproved, Page: page, Limit: limit})
}

// ListMine returns the caller's reviews in every status.
func (s *Service) ListMine(ctx context.Context, userID string, page, limit int) (*pagination.Page[*Review], error) {
	return s.list(ctx, ListFilter{UserID: userID, Page: page, Limit: limit})
}

// List is the moderation listing.
func (s *Service) List(ctx context.Context, filter ListFilter) (*pagination.Page[*Review], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter ListFilter) (*pagination.Page[*Review], error) {
	p := pagination.New(filter.Page, filter.Limit)
	filter.Page, filter.Limit = p.Page, p.Limit

	reviews, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(reviews, total, p), nil
}

// recompute rebuilds the product's rating from its approved reviews.
func (s *Service) recompute(ctx context.Context, productID string) error {
	ratings, err := s.repo.ApprovedRatings(ctx, productID)
	if err != nil {
		return err
	}
	err = s.products.UpdateRating(ctx, productID, product.NewRating(ratings))
	if errors.Is(err, product.ErrProductNotFound) {
		// product deleted since; nothing to keep in sync
		return nil
	}
	return err
}

func validateContent(rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	if strings.TrimSpace(comment) == "" {
		return ErrInvalidComment
	}
	return nil
}
