package wishlist

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/example/ec-shop-api/internal/domain/product"
	"go.uber.org/zap"
)

var (
	ErrWishlistNotFound = apperr.NotFound("wishlist not found")
	ErrInvalidProduct   = apperr.Validation("product_id is required")
)

// Wishlist holds the product ids a user saved, oldest first, without duplicates.
type Wishlist struct {
	UserID     string    `json:"user_id"`
	ProductIDs []string  `json:"product_ids"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// View is a wishlist resolved to the products that still exist.
type View struct {
	UserID   string             `json:"user_id"`
	Products []*product.Product `json:"products"`
}

type Repository interface {
	Get(ctx context.Context, userID string) (*Wishlist, error)
	Save(ctx context.Context, w *Wishlist) error
}

// ProductFinder is the slice of the catalog the wishlist needs.
type ProductFinder interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]*product.Product, error)
}

type Service struct {
	repo     Repository
	products ProductFinder
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, products ProductFinder, logger *zap.Logger) *Service {
	return &Service{repo: repo, products: products, logger: logger.Named("wishlist"), now: time.Now}
}

// Get lists the saved products in the order they were added. Products
// deleted since are skipped.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	found, err := s.products.FindByIDs(ctx, w.ProductIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*product.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	view := &View{UserID: userID, Products: []*product.Product{}}
	for _, id := range w.ProductIDs {
		if p, ok := byID[id]; ok {
			view.Products = append(view.Products, p)
		}
	}
	return view, nil
}

// Add saves a product; adding one that is already saved is a no-op.
func (s *Service) Add(ctx context.Context, userID, productID string) (*View, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(w.ProductIDs, productID) {
		w.ProductIDs = append(w.ProductIDs, productID)
		if err := s.save(ctx, w); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID, productID string) (*View, error) {
	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if i := slices.Index(w.ProductIDs, productID); i >= 0 {
		w.ProductIDs = slices.Delete(w.ProductIDs, i, i+1)
		if err := s.save(ctx, w); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.save(ctx, &Wishlist{UserID: userID, ProductIDs: []string{}})
}

func (s *Service) load(ctx context.Context, userID string) (*Wishlist, error) {
	w, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrWishlistNotFound) {
		return &Wishlist{UserID: userID, ProductIDs: []string{}}, nil
	}
	return w, err
}

func (s *Service) save(ctx context.Context, w *Wishlist) error {
	w.UpdatedAt = s.now()
	return s.repo.Save(ctx, w)
}
