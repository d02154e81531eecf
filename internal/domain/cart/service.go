package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductFinder is the slice of the catalog the cart needs.
type ProductFinder interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

type Service struct {
	repo     Repository
	products ProductFinder
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, products ProductFinder, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		logger:   logger.Named("cart"),
		now:      time.Now,
	}
}

// Get returns the user's cart; a user without one gets an empty cart.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	c, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return &Cart{UserID: userID, Items: []Item{}, TotalPrice: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem adds quantity of a product variant, merging with an existing line
// for the same product and variant. A merged line keeps its original price.
func (s *Service) AddItem(ctx context.Context, userID, productID string, variant map[string]string, quantity int) (*Cart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.loadAvailable(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if i := c.findLine(productID, variant); i >= 0 {
		c.Items[i].Quantity += quantity
	} else {
		c.Items = append(c.Items, Item{
			ID:        uuid.New().String(),
			ProductID: p.ID,
			Variant:   variant,
			Quantity:  quantity,
			Price:     p.EffectivePrice(now),
			Name:      p.Name,
			Image:     firstImage(p),
			AddedAt:   now,
		})
	}

	if err := checkStock(p, c.QuantityOf(productID)); err != nil {
		return nil, err
	}

	return s.save(ctx, c)
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := c.findItem(itemID)
	if i < 0 {
		return nil, ErrItemNotFound
	}

	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return s.save(ctx, c)
	}

	p, err := s.loadAvailable(ctx, c.Items[i].ProductID)
	if err != nil {
		return nil, err
	}
	c.Items[i].Quantity = quantity
	if err := checkStock(p, c.QuantityOf(p.ID)); err != nil {
		return nil, err
	}

	return s.save(ctx, c)
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := c.findItem(itemID)
	if i < 0 {
		return nil, ErrItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return s.save(ctx, c)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil && !errors.Is(err, ErrCartNotFound) {
		return err
	}
	return nil
}

func (s *Service) save(ctx context.Context, c *Cart) (*Cart, error) {
	c.Recalculate()
	c.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) loadAvailable(ctx context.Context, productID string) (*product.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.Available() {
		return nil, ErrProductUnavailable
	}
	return p, nil
}

func checkStock(p *product.Product, wanted int) error {
	if wanted > p.Stock {
		return fmt.Errorf("%w: only %d of %q left", ErrInsufficientStock, p.Stock, p.Name)
	}
	return nil
}

func firstImage(p *product.Product) string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
