package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/ec-shop-api/internal/domain/category"
	"github.com/example/ec-shop-api/internal/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateInput carries a new product. Status defaults to active.
type CreateInput struct {
	Name             string
	Description      string
	Price            decimal.Decimal
	DiscountPrice    *decimal.Decimal
	DiscountStartsAt *time.Time
	DiscountEndsAt   *time.Time
	Stock            int
	Status           Status
	CategoryID       string
	Images           []string
}

// UpdateInput enumerates the editable fields; nil leaves a field unchanged.
// RemoveDiscount clears the discount price and its window.
type UpdateInput struct {
	Name             *string
	Description      *string
	Price            *decimal.Decimal
	DiscountPrice    *decimal.Decimal
	DiscountStartsAt *time.Time
	DiscountEndsAt   *time.Time
	RemoveDiscount   bool
	Status           *Status
	CategoryID       *string
	Images           *[]string
}

type Service struct {
	repo       Repository
	categories category.Repository
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(repo Repository, categories category.Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		logger:     logger.Named("product"),
		now:        time.Now,
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	if in.Status == "" {
		in.Status = StatusActive
	}

	now := s.now()
	p := &Product{
		ID:               uuid.New().String(),
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		Price:            in.Price,
		DiscountStartsAt: in.DiscountStartsAt,
		DiscountEndsAt:   in.DiscountEndsAt,
		Stock:            in.Stock,
		Status:           in.Status,
		CategoryID:       in.CategoryID,
		Images:           in.Images,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.DiscountPrice != nil {
		p.DiscountPrice = decimal.NewNullDecimal(*in.DiscountPrice)
	}
	if p.Images == nil {
		p.Images = []string{}
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, p.CategoryID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.RemoveDiscount {
		p.DiscountPrice = decimal.NullDecimal{}
		p.DiscountStartsAt = nil
		p.DiscountEndsAt = nil
	}
	if in.DiscountPrice != nil {
		p.DiscountPrice = decimal.NewNullDecimal(*in.DiscountPrice)
	}
	if in.DiscountStartsAt != nil {
		p.DiscountStartsAt = in.DiscountStartsAt
	}
	if in.DiscountEndsAt != nil {
		p.DiscountEndsAt = in.DiscountEndsAt
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
		if err := s.checkCategory(ctx, p.CategoryID); err != nil {
			return nil, err
		}
	}
	if in.Images != nil {
		p.Images = *in.Images
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a product. Products that are not active are hidden from
// callers without includeHidden.
func (s *Service) Get(ctx context.Context, id string, includeHidden bool) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !includeHidden && !p.Available() {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// List returns a filtered page. Without includeHidden only active products
// are listed, whatever status was asked for.
func (s *Service) List(ctx context.Context, filter Filter, includeHidden bool) (*pagination.Page[*Product], error) {
	if !includeHidden {
		filter.Status = StatusActive
	} else if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if filter.Sort == "" {
		filter.Sort = SortNewest
	}
	p := pagination.New(filter.Page, filter.Limit)
	filter.Page, filter.Limit = p.Page, p.Limit

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(products, total, p), nil
}

func (s *Service) SetStock(ctx context.Context, id string, stock int) (*Product, error) {
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	if err := s.repo.SetStock(ctx, id, stock); err != nil {
		return nil, err
	}
	s.logger.Info("stock set", zap.String("product_id", id), zap.Int("stock", stock))
	return s.repo.GetByID(ctx, id)
}

// AddImage appends an uploaded image URL to the product.
func (s *Service) AddImage(ctx context.Context, id, url string) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Images = append(p.Images, url)
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

func (s *Service) checkCategory(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, category.ErrCategoryNotFound) {
			return ErrUnknownCategory
		}
		return err
	}
	return nil
}
