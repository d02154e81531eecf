package dashboard

import (
	"context"
	"fmt"

	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/domain/product"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLowStockThreshold = 5
	lowStockLimit            = 10
	recentOrdersLimit        = 5
)

type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

type ProductReader interface {
	Count(ctx context.Context) (int, error)
	LowStock(ctx context.Context, threshold, limit int) ([]*product.Product, error)
}

type OrderReader interface {
	Stats(ctx context.Context) (*order.Stats, error)
	List(ctx context.Context, filter order.ListFilter) ([]*order.Order, int, error)
}

// Summary is the admin overview.
type Summary struct {
	Users             int                `json:"users"`
	Products          int                `json:"products"`
	Orders            order.Stats        `json:"orders"`
	LowStockThreshold int                `json:"low_stock_threshold"`
	LowStock          []*product.Product `json:"low_stock"`
	RecentOrders      []*order.Order     `json:"recent_orders"`
}

type Service struct {
	users     UserCounter
	products  ProductReader
	orders    OrderReader
	threshold int
	logger    *zap.Logger
}

// NewService builds the dashboard. A threshold below zero falls back to the default.
func NewService(users UserCounter, products ProductReader, orders OrderReader, lowStockThreshold int, logger *zap.Logger) *Service {
	if lowStockThreshold < 0 {
		lowStockThreshold = defaultLowStockThreshold
	}
	return &Service{
		users:     users,
		products:  products,
		orders:    orders,
		threshold: lowStockThreshold,
		logger:    logger.Named("dashboard"),
	}
}

// Summary gathers every figure concurrently; the first failure aborts the rest.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	sum := &Summary{LowStockThreshold: s.threshold}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.users.Count(ctx)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		sum.Users = n
		return nil
	})
	g.Go(func() error {
		n, err := s.products.Count(ctx)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		sum.Products = n
		return nil
	})
	g.Go(func() error {
		stats, err := s.orders.Stats(ctx)
		if err != nil {
			return fmt.Errorf("order stats: %w", err)
		}
		sum.Orders = *stats
		return nil
	})
	g.Go(func() error {
		low, err := s.products.LowStock(ctx, s.threshold, lowStockLimit)
		if err != nil {
			return fmt.Errorf("low stock: %w", err)
		}
		sum.LowStock = low
		return nil
	})
	g.Go(func() error {
		recent, _, err := s.orders.List(ctx, order.ListFilter{Page: 1, Limit: recentOrdersLimit})
		if err != nil {
			return fmt.Errorf("recent orders: %w", err)
		}
		sum.RecentOrders = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard summary failed", zap.Error(err))
		return nil, err
	}
	if sum.LowStock == nil {
		sum.LowStock = []*product.Product{}
	}
	if sum.RecentOrders == nil {
		sum.RecentOrders = []*order.Order{}
	}
	return sum, nil
}
