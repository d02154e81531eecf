// Package store selects and opens the persistence backend. Every backend
// implements the domain repositories; the services never see which one runs.
package store

import (
	"context"
	"fmt"

	"github.com/example/ec-shop-api/internal/config"
	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/category"
	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/domain/review"
	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/domain/wishlist"
	"github.com/example/ec-shop-api/internal/store/dynamo"
	"github.com/example/ec-shop-api/internal/store/memory"
	"github.com/example/ec-shop-api/internal/store/postgres"
	"go.uber.org/zap"
)

// Store is a persistence backend.
type Store interface {
	Users() user.Repository
	Products() product.Repository
	Categories() category.Repository
	Carts() cart.Repository
	Wishlists() wishlist.Repository
	Orders() order.Repository
	Reviews() review.Repository

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	// Migrate creates the schema or tables the backend needs. It is idempotent.
	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*postgres.Store)(nil)
	_ Store = (*dynamo.Store)(nil)
)

// Open connects to the backend named by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	logger = logger.Named("store")

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		st, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		logger.Info("connected to postgres")
		return st, nil

	case config.BackendDynamoDB:
		st, err := dynamo.Open(ctx, dynamo.Options{
			Region:   cfg.AWSRegion,
			Table:    cfg.DynamoDBTable,
			Endpoint: cfg.DynamoDBEndpoint,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open dynamodb: %w", err)
		}
		logger.Info("using dynamodb", zap.String("table", cfg.DynamoDBTable))
		return st, nil

	case config.BackendMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
