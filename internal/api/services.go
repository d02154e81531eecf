package api

import (
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/auth"
	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/category"
	"github.com/example/ec-shop-api/internal/domain/dashboard"
	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/domain/review"
	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/domain/wishlist"
	"github.com/example/ec-shop-api/internal/events"
	"github.com/example/ec-shop-api/internal/store"
	"github.com/example/ec-shop-api/internal/upload"
)

// NewServices wires every domain service onto one store.
func NewServices(st store.Store, tokens *auth.JWTService, publisher events.Publisher, uploads *upload.Service, lowStockThreshold int, logger *zap.Logger) Services {
	return Services{
		Users:      user.NewService(st.Users(), tokens, logger),
		Products:   product.NewService(st.Products(), st.Categories(), logger),
		Categories: category.NewService(st.Categories(), logger),
		Carts:      cart.NewService(st.Carts(), st.Products(), logger),
		Wishlists:  wishlist.NewService(st.Wishlists(), st.Products(), logger),
		Orders:     order.NewService(st.Orders(), st.Products(), st.Carts(), order.DefaultShipping(), publisher, logger),
		Reviews:    review.NewService(st.Reviews(), st.Products(), st.Orders(), logger),
		Dashboard:  dashboard.NewService(st.Users(), st.Products(), st.Orders(), lowStockThreshold, logger),
		Uploads:    uploads,
	}
}
