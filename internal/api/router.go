package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/api/middleware"
	"github.com/example/ec-shop-api/internal/domain/user"
)

// Pinger reports whether the data backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Production bool
	Backend    string
	// StaticDir is served at StaticPath when images are stored on disk.
	StaticDir  string
	StaticPath string
}

const healthTimeout = 2 * time.Second

func NewRouter(svc Services, health Pinger, opts Options, logger *zap.Logger) *gin.Engine {
	middleware.UseJSONFieldNames()

	h := NewHandlers(svc, opts.Production, logger)
	protect := middleware.Protect(svc.Users)
	admin := middleware.RequireRole(user.RoleAdmin)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.Errors(logger, opts.Production),
	)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.Envelope{Message: "route " + c.Request.URL.Path + " not found"})
	})

	if opts.StaticDir != "" && opts.StaticPath != "" {
		r.Static(opts.StaticPath, opts.StaticDir)
	}

	api := r.Group("/api")
	api.GET("/health", healthCheck(health, opts.Backend))

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", protect, h.Me)
		authGroup.PATCH("/me", protect, h.UpdateMe)
		authGroup.PATCH("/password", protect, h.ChangePassword)
	}

	products := api.Group("/products")
	{
		optional := middleware.OptionalAuth(svc.Users)
		products.GET("", optional, h.ListProducts)
		products.GET("/:id", optional, h.GetProduct)
		products.POST("", protect, admin, h.CreateProduct)
		products.PUT("/:id", protect, admin, h.UpdateProduct)
		products.DELETE("/:id", protect, admin, h.DeleteProduct)
		products.PATCH("/:id/stock", protect, admin, h.SetStock)
	}

	categories := api.Group("/categories")
	{
		optional := middleware.OptionalAuth(svc.Users)
		categories.GET("", optional, h.CategoryTree)
		categories.GET("/:slug", h.GetCategory)
		categories.POST("", protect, admin, h.CreateCategory)
		categories.PUT("/:id", protect, admin, h.UpdateCategory)
		categories.DELETE("/:id", protect, admin, h.DeleteCategory)
	}

	carts := api.Group("/cart", protect)
	{
		carts.GET("", h.GetCart)
		carts.POST("/items", h.AddCartItem)
		carts.PATCH("/items/:itemId", h.UpdateCartItem)
		carts.DELETE("/items/:itemId", h.RemoveCartItem)
		carts.DELETE("", h.ClearCart)
	}

	wishlists := api.Group("/wishlist", protect)
	{
		wishlists.GET("", h.GetWishlist)
		wishlists.POST("/items", h.AddWishlistItem)
		wishlists.DELETE("/items/:productId", h.RemoveWishlistItem)
		wishlists.DELETE("", h.ClearWishlist)
	}

	orders := api.Group("/orders", protect)
	{
		orders.POST("", h.PlaceOrder)
		orders.GET("/my", h.MyOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("/:id/cancel", h.CancelOrder)
		orders.GET("", admin, h.ListOrders)
		orders.PATCH("/:id/status", admin, h.UpdateOrderStatus)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("/product/:productId", h.ProductReviews)
		reviews.POST("", protect, h.SubmitReview)
		reviews.PUT("/:id", protect, h.UpdateReview)
		reviews.DELETE("/:id", protect, h.DeleteReview)
		reviews.GET("/my", protect, h.MyReviews)
		reviews.GET("", protect, admin, h.ListReviews)
		reviews.PATCH("/:id/status", protect, admin, h.ModerateReview)
	}

	adminGroup := api.Group("/admin", protect, admin)
	{
		adminGroup.GET("/dashboard", h.Dashboard)
		adminGroup.GET("/users", h.ListUsers)
		adminGroup.PATCH("/users/:id", h.UpdateUser)
	}

	api.POST("/uploads/image", protect, admin, h.UploadImage)

	return r
}

// healthCheck pings the backend on every call.
func healthCheck(p Pinger, backend string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, middleware.Envelope{
				Message: "database connection failed",
				Data:    gin.H{"status": "error", "backend": backend},
			})
			return
		}
		respond(c, http.StatusOK, "", gin.H{"status": "ok", "backend": backend})
	}
}
