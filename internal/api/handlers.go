package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/ec-shop-api/internal/api/middleware"
	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/category"
	"github.com/example/ec-shop-api/internal/domain/dashboard"
	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/domain/review"
	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/domain/wishlist"
	"github.com/example/ec-shop-api/internal/upload"
)

// Services are the domain services the handlers call.
type Services struct {
	Users      *user.Service
	Products   *product.Service
	Categories *category.Service
	Carts      *cart.Service
	Wishlists  *wishlist.Service
	Orders     *order.Service
	Reviews    *review.Service
	Dashboard  *dashboard.Service
	Uploads    *upload.Service
}

type Handlers struct {
	svc          Services
	cookieSecure bool
	logger       *zap.Logger
}

func NewHandlers(svc Services, cookieSecure bool, logger *zap.Logger) *Handlers {
	return &Handlers{
		svc:          svc,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

var errInvalidBody = apperr.Validation("invalid request body")

// respond writes a success envelope.
func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, middleware.Envelope{Success: true, Message: message, Data: data})
}

// fail hands err to the Errors middleware and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindJSON decodes the body into dst, failing the request on error.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, bindError(err))
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		fail(c, bindError(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		fail(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return err
	}
	return &apperr.Error{Kind: apperr.KindValidation, Message: errInvalidBody.Message, Err: err}
}

// currentUser is only called behind Protect, which guarantees a user.
func currentUser(c *gin.Context) *user.User {
	u, _ := middleware.CurrentUser(c)
	return u
}

type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1,max=1000000"`
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
