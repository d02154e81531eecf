package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/example/ec-shop-api/internal/api/middleware"
	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/example/ec-shop-api/internal/domain/product"
)

type productListQuery struct {
	pageQuery
	Q        string `form:"q"`
	Category string `form:"category"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
	Status   string `form:"status"`
	InStock  bool   `form:"in_stock"`
	Sort     string `form:"sort"`
}

type createProductRequest struct {
	Name             string           `json:"name" binding:"required"`
	Description      string           `json:"description"`
	Price            decimal.Decimal  `json:"price"`
	DiscountPrice    *decimal.Decimal `json:"discount_price"`
	DiscountStartsAt *time.Time       `json:"discount_starts_at"`
	DiscountEndsAt   *time.Time       `json:"discount_ends_at"`
	Stock            int              `json:"stock" binding:"min=0"`
	Status           product.Status   `json:"status"`
	CategoryID       string           `json:"category_id"`
	Images           []string         `json:"images"`
}

type updateProductRequest struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	Price            *decimal.Decimal `json:"price"`
	DiscountPrice    *decimal.Decimal `json:"discount_price"`
	DiscountStartsAt *time.Time       `json:"discount_starts_at"`
	DiscountEndsAt   *time.Time       `json:"discount_ends_at"`
	RemoveDiscount   bool             `json:"remove_discount"`
	Status           *product.Status  `json:"status"`
	CategoryID       *string          `json:"category_id"`
	Images           *[]string        `json:"images"`
}

type stockRequest struct {
	Stock *int `json:"stock" binding:"required,min=0"`
}

func (h *Handlers) ListProducts(c *gin.Context) {
	var q productListQuery
	if !bindQuery(c, &q) {
		return
	}

	filter, err := q.filter()
	if err != nil {
		fail(c, err)
		return
	}

	page, err := h.svc.Products.List(c.Request.Context(), filter, middleware.IsAdmin(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

func (q productListQuery) filter() (product.Filter, error) {
	sort, err := product.ParseSort(q.Sort)
	if err != nil {
		return product.Filter{}, err
	}
	minPrice, err := parsePrice(q.MinPrice, "min_price")
	if err != nil {
		return product.Filter{}, err
	}
	maxPrice, err := parsePrice(q.MaxPrice, "max_price")
	if err != nil {
		return product.Filter{}, err
	}
	return product.Filter{
		Query:      q.Q,
		CategoryID: q.Category,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Status:     product.Status(q.Status),
		InStock:    q.InStock,
		Sort:       sort,
		Page:       q.Page,
		Limit:      q.Limit,
	}, nil
}

func parsePrice(raw, field string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, apperr.Validation(field + " must be a non-negative number")
	}
	return &d, nil
}

func (h *Handlers) GetProduct(c *gin.Context) {
	p, err := h.svc.Products.Get(c.Request.Context(), c.Param("id"), middleware.IsAdmin(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", p)
}

func (h *Handlers) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.Products.Create(c.Request.Context(), product.CreateInput{
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		DiscountPrice:    req.DiscountPrice,
		DiscountStartsAt: req.DiscountStartsAt,
		DiscountEndsAt:   req.DiscountEndsAt,
		Stock:            req.Stock,
		Status:           req.Status,
		CategoryID:       req.CategoryID,
		Images:           req.Images,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "product created", p)
}

func (h *Handlers) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.Products.Update(c.Request.Context(), c.Param("id"), product.UpdateInput{
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		DiscountPrice:    req.DiscountPrice,
		DiscountStartsAt: req.DiscountStartsAt,
		DiscountEndsAt:   req.DiscountEndsAt,
		RemoveDiscount:   req.RemoveDiscount,
		Status:           req.Status,
		CategoryID:       req.CategoryID,
		Images:           req.Images,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "product updated", p)
}

func (h *Handlers) DeleteProduct(c *gin.Context) {
	if err := h.svc.Products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *Handlers) SetStock(c *gin.Context) {
	var req stockRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.Products.SetStock(c.Request.Context(), c.Param("id"), *req.Stock)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "stock updated", p)
}
