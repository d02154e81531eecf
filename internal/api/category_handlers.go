package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/ec-shop-api/internal/api/middleware"
	"github.com/example/ec-shop-api/internal/domain/category"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
	SortOrder   int    `json:"sort_order"`
	IsActive    *bool  `json:"is_active"`
}

func (r categoryRequest) input() category.Input {
	return category.Input{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		ParentID:    r.ParentID,
		SortOrder:   r.SortOrder,
		IsActive:    r.IsActive,
	}
}

// CategoryTree lists categories as a tree. Administrators also see
// inactive ones.
func (h *Handlers) CategoryTree(c *gin.Context) {
	tree, err := h.svc.Categories.Tree(c.Request.Context(), middleware.IsAdmin(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", tree)
}

func (h *Handlers) GetCategory(c *gin.Context) {
	cat, err := h.svc.Categories.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", cat)
}

func (h *Handlers) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}

	cat, err := h.svc.Categories.Create(c.Request.Context(), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "category created", cat)
}

func (h *Handlers) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}

	cat, err := h.svc.Categories.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "category updated", cat)
}

func (h *Handlers) DeleteCategory(c *gin.Context) {
	if err := h.svc.Categories.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}
