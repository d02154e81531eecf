package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/ec-shop-api/internal/api/middleware"
	"github.com/example/ec-shop-api/internal/domain/review"
)

type submitReviewRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Title   *string `json:"title"`
	Comment *string `json:"comment"`
}

type reviewListQuery struct {
	pageQuery
	Status    string `form:"status"`
	ProductID string `form:"product_id"`
	UserID    string `form:"user_id"`
}

type moderateRequest struct {
	Status string `json:"status" binding:"required"`
}

// ProductReviews is public and lists approved reviews only.
func (h *Handlers) ProductReviews(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.svc.Reviews.ListForProduct(c.Request.Context(), c.Param("productId"), q.Page, q.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

func (h *Handlers) SubmitReview(c *gin.Context) {
	var req submitReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.svc.Reviews.Submit(c.Request.Context(), currentUser(c).ID, review.SubmitInput{
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "review submitted for moderation", r)
}

func (h *Handlers) UpdateReview(c *gin.Context) {
	var req updateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.svc.Reviews.Update(c.Request.Context(), currentUser(c).ID, c.Param("id"), review.UpdateInput{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "review updated", r)
}

func (h *Handlers) DeleteReview(c *gin.Context) {
	err := h.svc.Reviews.Delete(c.Request.Context(), currentUser(c).ID, middleware.IsAdmin(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	noContent(c)
}

func (h *Handlers) MyReviews(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.svc.Reviews.ListMine(c.Request.Context(), currentUser(c).ID, q.Page, q.Limit)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

// ListReviews is the moderation queue; filter by status=pending to work it.
func (h *Handlers) ListReviews(c *gin.Context) {
	var q reviewListQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.svc.Reviews.List(c.Request.Context(), review.ListFilter{
		ProductID: q.ProductID,
		UserID:    q.UserID,
		Status:    review.Status(q.Status),
		Page:      q.Page,
		Limit:     q.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

func (h *Handlers) ModerateReview(c *gin.Context) {
	var req moderateRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.svc.Reviews.Moderate(c.Request.Context(), c.Param("id"), review.Status(req.Status))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "review "+string(r.Status), r)
}
