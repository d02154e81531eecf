package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/example/ec-shop-api/internal/domain/user"
)

var errSelfDemotion = apperr.Validation("you cannot change your own role or deactivate yourself")

type userListQuery struct {
	pageQuery
	Role string `form:"role"`
}

type adminUserRequest struct {
	Role     *user.Role `json:"role"`
	IsActive *bool      `json:"is_active"`
}

func (h *Handlers) Dashboard(c *gin.Context) {
	summary, err := h.svc.Dashboard.Summary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", summary)
}

func (h *Handlers) ListUsers(c *gin.Context) {
	var q userListQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.svc.Users.List(c.Request.Context(), user.ListFilter{
		Role:  user.Role(q.Role),
		Page:  q.Page,
		Limit: q.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

// UpdateUser changes a user's role or active flag. An administrator cannot
// lock themselves out.
func (h *Handlers) UpdateUser(c *gin.Context) {
	var req adminUserRequest
	if !bindJSON(c, &req) {
		return
	}

	id := c.Param("id")
	if id == currentUser(c).ID && (req.Role != nil && *req.Role != user.RoleAdmin || req.IsActive != nil && !*req.IsActive) {
		fail(c, errSelfDemotion)
		return
	}

	u, err := h.svc.Users.AdminUpdate(c.Request.Context(), id, user.AdminUpdate{
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "user updated", u)
}
