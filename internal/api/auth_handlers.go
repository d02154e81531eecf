package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/ec-shop-api/internal/api/middleware"
	"github.com/example/ec-shop-api/internal/domain/user"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Email *string `json:"email" binding:"omitempty,email"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// Register handles user registration
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.svc.Users.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		fail(c, err)
		return
	}

	h.setAuthCookie(c, session)
	respond(c, http.StatusCreated, "registration successful", session)
}

// Login handles user login
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.svc.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	h.setAuthCookie(c, session)
	respond(c, http.StatusOK, "login successful", session)
}

// Logout clears the session cookie. Tokens are stateless, so a bearer
// token stays valid until it expires.
func (h *Handlers) Logout(c *gin.Context) {
	h.clearAuthCookie(c)
	respond(c, http.StatusOK, "logged out", nil)
}

func (h *Handlers) Me(c *gin.Context) {
	respond(c, http.StatusOK, "", currentUser(c))
}

func (h *Handlers) UpdateMe(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.svc.Users.UpdateProfile(c.Request.Context(), currentUser(c).ID, user.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "profile updated", u)
}

// ChangePassword invalidates older tokens, so a fresh one is issued.
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.svc.Users.ChangePassword(c.Request.Context(), currentUser(c).ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		fail(c, err)
		return
	}

	h.setAuthCookie(c, session)
	respond(c, http.StatusOK, "password changed", session)
}

func (h *Handlers) setAuthCookie(c *gin.Context, session *user.Session) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearAuthCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
