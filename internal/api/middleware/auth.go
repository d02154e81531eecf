package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/example/ec-shop-api/internal/domain/user"
)

// CookieName is the httpOnly cookie the login handler sets.
const CookieName = "access_token"

const userKey = "user"

var ErrInsufficientRole = apperr.Forbidden("you do not have permission to perform this action")

// Authenticator resolves a token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

// ExtractToken extracts the JWT from the cookie or the Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// Protect rejects the request unless it carries a token for a live, active
// user. The loaded user is stored on the context.
func Protect(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := a.Authenticate(c.Request.Context(), ExtractToken(c.Request))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// OptionalAuth loads the user when a valid token is present and lets the
// request through either way.
func OptionalAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := ExtractToken(c.Request); token != "" {
			if u, err := a.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(userKey, u)
			}
		}
		c.Next()
	}
}

// RequireRole checks the loaded user's role. It must run after Protect.
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			_ = c.Error(user.ErrNotLoggedIn)
			c.Abort()
			return
		}
		if !slices.Contains(roles, u.Role) {
			_ = c.Error(ErrInsufficientRole)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user Protect or OptionalAuth loaded.
func CurrentUser(c *gin.Context) (*user.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*user.User)
	return u, ok
}

// IsAdmin reports whether the current user is an administrator.
func IsAdmin(c *gin.Context) bool {
	u, ok := CurrentUser(c)
	return ok && u.Role == user.RoleAdmin
}
