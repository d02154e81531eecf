package user

import (
	"context"
	"strings"
	"time"

	"github.com/example/ec-shop-api/internal/apperr"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

var (
	ErrUserNotFound       = apperr.NotFound("user not found")
	ErrEmailTaken         = apperr.Conflict("email is already registered")
	ErrInvalidEmail       = apperr.Validation("a valid email is required")
	ErrInvalidName        = apperr.Validation("name is required")
	ErrInvalidRole        = apperr.Validation("role must be customer or admin")
	ErrInvalidCredentials = apperr.Unauthenticated("invalid email or password")
	ErrWrongPassword      = apperr.Unauthenticated("current password is incorrect")
	ErrUserDeactivated    = apperr.Unauthenticated("user account is deactivated")
	ErrNotLoggedIn        = apperr.Unauthenticated("you are not logged in")
	ErrTokenExpired       = apperr.Unauthenticated("token has expired, please log in again")
	ErrInvalidToken       = apperr.Unauthenticated("invalid token, please log in again")
	ErrUserGone           = apperr.Unauthenticated("the user belonging to this token no longer exists")
	ErrPasswordChanged    = apperr.Unauthenticated("password was changed recently, please log in again")
)

// User is an account. PasswordHash never leaves the process.
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Name              string     `json:"name"`
	Role              Role       `json:"role"`
	IsActive          bool       `json:"is_active"`
	PasswordChangedAt *time.Time `json:"-"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ListFilter narrows an admin user listing. Zero values match everything.
type ListFilter struct {
	Role  Role
	Page  int
	Limit int
}

// Repository persists users. Emails are stored normalized and are unique.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, filter ListFilter) ([]*User, int, error)
	Count(ctx context.Context) (int, error)
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
