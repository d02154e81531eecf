package user

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/example/ec-shop-api/internal/auth"
	"github.com/example/ec-shop-api/internal/pagination"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

// Session is the result of a successful sign-in.
type Session struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileUpdate lists the fields a user may change on their own account.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// AdminUpdate lists the fields an administrator may change on any account.
type AdminUpdate struct {
	Role     *Role
	IsActive *bool
}

// Service handles user domain operations
type Service struct {
	repo   Repository
	tokens *auth.JWTService
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new user service
func NewService(repo Repository, tokens *auth.JWTService, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		logger: logger.Named("user"),
		now:    time.Now,
	}
}

// Register creates a customer account and signs it in.
func (s *Service) Register(ctx context.Context, email, password, name string) (*Session, error) {
	u, err := s.create(ctx, email, password, name, RoleCustomer)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return s.issue(u)
}

// CreateAdmin creates an administrator account. Used by the create-admin command.
func (s *Service) CreateAdmin(ctx context.Context, email, password, name string) (*User, error) {
	return s.create(ctx, email, password, name, RoleAdmin)
}

func (s *Service) create(ctx context.Context, email, password, name string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	if err := validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if name == "" {
		return nil, ErrInvalidName
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, passwordError(err)
	}

	now := s.now()
	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrUserDeactivated
	}

	now := s.now()
	u.LastLoginAt = &now
	if err := s.repo.Update(ctx, u); err != nil {
		// the login itself is still valid
		s.logger.Warn("failed to record last login", zap.String("user_id", u.ID), zap.Error(err))
	}

	return s.issue(u)
}

// Authenticate resolves a bearer token to a live, active user. A token issued
// before the user's last password change is rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	u, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserGone
		}
		return nil, err
	}

	if !u.IsActive {
		return nil, ErrUserDeactivated
	}
	if claims.Stamp != credentialStamp(u.PasswordHash) {
		return nil, ErrPasswordChanged
	}

	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies the caller's own profile changes.
func (s *Service) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrInvalidName
		}
		u.Name = name
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if err := validate.Var(email, "required,email"); err != nil {
			return nil, ErrInvalidEmail
		}
		if email != u.Email {
			if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing.ID != u.ID {
				return nil, ErrEmailTaken
			} else if err != nil && !errors.Is(err, ErrUserNotFound) {
				return nil, err
			}
		}
		u.Email = email
	}

	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the password after verifying the current one and
// returns a fresh session; tokens issued earlier stop working.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) (*Session, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(current, u.PasswordHash) {
		return nil, ErrWrongPassword
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return nil, passwordError(err)
	}

	now := s.now()
	u.PasswordHash = hash
	u.PasswordChangedAt = &now
	u.UpdatedAt = now

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("password changed", zap.String("user_id", u.ID))
	return s.issue(u)
}

// List returns a page of users for the admin console.
func (s *Service) List(ctx context.Context, filter ListFilter) (*pagination.Page[*User], error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, ErrInvalidRole
	}
	p := pagination.New(filter.Page, filter.Limit)
	filter.Page, filter.Limit = p.Page, p.Limit

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(users, total, p), nil
}

// AdminUpdate changes another account's role or active flag.
func (s *Service) AdminUpdate(ctx context.Context, id string, in AdminUpdate) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, ErrInvalidRole
		}
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user updated by admin",
		zap.String("user_id", u.ID),
		zap.String("role", string(u.Role)),
		zap.Bool("active", u.IsActive))
	return u, nil
}

// Count returns the number of accounts.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) issue(u *User) (*Session, error) {
	token, expiresAt, err := s.tokens.GenerateToken(u.ID, u.Email, string(u.Role), credentialStamp(u.PasswordHash))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

// credentialStamp fingerprints the password hash. bcrypt salts every hash,
// so any password change yields a new stamp and retires older tokens.
func credentialStamp(hash string) string {
	sum := sha256.Sum256([]byte(hash))
	return hex.EncodeToString(sum[:8])
}

func passwordError(err error) error {
	if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) {
		return apperr.Wrap(apperr.KindValidation, err)
	}
	return fmt.Errorf("hash password: %w", err)
}
