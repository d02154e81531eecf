package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/example/ec-shop-api/internal/auth"
	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	auth.Cost = bcrypt.MinCost
	m.Run()
}

func newTestService() (*user.Service, user.Repository) {
	repo := memory.New().Users()
	tokens := auth.NewJWTService("test-secret-key-for-testing-purposes", time.Hour)
	return user.NewService(repo, tokens, zap.NewNop()), repo
}

// ============================================
// Register / Login
// ============================================

func TestService_Register(t *testing.T) {
	svc, _ := newTestService()

	session, err := svc.Register(context.Background(), "  Alice@Example.com ", "password123", "Alice")

	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.Equal(t, user.RoleCustomer, session.User.Role)
	assert.True(t, session.User.IsActive)
	assert.NotEqual(t, "password123", session.User.PasswordHash)
}

func TestService_Register_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		userName string
		wantErr  error
	}{
		{"empty email", "", "password123", "Alice", user.ErrInvalidEmail},
		{"malformed email", "not-an-email", "password123", "Alice", user.ErrInvalidEmail},
		{"empty name", "a@example.com", "password123", "  ", user.ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password, tt.userName)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, "a@example.com", "short", "Alice")
		assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestService_Register_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob@example.com", "password123", "Bob")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "BOB@example.com", "password456", "Bobby")
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestService_Login(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol@example.com", "password123", "Carol")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "Carol@Example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	stored, err := repo.GetByID(ctx, session.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestService_Login_Rejected(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	session, err := svc.Register(ctx, "dave@example.com", "password123", "Dave")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "dave@example.com", "wrong-password")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	u, err := repo.GetByID(ctx, session.User.ID)
	require.NoError(t, err)
	u.IsActive = false
	require.NoError(t, repo.Update(ctx, u))

	_, err = svc.Login(ctx, "dave@example.com", "password123")
	assert.ErrorIs(t, err, user.ErrUserDeactivated)
}

// ============================================
// Authenticate
// ============================================

func TestService_Authenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	session, err := svc.Register(ctx, "erin@example.com", "password123", "Erin")
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, session.Token)

	require.NoError(t, err)
	assert.Equal(t, session.User.ID, u.ID)
}

func TestService_Authenticate_Rejected(t *testing.T) {
	ctx := context.Background()

	t.Run("missing token", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Authenticate(ctx, "")
		assert.ErrorIs(t, err, user.ErrNotLoggedIn)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Authenticate(ctx, "garbage")
		assert.ErrorIs(t, err, user.ErrInvalidToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _ := newTestService()
		tokens := auth.NewJWTService("test-secret-key-for-testing-purposes", time.Hour)
		token, _, err := tokens.GenerateToken("ghost", "ghost@example.com", "customer", "")
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, user.ErrUserGone)
	})

	t.Run("inactive user", func(t *testing.T) {
		svc, repo := newTestService()
		session, err := svc.Register(ctx, "frank@example.com", "password123", "Frank")
		require.NoError(t, err)

		u, _ := repo.GetByID(ctx, session.User.ID)
		u.IsActive = false
		require.NoError(t, repo.Update(ctx, u))

		_, err = svc.Authenticate(ctx, session.Token)
		assert.ErrorIs(t, err, user.ErrUserDeactivated)
	})

	t.Run("token older than password change", func(t *testing.T) {
		svc, _ := newTestService()
		session, err := svc.Register(ctx, "gina@example.com", "password123", "Gina")
		require.NoError(t, err)

		fresh, err := svc.ChangePassword(ctx, session.User.ID, "password123", "new-password-456")
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, session.Token)
		assert.ErrorIs(t, err, user.ErrPasswordChanged)

		u, err := svc.Authenticate(ctx, fresh.Token)
		require.NoError(t, err)
		assert.Equal(t, session.User.ID, u.ID)
	})

	t.Run("token without credential stamp", func(t *testing.T) {
		svc, _ := newTestService()
		session, err := svc.Register(ctx, "hank@example.com", "password123", "Hank")
		require.NoError(t, err)

		tokens := auth.NewJWTService("test-secret-key-for-testing-purposes", time.Hour)
		token, _, err := tokens.GenerateToken(session.User.ID, session.User.Email, "customer", "")
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, user.ErrPasswordChanged)
	})
}

// ============================================
// Profile / password / admin
// ============================================

func TestService_ChangePassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	session, err := svc.Register(ctx, "hank@example.com", "password123", "Hank")
	require.NoError(t, err)

	_, err = svc.ChangePassword(ctx, session.User.ID, "wrong", "newpassword123")
	assert.ErrorIs(t, err, user.ErrWrongPassword)

	fresh, err := svc.ChangePassword(ctx, session.User.ID, "password123", "newpassword123")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, fresh.Token)
	assert.NoError(t, err)

	_, err = svc.Login(ctx, "hank@example.com", "password123")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "hank@example.com", "newpassword123")
	assert.NoError(t, err)
}

func TestService_UpdateProfile(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Register(ctx, "ivy@example.com", "password123", "Ivy")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "jack@example.com", "password123", "Jack")
	require.NoError(t, err)

	name := "Ivy Lee"
	u, err := svc.UpdateProfile(ctx, first.User.ID, user.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ivy Lee", u.Name)
	assert.Equal(t, "ivy@example.com", u.Email)

	taken := "JACK@example.com"
	_, err = svc.UpdateProfile(ctx, first.User.ID, user.ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	blank := ""
	_, err = svc.UpdateProfile(ctx, first.User.ID, user.ProfileUpdate{Name: &blank})
	assert.ErrorIs(t, err, user.ErrInvalidName)
}

func TestService_AdminUpdateAndList(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	session, err := svc.Register(ctx, "kim@example.com", "password123", "Kim")
	require.NoError(t, err)
	_, err = svc.CreateAdmin(ctx, "root@example.com", "password123", "Root")
	require.NoError(t, err)

	admin := user.RoleAdmin
	inactive := false
	u, err := svc.AdminUpdate(ctx, session.User.ID, user.AdminUpdate{Role: &admin, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)
	assert.False(t, u.IsActive)

	bogus := user.Role("owner")
	_, err = svc.AdminUpdate(ctx, session.User.ID, user.AdminUpdate{Role: &bogus})
	assert.ErrorIs(t, err, user.ErrInvalidRole)

	page, err := svc.List(ctx, user.ListFilter{Role: user.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = svc.AdminUpdate(ctx, "missing", user.AdminUpdate{})
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
