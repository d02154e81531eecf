package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/pagination"
)

type userRepo struct{ s *Store }

func cloneUser(u *user.User) *user.User {
	c := *u
	c.PasswordChangedAt = cloneTime(u.PasswordChangedAt)
	c.LastLoginAt = cloneTime(u.LastLoginAt)
	return &c
}

// emailTaken must be called with the lock held.
func (r userRepo) emailTaken(email, exceptID string) bool {
	for _, u := range r.s.users {
		if u.Email == email && u.ID != exceptID {
			return true
		}
	}
	return false
}

func (r userRepo) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(u.Email, "") {
		return user.ErrEmailTaken
	}
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r userRepo) Update(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[u.ID]; !ok {
		return user.ErrUserNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return user.ErrEmailTaken
	}
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r userRepo) List(_ context.Context, filter user.ListFilter) ([]*user.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*user.User
	for _, u := range r.s.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		matched = append(matched, cloneUser(u))
	}
	slices.SortFunc(matched, func(a, b *user.User) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return pagination.Slice(matched, pagination.New(filter.Page, filter.Limit)), len(matched), nil
}

func (r userRepo) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}
