package dynamo

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/pagination"
)

type userRepo struct{ s *Store }

// Create writes the user together with its email marker; the marker's
// condition enforces unique emails.
func (r userRepo) Create(ctx context.Context, u *user.User) error {
	record, err := r.s.put(toUserRecord(u), "attribute_not_exists(pk)")
	if err != nil {
		return err
	}
	marker, err := r.s.put(newMarker(typeEmail, u.Email, u.ID), "attribute_not_exists(pk)")
	if err != nil {
		return err
	}

	err = r.s.transact(ctx, []types.TransactWriteItem{record, marker})
	if slices.Contains(failedConditions(err), 1) {
		return user.ErrEmailTaken
	}
	if err != nil {
		return dbError("create user", err)
	}
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	var rec userRecord
	found, err := r.s.get(ctx, pk(typeUser, id), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, user.ErrUserNotFound
	}
	return rec.user(), nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var marker markerRecord
	found, err := r.s.get(ctx, pk(typeEmail, email), &marker)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, user.ErrUserNotFound
	}
	return r.GetByID(ctx, marker.Owner)
}

// Update rewrites the user. A changed email moves the marker in the same
// transaction.
func (r userRepo) Update(ctx context.Context, u *user.User) error {
	current, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}

	record, err := r.s.put(toUserRecord(u), "attribute_exists(pk)")
	if err != nil {
		return err
	}
	items := []types.TransactWriteItem{record}
	if current.Email != u.Email {
		marker, err := r.s.put(newMarker(typeEmail, u.Email, u.ID), "attribute_not_exists(pk)")
		if err != nil {
			return err
		}
		items = append(items, marker, r.s.del(pk(typeEmail, current.Email)))
	}

	err = r.s.transact(ctx, items)
	failed := failedConditions(err)
	switch {
	case slices.Contains(failed, 1):
		return user.ErrEmailTaken
	case slices.Contains(failed, 0):
		return user.ErrUserNotFound
	case err != nil:
		return dbError("update user", err)
	}
	return nil
}

func (r userRepo) List(ctx context.Context, filter user.ListFilter) ([]*user.User, int, error) {
	records, err := queryType[userRecord](ctx, r.s, typeUser, true)
	if err != nil {
		return nil, 0, err
	}

	var users []*user.User
	for _, rec := range records {
		if filter.Role != "" && rec.Role != filter.Role {
			continue
		}
		users = append(users, rec.user())
	}
	slices.SortFunc(users, func(a, b *user.User) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return pagination.Slice(users, pagination.New(filter.Page, filter.Limit)), len(users), nil
}

func (r userRepo) Count(ctx context.Context) (int, error) {
	return r.s.countType(ctx, typeUser)
}
