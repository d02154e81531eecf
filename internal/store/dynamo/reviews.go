package dynamo

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-shop-api/internal/domain/review"
	"github.com/example/ec-shop-api/internal/pagination"
)

type reviewRepo struct{ s *Store }

// Create pairs the review with a (user, product) marker so a second review
// of the same product fails its condition.
func (r reviewRepo) Create(ctx context.Context, rv *review.Review) error {
	record, err := r.s.put(toReviewRecord(rv), "attribute_not_exists(pk)")
	if err != nil {
		return err
	}
	marker, err := r.s.put(newMarker(typeReviewKey, reviewKey(rv.UserID, rv.ProductID), rv.ID), "attribute_not_exists(pk)")
	if err != nil {
		return err
	}

	err = r.s.transact(ctx, []types.TransactWriteItem{record, marker})
	if slices.Contains(failedConditions(err), 1) {
		return review.ErrDuplicateReview
	}
	if err != nil {
		return dbError("create review", err)
	}
	return nil
}

func (r reviewRepo) GetByID(ctx context.Context, id string) (*review.Review, error) {
	var rec reviewRecord
	found, err := r.s.get(ctx, pk(typeReview, id), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, review.ErrReviewNotFound
	}
	return rec.review(), nil
}

func (r reviewRepo) Update(ctx context.Context, rv *review.Review) error {
	u := newUpdate().
		set("rating", rv.Rating).
		set("title", rv.Title).
		set("comment", rv.Comment).
		set("status", rv.Status).
		set("updated_at", rv.UpdatedAt)
	return u.apply(ctx, r.s, pk(typeReview, rv.ID), review.ErrReviewNotFound)
}

func (r reviewRepo) Delete(ctx context.Context, id string) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	err = r.s.transact(ctx, []types.TransactWriteItem{
		r.s.del(pk(typeReview, id)),
		r.s.del(pk(typeReviewKey, reviewKey(current.UserID, current.ProductID))),
	})
	if err != nil {
		return dbError("delete review", err)
	}
	return nil
}

func (r reviewRepo) all(ctx context.Context) ([]*review.Review, error) {
	records, err := queryType[reviewRecord](ctx, r.s, typeReview, true)
	if err != nil {
		return nil, err
	}
	out := make([]*review.Review, len(records))
	for i, rec := range records {
		out[i] = rec.review()
	}
	return out, nil
}

func (r reviewRepo) List(ctx context.Context, filter review.ListFilter) ([]*review.Review, int, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched := slices.DeleteFunc(all, func(rv *review.Review) bool {
		return (filter.ProductID != "" && rv.ProductID != filter.ProductID) ||
			(filter.UserID != "" && rv.UserID != filter.UserID) ||
			(filter.Status != "" && rv.Status != filter.Status)
	})
	slices.SortFunc(matched, func(a, b *review.Review) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return pagination.Slice(matched, pagination.New(filter.Page, filter.Limit)), len(matched), nil
}

func (r reviewRepo) ApprovedRatings(ctx context.Context, productID string) ([]int, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	var ratings []int
	for _, rv := range all {
		if rv.ProductID == productID && rv.Status == review.StatusApproved {
			ratings = append(ratings, rv.Rating)
		}
	}
	return ratings, nil
}
