package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/example/ec-shop-api/internal/domain/review"
	"github.com/example/ec-shop-api/internal/pagination"
)

type reviewRepo struct{ s *Store }

func cloneReview(r *review.Review) *review.Review {
	v := *r
	return &v
}

func (r reviewRepo) Create(_ context.Context, rv *review.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.reviews {
		if existing.UserID == rv.UserID && existing.ProductID == rv.ProductID {
			return review.ErrDuplicateReview
		}
	}
	r.s.reviews[rv.ID] = cloneReview(rv)
	return nil
}

func (r reviewRepo) GetByID(_ context.Context, id string) (*review.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, review.ErrReviewNotFound
	}
	return cloneReview(rv), nil
}

func (r reviewRepo) Update(_ context.Context, rv *review.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[rv.ID]; !ok {
		return review.ErrReviewNotFound
	}
	r.s.reviews[rv.ID] = cloneReview(rv)
	return nil
}

func (r reviewRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[id]; !ok {
		return review.ErrReviewNotFound
	}
	delete(r.s.reviews, id)
	return nil
}

func (r reviewRepo) List(_ context.Context, filter review.ListFilter) ([]*review.Review, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*review.Review
	for _, rv := range r.s.reviews {
		if filter.ProductID != "" && rv.ProductID != filter.ProductID {
			continue
		}
		if filter.UserID != "" && rv.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && rv.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneReview(rv))
	}
	slices.SortFunc(matched, func(a, b *review.Review) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return pagination.Slice(matched, pagination.New(filter.Page, filter.Limit)), len(matched), nil
}

func (r reviewRepo) ApprovedRatings(_ context.Context, productID string) ([]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ratings []int
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID && rv.Status == review.StatusApproved {
			ratings = append(ratings, rv.Rating)
		}
	}
	return ratings, nil
}
