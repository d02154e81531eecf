package postgres

import (
	"context"

	"github.com/example/ec-shop-api/internal/domain/review"
	"github.com/example/ec-shop-api/internal/pagination"
)

type reviewRepo struct{ s *Store }

const reviewColumns = `id, product_id, user_id, rating, title, comment, status, verified_purchase, created_at, updated_at`

func scanReview(row scanner) (*review.Review, error) {
	var rv review.Review
	err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Comment,
		&rv.Status, &rv.VerifiedPurchase, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r reviewRepo) Create(ctx context.Context, rv *review.Review) error {
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Title, rv.Comment, rv.Status, rv.VerifiedPurchase, rv.CreatedAt, rv.UpdatedAt)
	if isUniqueViolation(err) {
		return review.ErrDuplicateReview
	}
	if err != nil {
		return dbError("insert review", err)
	}
	return nil
}

func (r reviewRepo) GetByID(ctx context.Context, id string) (*review.Review, error) {
	rv, err := scanReview(r.s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("get review", err, review.ErrReviewNotFound)
	}
	return rv, nil
}

func (r reviewRepo) Update(ctx context.Context, rv *review.Review) error {
	res, err := r.s.db.ExecContext(ctx, `
		UPDATE reviews SET rating = $2, title = $3, comment = $4, status = $5, updated_at = $6
		WHERE id = $1
	`, rv.ID, rv.Rating, rv.Title, rv.Comment, rv.Status, rv.UpdatedAt)
	return affectedOne(res, err, "update review", review.ErrReviewNotFound)
}

func (r reviewRepo) Delete(ctx context.Context, id string) error {
	res, err := r.s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	return affectedOne(res, err, "delete review", review.ErrReviewNotFound)
}

func (r reviewRepo) List(ctx context.Context, filter review.ListFilter) ([]*review.Review, int, error) {
	var w where
	if filter.ProductID != "" {
		w.add("product_id = ?", filter.ProductID)
	}
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}

	var total int
	if err := r.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, dbError("count reviews", err)
	}

	p := pagination.New(filter.Page, filter.Limit)
	query := `SELECT ` + reviewColumns + ` FROM reviews` + w.String() + ` ORDER BY created_at DESC, id` + w.page(p.Limit, p.Offset())
	rows, err := r.s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, dbError("list reviews", err)
	}
	defer rows.Close()

	reviews := []*review.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, dbError("scan review", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dbError("list reviews", err)
	}
	return reviews, total, nil
}

func (r reviewRepo) ApprovedRatings(ctx context.Context, productID string) ([]int, error) {
	rows, err := r.s.db.QueryContext(ctx,
		`SELECT rating FROM reviews WHERE product_id = $1 AND status = $2`, productID, review.StatusApproved)
	if err != nil {
		return nil, dbError("approved ratings", err)
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, dbError("scan rating", err)
		}
		ratings = append(ratings, n)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("approved ratings", err)
	}
	return ratings, nil
}
