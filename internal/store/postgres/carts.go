package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/wishlist"
	"github.com/lib/pq"
)

type cartRepo struct{ s *Store }

// Get loads the lines; totals are derived, not stored.
func (r cartRepo) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	var (
		c         = cart.Cart{UserID: userID}
		itemsJSON []byte
	)
	err := r.s.db.QueryRowContext(ctx,
		`SELECT items, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&itemsJSON, &c.UpdatedAt)
	if err != nil {
		return nil, notFound("get cart", err, cart.ErrCartNotFound)
	}
	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	c.Recalculate()
	return &c, nil
}

func (r cartRepo) Save(ctx context.Context, c *cart.Cart) error {
	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}
	_, err = r.s.db.ExecContext(ctx, `
		INSERT INTO carts (user_id, items, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			items = EXCLUDED.items,
			updated_at = EXCLUDED.updated_at
	`, c.UserID, itemsJSON, c.UpdatedAt)
	if err != nil {
		return dbError("save cart", err)
	}
	return nil
}

func (r cartRepo) Delete(ctx context.Context, userID string) error {
	res, err := r.s.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return affectedOne(res, err, "delete cart", cart.ErrCartNotFound)
}

type wishlistRepo struct{ s *Store }

func (r wishlistRepo) Get(ctx context.Context, userID string) (*wishlist.Wishlist, error) {
	var (
		w   = wishlist.Wishlist{UserID: userID}
		ids pq.StringArray
	)
	err := r.s.db.QueryRowContext(ctx,
		`SELECT product_ids, updated_at FROM wishlists WHERE user_id = $1`, userID,
	).Scan(&ids, &w.UpdatedAt)
	if err != nil {
		return nil, notFound("get wishlist", err, wishlist.ErrWishlistNotFound)
	}
	w.ProductIDs = []string(ids)
	return &w, nil
}

func (r wishlistRepo) Save(ctx context.Context, w *wishlist.Wishlist) error {
	_, err := r.s.db.ExecContext(ctx, `
		INSERT INTO wishlists (user_id, product_ids, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			product_ids = EXCLUDED.product_ids,
			updated_at = EXCLUDED.updated_at
	`, w.UserID, stringArray(w.ProductIDs), w.UpdatedAt)
	if err != nil {
		return dbError("save wishlist", err)
	}
	return nil
}
