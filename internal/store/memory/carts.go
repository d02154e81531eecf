package memory

import (
	"context"
	"maps"
	"slices"

	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/wishlist"
)

type cartRepo struct{ s *Store }

func cloneCart(c *cart.Cart) *cart.Cart {
	v := *c
	v.Items = make([]cart.Item, len(c.Items))
	for i, it := range c.Items {
		it.Variant = maps.Clone(it.Variant)
		v.Items[i] = it
	}
	return &v
}

func (r cartRepo) Get(_ context.Context, userID string) (*cart.Cart, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.carts[userID]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return cloneCart(c), nil
}

func (r cartRepo) Save(_ context.Context, c *cart.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.carts[c.UserID] = cloneCart(c)
	return nil
}

func (r cartRepo) Delete(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.carts[userID]; !ok {
		return cart.ErrCartNotFound
	}
	delete(r.s.carts, userID)
	return nil
}

type wishlistRepo struct{ s *Store }

func (r wishlistRepo) Get(_ context.Context, userID string) (*wishlist.Wishlist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.wishlists[userID]
	if !ok {
		return nil, wishlist.ErrWishlistNotFound
	}
	v := *w
	v.ProductIDs = slices.Clone(w.ProductIDs)
	return &v, nil
}

func (r wishlistRepo) Save(_ context.Context, w *wishlist.Wishlist) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v := *w
	v.ProductIDs = slices.Clone(w.ProductIDs)
	r.s.wishlists[w.UserID] = &v
	return nil
}
