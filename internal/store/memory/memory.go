// Package memory is an in-process store for tests and local runs. All data
// sits behind one lock, so multi-record writes such as order placement are
// atomic.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/category"
	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/domain/review"
	"github.com/example/ec-shop-api/internal/domain/user"
	"github.com/example/ec-shop-api/internal/domain/wishlist"
)

type Store struct {
	mu         sync.RWMutex
	users      map[string]*user.User
	products   map[string]*product.Product
	categories map[string]*category.Category
	carts      map[string]*cart.Cart
	wishlists  map[string]*wishlist.Wishlist
	orders     map[string]*order.Order
	reviews    map[string]*review.Review
}

func New() *Store {
	return &Store{
		users:      make(map[string]*user.User),
		products:   make(map[string]*product.Product),
		categories: make(map[string]*category.Category),
		carts:      make(map[string]*cart.Cart),
		wishlists:  make(map[string]*wishlist.Wishlist),
		orders:     make(map[string]*order.Order),
		reviews:    make(map[string]*review.Review),
	}
}

func (s *Store) Users() user.Repository          { return userRepo{s} }
func (s *Store) Products() product.Repository    { return productRepo{s} }
func (s *Store) Categories() category.Repository { return categoryRepo{s} }
func (s *Store) Carts() cart.Repository          { return cartRepo{s} }
func (s *Store) Wishlists() wishlist.Repository  { return wishlistRepo{s} }
func (s *Store) Orders() order.Repository        { return orderRepo{s} }
func (s *Store) Reviews() review.Repository      { return reviewRepo{s} }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
