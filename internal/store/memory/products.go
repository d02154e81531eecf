package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/pagination"
)

type productRepo struct{ s *Store }

func cloneProduct(p *product.Product) *product.Product {
	c := *p
	c.Images = slices.Clone(p.Images)
	if c.Images == nil {
		c.Images = []string{}
	}
	c.DiscountStartsAt = cloneTime(p.DiscountStartsAt)
	c.DiscountEndsAt = cloneTime(p.DiscountEndsAt)
	return &c
}

func (r productRepo) Create(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.products[p.ID] = cloneProduct(p)
	return nil
}

func (r productRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

// FindByIDs returns the products that exist among ids, in no particular order.
func (r productRepo) FindByIDs(_ context.Context, ids []string) ([]*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*product.Product, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := r.s.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

// Update keeps the stored stock, sold count and rating.
func (r productRepo) Update(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.products[p.ID]
	if !ok {
		return product.ErrProductNotFound
	}
	next := cloneProduct(p)
	next.Stock, next.Sold, next.Rating = cur.Stock, cur.Sold, cur.Rating
	next.CreatedAt = cur.CreatedAt
	r.s.products[p.ID] = next
	return nil
}

func (r productRepo) SetStock(_ context.Context, id string, stock int) error {
	return r.modify(id, func(p *product.Product) { p.Stock = stock })
}

func (r productRepo) UpdateRating(_ context.Context, id string, rating product.Rating) error {
	return r.modify(id, func(p *product.Product) { p.Rating = rating })
}

func (r productRepo) modify(id string, fn func(*product.Product)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return product.ErrProductNotFound
	}
	fn(p)
	return nil
}

func (r productRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return product.ErrProductNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r productRepo) List(_ context.Context, filter product.Filter) ([]*product.Product, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*product.Product
	for _, p := range r.s.products {
		if filter.Match(p) {
			matched = append(matched, cloneProduct(p))
		}
	}
	product.SortProducts(matched, filter.Sort)
	return pagination.Slice(matched, pagination.New(filter.Page, filter.Limit)), len(matched), nil
}

// LowStock lists products with stock at or below threshold, lowest first.
func (r productRepo) LowStock(_ context.Context, threshold, limit int) ([]*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var low []*product.Product
	for _, p := range r.s.products {
		if p.Stock <= threshold {
			low = append(low, cloneProduct(p))
		}
	}
	slices.SortFunc(low, func(a, b *product.Product) int {
		return cmp.Or(cmp.Compare(a.Stock, b.Stock), strings.Compare(a.ID, b.ID))
	})
	if limit > 0 && len(low) > limit {
		low = low[:limit]
	}
	return low, nil
}

func (r productRepo) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.products), nil
}
