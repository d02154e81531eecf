package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/pagination"
	"github.com/shopspring/decimal"
)

type orderRepo struct{ s *Store }

func cloneOrder(o *order.Order) *order.Order {
	v := *o
	v.Items = make([]order.Item, len(o.Items))
	for i, it := range o.Items {
		it.Variant = maps.Clone(it.Variant)
		v.Items[i] = it
	}
	v.ShippedAt = cloneTime(o.ShippedAt)
	v.DeliveredAt = cloneTime(o.DeliveredAt)
	v.CancelledAt = cloneTime(o.CancelledAt)
	return &v
}

// Place checks every product before touching any of them, so a shortfall
// on one line leaves all stock as it was.
func (r orderRepo) Place(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	quantities := o.Quantities()
	for _, q := range quantities {
		p, ok := r.s.products[q.ProductID]
		if !ok {
			return order.ErrProductNotFound
		}
		if p.Stock < q.Quantity {
			return &order.StockError{ProductID: p.ID, Name: p.Name, Available: p.Stock, Requested: q.Quantity}
		}
	}
	for _, q := range quantities {
		p := r.s.products[q.ProductID]
		p.Stock -= q.Quantity
		p.Sold += q.Quantity
	}
	r.s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r orderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r orderRepo) List(_ context.Context, filter order.ListFilter) ([]*order.Order, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*order.Order
	for _, o := range r.s.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneOrder(o))
	}
	slices.SortFunc(matched, func(a, b *order.Order) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return pagination.Slice(matched, pagination.New(filter.Page, filter.Limit)), len(matched), nil
}

func (r orderRepo) Transition(_ context.Context, o *order.Order, from order.Status, restock bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.orders[o.ID]
	if !ok {
		return order.ErrOrderNotFound
	}
	if cur.Status != from {
		return order.ErrConcurrentUpdate
	}
	if restock {
		for _, q := range cur.Quantities() {
			// a deleted product has nothing to restock
			if p, ok := r.s.products[q.ProductID]; ok {
				p.Stock += q.Quantity
				p.Sold = max(p.Sold-q.Quantity, 0)
			}
		}
	}
	r.s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r orderRepo) HasPurchased(_ context.Context, userID, productID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, o := range r.s.orders {
		if o.UserID == userID && o.PaymentStatus == order.PaymentCompleted && o.Contains(productID) {
			return true, nil
		}
	}
	return false, nil
}

func (r orderRepo) Stats(context.Context) (*order.Stats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &order.Stats{ByStatus: map[order.Status]int{}, Revenue: decimal.Zero}
	for _, o := range r.s.orders {
		stats.Count++
		stats.ByStatus[o.Status]++
		if o.PaymentStatus == order.PaymentCompleted {
			stats.Revenue = stats.Revenue.Add(o.GrandTotal)
		}
	}
	return stats, nil
}
