package product

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortRating    Sort = "rating"
	SortPopular   Sort = "popular"
)

// ParseSort maps a query value to a Sort; empty means newest.
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case "":
		return SortNewest, nil
	case SortNewest, SortPriceAsc, SortPriceDesc, SortRating, SortPopular:
		return Sort(s), nil
	}
	return "", ErrInvalidSort
}

// Filter selects products for a listing. Zero values match everything.
type Filter struct {
	Query      string
	CategoryID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Status     Status
	InStock    bool
	Sort       Sort
	Page       int
	Limit      int
}

// Match applies the filter to a single product. Backends that cannot push the
// filter down to the database use it directly.
func (f Filter) Match(p *Product) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.CategoryID != "" && p.CategoryID != f.CategoryID {
		return false
	}
	if f.InStock && p.Stock <= 0 {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

// SortProducts orders products in place. Ties fall back to id so pages are stable.
func SortProducts(products []*Product, by Sort) {
	slices.SortFunc(products, func(a, b *Product) int {
		var c int
		switch by {
		case SortPriceAsc:
			c = a.Price.Cmp(b.Price)
		case SortPriceDesc:
			c = b.Price.Cmp(a.Price)
		case SortRating:
			c = cmp.Or(cmp.Compare(b.Rating.Average, a.Rating.Average), cmp.Compare(b.Rating.Count, a.Rating.Count))
		case SortPopular:
			c = cmp.Compare(b.Sold, a.Sold)
		default:
			c = b.CreatedAt.Compare(a.CreatedAt)
		}
		return cmp.Or(c, strings.Compare(a.ID, b.ID))
	})
}
