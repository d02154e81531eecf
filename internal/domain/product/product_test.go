package product

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestProduct_EffectivePrice(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	base := Product{
		Price:         decimal.RequireFromString("100.00"),
		DiscountPrice: decimal.NewNullDecimal(decimal.RequireFromString("80.00")),
	}

	tests := []struct {
		name   string
		starts *time.Time
		ends   *time.Time
		want   string
	}{
		{"no window", nil, nil, "80"},
		{"inside window", ptrTime(now.Add(-time.Hour)), ptrTime(now.Add(time.Hour)), "80"},
		{"not started", ptrTime(now.Add(time.Hour)), nil, "100"},
		{"ended", nil, ptrTime(now), "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			p.DiscountStartsAt = tt.starts
			p.DiscountEndsAt = tt.ends
			assert.True(t, decimal.RequireFromString(tt.want).Equal(p.EffectivePrice(now)))
		})
	}

	noDiscount := Product{Price: decimal.NewFromInt(5)}
	assert.True(t, decimal.NewFromInt(5).Equal(noDiscount.EffectivePrice(now)))
}

func TestProduct_Validate(t *testing.T) {
	valid := func() Product {
		return Product{Name: "Mug", Price: decimal.NewFromInt(10), Status: StatusActive}
	}

	tests := []struct {
		name    string
		mutate  func(*Product)
		wantErr error
	}{
		{"valid", func(*Product) {}, nil},
		{"free product", func(p *Product) { p.Price = decimal.Zero }, nil},
		{"missing name", func(p *Product) { p.Name = "" }, ErrInvalidName},
		{"negative price", func(p *Product) { p.Price = decimal.NewFromInt(-1) }, ErrInvalidPrice},
		{"discount equal to price", func(p *Product) { p.DiscountPrice = decimal.NewNullDecimal(decimal.NewFromInt(10)) }, ErrInvalidDiscount},
		{"negative stock", func(p *Product) { p.Stock = -1 }, ErrInvalidStock},
		{"unknown status", func(p *Product) { p.Status = "archived" }, ErrInvalidStatus},
		{"inverted window", func(p *Product) {
			now := time.Now()
			p.DiscountStartsAt = ptrTime(now)
			p.DiscountEndsAt = ptrTime(now.Add(-time.Minute))
		}, ErrInvalidDiscountWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := p.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewRating(t *testing.T) {
	r := NewRating([]int{5, 4, 4, 1, 0, 6})

	assert.Equal(t, 4, r.Count)
	assert.Equal(t, 3.5, r.Average)
	assert.Equal(t, [5]int{1, 0, 0, 2, 1}, r.Distribution)

	assert.Equal(t, Rating{}, NewRating(nil))
	assert.Equal(t, 4.3, NewRating([]int{5, 4, 4}).Average)
}

func TestFilter_Match(t *testing.T) {
	p := &Product{
		Name:        "Blue Coffee Mug",
		Description: "Ceramic, 350ml",
		Price:       decimal.RequireFromString("12.50"),
		Stock:       3,
		Status:      StatusActive,
		CategoryID:  "kitchen",
	}
	min := decimal.NewFromInt(10)
	max := decimal.NewFromInt(12)

	assert.True(t, Filter{}.Match(p))
	assert.True(t, Filter{Query: "coffee"}.Match(p))
	assert.True(t, Filter{Query: "CERAMIC"}.Match(p))
	assert.False(t, Filter{Query: "teapot"}.Match(p))
	assert.True(t, Filter{CategoryID: "kitchen", InStock: true}.Match(p))
	assert.False(t, Filter{CategoryID: "garden"}.Match(p))
	assert.True(t, Filter{MinPrice: &min}.Match(p))
	assert.False(t, Filter{MaxPrice: &max}.Match(p))
	assert.False(t, Filter{Status: StatusDraft}.Match(p))

	p.Stock = 0
	assert.False(t, Filter{InStock: true}.Match(p))
}

func TestSortProducts(t *testing.T) {
	now := time.Now()
	a := &Product{ID: "a", Price: decimal.NewFromInt(30), Sold: 1, CreatedAt: now.Add(-2 * time.Hour), Rating: Rating{Average: 4.0, Count: 2}}
	b := &Product{ID: "b", Price: decimal.NewFromInt(10), Sold: 9, CreatedAt: now, Rating: Rating{Average: 4.5, Count: 1}}
	c := &Product{ID: "c", Price: decimal.NewFromInt(20), Sold: 5, CreatedAt: now.Add(-time.Hour), Rating: Rating{Average: 4.0, Count: 7}}

	ids := func(ps []*Product) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}
		return out
	}

	tests := []struct {
		sort Sort
		want []string
	}{
		{SortNewest, []string{"b", "c", "a"}},
		{SortPriceAsc, []string{"b", "c", "a"}},
		{SortPriceDesc, []string{"a", "c", "b"}},
		{SortRating, []string{"b", "c", "a"}},
		{SortPopular, []string{"b", "c", "a"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			ps := []*Product{a, b, c}
			SortProducts(ps, tt.sort)
			assert.Equal(t, tt.want, ids(ps))
		})
	}
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("")
	assert.NoError(t, err)
	assert.Equal(t, SortNewest, s)

	s, err = ParseSort("price_desc")
	assert.NoError(t, err)
	assert.Equal(t, SortPriceDesc, s)

	_, err = ParseSort("cheapest")
	assert.ErrorIs(t, err, ErrInvalidSort)
}
