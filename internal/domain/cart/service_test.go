package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/example/ec-shop-api/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCartService(t *testing.T) (*cart.Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	return cart.NewService(st.Carts(), st.Products(), zap.NewNop()), st
}

func seedProduct(t *testing.T, st *memory.Store, id string, price string, stock int, status product.Status) *product.Product {
	t.Helper()
	p := &product.Product{
		ID:        id,
		Name:      "Product " + id,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Status:    status,
		Images:    []string{"https://cdn.example.com/" + id + ".png"},
		CreatedAt: time.Now(),
	}
	require.NoError(t, st.Products().Create(context.Background(), p))
	return p
}

// assertTotals checks the derived totals against the lines.
func assertTotals(t *testing.T, c *cart.Cart) {
	t.Helper()
	items := 0
	total := decimal.Zero
	for _, it := range c.Items {
		items += it.Quantity
		assert.True(t, it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).Equal(it.LineTotal))
		total = total.Add(it.LineTotal)
	}
	assert.Equal(t, items, c.TotalItems)
	assert.True(t, total.Equal(c.TotalPrice), "total %s != %s", total, c.TotalPrice)
}

// ============================================
// Add Item Tests
// ============================================

func TestService_Get_EmptyCart(t *testing.T) {
	svc, _ := newTestCartService(t)

	c, err := svc.Get(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, 0, c.TotalItems)
	assert.True(t, c.TotalPrice.IsZero())
}

func TestService_AddItem_MergesSameVariant(t *testing.T) {
	svc, st := newTestCartService(t)
	ctx := context.Background()
	seedProduct(t, st, "shirt", "19.99", 10, product.StatusActive)

	_, err := svc.AddItem(ctx, "user-1", "shirt", map[string]string{"size": "M"}, 2)
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, "user-1", "shirt", map[string]string{"size": "M"}, 1)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, "Product shirt", c.Items[0].Name)
	assert.Equal(t, "https://cdn.example.com/shirt.png", c.Items[0].Image)
	assert.True(t, decimal.RequireFromString("59.97").Equal(c.TotalPrice))
	assertTotals(t, c)
}

func TestService_AddItem_MergeKeepsPriceSnapshot(t *testing.T) {
	svc, st := newTestCartService(t)
	ctx := context.Background()
	p := seedProduct(t, st, "shirt", "20.00", 10, product.StatusActive)

	_, err := svc.AddItem(ctx, "user-1", "shirt", nil, 1)
	require.NoError(t, err)

	p.Price = decimal.RequireFromString("25.00")
	require.NoError(t, st.Products().Update(ctx, p))

	c, err := svc.AddItem(ctx, "user-1", "shirt", nil, 1)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.True(t, decimal.RequireFromString("20.00").Equal(c.Items[0].Price))
	assert.True(t, decimal.RequireFromString("40.00").Equal(c.TotalPrice))
	assertTotals(t, c)
}

func TestService_AddItem_DifferentVariantIsNewLine(t *testing.T) {
	svc, st := newTestCartService(t)
	ctx := context.Background()
	seedProduct(t, st, "shirt", "10", 10, product.StatusActive)

	_, err := svc.AddItem(ctx, "user-1", "shirt", map[string]string{"size": "M"}, 1)
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, "user-1", "shirt", map[string]string{"size": "L"}, 2)
	require.NoError(t, err)

	assert.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.TotalItems)
	assertTotals(t, c)
}

func TestService_AddItem_UsesDiscountPrice(t *testing.T) {
	svc, st := newTestCartService(t)
	ctx := context.Background()
	p := seedProduct(t, st, "mug", "10.00", 5, product.StatusActive)
	p.DiscountPrice = decimal.NewNullDecimal(decimal.RequireFromString("7.50"))
	require.NoError(t, st.Products().Update(ctx, p))

	c, err := svc.AddItem(ctx, "user-1", "mug", nil, 2)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("15.00").Equal(c.TotalPrice))
}

func TestService_AddItem_Rejected(t *testing.T) {
	svc, st := newTestCartService(t)
	ctx := context.Background()
	seedProduct(t, st, "lamp", "30", 2, product.StatusActive)
	seedProduct(t, st, "draft", "30", 2, product.StatusDraft)

	tests := []struct {
		name      string
		productID string
		quantity  int
		wantErr   error
	}{
		{"missing product id", "", 1, cart.ErrInvalidProduct},
		{"zero quantity", "lamp", 0, cart.ErrInvalidQuantity},
		{"unknown product", "ghost", 1, product.ErrProductNotFound},
		{"inactive product", "draft", 1, cart.ErrProductUnavailable},
		{"more than stock", "lamp", 3, cart.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, "user-1", tt.productID, nil, tt.quantity)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_AddItem_StockCountsExistingLines(t *testing.T) {
	svc, st := newTestCartService(t)
	ctx := context.Background()
	seedProduct(t, st, "lamp", "30", 3, product.StatusActive)

	_, err := svc.AddItem(ctx, "user-1", "lamp", nil, 2)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "user-1", "lamp", nil, 2)
	assert.ErrorIs(t, err, cart.ErrInsufficientStock)

	c, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, c.TotalItems)
}

// ============================================
// Update / Remove / Clear Tests
// ============================================

func TestService_UpdateItem(t *testing.T) {
	svc, st := newTestCartService(t)
	ctx := context.Background()
	seedProduct(t, st, "pen", "2.50", 10, product.StatusActive)

	c, err := svc.AddItem(ctx, "user-1", "pen", nil, 1)
	require.NoError(t, err)
	itemID := c.Items[0].ID

	c, err = svc.UpdateItem(ctx, "user-1", itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, c.TotalItems)
	assertTotals(t, c)

	_, err = svc.UpdateItem(ctx, "user-1", itemID, 11)
	assert.ErrorIs(t, err, cart.ErrInsufficientStock)

	c, err = svc.UpdateItem(ctx, "user-1", itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, c.TotalPrice.IsZero())

	_, err = svc.UpdateItem(ctx, "user-1", itemID, 1)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)
}

func TestService_RemoveAndClear(t *testing.T) {
	svc, st := newTestCartService(t)
	ctx := context.Background()
	seedProduct(t, st, "a", "1", 10, product.StatusActive)
	seedProduct(t, st, "b", "2", 10, product.StatusActive)

	_, err := svc.AddItem(ctx, "user-1", "a", nil, 1)
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, "user-1", "b", nil, 1)
	require.NoError(t, err)

	c, err = svc.RemoveItem(ctx, "user-1", c.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "b", c.Items[0].ProductID)
	assertTotals(t, c)

	_, err = svc.RemoveItem(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, cart.ErrItemNotFound)

	require.NoError(t, svc.Clear(ctx, "user-1"))
	require.NoError(t, svc.Clear(ctx, "user-1"))

	c, err = svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}
