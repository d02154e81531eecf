package dynamo

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/example/ec-shop-api/internal/apperr"
	"github.com/example/ec-shop-api/internal/domain/cart"
	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListedKeys_SortChronologically(t *testing.T) {
	early := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(500 * time.Millisecond)

	a := listedKeys(typeOrder, "b", early)
	b := listedKeys(typeOrder, "a", late)

	assert.Equal(t, "ORDER#b", a.PK)
	assert.Equal(t, skMeta, a.SK)
	assert.Equal(t, typeOrder, a.GSI1PK)
	assert.Less(t, a.GSI1SK, b.GSI1SK)
}

func TestProductRecord(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &product.Product{
		ID:               "p1",
		Name:             "Kettle",
		Price:            decimal.RequireFromString("49.90"),
		DiscountPrice:    decimal.NewNullDecimal(decimal.RequireFromString("39.90")),
		DiscountStartsAt: &start,
		Stock:            7,
		Sold:             3,
		Status:           product.StatusActive,
		Rating:           product.NewRating([]int{4, 5}),
		CreatedAt:        start,
	}

	rec := toProductRecord(p)
	assert.Equal(t, "49.9", rec.Price)
	assert.Equal(t, []string{}, rec.Images)

	// through the attribute value encoding and back
	av, err := attributevalue.MarshalMap(rec)
	require.NoError(t, err)
	assert.Contains(t, av, "pk")
	assert.Contains(t, av, "gsi1sk")
	var decoded productRecord
	require.NoError(t, attributevalue.UnmarshalMap(av, &decoded))

	got, err := decoded.product()
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(got.Price))
	assert.True(t, got.DiscountPrice.Valid)
	assert.True(t, p.DiscountPrice.Decimal.Equal(got.DiscountPrice.Decimal))
	assert.Equal(t, p.Rating, got.Rating)
	assert.Equal(t, 7, got.Stock)
	assert.True(t, start.Equal(*got.DiscountStartsAt))
}

func TestProductRecord_BadPrice(t *testing.T) {
	_, err := productRecord{ID: "p1", Price: "abc"}.product()
	assert.Error(t, err)
}

func TestOrderRecord(t *testing.T) {
	o := &order.Order{
		ID:     "o1",
		UserID: "u1",
		Items: []order.Item{{
			ProductID: "p1", Quantity: 2, Variant: map[string]string{"color": "red"},
			UnitPrice: decimal.RequireFromString("10.00"), LineTotal: decimal.RequireFromString("20.00"),
		}},
		ShippingAddress: order.Address{FullName: "Sam Lee", City: "Osaka"},
		Status:          order.StatusPending,
		ItemsTotal:      decimal.RequireFromString("20.00"),
		ShippingCost:    decimal.RequireFromString("5.00"),
		Discount:        decimal.Zero,
		GrandTotal:      decimal.RequireFromString("25.00"),
		CreatedAt:       time.Now().UTC(),
	}

	rec, err := toOrderRecord(o)
	require.NoError(t, err)
	got, err := rec.order()
	require.NoError(t, err)

	assert.Equal(t, o.Items[0].Variant, got.Items[0].Variant)
	assert.Equal(t, "Osaka", got.ShippingAddress.City)
	assert.True(t, o.GrandTotal.Equal(got.GrandTotal))
	assert.Nil(t, got.ShippedAt)
}

func TestCartRecord_RecalculatesTotals(t *testing.T) {
	c := &cart.Cart{UserID: "u1", Items: []cart.Item{
		{ID: "i1", ProductID: "p1", Quantity: 3, Price: decimal.RequireFromString("2.50")},
	}}

	rec, err := toCartRecord(c)
	require.NoError(t, err)
	assert.Equal(t, "CART#u1", rec.PK)

	got, err := rec.cart()
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalItems)
	assert.True(t, decimal.RequireFromString("7.50").Equal(got.TotalPrice))
}

func TestUpdateExpression(t *testing.T) {
	u := newUpdate().
		set("name", "Mug").
		setOrRemove("discount_price", "", false).
		set("status", product.StatusActive)

	assert.Equal(t, "SET #name = :name, #status = :status REMOVE #discount_price", u.expression())
	assert.Equal(t, "discount_price", u.names["#discount_price"])
	assert.Len(t, u.values, 2)
	assert.NoError(t, u.err)
}

func TestFailedConditions(t *testing.T) {
	err := &types.TransactionCanceledException{
		Message: aws.String("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
			{Code: aws.String("None")},
		},
	}

	assert.Equal(t, []int{1}, failedConditions(err))
	assert.Nil(t, failedConditions(errors.New("timeout")))
	assert.Nil(t, failedConditions(nil))
}

func TestDBError_IsUpstream(t *testing.T) {
	err := dbError("get item", errors.New("throttled"))
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}
