package order

import "github.com/shopspring/decimal"

type ShippingMethod string

const (
	ShippingStandard  ShippingMethod = "standard"
	ShippingExpress   ShippingMethod = "express"
	ShippingOvernight ShippingMethod = "overnight"
)

// ShippingPolicy prices delivery for an order.
type ShippingPolicy interface {
	Cost(method ShippingMethod, itemsTotal decimal.Decimal) (decimal.Decimal, error)
}

// FlatRateShipping charges a fixed rate per method. Standard shipping is free
// once the items total reaches FreeStandardFrom; a zero threshold disables that.
type FlatRateShipping struct {
	Rates            map[ShippingMethod]decimal.Decimal
	FreeStandardFrom decimal.Decimal
}

// DefaultShipping is the policy the API starts with.
func DefaultShipping() FlatRateShipping {
	return FlatRateShipping{
		Rates: map[ShippingMethod]decimal.Decimal{
			ShippingStandard:  decimal.RequireFromString("5.00"),
			ShippingExpress:   decimal.RequireFromString("15.00"),
			ShippingOvernight: decimal.RequireFromString("25.00"),
		},
		FreeStandardFrom: decimal.RequireFromString("50.00"),
	}
}

func (p FlatRateShipping) Cost(method ShippingMethod, itemsTotal decimal.Decimal) (decimal.Decimal, error) {
	rate, ok := p.Rates[method]
	if !ok {
		return decimal.Zero, ErrInvalidShippingMethod
	}
	if method == ShippingStandard && p.FreeStandardFrom.IsPositive() && itemsTotal.GreaterThanOrEqual(p.FreeStandardFrom) {
		return decimal.Zero, nil
	}
	return rate, nil
}
