package cart

import "github.com/shopspring/decimal"

var (
	taxRate           = decimal.RequireFromString("0.08")
	flatShipping      = decimal.NewFromInt(10)
	freeShippingAbove = decimal.NewFromInt(100)
)

// Breakdown is a display estimate. Orders are charged the plain subtotal.
type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Totals estimates 8% tax plus flat shipping that is waived above 100.
func Totals(items []Item) Breakdown {
	sub := Subtotal(items)
	tax := sub.Mul(taxRate).Round(2)

	ship := flatShipping
	if sub.GreaterThan(freeShippingAbove) {
		ship = decimal.Zero
	}
	return Breakdown{
		Subtotal: sub,
		Tax:      tax,
		Shipping: ship,
		Total:    sub.Add(tax).Add(ship),
	}
}

func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}
