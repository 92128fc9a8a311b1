package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/parfum-storefront/internal/domain/coupon"
	"github.com/xenking/parfum-storefront/internal/domain/product"
	"github.com/xenking/parfum-storefront/internal/domain/shipping"
)

// Totals holds the money breakdown for a cart. Values are accumulated in
// full precision; rounding to two decimal places happens only in Display.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// DisplayTotals is the two-decimal-place rendering of Totals.
type DisplayTotals struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

// Display formats all amounts with exactly two decimal places.
func (t Totals) Display() DisplayTotals {
	return DisplayTotals{
		Subtotal: t.Subtotal.StringFixed(2),
		Discount: t.Discount.StringFixed(2),
		Shipping: t.Shipping.StringFixed(2),
		Total:    t.Total.StringFixed(2),
	}
}

// ComputeTotals derives the money breakdown from a cart and catalog snapshot.
//
// Lines whose product is absent from the snapshot are skipped rather than
// failing; a stale cart reference must never break the total. The discount is
// subtotal * coupon fraction when a coupon is applied; shipping is the
// selected option's price when one is set.
func ComputeTotals(c Cart, catalog map[string]product.Product, applied *coupon.Coupon, selected *shipping.Option) Totals {
	subtotal := decimal.Zero
	for _, line := range c {
		p, ok := catalog[line.ProductID]
		if !ok {
			continue
		}
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	discount := decimal.Zero
	if applied != nil {
		discount = subtotal.Mul(applied.Discount)
	}

	shippingCost := decimal.Zero
	if selected != nil {
		shippingCost = selected.Price
	}

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shippingCost,
		Total:    subtotal.Sub(discount).Add(shippingCost),
	}
}
