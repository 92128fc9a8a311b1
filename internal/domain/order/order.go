package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/parfum-storefront/internal/domain/cart"
)

// Order is a completed checkout with its full money breakdown.
type Order struct {
	ID         string
	UserID     string
	Items      []cart.Line
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Shipping   decimal.Decimal
	Total      decimal.Decimal
	CouponCode string
	Carrier    string
	PostalCode string
	CreatedAt  time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
}
