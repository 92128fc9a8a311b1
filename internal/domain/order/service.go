package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/parfum-storefront/internal/domain/cart"
	"github.com/xenking/parfum-storefront/internal/domain/coupon"
	"github.com/xenking/parfum-storefront/internal/domain/product"
	"github.com/xenking/parfum-storefront/internal/domain/shipping"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrShippingRequired = errors.New("shipping option required")
)

// ProductNotFoundError indicates a cart line references a product that no
// longer exists in the catalog.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// CheckoutRequest is the session snapshot a checkout is computed from.
type CheckoutRequest struct {
	UserID     string
	Cart       cart.Cart
	Coupon     *coupon.Coupon
	Shipping   *shipping.Option
	PostalCode string
}

// Service turns a cart snapshot into a persisted order. Payment processing
// is out of scope; an order is final once stored.
type Service struct {
	products product.Repository
	orders   Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(products product.Repository, orders Repository) *Service {
	return &Service{products: products, orders: orders}
}

// Checkout validates the cart, re-resolves every product in a single batch,
// computes totals under the cart aggregation rules, and persists the order.
// Unlike the totals read model, checkout refuses stale cart lines: a missing
// product fails the whole order instead of being silently skipped.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	if len(req.Cart) == 0 {
		return nil, ErrEmptyCart
	}
	if req.Shipping == nil {
		return nil, ErrShippingRequired
	}

	ids := make([]string, len(req.Cart))
	for i, line := range req.Cart {
		ids[i] = line.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	catalog := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		catalog[p.ID] = p
	}
	for _, line := range req.Cart {
		if _, ok := catalog[line.ProductID]; !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
	}

	totals := cart.ComputeTotals(req.Cart, catalog, req.Coupon, req.Shipping)

	couponCode := ""
	if req.Coupon != nil {
		couponCode = req.Coupon.Code
	}

	o := &Order{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Items:      req.Cart.Clone(),
		Subtotal:   totals.Subtotal.Round(2),
		Discount:   totals.Discount.Round(2),
		Shipping:   totals.Shipping.Round(2),
		Total:      totals.Total.Round(2),
		CouponCode: couponCode,
		Carrier:    req.Shipping.Carrier,
		PostalCode: req.PostalCode,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}
