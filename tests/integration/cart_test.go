//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCartFlow(t *testing.T) {
	sess := newSession()

	// Add two bottles of Ambre Nuit (128.00 each).
	resp := doRequest(t, http.MethodPost, "/api/cart/items", sess, map[string]any{
		"productId": "ambre-nuit-50",
		"quantity":  2,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d", resp.StatusCode)
	}
	c := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(c.Items) != 1 || c.Items[0].Quantity != 2 {
		t.Fatalf("cart after add: %+v", c.Items)
	}
	if c.Totals.Subtotal != "256.00" {
		t.Errorf("subtotal: got %q, want %q", c.Totals.Subtotal, "256.00")
	}

	// Apply the 10% starter coupon.
	resp = doRequest(t, http.MethodPost, "/api/cart/coupon", sess, map[string]any{
		"code": "save10",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply coupon: expected 200, got %d", resp.StatusCode)
	}
	c = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if c.Coupon != "SAVE10" {
		t.Errorf("coupon: got %q, want SAVE10 (input should be normalized)", c.Coupon)
	}
	if c.Totals.Discount != "25.60" {
		t.Errorf("discount: got %q, want %q", c.Totals.Discount, "25.60")
	}

	// Select standard shipping to zone 1. 12.90 base + 1.75 per zone.
	resp = doRequest(t, http.MethodPut, "/api/cart/shipping", sess, map[string]any{
		"postalCode": "12345-678",
		"carrier":    "Standard",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select shipping: expected 200, got %d", resp.StatusCode)
	}
	c = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if c.Shipping == nil {
		t.Fatal("shipping not selected")
	}
	if c.Shipping.Price != "14.65" {
		t.Errorf("shipping price: got %q, want %q", c.Shipping.Price, "14.65")
	}
	// 256.00 - 25.60 + 14.65
	if c.Totals.Total != "245.05" {
		t.Errorf("total: got %q, want %q", c.Totals.Total, "245.05")
	}

	// Checkout persists the order and resets the cart state.
	resp = doRequest(t, http.MethodPost, "/api/checkout", sess, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", resp.StatusCode)
	}
	o := decodeJSON[orderResponse](t, resp)
	resp.Body.Close()
	if o.ID == "" {
		t.Error("order id is empty")
	}
	if o.Total != "245.05" {
		t.Errorf("order total: got %q, want %q", o.Total, "245.05")
	}
	if o.Coupon != "SAVE10" {
		t.Errorf("order coupon: got %q, want SAVE10", o.Coupon)
	}
	if o.CreatedAt == "" {
		t.Error("order createdAt is empty")
	}

	resp = doRequest(t, http.MethodGet, "/api/cart", sess, nil)
	c = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(c.Items) != 0 {
		t.Errorf("cart after checkout: expected empty, got %+v", c.Items)
	}
	if c.Coupon != "" {
		t.Errorf("coupon after checkout: got %q, want empty", c.Coupon)
	}
}

func TestAddCartItem_UnknownProduct(t *testing.T) {
	sess := newSession()

	resp := doRequest(t, http.MethodPost, "/api/cart/items", sess, map[string]any{
		"productId": "no-such-product",
		"quantity":  1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestAddCartItem_OutOfStock(t *testing.T) {
	sess := newSession()

	// bois-de-minuit-50 is seeded with zero stock.
	resp := doRequest(t, http.MethodPost, "/api/cart/items", sess, map[string]any{
		"productId": "bois-de-minuit-50",
		"quantity":  1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestRemoveCartItem_Confirmation(t *testing.T) {
	sess := newSession()

	resp := doRequest(t, http.MethodPost, "/api/cart/items", sess, map[string]any{
		"productId": "rose-infinie-50",
		"quantity":  1,
	})
	resp.Body.Close()

	// Without confirmation the line stays.
	resp = doRequest(t, http.MethodDelete, "/api/cart/items/rose-infinie-50", sess, nil)
	rem := decodeJSON[removalResponse](t, resp)
	resp.Body.Close()
	if rem.Removed || !rem.ConfirmationRequired {
		t.Fatalf("unconfirmed removal: %+v", rem)
	}

	resp = doRequest(t, http.MethodGet, "/api/cart", sess, nil)
	c := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(c.Items) != 1 {
		t.Fatalf("cart after declined removal: %+v", c.Items)
	}

	// Confirmed removal empties the cart.
	resp = doRequest(t, http.MethodDelete, "/api/cart/items/rose-infinie-50?confirm=true", sess, nil)
	c = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(c.Items) != 0 {
		t.Fatalf("cart after confirmed removal: %+v", c.Items)
	}
}

func TestUpdateCartItem_ZeroQuantityRemoves(t *testing.T) {
	sess := newSession()

	resp := doRequest(t, http.MethodPost, "/api/cart/items", sess, map[string]any{
		"productId": "agrume-noir-50",
		"quantity":  3,
	})
	resp.Body.Close()

	resp = doRequest(t, http.MethodPut, "/api/cart/items/agrume-noir-50?confirm=true", sess, map[string]any{
		"quantity": 0,
	})
	c := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(c.Items) != 0 {
		t.Fatalf("cart after zero-quantity update: %+v", c.Items)
	}
}

func TestApplyCoupon_UnknownClearsApplied(t *testing.T) {
	sess := newSession()

	resp := doRequest(t, http.MethodPost, "/api/cart/items", sess, map[string]any{
		"productId": "ambre-nuit-50",
		"quantity":  1,
	})
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, "/api/cart/coupon", sess, map[string]any{
		"code": "SAVE10",
	})
	c := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if c.Coupon != "SAVE10" {
		t.Fatalf("coupon: got %q, want SAVE10", c.Coupon)
	}

	// An unknown code fails AND drops the previously applied coupon.
	resp = doRequest(t, http.MethodPost, "/api/cart/coupon", sess, map[string]any{
		"code": "BOGUS123",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unknown coupon: expected 422, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, "/api/cart", sess, nil)
	c = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if c.Coupon != "" {
		t.Errorf("coupon after failed apply: got %q, want empty", c.Coupon)
	}
	if c.Totals.Discount != "0.00" {
		t.Errorf("discount after failed apply: got %q, want 0.00", c.Totals.Discount)
	}
}

func TestShippingQuotes(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/shipping/quotes", "", map[string]any{
		"postalCode": "90210-000",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeJSON[struct {
		Options []shippingOption `json:"options"`
	}](t, resp)
	if len(body.Options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(body.Options))
	}

	// Quotes are deterministic per destination.
	resp2 := doRequest(t, http.MethodPost, "/api/shipping/quotes", "", map[string]any{
		"postalCode": "90210-000",
	})
	defer resp2.Body.Close()
	body2 := decodeJSON[struct {
		Options []shippingOption `json:"options"`
	}](t, resp2)
	for i := range body.Options {
		if body.Options[i] != body2.Options[i] {
			t.Errorf("option %d differs between quotes: %+v vs %+v", i, body.Options[i], body2.Options[i])
		}
	}
}

func TestShippingQuotes_InvalidPostalCode(t *testing.T) {
	resp := doRequest(t, http.MethodPost, "/api/shipping/quotes", "", map[string]any{
		"postalCode": "1234",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	sess := newSession()

	resp := doRequest(t, http.MethodPost, "/api/checkout", sess, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
