// Package cart owns the shopping cart contents and is the single source of
// truth for money totals: subtotal, coupon discount, shipping cost, total.
package cart

import (
	"context"
)

// Line is a single cart entry. A cart holds at most one line per product.
type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart is an ordered sequence of lines.
type Cart []Line

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Find returns the index of the line for productID, or -1.
func (c Cart) Find(productID string) int {
	for i, l := range c {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// LocalStore is the durable local cart store. Writes are synchronous and
// authoritative for the session.
type LocalStore interface {
	Load(sessionID string) (Cart, bool, error)
	Save(sessionID string, c Cart) error
}

// Mirror replicates the cart to the remote user record. Mirror writes are
// best-effort: a failure is surfaced as a notice and never rolls back the
// local mutation.
type Mirror interface {
	Save(ctx context.Context, userID string, c Cart) error
}
