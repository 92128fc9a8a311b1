// Package session holds the per-visitor application state: cart, applied
// coupon, selected shipping, loaded catalog page, and pagination cursor.
//
// The state is an explicit object handed to every component rather than a
// process-wide singleton, so tests can run isolated instances side by side.
// All mutation goes through named setters; none of them validate business
// rules — that is the caller's job.
package session

import (
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/parfum-storefront/internal/domain/cart"
	"github.com/xenking/parfum-storefront/internal/domain/catalog"
	"github.com/xenking/parfum-storefront/internal/domain/coupon"
	"github.com/xenking/parfum-storefront/internal/domain/product"
	"github.com/xenking/parfum-storefront/internal/domain/shipping"
)

// Session is the mutable state of one storefront visitor. The original
// single-threaded model serialized handlers on an event loop; here each
// session carries its own mutex so concurrent requests for the same visitor
// apply their mutations one at a time.
type Session struct {
	ID string

	local cart.LocalStore

	mu               sync.Mutex
	userID           string // empty until the visitor authenticates
	cart             cart.Cart
	appliedCoupon    *coupon.Coupon
	selectedShipping *shipping.Option
	postalCode       string
	catalog          []product.Product
	query            catalog.Query
	coupons          []coupon.Coupon
	cursor           catalog.Cursor
}

// Snapshot is a read-only copy of the session state at one point in time.
type Snapshot struct {
	Cart             cart.Cart
	AppliedCoupon    *coupon.Coupon
	SelectedShipping *shipping.Option
	PostalCode       string
	Catalog          []product.Product
	Query            catalog.Query
	Coupons          []coupon.Coupon
	Cursor           catalog.Cursor
}

// CatalogIndex returns the loaded catalog keyed by product ID.
func (s Snapshot) CatalogIndex() map[string]product.Product {
	idx := make(map[string]product.Product, len(s.Catalog))
	for _, p := range s.Catalog {
		idx[p.ID] = p
	}
	return idx
}

// Snapshot returns a consistent copy of the whole session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Cart:       s.cart.Clone(),
		PostalCode: s.postalCode,
		Catalog:    append([]product.Product(nil), s.catalog...),
		Query:      s.query,
		Coupons:    append([]coupon.Coupon(nil), s.coupons...),
		Cursor:     s.cursor,
	}
	if s.appliedCoupon != nil {
		c := *s.appliedCoupon
		snap.AppliedCoupon = &c
	}
	if s.selectedShipping != nil {
		o := *s.selectedShipping
		snap.SelectedShipping = &o
	}
	return snap
}

// UserID returns the user identity bound to this session, or empty for an
// anonymous visitor.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// SetUserID records the gateway-provided user identity for this visitor.
func (s *Session) SetUserID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
}

// Cart returns a copy of the current cart.
func (s *Session) Cart() cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// SetCart replaces the cart and synchronously persists it to the local
// store. The local write is authoritative for the session; remote mirroring
// is the caller's decision.
func (s *Session) SetCart(c cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = c.Clone()
	if err := s.local.Save(s.ID, s.cart); err != nil {
		return errors.Wrap(err, "persist cart")
	}
	return nil
}

// AppliedCoupon returns the applied coupon, or nil.
func (s *Session) AppliedCoupon() *coupon.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appliedCoupon == nil {
		return nil
	}
	c := *s.appliedCoupon
	return &c
}

// SetAppliedCoupon replaces the applied coupon; nil clears it.
func (s *Session) SetAppliedCoupon(c *coupon.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c == nil {
		s.appliedCoupon = nil
		return
	}
	cc := *c
	s.appliedCoupon = &cc
}

// SetSelectedShipping replaces the selected shipping option; nil clears it.
// The selection is ephemeral: it lives only as long as the session.
func (s *Session) SetSelectedShipping(o *shipping.Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o == nil {
		s.selectedShipping = nil
		return
	}
	oo := *o
	s.selectedShipping = &oo
}

// SetPostalCode records the destination the shipping quotes were issued for.
func (s *Session) SetPostalCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postalCode = code
}

// SetCatalog replaces the loaded catalog page and the query that produced it.
func (s *Session) SetCatalog(q catalog.Query, products []product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	s.catalog = append([]product.Product(nil), products...)
}

// SetCoupons replaces the loaded coupon set.
func (s *Session) SetCoupons(coupons []coupon.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons = append([]coupon.Coupon(nil), coupons...)
}

// SetCursor replaces the pagination cursor. Callers commit a cursor only
// after a non-empty page was confirmed fetched.
func (s *Session) SetCursor(cur catalog.Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = cur
}
