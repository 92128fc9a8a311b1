package coupon

import (
	"context"
	"time"

	"github.com/xenking/parfum-storefront/internal/notify"
)

// State is the slice of application state the resolver owns: the at-most-one
// applied coupon.
type State interface {
	AppliedCoupon() *Coupon
	SetAppliedCoupon(*Coupon)
}

// Resolver validates user-entered coupon codes against the loaded coupon set
// and mutates the applied-coupon state.
//
// The failure policy is fail-closed: a code that does not resolve clears any
// previously applied coupon. There is no "keep the previous coupon" path.
type Resolver struct {
	state    State
	notifier notify.Notifier
	now      func() time.Time
}

// NewResolver creates a Resolver bound to the given state and notifier.
func NewResolver(state State, notifier notify.Notifier) *Resolver {
	return &Resolver{state: state, notifier: notifier, now: time.Now}
}

// Apply normalizes rawCode and resolves it against loaded.
//
// An empty normalized code leaves the applied coupon untouched and returns
// ErrMissingCode. A match becomes the applied coupon. No match (or an expired
// match) clears the applied coupon and returns ErrUnknownCode or ErrExpired.
func (r *Resolver) Apply(ctx context.Context, rawCode string, loaded []Coupon) (*Coupon, error) {
	code := Normalize(rawCode)
	if code == "" {
		r.notifier.Notify(ctx, "Enter a coupon code.", true)
		return nil, ErrMissingCode
	}

	for _, c := range loaded {
		if Normalize(c.Code) != code {
			continue
		}
		if c.Expired(r.now()) {
			r.state.SetAppliedCoupon(nil)
			r.notifier.Notify(ctx, "This coupon has expired.", true)
			return nil, ErrExpired
		}
		applied := c
		r.state.SetAppliedCoupon(&applied)
		r.notifier.Notify(ctx, "Coupon "+applied.Code+" applied.", false)
		return &applied, nil
	}

	r.state.SetAppliedCoupon(nil)
	r.notifier.Notify(ctx, "Invalid or expired coupon code.", true)
	return nil, ErrUnknownCode
}
