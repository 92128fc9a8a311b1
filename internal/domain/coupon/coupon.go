package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingCode is returned when the entered code is empty after
	// normalization. The applied coupon is left untouched.
	ErrMissingCode = errors.New("coupon code required")
	// ErrUnknownCode is returned when the code matches no loaded coupon.
	// Any previously applied coupon is cleared (fail-closed).
	ErrUnknownCode = errors.New("invalid or expired coupon code")
	// ErrExpired is returned when the code matches a coupon whose validity
	// window has passed. Treated the same as an unknown code.
	ErrExpired = errors.New("coupon expired")
)

// Coupon grants a fractional discount on the cart subtotal. Codes are stored
// uppercase and compared case-insensitively.
type Coupon struct {
	Code      string
	Discount  decimal.Decimal // fraction in [0, 1]
	ExpiresAt *time.Time
}

// Expired reports whether the coupon's validity window has passed at now.
func (c Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Repository provides the loaded coupon set.
type Repository interface {
	List(ctx context.Context) ([]Coupon, error)
}

// Normalize trims surrounding whitespace and uppercases a raw code for
// comparison against stored coupons.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
