// Package shipping produces delivery options for a destination postal code
// and tracks the single selected option feeding the cart total.
package shipping

import (
	"fmt"
	"regexp"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidPostalCode is returned when the destination does not match the
// CEP format (5 digits, optional hyphen, 3 digits).
var ErrInvalidPostalCode = errors.New("invalid postal code")

var postalCodeRe = regexp.MustCompile(`^\d{5}-?\d{3}$`)

// ValidPostalCode reports whether code matches the accepted postal format.
func ValidPostalCode(code string) bool {
	return postalCodeRe.MatchString(code)
}

// Option is a single shipping quote. At most one option is selected at a
// time; the selection is ephemeral and never persisted across sessions.
type Option struct {
	Carrier string
	Price   decimal.Decimal
	MinDays int
	MaxDays int
}

// EstimateLabel renders the delivery window for display.
func (o Option) EstimateLabel() string {
	if o.MinDays == o.MaxDays {
		return fmt.Sprintf("%d business days", o.MaxDays)
	}
	return fmt.Sprintf("%d-%d business days", o.MinDays, o.MaxDays)
}
