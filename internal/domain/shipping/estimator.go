package shipping

import (
	"context"

	"github.com/shopspring/decimal"
)

// Carrier names offered by the estimator.
const (
	CarrierStandard = "Standard"
	CarrierExpress  = "Express"
)

// Quoter produces shipping options for a destination postal code.
type Quoter interface {
	Quote(ctx context.Context, postalCode string) ([]Option, error)
}

// Estimator quotes deterministic carrier rates by postal zone. The zone is
// the first digit of the postal code; rates grow linearly with distance from
// zone zero. This replaces a live carrier-rate lookup with a fixed pricing
// policy so quotes are stable for a given destination.
type Estimator struct {
	standardBase decimal.Decimal
	standardStep decimal.Decimal
	expressBase  decimal.Decimal
	expressStep  decimal.Decimal
}

// NewEstimator returns an Estimator with the default rate table.
func NewEstimator() *Estimator {
	return &Estimator{
		standardBase: decimal.RequireFromString("12.90"),
		standardStep: decimal.RequireFromString("1.75"),
		expressBase:  decimal.RequireFromString("24.90"),
		expressStep:  decimal.RequireFromString("2.50"),
	}
}

var _ Quoter = (*Estimator)(nil)

// Quote validates the postal code and returns the two carrier options for
// its zone. An invalid code fails immediately; no lookup is performed.
func (e *Estimator) Quote(ctx context.Context, postalCode string) ([]Option, error) {
	if !ValidPostalCode(postalCode) {
		return nil, ErrInvalidPostalCode
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	zone := int64(postalCode[0] - '0')
	z := decimal.NewFromInt(zone)

	standard := Option{
		Carrier: CarrierStandard,
		Price:   e.standardBase.Add(e.standardStep.Mul(z)),
		MinDays: 4 + int(zone)/2,
		MaxDays: 7 + int(zone),
	}
	express := Option{
		Carrier: CarrierExpress,
		Price:   e.expressBase.Add(e.expressStep.Mul(z)),
		MinDays: 1,
		MaxDays: 2 + int(zone)/3,
	}

	return []Option{standard, express}, nil
}
