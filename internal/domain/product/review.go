package product

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidRating is returned when a review rating is outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ratingScale is the number of decimal places kept on the aggregate rating.
const ratingScale = 2

// AddReview appends a review to the product and recomputes the aggregate
// rating. The product's Rating always equals the arithmetic mean of its
// review ratings, or zero when there are no reviews.
func (p *Product) AddReview(r Review) error {
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	p.Reviews = append(p.Reviews, r)
	p.Rating = MeanRating(p.Reviews)
	return nil
}

// MeanRating returns the arithmetic mean of the review ratings rounded to
// two decimal places, or zero for an empty list.
func MeanRating(reviews []Review) decimal.Decimal {
	if len(reviews) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(decimal.NewFromInt(int64(r.Rating)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(ratingScale)
}
