package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a perfume available for purchase.
type Product struct {
	ID          string
	Name        string
	Brand       string
	Category    string
	Description string
	Notes       Notes
	Price       decimal.Decimal
	Stock       int
	Rating      decimal.Decimal
	Reviews     []Review
	Image       Image
}

// Notes holds the fragrance pyramid of a perfume.
type Notes struct {
	Top   []string `json:"top"`
	Heart []string `json:"heart"`
	Base  []string `json:"base"`
}

// Image holds responsive image URLs for a product.
type Image struct {
	Thumbnail string
	Full      string
}

// Review is a single customer review. Reviews are ordered by creation time.
type Review struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	// UpdateReviews replaces the review list and aggregate rating of a
	// product in a single partial update.
	UpdateReviews(ctx context.Context, id string, reviews []Review, rating decimal.Decimal) error
}
