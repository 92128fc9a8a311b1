// Package catalog builds filtered, sorted, paginated product queries and
// drives the cursor-based first/next/prev pagination protocol.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/parfum-storefront/internal/domain/product"
)

// Sort enumerates the supported catalog orderings.
type Sort string

const (
	SortNameAsc    Sort = "name_asc"
	SortNameDesc   Sort = "name_desc"
	SortPriceAsc   Sort = "price_asc"
	SortPriceDesc  Sort = "price_desc"
	SortRatingDesc Sort = "rating_desc" // popularity
)

var (
	// ErrInvalidQuery is returned for malformed filter input, e.g. a price
	// range with min greater than max.
	ErrInvalidQuery = errors.New("invalid catalog query")
	// ErrNoMoreResults is returned when next/prev runs past the catalog
	// edge. The page counter must not move.
	ErrNoMoreResults = errors.New("no more results")
)

// Query is a filter set plus sort key for one catalog listing.
type Query struct {
	Categories []string // empty means no category filter
	PriceMin   *decimal.Decimal
	PriceMax   *decimal.Decimal
	Sort       Sort
}

// Validate guards against undefined filter combinations before any remote
// query is issued.
func (q Query) Validate() error {
	switch q.Sort {
	case SortNameAsc, SortNameDesc, SortPriceAsc, SortPriceDesc, SortRatingDesc:
	case "":
	default:
		return errors.Wrapf(ErrInvalidQuery, "unknown sort %q", q.Sort)
	}
	if q.PriceMin != nil && q.PriceMax != nil && q.PriceMin.GreaterThan(*q.PriceMax) {
		return errors.Wrap(ErrInvalidQuery, "price min exceeds max")
	}
	return nil
}

// Equal reports whether two queries describe the same listing, which is
// what makes a stored cursor reusable between them.
func (q Query) Equal(other Query) bool {
	if q.Sort != other.Sort || len(q.Categories) != len(other.Categories) {
		return false
	}
	for i := range q.Categories {
		if q.Categories[i] != other.Categories[i] {
			return false
		}
	}
	return decimalPtrEqual(q.PriceMin, other.PriceMin) && decimalPtrEqual(q.PriceMax, other.PriceMax)
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Filtered reports whether any filter restricts the result set.
func (q Query) Filtered() bool {
	return len(q.Categories) > 0 || q.PriceMin != nil || q.PriceMax != nil
}

// RemoteSort returns the ordering the store is asked for. Sorting by rating
// cannot be combined with filters remotely (the document store would need a
// composite index per filter combination), so filtered popularity queries
// fall back to name order and are re-sorted locally. This only works because
// a single page is small; it is not safe for whole-catalog sorting.
func (q Query) RemoteSort() Sort {
	s := q.Sort
	if s == "" {
		s = SortNameAsc
	}
	if s == SortRatingDesc && q.Filtered() {
		return SortNameAsc
	}
	return s
}

// PageKey identifies a row in the active ordering: the sort-field value of a
// page-edge product plus its ID as tiebreaker.
type PageKey struct {
	Value string
	ID    string
}

// Zero reports whether the key is unset.
func (k PageKey) Zero() bool {
	return k.Value == "" && k.ID == ""
}

// Cursor is the pagination state for one listing: the ordering keys of the
// first and last visible products and the 1-based page number.
type Cursor struct {
	First PageKey
	Last  PageKey
	Page  int
}

// Direction selects which page relative to the cursor to fetch.
type Direction int

const (
	// DirFirst resets to page 1.
	DirFirst Direction = iota
	// DirNext fetches the page starting strictly after the from key.
	DirNext
	// DirPrev fetches the page ending strictly before the from key.
	DirPrev
)

// Store executes one page query against the persistent product store. The
// returned slice is in q.Sort order (the engine passes the remote sort); an
// empty slice means no rows past the key.
type Store interface {
	ListPage(ctx context.Context, q Query, dir Direction, from PageKey, limit int) ([]product.Product, error)
}
