package catalog

import (
	"context"
	"sort"

	"github.com/go-faster/errors"

	"github.com/xenking/parfum-storefront/internal/domain/product"
)

// DefaultPageSize is the catalog page size when none is configured.
const DefaultPageSize = 12

// Page is one fetched catalog page together with the cursor that produced
// it. The caller commits the cursor to application state only on success, so
// a failed or empty fetch leaves the previous page and counter intact.
type Page struct {
	Products []product.Product
	Cursor   Cursor
}

// Engine runs the pagination protocol over a Store.
type Engine struct {
	store    Store
	pageSize int
}

// NewEngine creates an Engine with the given page size; non-positive sizes
// fall back to DefaultPageSize.
func NewEngine(store Store, pageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine{store: store, pageSize: pageSize}
}

// First resets the listing to page 1.
func (e *Engine) First(ctx context.Context, q Query) (Page, error) {
	if err := q.Validate(); err != nil {
		return Page{}, err
	}

	products, err := e.fetch(ctx, q, DirFirst, PageKey{})
	if err != nil {
		return Page{}, err
	}

	return e.page(q, products, 1), nil
}

// Next fetches the page after cur. An empty result leaves the counter where
// it is and reports ErrNoMoreResults.
func (e *Engine) Next(ctx context.Context, q Query, cur Cursor) (Page, error) {
	if err := q.Validate(); err != nil {
		return Page{}, err
	}
	if cur.Last.Zero() {
		return e.First(ctx, q)
	}

	products, err := e.fetch(ctx, q, DirNext, cur.Last)
	if err != nil {
		return Page{}, err
	}
	if len(products) == 0 {
		return Page{}, ErrNoMoreResults
	}

	return e.page(q, products, cur.Page+1), nil
}

// Prev fetches the page before cur. On page 1, or when the store comes back
// empty, the counter stays put and ErrNoMoreResults is reported.
func (e *Engine) Prev(ctx context.Context, q Query, cur Cursor) (Page, error) {
	if err := q.Validate(); err != nil {
		return Page{}, err
	}
	if cur.Page <= 1 || cur.First.Zero() {
		return Page{}, ErrNoMoreResults
	}

	products, err := e.fetch(ctx, q, DirPrev, cur.First)
	if err != nil {
		return Page{}, err
	}
	if len(products) == 0 {
		return Page{}, ErrNoMoreResults
	}

	return e.page(q, products, cur.Page-1), nil
}

func (e *Engine) fetch(ctx context.Context, q Query, dir Direction, from PageKey) ([]product.Product, error) {
	rq := q
	rq.Sort = q.RemoteSort()

	products, err := e.store.ListPage(ctx, rq, dir, from, e.pageSize)
	if err != nil {
		return nil, errors.Wrap(err, "list catalog page")
	}
	return products, nil
}

// page derives the new cursor from the remote ordering, then applies the
// local re-sort when the remote ordering was a fallback. Cursor keys always
// track the remote ordering so next/prev stay consistent.
func (e *Engine) page(q Query, products []product.Product, pageNum int) Page {
	cur := Cursor{Page: pageNum}
	if len(products) > 0 {
		remote := q.RemoteSort()
		cur.First = keyFor(products[0], remote)
		cur.Last = keyFor(products[len(products)-1], remote)
	}

	if q.Sort == SortRatingDesc && q.RemoteSort() != SortRatingDesc {
		products = sortByRatingDesc(products)
	}

	return Page{Products: products, Cursor: cur}
}

// keyFor extracts the ordering key of a product under the given sort.
func keyFor(p product.Product, s Sort) PageKey {
	switch s {
	case SortPriceAsc, SortPriceDesc:
		return PageKey{Value: p.Price.String(), ID: p.ID}
	case SortRatingDesc:
		return PageKey{Value: p.Rating.String(), ID: p.ID}
	default:
		return PageKey{Value: p.Name, ID: p.ID}
	}
}

func sortByRatingDesc(products []product.Product) []product.Product {
	out := make([]product.Product, len(products))
	copy(out, products)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating.GreaterThan(out[j].Rating)
	})
	return out
}
