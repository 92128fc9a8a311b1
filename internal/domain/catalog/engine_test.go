package catalog

import (
	"context"
	"slices"
	"sort"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/parfum-storefront/internal/domain/product"
)

// --- Fake store ---

// fakeStore serves pages from an in-memory slice, honoring the same keyset
// contract as the SQL store: results in requested order, strictly after
// (next) or strictly before (prev) the key, prev pages in forward order.
type fakeStore struct {
	products []product.Product
	err      error
	lastSort Sort
}

func (s *fakeStore) ListPage(_ context.Context, q Query, dir Direction, from PageKey, limit int) ([]product.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastSort = q.Sort

	rows := make([]product.Product, 0, len(s.products))
	for _, p := range s.products {
		if len(q.Categories) > 0 && !slices.Contains(q.Categories, p.Category) {
			continue
		}
		if q.PriceMin != nil && p.Price.LessThan(*q.PriceMin) {
			continue
		}
		if q.PriceMax != nil && p.Price.GreaterThan(*q.PriceMax) {
			continue
		}
		rows = append(rows, p)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return keyLess(keyFor(rows[i], q.Sort), keyFor(rows[j], q.Sort), q.Sort)
	})

	switch dir {
	case DirFirst:
		return clip(rows, 0, limit), nil
	case DirNext:
		for i, p := range rows {
			if keyLess(from, keyFor(p, q.Sort), q.Sort) {
				return clip(rows, i, limit), nil
			}
		}
		return nil, nil
	case DirPrev:
		end := 0
		for i, p := range rows {
			if !keyLess(keyFor(p, q.Sort), from, q.Sort) {
				break
			}
			end = i + 1
		}
		start := end - limit
		if start < 0 {
			start = 0
		}
		return rows[start:end], nil
	}
	return nil, nil
}

// keyLess orders page keys the way the store would, with the ID tiebreaker.
func keyLess(a, b PageKey, s Sort) bool {
	switch s {
	case SortPriceAsc:
		av, bv := decimal.RequireFromString(a.Value), decimal.RequireFromString(b.Value)
		if !av.Equal(bv) {
			return av.LessThan(bv)
		}
	case SortPriceDesc:
		av, bv := decimal.RequireFromString(a.Value), decimal.RequireFromString(b.Value)
		if !av.Equal(bv) {
			return av.GreaterThan(bv)
		}
	case SortRatingDesc:
		av, bv := decimal.RequireFromString(a.Value), decimal.RequireFromString(b.Value)
		if !av.Equal(bv) {
			return av.GreaterThan(bv)
		}
	case SortNameDesc:
		if a.Value != b.Value {
			return a.Value > b.Value
		}
	default:
		if a.Value != b.Value {
			return a.Value < b.Value
		}
	}
	return a.ID < b.ID
}

func clip(rows []product.Product, start, limit int) []product.Product {
	if start >= len(rows) {
		return nil
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// --- Helpers ---

func catalogProduct(id, name, category, price, rating string) product.Product {
	return product.Product{
		ID:       id,
		Name:     name,
		Category: category,
		Price:    decimal.RequireFromString(price),
		Rating:   decimal.RequireFromString(rating),
	}
}

// Seven products, page size 3: pages of 3 + 3 + 1 in name order.
func newFakeStore() *fakeStore {
	return &fakeStore{products: []product.Product{
		catalogProduct("p1", "Amber Sky", "edp", "120.00", "4.10"),
		catalogProduct("p2", "Black Tea", "edt", "75.00", "4.80"),
		catalogProduct("p3", "Cedar Walk", "edp", "95.00", "3.90"),
		catalogProduct("p4", "Dune Rose", "edt", "88.00", "4.50"),
		catalogProduct("p5", "Ember Oud", "edp", "150.00", "4.70"),
		catalogProduct("p6", "Fig Grove", "edt", "60.00", "4.20"),
		catalogProduct("p7", "Green Vetiver", "edp", "105.00", "4.00"),
	}}
}

func ids(products []product.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

// --- Tests ---

func TestFirst(t *testing.T) {
	e := NewEngine(newFakeStore(), 3)

	page, err := e.First(context.Background(), Query{})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(page.Products))
	assert.Equal(t, 1, page.Cursor.Page)
	assert.Equal(t, PageKey{Value: "Amber Sky", ID: "p1"}, page.Cursor.First)
	assert.Equal(t, PageKey{Value: "Cedar Walk", ID: "p3"}, page.Cursor.Last)
}

func TestNext_AdvancesOnePage(t *testing.T) {
	e := NewEngine(newFakeStore(), 3)
	ctx := context.Background()

	page1, err := e.First(ctx, Query{})
	require.NoError(t, err)

	page2, err := e.Next(ctx, Query{}, page1.Cursor)
	require.NoError(t, err)

	assert.Equal(t, []string{"p4", "p5", "p6"}, ids(page2.Products))
	assert.Equal(t, 2, page2.Cursor.Page)

	page3, err := e.Next(ctx, Query{}, page2.Cursor)
	require.NoError(t, err)
	assert.Equal(t, []string{"p7"}, ids(page3.Products))
	assert.Equal(t, 3, page3.Cursor.Page)
}

func TestNext_PastEndReportsNoMoreResults(t *testing.T) {
	e := NewEngine(newFakeStore(), 3)
	ctx := context.Background()

	page1, err := e.First(ctx, Query{})
	require.NoError(t, err)
	page2, err := e.Next(ctx, Query{}, page1.Cursor)
	require.NoError(t, err)
	page3, err := e.Next(ctx, Query{}, page2.Cursor)
	require.NoError(t, err)

	// The empty fetch must not produce a page; the caller keeps page 3.
	_, err = e.Next(ctx, Query{}, page3.Cursor)
	require.ErrorIs(t, err, ErrNoMoreResults)
}

func TestNext_WithoutCursorFallsBackToFirst(t *testing.T) {
	e := NewEngine(newFakeStore(), 3)

	page, err := e.Next(context.Background(), Query{}, Cursor{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Cursor.Page)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(page.Products))
}

func TestPrev_ReturnsPreviousPage(t *testing.T) {
	e := NewEngine(newFakeStore(), 3)
	ctx := context.Background()

	page1, err := e.First(ctx, Query{})
	require.NoError(t, err)
	page2, err := e.Next(ctx, Query{}, page1.Cursor)
	require.NoError(t, err)

	back, err := e.Prev(ctx, Query{}, page2.Cursor)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(back.Products))
	assert.Equal(t, 1, back.Cursor.Page)
}

func TestPrev_OnFirstPageReportsNoMoreResults(t *testing.T) {
	e := NewEngine(newFakeStore(), 3)
	ctx := context.Background()

	page1, err := e.First(ctx, Query{})
	require.NoError(t, err)

	_, err = e.Prev(ctx, Query{}, page1.Cursor)
	require.ErrorIs(t, err, ErrNoMoreResults)
}

func TestEngine_PriceSort(t *testing.T) {
	e := NewEngine(newFakeStore(), 3)

	page, err := e.First(context.Background(), Query{Sort: SortPriceAsc})
	require.NoError(t, err)
	// 60.00, 75.00, 88.00
	assert.Equal(t, []string{"p6", "p2", "p4"}, ids(page.Products))
}

func TestEngine_InvalidQuery(t *testing.T) {
	e := NewEngine(newFakeStore(), 3)
	ctx := context.Background()

	_, err := e.First(ctx, Query{Sort: "alphabetical"})
	require.ErrorIs(t, err, ErrInvalidQuery)

	minP := decimal.RequireFromString("100")
	maxP := decimal.RequireFromString("50")
	_, err = e.First(ctx, Query{PriceMin: &minP, PriceMax: &maxP})
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestEngine_StoreErrorPropagates(t *testing.T) {
	e := NewEngine(&fakeStore{err: errors.New("store down")}, 3)

	_, err := e.First(context.Background(), Query{})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoMoreResults)
}

func TestEngine_FilteredRatingSortFallsBackLocally(t *testing.T) {
	store := newFakeStore()
	e := NewEngine(store, 3)

	q := Query{Categories: []string{"edp"}, Sort: SortRatingDesc}
	page, err := e.First(context.Background(), q)
	require.NoError(t, err)

	// The store was asked for name order; edp in name order is p1, p3, p5.
	assert.Equal(t, SortNameAsc, store.lastSort)

	// Locally the page is re-sorted by rating: 4.70, 4.10, 3.90.
	assert.Equal(t, []string{"p5", "p1", "p3"}, ids(page.Products))

	// Cursor keys track the remote (name) ordering, not the display order.
	assert.Equal(t, PageKey{Value: "Amber Sky", ID: "p1"}, page.Cursor.First)
	assert.Equal(t, PageKey{Value: "Ember Oud", ID: "p5"}, page.Cursor.Last)
}

func TestEngine_UnfilteredRatingSortStaysRemote(t *testing.T) {
	store := newFakeStore()
	e := NewEngine(store, 3)

	page, err := e.First(context.Background(), Query{Sort: SortRatingDesc})
	require.NoError(t, err)

	assert.Equal(t, SortRatingDesc, store.lastSort)
	// 4.80, 4.70, 4.50
	assert.Equal(t, []string{"p2", "p5", "p4"}, ids(page.Products))
}

func TestQueryEqual(t *testing.T) {
	minA := decimal.RequireFromString("10")
	minB := decimal.RequireFromString("10.0")

	assert.True(t, Query{}.Equal(Query{}))
	assert.True(t, Query{PriceMin: &minA}.Equal(Query{PriceMin: &minB}))
	assert.False(t, Query{Sort: SortPriceAsc}.Equal(Query{Sort: SortPriceDesc}))
	assert.False(t, Query{Categories: []string{"edp"}}.Equal(Query{}))
	assert.False(t, Query{PriceMin: &minA}.Equal(Query{}))
}
