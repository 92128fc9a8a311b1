package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/parfum-storefront/internal/domain/cart"
	"github.com/xenking/parfum-storefront/internal/domain/catalog"
	"github.com/xenking/parfum-storefront/internal/domain/coupon"
	"github.com/xenking/parfum-storefront/internal/domain/order"
	"github.com/xenking/parfum-storefront/internal/domain/product"
	"github.com/xenking/parfum-storefront/internal/domain/shipping"
	"github.com/xenking/parfum-storefront/internal/session"
)

// --- Mock implementations ---

// mockProductStore backs both the product repository and the catalog store,
// like the SQL repository does. Pages are served in name order.
type mockProductStore struct {
	byID map[string]product.Product
}

func newProductStore(products ...product.Product) *mockProductStore {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockProductStore{byID: byID}
}

func (m *mockProductStore) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductStore) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProductStore) UpdateReviews(_ context.Context, id string, reviews []product.Review, rating decimal.Decimal) error {
	p, ok := m.byID[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Reviews = reviews
	p.Rating = rating
	m.byID[id] = p
	return nil
}

func (m *mockProductStore) ListPage(_ context.Context, _ catalog.Query, dir catalog.Direction, from catalog.PageKey, limit int) ([]product.Product, error) {
	rows := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	switch dir {
	case catalog.DirFirst:
		if len(rows) > limit {
			rows = rows[:limit]
		}
		return rows, nil
	case catalog.DirNext:
		for i, p := range rows {
			if p.Name > from.Value {
				end := i + limit
				if end > len(rows) {
					end = len(rows)
				}
				return rows[i:end], nil
			}
		}
		return nil, nil
	case catalog.DirPrev:
		end := 0
		for i, p := range rows {
			if p.Name >= from.Value {
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

type mockCouponRepo struct {
	coupons []coupon.Coupon
	err     error
}

func (m *mockCouponRepo) List(context.Context) ([]coupon.Coupon, error) {
	return m.coupons, m.err
}

type nopMirror struct{}

func (nopMirror) Save(context.Context, string, cart.Cart) error { return nil }

type memStore struct {
	carts map[string]cart.Cart
}

func (m *memStore) Load(id string) (cart.Cart, bool, error) {
	c, ok := m.carts[id]
	return c, ok, nil
}

func (m *memStore) Save(id string, c cart.Cart) error {
	m.carts[id] = c.Clone()
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, bool) {}

// --- Helpers ---

func testProduct(id, name, price string, stock int) product.Product {
	return product.Product{
		ID:       id,
		Name:     name,
		Brand:    "Test House",
		Category: "eau de parfum",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Image:    product.Image{Thumbnail: "thumb.jpg", Full: "full.jpg"},
	}
}

func newTestMux(pageSize int, products ...product.Product) (*http.ServeMux, *mockProductStore) {
	store := newProductStore(products...)
	sessions := session.NewManager(&memStore{carts: make(map[string]cart.Cart)})
	engine := catalog.NewEngine(store, pageSize)
	coupons := &mockCouponRepo{coupons: []coupon.Coupon{
		{Code: "SAVE10", Discount: decimal.RequireFromString("0.10")},
	}}
	orders := order.NewService(store, &mockOrderRepo{})

	h := NewHandler(sessions, engine, store, coupons, shipping.NewEstimator(), orders, nopMirror{}, nopNotifier{})
	return h.Routes(), store
}

type mockOrderRepo struct {
	lastOrder *order.Order
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.lastOrder = o
	return nil
}

func do(t *testing.T, mux *http.ServeMux, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if sessionID != "" {
		req.Header.Set(headerSessionID, sessionID)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

type cartBody struct {
	Items []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
	Totals struct {
		Subtotal string `json:"subtotal"`
		Discount string `json:"discount"`
		Shipping string `json:"shipping"`
		Total    string `json:"total"`
	} `json:"totals"`
	Coupon string `json:"coupon"`
}

type pageBody struct {
	Products []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"products"`
	Page   int    `json:"page"`
	Notice string `json:"notice"`
}

// --- Tests ---

func TestListProducts_Handler(t *testing.T) {
	mux, _ := newTestMux(2,
		testProduct("p1", "Amber", "100.00", 5),
		testProduct("p2", "Cedar", "80.00", 5),
		testProduct("p3", "Rose", "90.00", 5),
	)

	w := do(t, mux, http.MethodGet, "/api/products", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	page := decode[pageBody](t, w)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Products, 2)
	assert.Equal(t, "Amber", page.Products[0].Name)
}

func TestListProducts_NextAndRollback(t *testing.T) {
	mux, _ := newTestMux(2,
		testProduct("p1", "Amber", "100.00", 5),
		testProduct("p2", "Cedar", "80.00", 5),
		testProduct("p3", "Rose", "90.00", 5),
	)

	w := do(t, mux, http.MethodGet, "/api/products", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, mux, http.MethodGet, "/api/products?page=next", "s1", nil)
	page := decode[pageBody](t, w)
	require.Equal(t, 2, page.Page)
	require.Len(t, page.Products, 1)

	// Past the last page: 200 with the previous page and a notice.
	w = do(t, mux, http.MethodGet, "/api/products?page=next", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[pageBody](t, w)
	assert.Equal(t, 2, page.Page)
	assert.NotEmpty(t, page.Notice)
	assert.Len(t, page.Products, 1)
}

func TestListProducts_FilterChangeResetsToFirstPage(t *testing.T) {
	mux, _ := newTestMux(2,
		testProduct("p1", "Amber", "100.00", 5),
		testProduct("p2", "Cedar", "80.00", 5),
		testProduct("p3", "Rose", "90.00", 5),
	)

	do(t, mux, http.MethodGet, "/api/products", "s1", nil)
	do(t, mux, http.MethodGet, "/api/products?page=next", "s1", nil)

	// Changing the sort invalidates the cursor even though page=next.
	w := do(t, mux, http.MethodGet, "/api/products?page=next&sort=price_asc", "s1", nil)
	page := decode[pageBody](t, w)
	assert.Equal(t, 1, page.Page)
}

func TestGetProduct_Handler(t *testing.T) {
	mux, _ := newTestMux(12, testProduct("p1", "Amber", "100.00", 5))

	w := do(t, mux, http.MethodGet, "/api/products/p1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, mux, http.MethodGet, "/api/products/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionIDMintedWhenAbsent(t *testing.T) {
	mux, _ := newTestMux(12, testProduct("p1", "Amber", "100.00", 5))

	w := do(t, mux, http.MethodGet, "/api/cart", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(headerSessionID))
}

func TestAddCartItem_Handler(t *testing.T) {
	mux, _ := newTestMux(12, testProduct("p1", "Amber", "100.00", 5))

	w := do(t, mux, http.MethodPost, "/api/cart/items", "s1", map[string]any{
		"productId": "p1",
		"quantity":  2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	c := decode[cartBody](t, w)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, "200.00", c.Totals.Subtotal)
}

func TestAddCartItem_Unknown(t *testing.T) {
	mux, _ := newTestMux(12)

	w := do(t, mux, http.MethodPost, "/api/cart/items", "s1", map[string]any{
		"productId": "ghost",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAddCartItem_OutOfStock(t *testing.T) {
	mux, _ := newTestMux(12, testProduct("p1", "Amber", "100.00", 0))

	w := do(t, mux, http.MethodPost, "/api/cart/items", "s1", map[string]any{
		"productId": "p1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAddCartItem_ConcurrentSameSession(t *testing.T) {
	// Parallel requests for one session each rebind the user identity in
	// sessionFor before mutating the cart; all of them must complete cleanly.
	mux, _ := newTestMux(12, testProduct("p1", "Amber", "100.00", 100))

	codes := make([]int, 8)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var buf bytes.Buffer
			_ = json.NewEncoder(&buf).Encode(map[string]any{
				"productId": "p1",
				"quantity":  1,
			})
			req := httptest.NewRequest(http.MethodPost, "/api/cart/items", &buf)
			req.Header.Set(headerSessionID, "s1")
			req.Header.Set(headerUserID, "user-1")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			codes[i] = w.Code
		}()
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "request %d", i)
	}

	w := do(t, mux, http.MethodGet, "/api/cart", "s1", nil)
	c := decode[cartBody](t, w)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p1", c.Items[0].ProductID)
}

func TestRemoveCartItem_ConfirmationFlow(t *testing.T) {
	mux, _ := newTestMux(12, testProduct("p1", "Amber", "100.00", 5))

	do(t, mux, http.MethodPost, "/api/cart/items", "s1", map[string]any{"productId": "p1"})

	// Without confirm the item stays.
	w := do(t, mux, http.MethodDelete, "/api/cart/items/p1", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	removal := decode[struct {
		Removed              bool `json:"removed"`
		ConfirmationRequired bool `json:"confirmationRequired"`
	}](t, w)
	assert.False(t, removal.Removed)
	assert.True(t, removal.ConfirmationRequired)

	w = do(t, mux, http.MethodGet, "/api/cart", "s1", nil)
	c := decode[cartBody](t, w)
	require.Len(t, c.Items, 1)

	// Confirmed removal empties the cart.
	w = do(t, mux, http.MethodDelete, "/api/cart/items/p1?confirm=true", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	c = decode[cartBody](t, w)
	assert.Empty(t, c.Items)
}

func TestUpdateCartItem_ZeroQuantityRemoves(t *testing.T) {
	mux, _ := newTestMux(12, testProduct("p1", "Amber", "100.00", 5))

	do(t, mux, http.MethodPost, "/api/cart/items", "s1", map[string]any{"productId": "p1", "quantity": 3})

	w := do(t, mux, http.MethodPut, "/api/cart/items/p1?confirm=true", "s1", map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	c := decode[cartBody](t, w)
	assert.Empty(t, c.Items)
}

func TestApplyCoupon_Handler(t *testing.T) {
	mux, _ := newTestMux(12, testProduct("p1", "Amber", "100.00", 5))

	do(t, mux, http.MethodPost, "/api/cart/items", "s1", map[string]any{"productId": "p1"})

	w := do(t, mux, http.MethodPost, "/api/cart/coupon", "s1", map[string]any{"code": " save10 "})
	require.Equal(t, http.StatusOK, w.Code)
	c := decode[cartBody](t, w)
	assert.Equal(t, "SAVE10", c.Coupon)
	assert.Equal(t, "10.00", c.Totals.Discount)

	// Unknown code: 422 and the applied coupon is dropped.
	w = do(t, mux, http.MethodPost, "/api/cart/coupon", "s1", map[string]any{"code": "NOPE"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, mux, http.MethodGet, "/api/cart", "s1", nil)
	c = decode[cartBody](t, w)
	assert.Empty(t, c.Coupon)
	assert.Equal(t, "0.00", c.Totals.Discount)
}

func TestApplyCoupon_EmptyCode(t *testing.T) {
	mux, _ := newTestMux(12)

	w := do(t, mux, http.MethodPost, "/api/cart/coupon", "s1", map[string]any{"code": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteShipping_Handler(t *testing.T) {
	mux, _ := newTestMux(12)

	w := do(t, mux, http.MethodPost, "/api/shipping/quotes", "", map[string]any{"postalCode": "12345-678"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Options []struct {
			Carrier string `json:"carrier"`
			Price   string `json:"price"`
		} `json:"options"`
	}](t, w)
	require.Len(t, body.Options, 2)
	assert.Equal(t, "14.65", body.Options[0].Price)

	w = do(t, mux, http.MethodPost, "/api/shipping/quotes", "", map[string]any{"postalCode": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectShipping_UnknownCarrier(t *testing.T) {
	mux, _ := newTestMux(12)

	w := do(t, mux, http.MethodPut, "/api/cart/shipping", "s1", map[string]any{
		"postalCode": "12345-678",
		"carrier":    "Drone",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCheckout_Handler(t *testing.T) {
	mux, _ := newTestMux(12, testProduct("p1", "Amber", "100.00", 5))

	do(t, mux, http.MethodPost, "/api/cart/items", "s1", map[string]any{"productId": "p1"})
	do(t, mux, http.MethodPut, "/api/cart/shipping", "s1", map[string]any{
		"postalCode": "12345-678",
		"carrier":    "Standard",
	})

	w := do(t, mux, http.MethodPost, "/api/checkout", "s1", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	o := decode[struct {
		ID        string `json:"id"`
		Total     string `json:"total"`
		CreatedAt string `json:"createdAt"`
	}](t, w)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "114.65", o.Total)

	created, err := time.Parse(time.RFC3339, o.CreatedAt)
	require.NoError(t, err)
	assert.False(t, created.IsZero())

	// Checkout resets the cart.
	w = do(t, mux, http.MethodGet, "/api/cart", "s1", nil)
	c := decode[cartBody](t, w)
	assert.Empty(t, c.Items)
}

func TestCheckout_EmptyCart_Handler(t *testing.T) {
	mux, _ := newTestMux(12)

	w := do(t, mux, http.MethodPost, "/api/checkout", "s1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddReview_Handler(t *testing.T) {
	mux, store := newTestMux(12, testProduct("p1", "Amber", "100.00", 5))

	w := do(t, mux, http.MethodPost, "/api/products/p1/reviews", "", map[string]any{
		"userId":   "u1",
		"userName": "Reviewer",
		"rating":   4,
		"text":     "Lovely drydown.",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, "4.00", store.byID["p1"].Rating.StringFixed(2))

	w = do(t, mux, http.MethodPost, "/api/products/p1/reviews", "", map[string]any{
		"userId": "u1",
		"rating": 11,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
