// Package api is the HTTP shell over the storefront core. Handlers decode
// requests, call into the domain, and encode responses; they hold no
// business rules of their own.
package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/xenking/parfum-storefront/internal/domain/cart"
	"github.com/xenking/parfum-storefront/internal/domain/catalog"
	"github.com/xenking/parfum-storefront/internal/domain/coupon"
	"github.com/xenking/parfum-storefront/internal/domain/order"
	"github.com/xenking/parfum-storefront/internal/domain/product"
	"github.com/xenking/parfum-storefront/internal/domain/shipping"
	"github.com/xenking/parfum-storefront/internal/notify"
	"github.com/xenking/parfum-storefront/internal/session"
)

// Header names for session and (gateway-provided) user identity.
const (
	headerSessionID = "X-Session-ID"
	headerUserID    = "X-User-ID"
)

// Handler wires the storefront core to HTTP routes.
type Handler struct {
	sessions *session.Manager
	engine   *catalog.Engine
	products product.Repository
	coupons  coupon.Repository
	quoter   shipping.Quoter
	orders   *order.Service
	mirror   cart.Mirror
	notifier notify.Notifier
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(
	sessions *session.Manager,
	engine *catalog.Engine,
	products product.Repository,
	coupons coupon.Repository,
	quoter shipping.Quoter,
	orders *order.Service,
	mirror cart.Mirror,
	notifier notify.Notifier,
) *Handler {
	return &Handler{
		sessions: sessions,
		engine:   engine,
		products: products,
		coupons:  coupons,
		quoter:   quoter,
		orders:   orders,
		mirror:   mirror,
		notifier: notifier,
	}
}

// Routes registers all storefront endpoints on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("POST /api/products/{id}/reviews", h.addReview)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.updateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeCartItem)
	mux.HandleFunc("POST /api/cart/coupon", h.applyCoupon)
	mux.HandleFunc("PUT /api/cart/shipping", h.selectShipping)

	mux.HandleFunc("POST /api/shipping/quotes", h.quoteShipping)
	mux.HandleFunc("POST /api/checkout", h.checkout)

	return mux
}

// sessionFor resolves the request's session, minting a new session ID when
// the client did not send one. The ID is echoed on the response so the
// client can persist it.
func (h *Handler) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	id := r.Header.Get(headerSessionID)
	if id == "" {
		id = uuid.New().String()
	}
	w.Header().Set(headerSessionID, id)

	sess, err := h.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	sess.SetUserID(r.Header.Get(headerUserID))
	return sess, nil
}

// aggregatorFor builds a cart aggregator bound to the session, with the
// destructive-action confirmation taken from the request's confirm flag.
func (h *Handler) aggregatorFor(sess *session.Session, r *http.Request) *cart.Aggregator {
	confirmed := notify.StaticConfirmer(r.URL.Query().Get("confirm") == "true")
	return cart.NewAggregator(sess, h.mirror, h.notifier, confirmed, sess.UserID())
}
