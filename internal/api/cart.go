package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/parfum-storefront/internal/domain/cart"
	"github.com/xenking/parfum-storefront/internal/domain/product"
	"github.com/xenking/parfum-storefront/internal/session"
)

// cartIndex returns a catalog snapshot covering the cart's product IDs,
// extending the session's loaded catalog with a batch fetch for any lines it
// does not cover. A fetch failure is non-fatal: totals are computed from
// what is available and stale lines are skipped.
func (h *Handler) cartIndex(r *http.Request, snap session.Snapshot) map[string]product.Product {
	idx := snap.CatalogIndex()

	var missing []string
	for _, line := range snap.Cart {
		if _, ok := idx[line.ProductID]; !ok {
			missing = append(missing, line.ProductID)
		}
	}
	if len(missing) == 0 {
		return idx
	}

	fetched, err := h.products.GetByIDs(r.Context(), missing)
	if err != nil {
		h.notifier.Notify(r.Context(), "Some cart items could not be loaded.", true)
		return idx
	}
	for _, p := range fetched {
		idx[p.ID] = p
	}
	return idx
}

// writeCart renders the cart read model: lines plus the money breakdown.
func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	snap := sess.Snapshot()
	idx := h.cartIndex(r, snap)
	totals := cart.ComputeTotals(snap.Cart, idx, snap.AppliedCoupon, snap.SelectedShipping)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		encodeCartLines(e, snap.Cart)
		e.FieldStart("totals")
		encodeTotals(e, totals.Display())
		if snap.AppliedCoupon != nil {
			e.FieldStart("coupon")
			e.Str(snap.AppliedCoupon.Code)
		}
		if snap.SelectedShipping != nil {
			e.FieldStart("shipping")
			encodeShippingOption(e, *snap.SelectedShipping)
		}
		e.ObjEnd()
	})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionFor(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	h.writeCart(w, r, sess)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.sessionFor(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	// Extend the snapshot with the requested product so adding from a
	// product detail page works before any listing was loaded.
	idx := sess.Snapshot().CatalogIndex()
	if _, ok := idx[req.ProductID]; !ok {
		if p, err := h.products.GetByID(ctx, req.ProductID); err == nil {
			idx[p.ID] = *p
		}
	}

	agg := h.aggregatorFor(sess, r)
	if err := agg.AddItem(ctx, req.ProductID, req.Quantity, idx); err != nil {
		h.writeCartError(w, err)
		return
	}
	h.writeCart(w, r, sess)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.sessionFor(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	agg := h.aggregatorFor(sess, r)
	productID := r.PathValue("id")

	// Zero and negative quantities are removals, which go through the
	// confirmation flow so the client can report whether it happened.
	if req.Quantity <= 0 {
		removed, err := agg.RemoveItem(r.Context(), productID)
		if err != nil {
			h.writeCartError(w, err)
			return
		}
		h.writeRemoval(w, r, sess, removed)
		return
	}

	if err := agg.UpdateQuantity(r.Context(), productID, req.Quantity); err != nil {
		h.writeCartError(w, err)
		return
	}
	h.writeCart(w, r, sess)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionFor(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	agg := h.aggregatorFor(sess, r)
	removed, err := agg.RemoveItem(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeCartError(w, err)
		return
	}
	h.writeRemoval(w, r, sess, removed)
}

// writeRemoval reports whether the removal happened; a declined confirmation
// leaves the cart unchanged and asks the client to confirm explicitly.
func (h *Handler) writeRemoval(w http.ResponseWriter, r *http.Request, sess *session.Session, removed bool) {
	if !removed {
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("removed")
			e.Bool(false)
			e.FieldStart("confirmationRequired")
			e.Bool(true)
			e.ObjEnd()
		})
		return
	}
	h.writeCart(w, r, sess)
}

// writeCartError maps cart mutation failures onto HTTP statuses.
func (h *Handler) writeCartError(w http.ResponseWriter, err error) {
	var (
		notFound   *cart.ProductNotFoundError
		outOfStock *cart.OutOfStockError
		notInCart  *cart.NotInCartError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusUnprocessableEntity, notFound.Error())
	case errors.As(err, &outOfStock):
		writeError(w, http.StatusConflict, outOfStock.Error())
	case errors.As(err, &notInCart):
		writeError(w, http.StatusNotFound, notInCart.Error())
	default:
		writeError(w, http.StatusInternalServerError, "cart update failed")
	}
}
