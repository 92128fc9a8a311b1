package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/parfum-storefront/internal/domain/order"
)

// checkout converts the session cart into a persisted order and resets the
// checkout state: cart cleared (locally and on the mirror), coupon and
// shipping selection dropped.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessionFor(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	snap := sess.Snapshot()
	o, err := h.orders.Checkout(ctx, order.CheckoutRequest{
		UserID:     sess.UserID(),
		Cart:       snap.Cart,
		Coupon:     snap.AppliedCoupon,
		Shipping:   snap.SelectedShipping,
		PostalCode: snap.PostalCode,
	})
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	agg := h.aggregatorFor(sess, r)
	if err := agg.Clear(ctx); err != nil {
		// The order is already placed; a failed cart reset is a notice,
		// not a checkout failure.
		h.notifier.Notify(ctx, "Your order was placed but the cart could not be reset.", true)
	}
	sess.SetAppliedCoupon(nil)
	sess.SetSelectedShipping(nil)

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(o.ID)
		e.FieldStart("items")
		encodeCartLines(e, o.Items)
		e.FieldStart("subtotal")
		e.Str(o.Subtotal.StringFixed(2))
		e.FieldStart("discount")
		e.Str(o.Discount.StringFixed(2))
		e.FieldStart("shipping")
		e.Str(o.Shipping.StringFixed(2))
		e.FieldStart("total")
		e.Str(o.Total.StringFixed(2))
		if o.CouponCode != "" {
			e.FieldStart("coupon")
			e.Str(o.CouponCode)
		}
		e.FieldStart("carrier")
		e.Str(o.Carrier)
		e.FieldStart("postalCode")
		e.Str(o.PostalCode)
		e.FieldStart("createdAt")
		e.Str(o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
		e.ObjEnd()
	})
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error) {
	var notFound *order.ProductNotFoundError
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrShippingRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusUnprocessableEntity, notFound.Error())
	default:
		writeError(w, http.StatusBadGateway, "checkout failed")
	}
}
