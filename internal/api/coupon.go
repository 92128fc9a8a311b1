package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/parfum-storefront/internal/domain/coupon"
)

type applyCouponRequest struct {
	Code string `json:"code"`
}

// applyCoupon resolves a user-entered code against the loaded coupon set,
// loading it on first use. The resolver's fail-closed policy applies: a code
// that does not resolve clears any previously applied coupon.
func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.sessionFor(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	loaded := sess.Snapshot().Coupons
	if len(loaded) == 0 {
		loaded, err = h.coupons.List(ctx)
		if err != nil {
			h.notifier.Notify(ctx, "Could not check your coupon. Please try again.", true)
			writeError(w, http.StatusBadGateway, "coupons temporarily unavailable")
			return
		}
		sess.SetCoupons(loaded)
	}

	resolver := coupon.NewResolver(sess, h.notifier)
	if _, err := resolver.Apply(ctx, req.Code, loaded); err != nil {
		switch {
		case errors.Is(err, coupon.ErrMissingCode):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, coupon.ErrUnknownCode), errors.Is(err, coupon.ErrExpired):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "coupon not applied")
		}
		return
	}

	h.writeCart(w, r, sess)
}
