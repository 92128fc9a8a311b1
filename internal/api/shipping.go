package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/parfum-storefront/internal/domain/shipping"
)

type quoteRequest struct {
	PostalCode string `json:"postalCode"`
}

func (h *Handler) quoteShipping(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	options, err := h.quoter.Quote(r.Context(), req.PostalCode)
	if err != nil {
		if errors.Is(err, shipping.ErrInvalidPostalCode) {
			writeError(w, http.StatusBadRequest, "postal code must match 00000-000")
			return
		}
		h.notifier.Notify(r.Context(), "Could not fetch shipping quotes.", true)
		writeError(w, http.StatusBadGateway, "shipping quotes unavailable")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("options")
		e.ArrStart()
		for _, o := range options {
			encodeShippingOption(e, o)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

type selectShippingRequest struct {
	PostalCode string `json:"postalCode"`
	Carrier    string `json:"carrier"`
}

// selectShipping re-quotes the destination and selects the option for the
// requested carrier. Quotes are deterministic per destination, so the
// re-quote yields the same prices the client was shown.
func (h *Handler) selectShipping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req selectShippingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.sessionFor(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	options, err := h.quoter.Quote(ctx, req.PostalCode)
	if err != nil {
		if errors.Is(err, shipping.ErrInvalidPostalCode) {
			writeError(w, http.StatusBadRequest, "postal code must match 00000-000")
			return
		}
		h.notifier.Notify(ctx, "Could not fetch shipping quotes.", true)
		writeError(w, http.StatusBadGateway, "shipping quotes unavailable")
		return
	}

	for _, o := range options {
		if o.Carrier == req.Carrier {
			selected := o
			sess.SetPostalCode(req.PostalCode)
			sess.SetSelectedShipping(&selected)
			h.writeCart(w, r, sess)
			return
		}
	}

	writeError(w, http.StatusUnprocessableEntity, "unknown carrier")
}
