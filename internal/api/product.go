package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/parfum-storefront/internal/domain/catalog"
	"github.com/xenking/parfum-storefront/internal/domain/product"
)

// parseCatalogQuery builds the catalog query from URL parameters. Price
// bounds must parse as decimals; the min<=max guard lives in Query.Validate.
func parseCatalogQuery(r *http.Request) (catalog.Query, error) {
	params := r.URL.Query()

	q := catalog.Query{
		Categories: params["category"],
		Sort:       catalog.Sort(params.Get("sort")),
	}
	if v := params.Get("price_min"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return q, errors.Wrap(catalog.ErrInvalidQuery, "price_min")
		}
		q.PriceMin = &d
	}
	if v := params.Get("price_max"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return q, errors.Wrap(catalog.ErrInvalidQuery, "price_max")
		}
		q.PriceMax = &d
	}
	return q, nil
}

// listProducts serves one catalog page. The page parameter drives the cursor
// protocol: first (default) resets to page 1, next/prev move relative to the
// session cursor. A changed filter set or sort invalidates the cursor, so
// the listing restarts from page 1.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessionFor(w, r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	q, err := parseCatalogQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := sess.Snapshot()
	direction := r.URL.Query().Get("page")
	if !q.Equal(snap.Query) {
		direction = "first"
	}

	var page catalog.Page
	switch direction {
	case "", "first":
		page, err = h.engine.First(ctx, q)
	case "next":
		page, err = h.engine.Next(ctx, q, snap.Cursor)
	case "prev":
		page, err = h.engine.Prev(ctx, q, snap.Cursor)
	default:
		writeError(w, http.StatusBadRequest, "page must be first, next or prev")
		return
	}

	switch {
	case errors.Is(err, catalog.ErrNoMoreResults):
		// The counter stays put and the previously rendered page remains.
		h.notifier.Notify(ctx, "No more results.", false)
		h.writeCatalogPage(w, snap.Catalog, snap.Cursor.Page, "no more results")
		return
	case errors.Is(err, catalog.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.notifier.Notify(ctx, "Could not load the catalog. Please try again.", true)
		writeError(w, http.StatusBadGateway, "catalog temporarily unavailable")
		return
	}

	sess.SetCatalog(q, page.Products)
	sess.SetCursor(page.Cursor)
	h.writeCatalogPage(w, page.Products, page.Cursor.Page, "")
}

func (h *Handler) writeCatalogPage(w http.ResponseWriter, products []product.Product, pageNum int, notice string) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("products")
		e.ArrStart()
		for _, p := range products {
			encodeProduct(e, p)
		}
		e.ArrEnd()
		e.FieldStart("page")
		e.Int(pageNum)
		if notice != "" {
			e.FieldStart("notice")
			e.Str(notice)
		}
		e.ObjEnd()
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusBadGateway, "catalog temporarily unavailable")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeProduct(e, *p)
	})
}

type addReviewRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Rating   int    `json:"rating"`
	Text     string `json:"text"`
}

// addReview appends a review and persists the recomputed aggregate rating in
// the same partial update, keeping the rating-equals-mean invariant.
func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.products.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusBadGateway, "catalog temporarily unavailable")
		return
	}

	review := product.Review{
		UserID:    req.UserID,
		UserName:  req.UserName,
		Rating:    req.Rating,
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.AddReview(review); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.products.UpdateReviews(ctx, p.ID, p.Reviews, p.Rating); err != nil {
		h.notifier.Notify(ctx, "Could not save your review. Please try again.", true)
		writeError(w, http.StatusBadGateway, "review not saved")
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("rating")
		e.Str(p.Rating.StringFixed(2))
		e.FieldStart("review")
		encodeReview(e, review)
		e.ObjEnd()
	})
}
