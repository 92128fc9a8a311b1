package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/parfum-storefront/internal/domain/cart"
	"github.com/xenking/parfum-storefront/internal/domain/product"
	"github.com/xenking/parfum-storefront/internal/domain/shipping"
)

// writeJSON encodes one response body with jx and writes it with the given
// status code.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the uniform error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.ArrStart()
	for _, v := range values {
		e.Str(v)
	}
	e.ArrEnd()
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("brand")
	e.Str(p.Brand)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("notes")
	e.ObjStart()
	e.FieldStart("top")
	encodeStrings(e, p.Notes.Top)
	e.FieldStart("heart")
	encodeStrings(e, p.Notes.Heart)
	e.FieldStart("base")
	encodeStrings(e, p.Notes.Base)
	e.ObjEnd()
	e.FieldStart("price")
	e.Str(p.Price.StringFixed(2))
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.FieldStart("rating")
	e.Str(p.Rating.StringFixed(2))
	e.FieldStart("reviewCount")
	e.Int(len(p.Reviews))
	e.FieldStart("image")
	e.ObjStart()
	e.FieldStart("thumbnail")
	e.Str(p.Image.Thumbnail)
	e.FieldStart("full")
	e.Str(p.Image.Full)
	e.ObjEnd()
	e.ObjEnd()
}

func encodeReview(e *jx.Encoder, r product.Review) {
	e.ObjStart()
	e.FieldStart("userId")
	e.Str(r.UserID)
	e.FieldStart("userName")
	e.Str(r.UserName)
	e.FieldStart("rating")
	e.Int(r.Rating)
	e.FieldStart("text")
	e.Str(r.Text)
	e.FieldStart("createdAt")
	e.Str(r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	e.ObjEnd()
}

func encodeCartLines(e *jx.Encoder, c cart.Cart) {
	e.ArrStart()
	for _, line := range c {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(line.ProductID)
		e.FieldStart("quantity")
		e.Int(line.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func encodeTotals(e *jx.Encoder, t cart.DisplayTotals) {
	e.ObjStart()
	e.FieldStart("subtotal")
	e.Str(t.Subtotal)
	e.FieldStart("discount")
	e.Str(t.Discount)
	e.FieldStart("shipping")
	e.Str(t.Shipping)
	e.FieldStart("total")
	e.Str(t.Total)
	e.ObjEnd()
}

func encodeShippingOption(e *jx.Encoder, o shipping.Option) {
	e.ObjStart()
	e.FieldStart("carrier")
	e.Str(o.Carrier)
	e.FieldStart("price")
	e.Str(o.Price.StringFixed(2))
	e.FieldStart("estimate")
	e.Str(o.EstimateLabel())
	e.ObjEnd()
}
