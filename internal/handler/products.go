package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/skip2/go-qrcode"

	"github.com/kastkar/krushi/internal/domain/catalog"
	"github.com/kastkar/krushi/internal/handoff"
	"github.com/kastkar/krushi/pkg/httpmiddleware"
)

const qrSize = 256

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	company := q.Get("company")
	if company == "" {
		company = catalog.AllCompanies
	}
	listings := h.shop.Browse(catalog.Criteria{
		Search:   q.Get("q"),
		Category: catalog.ParseCategory(q.Get("category"), catalog.CategoryAll),
		Company:  company,
		Sort:     catalog.ParseSortKey(q.Get("sort")),
	}, isOwner(r))

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeListings(e, listings)
	})
}

func (h *Handler) productOptions(w http.ResponseWriter, _ *http.Request) {
	opts := h.shop.Options()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("categories")
		e.ArrStart()
		for _, c := range opts.Categories {
			e.Str(string(c))
		}
		e.ArrEnd()
		e.FieldStart("companies")
		e.ArrStart()
		for _, c := range opts.Companies {
			e.Str(c)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

func (h *Handler) productOfTheDay(w http.ResponseWriter, r *http.Request) {
	l, ok := h.shop.ProductOfTheDay(isOwner(r))
	if !ok {
		httpmiddleware.WriteError(w, http.StatusNotFound, "catalog is empty")
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeListing(e, l) })
}

func (h *Handler) lookupProduct(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		fail(w, r, badRequest("code is required"))
		return
	}
	l, ok := h.shop.Lookup(code, isOwner(r))
	if !ok {
		httpmiddleware.WriteError(w, http.StatusNotFound, "no product matches code "+strconv.Quote(code))
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeListing(e, l) })
}

func (h *Handler) recentProducts(w http.ResponseWriter, r *http.Request) {
	listings, err := h.shop.Recent(r.Context(), cartID(r), isOwner(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeListings(e, listings) })
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	l, err := h.shop.ViewProduct(r.Context(), cartID(r), id, isOwner(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeListing(e, l) })
}

// productQR renders the scan code of a product: its id, which Lookup
// resolves.
func (h *Handler) productQR(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if _, err := h.shop.Product(id, isOwner(r)); err != nil {
		fail(w, r, err)
		return
	}
	png, err := qrcode.Encode(strconv.FormatInt(id, 10), qrcode.Medium, qrSize)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) shareProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	text, err := h.shop.Share(id, isOwner(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("text")
		e.Str(text)
		e.FieldStart("link")
		e.Str(handoff.WhatsAppLink("", text))
		e.ObjEnd()
	})
}

func (h *Handler) rateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	rating, set := 0, false
	if err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "rating" {
			return d.Skip()
		}
		set = true
		rating, err = d.Int()
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	if !set {
		fail(w, r, &catalog.ValidationError{Field: "rating", Reason: "is required"})
		return
	}
	if _, err := h.shop.Rate(r.Context(), id, rating); err != nil {
		fail(w, r, err)
		return
	}
	l, err := h.shop.Product(id, isOwner(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeListing(e, l) })
}

func (h *Handler) priceAlert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var target string
	if err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "targetPrice" {
			return d.Skip()
		}
		target, err = rawScalar(d)
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	alert, err := h.shop.PriceAlert(id, target, isOwner(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("satisfied")
		e.Bool(alert.Satisfied)
		e.FieldStart("message")
		e.Str(alert.Message)
		e.ObjEnd()
	})
}
