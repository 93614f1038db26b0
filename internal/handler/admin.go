package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/kastkar/krushi/internal/domain/catalog"
	"github.com/kastkar/krushi/internal/wire"
)

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	var d catalog.Draft
	if err := decodeObject(r, func(dec *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			d.Name, err = dec.Str()
		case "category":
			d.Category, err = dec.Str()
		case "price":
			d.Price, err = rawScalar(dec)
		case "company":
			d.Company, err = dec.Str()
		case "quantity":
			if dec.Next() == jx.Null {
				return dec.Null()
			}
			var q int
			q, err = dec.Int()
			d.Quantity = &q
		case "image":
			d.Image, err = dec.Str()
		case "images":
			err = dec.Arr(func(dec *jx.Decoder) error {
				s, err := dec.Str()
				d.Images = append(d.Images, s)
				return err
			})
		case "description":
			d.Description, err = dec.Str()
		case "suitableSoil":
			d.SuitableSoil, err = dec.Str()
		default:
			return dec.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.shop.AddProduct(r.Context(), d)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { wire.EncodeProduct(e, p) })
}

// updateProduct applies an edit to the product named by the path. Fields
// missing from the body keep their stored values.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	edit, err := wire.DecodeProductPatch(jx.DecodeBytes(body))
	if err != nil {
		fail(w, r, &badRequestError{err: err})
		return
	}
	out, err := h.shop.UpdateProduct(r.Context(), id, edit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeProduct(e, out) })
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.shop.RemoveProduct(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	qty, set := 0, false
	if err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		set = true
		qty, err = d.Int()
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	if !set {
		fail(w, r, &catalog.ValidationError{Field: "quantity", Reason: "is required"})
		return
	}
	p, err := h.shop.SetStock(r.Context(), id, qty)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeProduct(e, p) })
}

func (h *Handler) importCatalog(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	products, err := wire.DecodeProducts(body)
	if err != nil {
		fail(w, r, &badRequestError{err: err})
		return
	}
	if err := h.shop.ImportCatalog(r.Context(), products); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("count")
		e.Int(len(products))
		e.ObjEnd()
	})
}

func (h *Handler) exportCatalog(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="kastkar_products.json"`)
	writeRaw(w, http.StatusOK, wire.EncodeProducts(h.shop.Export()))
}

func (h *Handler) setPesticidePrices(w http.ResponseWriter, r *http.Request) {
	var visible, set bool
	if err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "visible" {
			return d.Skip()
		}
		var err error
		set = true
		visible, err = d.Bool()
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	if !set {
		fail(w, r, &catalog.ValidationError{Field: "visible", Reason: "is required"})
		return
	}
	s, err := h.shop.SetPesticidePrices(r.Context(), visible)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("showPesticidePrices")
		e.Bool(s.ShowPesticidePrices)
		e.ObjEnd()
	})
}
