package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/kastkar/krushi/internal/domain/cart"
	"github.com/kastkar/krushi/internal/domain/catalog"
	"github.com/kastkar/krushi/internal/wire"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	v := h.shop.Cart(cartID(r))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, v) })
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var (
		id  int64
		set bool
	)
	if err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "productId" {
			return d.Skip()
		}
		var err error
		set = true
		id, err = wire.DecodeInt64(d)
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	if !set {
		fail(w, r, &catalog.ValidationError{Field: "productId", Reason: "is required"})
		return
	}
	it, err := h.shop.AddToCart(r.Context(), cartID(r), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeItem(e, it) })
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	delta := 0
	if err := decodeObject(r, func(d *jx.Decoder, key string) error {
		if key != "delta" {
			return d.Skip()
		}
		delta, err = d.Int()
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	qty, err := h.shop.UpdateCartQuantity(r.Context(), cartID(r), id, delta)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("productId")
		e.Int64(id)
		e.FieldStart("quantity")
		e.Int(qty)
		e.FieldStart("removed")
		e.Bool(qty == 0)
		e.ObjEnd()
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var c cart.Customer
	if err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			c.Name, err = d.Str()
		case "mobile":
			c.Mobile, err = rawScalar(d)
		case "address":
			c.Address, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.shop.Checkout(r.Context(), cartID(r), c)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}
