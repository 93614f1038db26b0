package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/kastkar/krushi/internal/domain/visitor"
	"github.com/kastkar/krushi/internal/wire"
)

func (h *Handler) registerVisitor(w http.ResponseWriter, r *http.Request) {
	var v visitor.Visitor
	if err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			v.Name, err = d.Str()
		case "mobile":
			v.Mobile, err = rawScalar(d)
		case "village":
			v.Village, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	saved, err := h.visitors.Register(r.Context(), v)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { wire.EncodeVisitor(e, saved) })
}

func (h *Handler) visitorSeen(w http.ResponseWriter, r *http.Request) {
	mobile := r.URL.Query().Get("mobile")
	if mobile == "" {
		fail(w, r, badRequest("mobile is required"))
		return
	}
	seen := h.visitors.Seen(mobile)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("seen")
		e.Bool(seen)
		e.ObjEnd()
	})
}

func (h *Handler) listVisitors(w http.ResponseWriter, r *http.Request) {
	visitors := h.visitors.List(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeVisitors(e, visitors) })
}
