package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/kastkar/krushi/internal/domain/calculator"
	"github.com/kastkar/krushi/internal/domain/market"
	"github.com/kastkar/krushi/internal/wire"
)

func (h *Handler) listMarketRates(w http.ResponseWriter, r *http.Request) {
	rates := h.rates.List(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, rate := range rates {
			wire.EncodeRate(e, rate)
		}
		e.ArrEnd()
	})
}

func (h *Handler) addMarketRate(w http.ResponseWriter, r *http.Request) {
	var rate market.Rate
	if err := decodeObject(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "crop":
			rate.Crop, err = d.Str()
		case "market":
			rate.Market, err = d.Str()
		case "price":
			rate.Price, err = rawScalar(d)
		case "trend":
			rate.Trend, err = d.Str()
		case "date":
			rate.Date, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		fail(w, r, err)
		return
	}
	saved, err := h.rates.Add(r.Context(), rate)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { wire.EncodeRate(e, saved) })
}

func (h *Handler) deleteMarketRate(w http.ResponseWriter, r *http.Request) {
	if err := h.rates.Delete(r.Context(), chi.URLParam(r, "rateID")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) calculatorCrops(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range calculator.Crops() {
			e.ObjStart()
			e.FieldStart("key")
			e.Str(c.Key)
			e.FieldStart("name")
			e.Str(c.Name)
			e.ObjEnd()
		}
		e.ArrEnd()
	})
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	acres, err := calculator.ParseAcres(q.Get("acres"))
	if err != nil {
		fail(w, r, err)
		return
	}
	est, err := calculator.Calculate(q.Get("crop"), acres)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("crop")
		e.Str(est.Crop)
		e.FieldStart("acres")
		e.Str(est.Acres.String())
		e.FieldStart("seed")
		e.Str(est.Seed)
		e.FieldStart("fertilizer")
		e.Str(est.Fertilizer)
		e.ObjEnd()
	})
}
