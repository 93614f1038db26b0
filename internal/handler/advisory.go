package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/kastkar/krushi/internal/domain/advisory"
)

func (h *Handler) forecast(w http.ResponseWriter, _ *http.Request) {
	days := h.forecaster.Forecast(h.location)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("location")
		e.Str(h.location)
		e.FieldStart("days")
		e.ArrStart()
		for _, d := range days {
			encodeDay(e, d)
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// advice evaluates the first forecast day for the stage in the path.
func (h *Handler) advice(w http.ResponseWriter, r *http.Request) {
	stage := advisory.ParseStage(chi.URLParam(r, "stage"))
	days := h.forecaster.Forecast(h.location)
	a := advisory.Advise(stage, days[0])
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeAdvice(e, a) })
}
