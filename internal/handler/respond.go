package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kastkar/krushi/internal/domain/auth"
	"github.com/kastkar/krushi/internal/domain/cart"
	"github.com/kastkar/krushi/internal/domain/catalog"
	"github.com/kastkar/krushi/internal/domain/market"
	"github.com/kastkar/krushi/internal/domain/shop"
	"github.com/kastkar/krushi/pkg/httpmiddleware"
)

const maxBodyBytes = 4 << 20

// badRequestError wraps malformed input.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return &badRequestError{err: errors.Errorf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)
	writeRaw(w, status, e.Bytes())
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, badRequest("read body: %v", err)
	}
	if len(body) == 0 {
		return nil, badRequest("request body is required")
	}
	return body, nil
}

// decodeObject reads the request body as a JSON object, calling fn per key.
func decodeObject(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if err := jx.DecodeBytes(body).Obj(fn); err != nil {
		var vErr *catalog.ValidationError
		if errors.As(err, &vErr) {
			return err
		}
		return &badRequestError{err: errors.Wrap(err, "decode body")}
	}
	return nil
}

// rawScalar returns a JSON string or number as text.
func rawScalar(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Null:
		return "", d.Null()
	default:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	}
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest("invalid product id %q", raw)
	}
	return id, nil
}

func isOwner(r *http.Request) bool {
	return auth.IsOwner(r.Context())
}

// fail maps domain errors to API errors.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		vErr    *catalog.ValidationError
		badReq  *badRequestError
		notCart *cart.NotInCartError
	)
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("code")
			e.Int(http.StatusUnprocessableEntity)
			e.FieldStart("message")
			e.Str(vErr.Error())
			e.FieldStart("field")
			e.Str(vErr.Field)
			e.ObjEnd()
		})
	case errors.As(err, &badReq):
		httpmiddleware.WriteError(w, http.StatusBadRequest, badReq.Error())
	case errors.Is(err, shop.ErrNoSession):
		httpmiddleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, market.ErrNotFound), errors.As(err, &notCart):
		httpmiddleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrOutOfStock):
		httpmiddleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrEmptyCart), errors.Is(err, catalog.ErrInvalidTarget):
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		httpmiddleware.WriteError(w, http.StatusUnauthorized, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
