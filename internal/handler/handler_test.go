package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastkar/krushi/db"
	"github.com/kastkar/krushi/internal/domain/advisory"
	"github.com/kastkar/krushi/internal/domain/auth"
	"github.com/kastkar/krushi/internal/domain/market"
	"github.com/kastkar/krushi/internal/domain/shop"
	"github.com/kastkar/krushi/internal/domain/visitor"
	"github.com/kastkar/krushi/internal/handoff"
	"github.com/kastkar/krushi/internal/repository"
	"github.com/kastkar/krushi/internal/storage/file"
	"github.com/kastkar/krushi/internal/wire"
)

const (
	testOwnerID  = "owner"
	testOwnerKey = "s3cret"
	testCartID   = "5f0c2a3e-8d7b-4c1a-9e6f-2b4d8a1c7e90"
	otherCartID  = "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
)

var testPepper = []byte("pepper")

// --- Helpers ---

type listing struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Price        json.RawMessage `json:"price"`
	Quantity     int             `json:"quantity"`
	InStock      bool            `json:"inStock"`
	PriceVisible bool            `json:"priceVisible"`
	Image        string          `json:"image"`
	Description  string          `json:"description"`
	Rating       string          `json:"rating"`
	Ratings      []int           `json:"ratings"`
	Stock        struct {
		Level string  `json:"level"`
		Label string  `json:"label"`
		Fill  float64 `json:"fill"`
	} `json:"stock"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	store, err := file.New(t.TempDir(), false)
	require.NoError(t, err)
	repo := repository.NewSnapshotRepository(store)

	seed, err := wire.DecodeProducts(db.SeedProducts)
	require.NoError(t, err)

	svc, err := shop.NewService(ctx, repo, handoff.NewDispatcher("918999678500", nil), seed,
		shop.WithClock(func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)

	visitors, err := visitor.NewRegistry(ctx, repo)
	require.NoError(t, err)

	seedRates, err := wire.DecodeRates(db.SeedMarketRates)
	require.NoError(t, err)
	rates, err := market.NewBoard(ctx, repo, seedRates)
	require.NoError(t, err)

	verifier, err := auth.NewVerifier(auth.Owner{ID: testOwnerID, KeyHash: auth.HashKey(testPepper, testOwnerKey)}, testPepper)
	require.NoError(t, err)

	return New(Config{Location: "Keliweli"}, svc, visitors, rates, advisory.NewForecaster(1), verifier).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string, owner bool) *httptest.ResponseRecorder {
	t.Helper()
	return doCart(t, h, method, path, body, owner, testCartID)
}

// doCart sends a request as the client holding cartID. An empty cartID
// sends no cart header.
func doCart(t *testing.T, h http.Handler, method, path, body string, owner bool, cartID string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if owner {
		req.Header.Set(headerOwnerID, testOwnerID)
		req.Header.Set(headerOwnerKey, testOwnerKey)
	}
	if cartID != "" {
		req.Header.Set(headerCartID, cartID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&v), w.Body.String())
	return v
}

func ids(listings []listing) []int64 {
	out := make([]int64, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

// --- Products ---

func TestListProducts(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{name: "default sort by name", query: "", want: []int64{1, 6, 5, 3, 2, 4}},
		{name: "price low", query: "?sort=price-low", want: []int64{3, 5, 1, 2, 4, 6}},
		{name: "category", query: "?category=Seeds", want: []int64{1, 4}},
		{name: "company", query: "?company=IFFCO", want: []int64{2}},
		{name: "search description", query: "?q=BLACK%20soil", want: []int64{1}},
		{name: "search id", query: "?q=5", want: []int64{5}},
		{name: "no match", query: "?q=tractor", want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/api/products"+tt.query, "", false)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, ids(decode[[]listing](t, w)))
		})
	}
}

func TestGetProduct(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/api/products/2", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	l := decode[listing](t, w)
	assert.Equal(t, "NPK 19:19:19", l.Name)
	assert.Equal(t, "1200", string(l.Price))
	assert.Equal(t, "low", l.Stock.Level)
	assert.Equal(t, "8 left", l.Stock.Label)
	assert.InDelta(t, 0.4, l.Stock.Fill, 1e-9)
	assert.Equal(t, "4.3", l.Rating)

	w = do(t, h, http.MethodGet, "/api/products/4", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	l = decode[listing](t, w)
	assert.False(t, l.InStock)
	assert.Equal(t, "Sold Out", l.Stock.Label)

	w = do(t, h, http.MethodGet, "/api/products/recent", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int64{4, 2}, ids(decode[[]listing](t, w)))

	w = do(t, h, http.MethodGet, "/api/products/999", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/products/abc", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductExtras(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/api/products/of-the-day", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), decode[listing](t, w).ID)

	w = do(t, h, http.MethodGet, "/api/products/lookup?code=neem%20oil%20spray", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), decode[listing](t, w).ID)

	w = do(t, h, http.MethodGet, "/api/products/lookup?code=6", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(6), decode[listing](t, w).ID)

	w = do(t, h, http.MethodGet, "/api/products/lookup?code=unknown", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/products/options", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	opts := decode[struct {
		Categories []string `json:"categories"`
		Companies  []string `json:"companies"`
	}](t, w)
	assert.Equal(t, []string{"All", "Seeds", "Fertilizers", "Pesticides", "Supplements", "Equipment"}, opts.Categories)
	assert.Equal(t, "All", opts.Companies[0])
	assert.Len(t, opts.Companies, 7)

	w = do(t, h, http.MethodGet, "/api/products/1/share", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	share := decode[struct {
		Text string `json:"text"`
		Link string `json:"link"`
	}](t, w)
	assert.Equal(t, "Check out Hybrid Cotton Seeds (Bt) by Ankur Seeds at Kastkar Krushi Seva Kendra for ₹850.", share.Text)
	assert.True(t, strings.HasPrefix(share.Link, "https://wa.me/?text=Check%20out"))

	w = do(t, h, http.MethodGet, "/api/products/1/qr.png", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(t, h, http.MethodGet, "/api/products/99/qr.png", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateProduct(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/api/products/5/ratings", `{"rating":5}`, false)
	require.Equal(t, http.StatusOK, w.Code)
	l := decode[listing](t, w)
	assert.Equal(t, []int{3, 4, 5}, l.Ratings)
	assert.Equal(t, "4.0", l.Rating)

	w = do(t, h, http.MethodPost, "/api/products/5/ratings", `{"rating":6}`, false)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "rating", decode[apiError](t, w).Field)

	w = do(t, h, http.MethodPost, "/api/products/5/ratings", `{}`, false)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodPost, "/api/products/5/ratings", `not json`, false)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPriceAlert(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name          string
		body          string
		wantStatus    int
		wantSatisfied bool
		wantMessage   string
	}{
		{
			name:        "below price",
			body:        `{"targetPrice":"300"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "Alert set for Neem Oil Spray at ₹300. We will notify you!",
		},
		{
			name:          "at or above price",
			body:          `{"targetPrice":400}`,
			wantStatus:    http.StatusOK,
			wantSatisfied: true,
			wantMessage:   "Good news! Neem Oil Spray is already available at ₹350",
		},
		{name: "not a number", body: `{"targetPrice":"abc"}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "zero", body: `{"targetPrice":0}`, wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/products/3/alerts", tt.body, false)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			got := decode[struct {
				Satisfied bool   `json:"satisfied"`
				Message   string `json:"message"`
			}](t, w)
			assert.Equal(t, tt.wantSatisfied, got.Satisfied)
			assert.Equal(t, tt.wantMessage, got.Message)
		})
	}
}

// --- Cart ---

func TestCartAndCheckout(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/api/checkout", `{"name":"Ramesh","mobile":"9876543210","address":"Keliweli"}`, false)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "empty cart")

	w = do(t, h, http.MethodPost, "/api/cart/items", `{"productId":1}`, false)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, h, http.MethodPost, "/api/cart/items", `{"productId":4}`, false)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/api/cart/items", `{"productId":42}`, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/api/cart/items", `{"productId":2}`, false)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, h, http.MethodPatch, "/api/cart/items/1", `{"delta":2}`, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"productId":1,"quantity":3,"removed":false}`, w.Body.String())

	w = do(t, h, http.MethodPatch, "/api/cart/items/6", `{"delta":1}`, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/cart", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	cartBody := decode[struct {
		Total json.Number `json:"total"`
		Count int         `json:"count"`
	}](t, w)
	assert.Equal(t, "3750", cartBody.Total.String())
	assert.Equal(t, 4, cartBody.Count)

	w = do(t, h, http.MethodPost, "/api/checkout", `{"name":"Ramesh","mobile":"9876543210"}`, false)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "address", decode[apiError](t, w).Field)

	w = do(t, h, http.MethodPost, "/api/checkout", `{"name":"Ramesh","mobile":"9876543210","address":"Keliweli"}`, false)
	require.Equal(t, http.StatusCreated, w.Code)
	order := decode[struct {
		Message string `json:"message"`
		Link    string `json:"link"`
		Total   json.Number
	}](t, w)
	assert.Contains(t, order.Message, "Hybrid Cotton Seeds (Bt)")
	assert.True(t, strings.HasPrefix(order.Link, "https://wa.me/918999678500?text="))

	w = do(t, h, http.MethodGet, "/api/cart", "", false)
	assert.JSONEq(t, `{"items":[],"total":0,"count":0}`, w.Body.String())
}

func TestCart_SeparateClients(t *testing.T) {
	h := newTestHandler(t)
	checkoutBody := `{"name":"Ravi","mobile":"9123456780","address":"Akot"}`

	w := doCart(t, h, http.MethodPost, "/api/cart/items", `{"productId":1}`, false, testCartID)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doCart(t, h, http.MethodGet, "/api/cart", "", false, otherCartID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"total":0,"count":0}`, w.Body.String())

	w = doCart(t, h, http.MethodPost, "/api/checkout", checkoutBody, false, otherCartID)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "other client's cart is empty")

	w = doCart(t, h, http.MethodGet, "/api/products/3", "", false, otherCartID)
	require.Equal(t, http.StatusOK, w.Code)
	w = doCart(t, h, http.MethodGet, "/api/products/recent", "", false, testCartID)
	assert.Equal(t, []int64{}, ids(decode[[]listing](t, w)))

	w = doCart(t, h, http.MethodGet, "/api/cart", "", false, testCartID)
	cartBody := decode[struct {
		Total json.Number `json:"total"`
		Count int         `json:"count"`
	}](t, w)
	assert.Equal(t, "850", cartBody.Total.String())
	assert.Equal(t, 1, cartBody.Count)

	w = doCart(t, h, http.MethodPost, "/api/checkout", checkoutBody, false, testCartID)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestCart_IssuesSessionCookie(t *testing.T) {
	h := newTestHandler(t)

	w := doCart(t, h, http.MethodPost, "/api/cart/items", `{"productId":2}`, false, "")
	require.Equal(t, http.StatusCreated, w.Code)
	issued := w.Header().Get(headerCartID)
	require.NotEmpty(t, issued)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cartCookie, cookies[0].Name)
	assert.Equal(t, issued, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Empty(t, rec.Result().Cookies(), "known session keeps its cookie")

	w = doCart(t, h, http.MethodGet, "/api/cart", "", false, "not-a-uuid")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(headerCartID))
	assert.Contains(t, w.Body.String(), `"count":0`)
}

// --- Owner ---

func TestAdmin_RequiresOwner(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/api/admin/products", `{"name":"x","price":"1"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/catalog/export", nil)
	req.Header.Set(headerOwnerID, testOwnerID)
	req.Header.Set(headerOwnerKey, "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	w = do(t, h, http.MethodGet, "/api/admin/catalog/export", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin_ProductLifecycle(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/api/admin/products", `{"name":"  Tur Seeds ","price":"640"}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	added := decode[listing](t, w)
	assert.Equal(t, "Tur Seeds", added.Name)
	assert.Equal(t, "Seeds", added.Category)
	assert.Equal(t, 10, added.Quantity)

	w = do(t, h, http.MethodGet, "/api/products?category=Seeds&sort=price-low", "", false)
	assert.Equal(t, []int64{added.ID, 1, 4}, ids(decode[[]listing](t, w)))

	w = do(t, h, http.MethodPost, "/api/admin/products", `{"name":"","price":"10"}`, true)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "name", decode[apiError](t, w).Field)

	w = do(t, h, http.MethodPost, "/api/admin/products", `{"name":"x","price":"ten"}`, true)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "price", decode[apiError](t, w).Field)

	w = do(t, h, http.MethodPut, "/api/admin/products/2",
		`{"name":"NPK 19:19:19","category":"Fertilizers","price":1100,"quantity":30,"inStock":false,"ratings":[1]}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[listing](t, w)
	assert.True(t, updated.InStock, "inStock follows quantity")
	assert.Equal(t, []int{4, 4, 5}, updated.Ratings, "ratings are kept")

	w = do(t, h, http.MethodPut, "/api/admin/products/4", `{"name":"Renamed","price":100}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	renamed := decode[listing](t, w)
	assert.Equal(t, "Renamed", renamed.Name)
	assert.Equal(t, 0, renamed.Quantity, "absent quantity keeps the stored stock")
	assert.False(t, renamed.InStock)
	assert.NotEmpty(t, renamed.Image)
	assert.NotEmpty(t, renamed.Description)

	w = do(t, h, http.MethodPut, "/api/admin/products/4", `{"quantity":"lots"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPut, "/api/admin/products/2/stock", `{"quantity":-3}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[listing](t, w).Quantity)

	w = do(t, h, http.MethodDelete, "/api/admin/products/2", "", true)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodDelete, "/api/admin/products/2", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_ImportExport(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/api/admin/catalog/import",
		`[{"id":7,"name":"Tarpaulin","category":"Equipment","price":899,"quantity":3}]`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/admin/catalog/export", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	products, err := wire.DecodeProducts(w.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Tarpaulin", products[0].Name)

	w = do(t, h, http.MethodPost, "/api/admin/catalog/import", `[{"id":1,"name":"a"},{"id":1,"name":"b"}]`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAdmin_PesticidePrices(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPut, "/api/admin/settings/pesticide-prices", `{"visible":false}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"showPesticidePrices":false}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/products/3", "", false)
	guest := decode[listing](t, w)
	assert.False(t, guest.PriceVisible)
	assert.Nil(t, guest.Price)

	w = do(t, h, http.MethodGet, "/api/products/3", "", true)
	owner := decode[listing](t, w)
	assert.True(t, owner.PriceVisible)
	assert.Equal(t, "350", string(owner.Price))

	w = do(t, h, http.MethodGet, "/api/products/1", "", false)
	assert.True(t, decode[listing](t, w).PriceVisible)

	w = do(t, h, http.MethodGet, "/api/products/3/share", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "350")

	w = do(t, h, http.MethodPost, "/api/products/3/alerts", `{"targetPrice":400}`, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"satisfied":false`)
	assert.NotContains(t, w.Body.String(), "350")

	w = do(t, h, http.MethodGet, "/api/products/3/share", "", true)
	assert.Contains(t, w.Body.String(), "350")
}

// --- Advisory & visitors ---

func TestAdvisory(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/api/advisory/forecast", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	fc := decode[struct {
		Location string `json:"location"`
		Days     []struct {
			Condition string `json:"condition"`
			SpraySafe bool   `json:"spraySafe"`
		} `json:"days"`
	}](t, w)
	assert.Equal(t, "Keliweli", fc.Location)
	require.Len(t, fc.Days, advisory.ForecastDays)

	w = do(t, h, http.MethodGet, "/api/advisory/spray", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	a := decode[struct {
		Stage string `json:"stage"`
		Level string `json:"level"`
	}](t, w)
	assert.Equal(t, "spray", a.Stage)
	if fc.Days[0].SpraySafe {
		assert.Equal(t, "safe", a.Level)
	} else {
		assert.Equal(t, "danger", a.Level)
	}

	w = do(t, h, http.MethodGet, "/api/advisory/whatever", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stage":"general"`)
}

func TestVisitors(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/api/visitors/seen?mobile=9876543210", "", false)
	assert.JSONEq(t, `{"seen":false}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/api/visitors", `{"name":"Ramesh","mobile":"98765","village":"Keliweli"}`, false)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "mobile", decode[apiError](t, w).Field)

	w = do(t, h, http.MethodPost, "/api/visitors", `{"name":"Ramesh","mobile":"9876543210","village":"Keliweli"}`, false)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, h, http.MethodGet, "/api/visitors/seen?mobile=9876543210", "", false)
	assert.JSONEq(t, `{"seen":true}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/admin/visitors", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodGet, "/api/admin/visitors?q=keli", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]struct {
		Name    string `json:"name"`
		Village string `json:"village"`
	}](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Ramesh", list[0].Name)
}

type marketRate struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Crop      string `json:"crop"`
	Market    string `json:"market"`
	Price     string `json:"price"`
	Trend     string `json:"trend"`
	Direction string `json:"direction"`
}

func TestMarketRates(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/api/market-rates", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[[]marketRate](t, w)
	require.Len(t, board, 12)
	assert.Equal(t, "Cotton (Kapus)", board[0].Crop)
	assert.Equal(t, "₹6,850 - ₹7,200", board[0].Price)
	assert.Equal(t, "up", board[0].Direction)
	assert.NotEmpty(t, board[0].Date)
	assert.Equal(t, "down", board[11].Direction)

	w = do(t, h, http.MethodGet, "/api/market-rates?q=akot", "", false)
	assert.Len(t, decode[[]marketRate](t, w), 4)

	body := `{"crop":"Tur (Pigeon Pea)","market":"Chohotta Bazar","price":"₹9,000 - ₹9,800"}`
	w = do(t, h, http.MethodPost, "/api/admin/market-rates", body, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/api/admin/market-rates", `{"crop":"Tur","price":"₹1"}`, true)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "market", decode[apiError](t, w).Field)

	w = do(t, h, http.MethodPost, "/api/admin/market-rates", body, true)
	require.Equal(t, http.StatusCreated, w.Code)
	added := decode[marketRate](t, w)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "0.0%", added.Trend)
	assert.Equal(t, "flat", added.Direction)

	w = do(t, h, http.MethodGet, "/api/market-rates", "", false)
	board = decode[[]marketRate](t, w)
	require.Len(t, board, 13)
	assert.Equal(t, added.ID, board[0].ID, "newest first")

	w = do(t, h, http.MethodDelete, "/api/admin/market-rates/"+added.ID, "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodDelete, "/api/admin/market-rates/"+added.ID, "", true)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodDelete, "/api/admin/market-rates/"+added.ID, "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/market-rates", "", false)
	assert.Len(t, decode[[]marketRate](t, w), 12)
}

func TestCalculator(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		query  string
		status int
		want   string
		field  string
	}{
		{
			name:   "soybean",
			query:  "crop=Soybean&acres=2.5",
			status: http.StatusOK,
			want:   `{"crop":"Soybean","acres":"2.5","seed":"62.5 - 75 kg","fertilizer":"3 Bag DAP + 25 kg Sulphur"}`,
		},
		{
			name:   "cotton by key",
			query:  "crop=cotton&acres=1",
			status: http.StatusOK,
			want:   `{"crop":"Cotton","acres":"1","seed":"2 Packets (Bt Cotton)","fertilizer":"1 Bag DAP + 1 Bag Potash"}`,
		},
		{name: "zero acres", query: "crop=Wheat&acres=0", status: http.StatusUnprocessableEntity, field: "acres"},
		{name: "missing acres", query: "crop=Wheat", status: http.StatusUnprocessableEntity, field: "acres"},
		{name: "unknown crop", query: "crop=Rice&acres=1", status: http.StatusUnprocessableEntity, field: "crop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/api/calculator?"+tt.query, "", false)
			require.Equal(t, tt.status, w.Code)
			if tt.want != "" {
				assert.JSONEq(t, tt.want, w.Body.String())
			}
			if tt.field != "" {
				assert.Equal(t, tt.field, decode[apiError](t, w).Field)
			}
		})
	}

	w := do(t, h, http.MethodGet, "/api/calculator/crops", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	crops := decode[[]struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}](t, w)
	require.Len(t, crops, 4)
	assert.Equal(t, "gram", crops[3].Key)
}

func TestGuestWrite(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   bool
	}{
		{http.MethodPost, "/api/products/3/ratings", true},
		{http.MethodPost, "/api/products/3/alerts", true},
		{http.MethodPost, "/api/visitors", true},
		{http.MethodPost, "/api/checkout", true},
		{http.MethodGet, "/api/products/3", false},
		{http.MethodPost, "/api/cart/items", false},
		{http.MethodPost, "/api/admin/products", false},
		{http.MethodGet, "/api/visitors/seen", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			assert.Equal(t, tt.want, GuestWrite(req))
		})
	}
}
