// Package handler exposes the shop over HTTP with chi routes and jx bodies.
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kastkar/krushi/internal/domain/advisory"
	"github.com/kastkar/krushi/internal/domain/auth"
	"github.com/kastkar/krushi/internal/domain/market"
	"github.com/kastkar/krushi/internal/domain/shop"
	"github.com/kastkar/krushi/internal/domain/visitor"
)

// Config holds non-dependency settings for the Handler.
type Config struct {
	// Location names the area the weather forecast is generated for.
	Location string
}

// Handler serves the shop API.
type Handler struct {
	shop       *shop.Service
	visitors   *visitor.Registry
	rates      *market.Board
	forecaster *advisory.Forecaster
	verifier   *auth.Verifier
	location   string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	svc *shop.Service,
	visitors *visitor.Registry,
	rates *market.Board,
	forecaster *advisory.Forecaster,
	verifier *auth.Verifier,
) *Handler {
	return &Handler{
		shop:       svc,
		visitors:   visitors,
		rates:      rates,
		forecaster: forecaster,
		verifier:   verifier,
		location:   cfg.Location,
	}
}

// Register adds the /api routes to r.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.identify)

		r.Get("/api/products", h.listProducts)
		r.Get("/api/products/options", h.productOptions)
		r.Get("/api/products/of-the-day", h.productOfTheDay)
		r.Get("/api/products/lookup", h.lookupProduct)
		r.Get("/api/products/{id}/qr.png", h.productQR)
		r.Get("/api/products/{id}/share", h.shareProduct)
		r.Post("/api/products/{id}/ratings", h.rateProduct)
		r.Post("/api/products/{id}/alerts", h.priceAlert)

		r.Group(func(r chi.Router) {
			r.Use(cartSession)

			r.Get("/api/products/recent", h.recentProducts)
			r.Get("/api/products/{id}", h.getProduct)

			r.Get("/api/cart", h.getCart)
			r.Post("/api/cart/items", h.addCartItem)
			r.Patch("/api/cart/items/{id}", h.updateCartItem)
			r.Post("/api/checkout", h.checkout)
		})

		r.Get("/api/advisory/forecast", h.forecast)
		r.Get("/api/advisory/{stage}", h.advice)
		r.Get("/api/market-rates", h.listMarketRates)
		r.Get("/api/calculator", h.calculate)
		r.Get("/api/calculator/crops", h.calculatorCrops)

		r.Post("/api/visitors", h.registerVisitor)
		r.Get("/api/visitors/seen", h.visitorSeen)

		r.Group(func(r chi.Router) {
			r.Use(requireOwner)

			r.Post("/api/admin/products", h.addProduct)
			r.Put("/api/admin/products/{id}", h.updateProduct)
			r.Delete("/api/admin/products/{id}", h.deleteProduct)
			r.Put("/api/admin/products/{id}/stock", h.setStock)
			r.Post("/api/admin/catalog/import", h.importCatalog)
			r.Get("/api/admin/catalog/export", h.exportCatalog)
			r.Put("/api/admin/settings/pesticide-prices", h.setPesticidePrices)
			r.Get("/api/admin/visitors", h.listVisitors)
			r.Post("/api/admin/market-rates", h.addMarketRate)
			r.Delete("/api/admin/market-rates/{rateID}", h.deleteMarketRate)
		})
	})
}

// GuestWrite reports whether r is one of the POST routes any visitor may
// call to change state or send a message. These get their own rate budget.
func GuestWrite(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	switch p := r.URL.Path; {
	case p == "/api/checkout", p == "/api/visitors":
		return true
	case strings.HasPrefix(p, "/api/products/"):
		return strings.HasSuffix(p, "/ratings") || strings.HasSuffix(p, "/alerts")
	}
	return false
}

// Routes returns a router with only the API routes, for tests and tools.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}
