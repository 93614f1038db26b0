// Package metrics exposes Prometheus collectors for shop activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// ShopMetrics counts catalog mutations, cart events and placed orders. A nil
// *ShopMetrics is valid and records nothing.
type ShopMetrics struct {
	mutations  *prometheus.CounterVec
	cartEvents *prometheus.CounterVec
	orders     prometheus.Counter
	orderValue prometheus.Histogram
	products   prometheus.Gauge
	sessions   prometheus.Gauge
}

// NewShopMetrics registers the shop collectors on reg.
func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		return &ShopMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kastkar",
		Name:      "catalog_mutations_total",
		Help:      "Catalog mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	cartEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kastkar",
		Name:      "cart_events_total",
		Help:      "Cart changes by event and outcome.",
	}, []string{"event", "outcome"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kastkar",
		Name:      "orders_total",
		Help:      "Orders handed off to the shop.",
	})
	orderValue := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kastkar",
		Name:      "order_value_rupees",
		Help:      "Grand total of handed off orders.",
		Buckets:   []float64{100, 500, 1000, 2500, 5000, 10000, 25000, 50000},
	})
	products := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kastkar",
		Name:      "catalog_products",
		Help:      "Number of products in the catalog.",
	})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kastkar",
		Name:      "cart_sessions",
		Help:      "Cart sessions held in memory.",
	})
	reg.MustRegister(mutations, cartEvents, orders, orderValue, products, sessions)
	return &ShopMetrics{
		mutations:  mutations,
		cartEvents: cartEvents,
		orders:     orders,
		orderValue: orderValue,
		products:   products,
		sessions:   sessions,
	}
}

// Mutation counts a catalog operation.
func (m *ShopMetrics) Mutation(op, outcome string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// CartEvent counts a cart change.
func (m *ShopMetrics) CartEvent(event, outcome string) {
	if m == nil || m.cartEvents == nil {
		return
	}
	m.cartEvents.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

// Order records a handed off order and its total.
func (m *ShopMetrics) Order(total float64) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.Inc()
	m.orderValue.Observe(total)
}

// Products sets the catalog size.
func (m *ShopMetrics) Products(n int) {
	if m == nil || m.products == nil {
		return
	}
	m.products.Set(float64(n))
}

// Sessions sets the number of live cart sessions.
func (m *ShopMetrics) Sessions(n int) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
