package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShopMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewShopMetrics(reg)

	m.Mutation("add", OutcomeOK)
	m.Mutation("add", OutcomeOK)
	m.Mutation("", OutcomeRejected)
	m.CartEvent("add", OutcomeRejected)
	m.Order(2050)
	m.Products(6)
	m.Sessions(3)

	assert.InDelta(t, 2, testutil.ToFloat64(m.mutations.WithLabelValues("add", OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.mutations.WithLabelValues("unknown", OutcomeRejected)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cartEvents.WithLabelValues("add", OutcomeRejected)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.orders), 0)
	assert.InDelta(t, 6, testutil.ToFloat64(m.products), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.sessions), 0)

	n, err := testutil.GatherAndCount(reg, "kastkar_order_value_rupees")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestShopMetrics_NilSafe(t *testing.T) {
	var m *ShopMetrics
	assert.NotPanics(t, func() {
		m.Mutation("add", OutcomeOK)
		m.CartEvent("add", OutcomeOK)
		m.Order(10)
		m.Products(1)
		m.Sessions(1)
	})

	empty := NewShopMetrics(nil)
	assert.NotPanics(t, func() { empty.Order(10) })
}
