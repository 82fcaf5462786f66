package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	m.PageLoaded()
	m.ControlDispatched("add-to-cart", nil)
	m.Transitioned("home")
	m.UnitsAdded(2)
}

func TestMetricsCountByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ControlDispatched("add-to-cart", nil)
	m.ControlDispatched("add-to-cart", errors.New("boom"))
	m.UnitsAdded(0)
	m.UnitsAdded(3)

	families, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range metric.GetLabel() {
				key += "|" + l.GetValue()
			}
			got[key] = metric.GetCounter().GetValue()
		}
	}
	require.Equal(t, 1.0, got["mitienda_control_dispatch_total|add-to-cart|ok"])
	require.Equal(t, 1.0, got["mitienda_control_dispatch_total|add-to-cart|error"])
	require.Equal(t, 3.0, got["mitienda_cart_units_added_total"])
}

func TestLoggerContextDefaultsToNop(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))

	logger := zap.NewExample()
	require.Same(t, logger, FromContext(WithLogger(context.Background(), logger)))
}

func TestNewLoggerToleratesBadLevel(t *testing.T) {
	logger, err := NewLogger("shouty")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zap.InfoLevel))
	require.False(t, logger.Core().Enabled(zap.DebugLevel))
}
