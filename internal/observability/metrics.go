package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "mitienda"

// Metrics counts storefront activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	pageLoads   prometheus.Counter
	controls    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	units       prometheus.Counter
}

// NewMetrics registers the storefront collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pageLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "page_loads_total",
			Help:      "Storefront page sessions opened.",
		}),
		controls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "control_dispatch_total",
			Help:      "Control activations by control and outcome.",
		}, []string{"control", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "navigation_transitions_total",
			Help:      "Navigation transitions by target state.",
		}, []string{"state"}),
		units: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cart_units_added_total",
			Help:      "Units added to carts.",
		}),
	}
	reg.MustRegister(m.pageLoads, m.controls, m.transitions, m.units)
	return m
}

// PageLoaded counts one page session.
func (m *Metrics) PageLoaded() {
	if m == nil {
		return
	}
	m.pageLoads.Inc()
}

// ControlDispatched counts one control activation.
func (m *Metrics) ControlDispatched(control string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.controls.WithLabelValues(control, outcome).Inc()
}

// Transitioned counts one navigation transition.
func (m *Metrics) Transitioned(state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state).Inc()
}

// UnitsAdded counts units put into a cart.
func (m *Metrics) UnitsAdded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.units.Add(float64(n))
}
