// Package metrics holds the Prometheus collectors of the compiler and the
// compile service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aslgraph"

// Metrics holds prometheus metrics for compilation and the HTTP service.
type Metrics struct {
	compileTime   *prometheus.HistogramVec
	statesEmitted prometheus.Histogram
	statesRemoved prometheus.Counter
	requests      *prometheus.CounterVec
}

// New creates an unregistered set of collectors.
func New() *Metrics {
	return &Metrics{
		compileTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "compiler",
				Name:      "compile_duration_seconds",
				Help:      "Time to compile a fragment tree into a state machine.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
			},
			[]string{"result"}, // "success" or "error"
		),
		statesEmitted: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "compiler",
				Name:      "states_emitted",
				Help:      "Number of states in each compiled machine.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		statesRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "compiler",
				Name:      "states_optimized_away_total",
				Help:      "States dropped by the optimization passes.",
			},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Compile service requests by route and status code.",
			},
			[]string{"route", "code"},
		),
	}
}

// ObserveCompile records one compilation and its outcome.
func (m *Metrics) ObserveCompile(durationSeconds float64, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.compileTime.WithLabelValues(result).Observe(durationSeconds)
}

// ObserveStates records the size of a machine before and after optimization.
func (m *Metrics) ObserveStates(flattened, emitted int) {
	if m == nil {
		return
	}
	m.statesEmitted.Observe(float64(emitted))
	if removed := flattened - emitted; removed > 0 {
		m.statesRemoved.Add(float64(removed))
	}
}

// ObserveRequest counts one HTTP request.
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// MustRegister registers the metrics with the given Prometheus registry.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(m.compileTime)
	registry.MustRegister(m.statesEmitted)
	registry.MustRegister(m.statesRemoved)
	registry.MustRegister(m.requests)
}
