// Package metrics holds the fulfillment pipeline's Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all fulfillment metrics. Construct once per registry; tests
// pass a fresh prometheus.NewRegistry to avoid duplicate registration.
type Metrics struct {
	Fulfillments   *prometheus.CounterVec
	ItemsFulfilled prometheus.Counter
	Duration       prometheus.Histogram
	SignedURLMints prometheus.Counter
}

// New creates and registers all fulfillment metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Fulfillments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "beatvault_fulfillments_total",
			Help: "Fulfillment requests by terminal result.",
		}, []string{"result"}),
		ItemsFulfilled: factory.NewCounter(prometheus.CounterOpts{
			Name: "beatvault_items_fulfilled_total",
			Help: "Individual entitlements delivered (one per purchase record).",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "beatvault_fulfillment_duration_seconds",
			Help:    "End-to-end fulfillment latency.",
			Buckets: prometheus.DefBuckets,
		}),
		SignedURLMints: factory.NewCounter(prometheus.CounterOpts{
			Name: "beatvault_signed_urls_minted_total",
			Help: "Signed download URLs minted, including dashboard refreshes.",
		}),
	}
}

// ObserveFulfillment records one terminal fulfillment outcome.
func (m *Metrics) ObserveFulfillment(result string, items int, elapsed time.Duration) {
	m.Fulfillments.WithLabelValues(result).Inc()
	m.ItemsFulfilled.Add(float64(items))
	m.Duration.Observe(elapsed.Seconds())
}
