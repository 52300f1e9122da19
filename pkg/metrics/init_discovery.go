package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initDiscoveryMetrics() {
	r.DiscoveryProbesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cluso_discovery_probes_total",
			Help: "Liveness probes by outcome",
		},
		[]string{"result"}, // alive, down
	)

	r.DiscoveryProbeDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cluso_discovery_probe_duration_seconds",
			Help:    "Liveness probe latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
	)

	r.DiscoveryAliveBackends = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "cluso_discovery_alive_backends",
			Help: "Backends found alive by the last refresh",
		},
	)

	r.DiscoveryBackendUp = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cluso_discovery_backend_up",
			Help: "1 if the backend was alive at the last refresh",
		},
		[]string{"addr"},
	)

	r.DiscoverySelectionChanges = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cluso_discovery_selection_changes_total",
			Help: "Times the current backend selection moved",
		},
	)

	r.DiscoveryRefreshDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cluso_discovery_refresh_duration_seconds",
			Help:    "Duration of a full refresh cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.DiscoveryLookupsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cluso_discovery_lookups_total",
			Help: "getServer lookups by outcome",
		},
		[]string{"result"}, // found, unavailable
	)
}
