package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initMirrorMetrics() {
	r.MirrorQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cluso_mirror_queries_total",
			Help: "Sync-mode queries by the store whose result was returned",
		},
		[]string{"source"}, // primary, secondary, none
	)

	r.MirrorApplyTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cluso_mirror_apply_total",
			Help: "Best-effort secondary applies after a primary success",
		},
		[]string{"result"}, // ok, error
	)
}
