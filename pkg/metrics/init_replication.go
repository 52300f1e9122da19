package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initReplicationMetrics() {
	r.ReplicationPendingChanges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "cluso_replication_pending_changes",
			Help: "Changes committed on primary and not yet flushed to secondary",
		},
	)

	r.ReplicationWritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cluso_replication_writes_total",
			Help: "Writes issued to primary in async mode",
		},
		[]string{"result"}, // ok, error
	)

	r.ReplicationReadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cluso_replication_reads_total",
			Help: "Reads served in async mode by the store that answered",
		},
		[]string{"source"}, // primary, secondary, none
	)

	r.ReplicationFlushesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cluso_replication_flushes_total",
			Help: "Flush attempts against secondary",
		},
		[]string{"result"}, // committed, failed
	)

	r.ReplicationFlushedChanges = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cluso_replication_flushed_changes_total",
			Help: "Changes replayed and committed on secondary",
		},
	)

	r.ReplicationFlushDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cluso_replication_flush_duration_seconds",
			Help:    "Duration of flush transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	r.ReplicationOldestPendingAt = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "cluso_replication_oldest_pending_timestamp_seconds",
			Help: "Enqueue time of the oldest unflushed change, 0 when the queue is empty",
		},
	)
}
