package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for one process
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Async replication metrics
	ReplicationPendingChanges  prometheus.Gauge
	ReplicationWritesTotal     *prometheus.CounterVec
	ReplicationReadsTotal      *prometheus.CounterVec
	ReplicationFlushesTotal    *prometheus.CounterVec
	ReplicationFlushedChanges  prometheus.Counter
	ReplicationFlushDuration   prometheus.Histogram
	ReplicationOldestPendingAt prometheus.Gauge

	// Sync mirror metrics
	MirrorQueriesTotal *prometheus.CounterVec
	MirrorApplyTotal   *prometheus.CounterVec

	// Discovery metrics
	DiscoveryProbesTotal      *prometheus.CounterVec
	DiscoveryProbeDuration    prometheus.Histogram
	DiscoveryAliveBackends    prometheus.Gauge
	DiscoveryBackendUp        *prometheus.GaugeVec
	DiscoverySelectionChanges prometheus.Counter
	DiscoveryRefreshDuration  prometheus.Histogram
	DiscoveryLookupsTotal     *prometheus.CounterVec

	// System Metrics
	UptimeSeconds prometheus.Gauge
	GoRoutines    prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)
