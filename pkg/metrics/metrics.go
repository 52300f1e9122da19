package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// SetPending publishes the pending queue depth and the enqueue time of its head
func (r *Registry) SetPending(depth int, oldest time.Time) {
	r.ReplicationPendingChanges.Set(float64(depth))
	if depth == 0 || oldest.IsZero() {
		r.ReplicationOldestPendingAt.Set(0)
		return
	}
	r.ReplicationOldestPendingAt.Set(float64(oldest.UnixNano()) / 1e9)
}

// RecordFlush records one flush attempt
func (r *Registry) RecordFlush(committed bool, changes int, duration time.Duration) {
	r.ReplicationFlushDuration.Observe(duration.Seconds())
	if !committed {
		r.ReplicationFlushesTotal.WithLabelValues("failed").Inc()
		return
	}
	r.ReplicationFlushesTotal.WithLabelValues("committed").Inc()
	r.ReplicationFlushedChanges.Add(float64(changes))
}

// RecordProbe records one liveness probe. The per-backend gauge is set
// separately by SetBackendUp once the probe result is applied.
func (r *Registry) RecordProbe(alive bool, duration time.Duration) {
	r.DiscoveryProbeDuration.Observe(duration.Seconds())
	if alive {
		r.DiscoveryProbesTotal.WithLabelValues("alive").Inc()
		return
	}
	r.DiscoveryProbesTotal.WithLabelValues("down").Inc()
}

// SetBackendUp mirrors a backend's stored state
func (r *Registry) SetBackendUp(addr string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	r.DiscoveryBackendUp.WithLabelValues(addr).Set(v)
}

// ResultLabel maps an error to the "ok"/"error" label pair
func ResultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// IncHTTPRequestsInFlight marks a request as started
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight marks a request as finished
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}
