package health

import (
	"encoding/json"
	"net/http"
)

// HTTPHandler returns an HTTP handler for the health check endpoint
func (hc *HealthChecker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := hc.Check(r.Context())

		status := http.StatusOK // degraded still serves
		if response.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeResponse(w, status, response)
	}
}

// ReadinessHandler returns an HTTP handler for readiness checks
func (hc *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeBinary(w, hc.CheckReadiness(r.Context()))
	}
}

// LivenessHandler returns an HTTP handler for liveness checks
func (hc *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeBinary(w, hc.CheckLiveness(r.Context()))
	}
}

// writeBinary maps anything but healthy to 503
func writeBinary(w http.ResponseWriter, response Response) {
	status := http.StatusOK
	if response.Status != StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	writeResponse(w, status, response)
}

func writeResponse(w http.ResponseWriter, status int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
