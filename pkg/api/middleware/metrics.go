package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// MetricsRecorder is an interface for recording HTTP metrics
type MetricsRecorder interface {
	RecordHTTPRequest(method, route, status string, duration time.Duration)
	IncHTTPRequestsInFlight()
	DecHTTPRequestsInFlight()
}

// unmatchedRoute labels requests that reached no registered route
const unmatchedRoute = "unmatched"

// routeLabel returns the mux path template (e.g. /products/{id}) so label
// cardinality stays bounded by the route table.
func routeLabel(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unmatchedRoute
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tmpl
}

// Metrics creates middleware that tracks HTTP request metrics. Install it
// with Router.Use so the matched route is known.
func Metrics(recorder MetricsRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if recorder == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			recorder.IncHTTPRequestsInFlight()
			defer recorder.DecHTTPRequestsInFlight()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			recorder.RecordHTTPRequest(r.Method, routeLabel(r), strconv.Itoa(sw.statusCode), time.Since(start))
		})
	}
}
