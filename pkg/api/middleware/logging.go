package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-failover/pkg/logging"
)

// Logging creates middleware that logs each request with its status and
// latency. Server errors log at error level, client errors at warn.
func Logging(logger logging.Logger) func(http.Handler) http.Handler {
	logger = logging.OrDefault(logger).With(logging.Component("http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.Path(r.URL.Path),
				logging.Int("status", sw.statusCode),
				logging.Int("bytes", sw.bytesWritten),
				logging.Latency(time.Since(start)),
			}
			if id := GetRequestID(r); id != "" {
				fields = append(fields, logging.RequestID(id))
			}

			switch {
			case sw.statusCode >= 500:
				logger.Error("request", fields...)
			case sw.statusCode >= 400:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}
