package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dd0wney/cluso-failover/pkg/logging"
)

// PanicRecovery creates middleware that recovers from panics in HTTP handlers.
// The panic and stack are logged; the client only sees a generic 500.
func PanicRecovery(logger logging.Logger) func(http.Handler) http.Handler {
	logger = logging.OrDefault(logger).With(logging.Component("http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic in HTTP handler",
						logging.String("method", r.Method),
						logging.Path(r.URL.Path),
						logging.String("panic", fmt.Sprint(rec)),
						logging.String("stack", string(debug.Stack())),
						logging.RequestID(GetRequestID(r)),
					)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
