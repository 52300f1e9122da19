// Package middleware provides the HTTP middleware shared by the catalog and
// discovery servers.
//
// The middleware package is organized into separate files by concern:
//
//   - recovery.go: Panic recovery middleware
//   - logging.go: Structured request logging middleware
//   - cors.go: Cross-Origin Resource Sharing (CORS) middleware
//   - body_limit.go: Request body size limiting middleware
//   - request_id.go: Request ID generation and tracking middleware
//   - metrics.go: HTTP metrics collection middleware
//
// All middleware follows the standard pattern: func(http.Handler) http.Handler
// so it can be installed with gorilla/mux's Router.Use:
//
//	router := mux.NewRouter()
//	// ... register handlers ...
//
//	router.Use(
//		middleware.PanicRecovery(logger),
//		middleware.RequestID(),
//		middleware.Logging(logger),
//		middleware.Metrics(metrics.DefaultRegistry()),
//	)
package middleware
