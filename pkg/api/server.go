package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dd0wney/cluso-failover/pkg/api/middleware"
	"github.com/dd0wney/cluso-failover/pkg/health"
	"github.com/dd0wney/cluso-failover/pkg/logging"
	"github.com/dd0wney/cluso-failover/pkg/metrics"
)

// Server represents the catalog HTTP API server
type Server struct {
	backend       Backend
	status        StatusFunc
	healthChecker *health.HealthChecker
	metrics       *metrics.Registry
	logger        logging.Logger
	corsConfig    *middleware.CORSConfig
	maxBodyBytes  int64
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server logger
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics exposes m on /metrics and records HTTP metrics into it
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealthChecker serves hc on the /health endpoints
func WithHealthChecker(hc *health.HealthChecker) Option {
	return func(s *Server) { s.healthChecker = hc }
}

// WithStatus serves fn on /replication/status
func WithStatus(fn StatusFunc) Option {
	return func(s *Server) { s.status = fn }
}

// WithCORS overrides the CORS configuration. nil disables CORS headers.
func WithCORS(cfg *middleware.CORSConfig) Option {
	return func(s *Server) { s.corsConfig = cfg }
}

// WithMaxBodyBytes bounds request bodies
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// NewServer creates a catalog server over backend
func NewServer(backend Backend, opts ...Option) *Server {
	s := &Server{
		backend:      backend,
		corsConfig:   middleware.DefaultCORSConfig(),
		maxBodyBytes: middleware.DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger).With(logging.Component("catalog"))
	if s.healthChecker == nil {
		s.healthChecker = health.NewHealthChecker()
		s.healthChecker.RegisterLivenessCheck("catalog", health.SimpleCheck("catalog"))
	}
	return s
}

// Handler builds the routed, middleware-wrapped handler
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	// Health and metrics
	router.HandleFunc("/health", s.healthChecker.HTTPHandler()).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", s.healthChecker.ReadinessHandler()).Methods(http.MethodGet)
	router.HandleFunc("/health/live", s.healthChecker.LivenessHandler()).Methods(http.MethodGet)
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	router.HandleFunc("/replication/status", s.handleReplicationStatus).Methods(http.MethodGet)

	// Products
	router.HandleFunc("/products", s.handleListProducts).Methods(http.MethodGet)
	router.HandleFunc("/products", s.handleCreateProduct).Methods(http.MethodPost)
	router.HandleFunc("/products/{id}", s.handleGetProduct).Methods(http.MethodGet)
	router.HandleFunc("/products/{id}", s.handleUpdateProduct).Methods(http.MethodPut)
	router.HandleFunc("/products/{id}", s.handleDeleteProduct).Methods(http.MethodDelete)

	// Cart
	router.HandleFunc("/cart/{userId}", s.handleAddToCart).Methods(http.MethodPost)
	router.HandleFunc("/cart/{userId}", s.handleGetCart).Methods(http.MethodGet)
	router.HandleFunc("/cart/{userId}/item/{productId}", s.handleRemoveFromCart).Methods(http.MethodDelete)

	// Orders
	router.HandleFunc("/orders", s.handlePlaceOrder).Methods(http.MethodPost)
	router.HandleFunc("/orders/{userId}", s.handleGetOrders).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if s.metrics != nil {
		router.Use(middleware.Metrics(s.metrics))
	}

	var handler http.Handler = router
	handler = middleware.BodySizeLimit(s.maxBodyBytes)(handler)
	handler = middleware.CORS(s.corsConfig)(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.PanicRecovery(s.logger)(handler)
	return handler
}

func (s *Server) handleReplicationStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		s.respondError(w, http.StatusNotFound, "Replication status not available")
		return
	}
	s.respondJSON(w, http.StatusOK, s.status())
}
