package registry

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dd0wney/cluso-failover/pkg/logging"
)

// ServerResponse is the body of a successful /getServer lookup.
type ServerResponse struct {
	Code   int    `json:"code"`
	Server string `json:"server"`
}

// ErrorResponse is the body of a failed lookup.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler serves the discovery HTTP API for a Registry.
type Handler struct {
	registry *Registry
	logger   logging.Logger
}

// NewHandler creates the discovery HTTP handler.
func NewHandler(registry *Registry, logger logging.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   logging.OrDefault(logger).With(logging.Component("discovery-http")),
	}
}

// Register mounts the discovery routes on router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/getServer", h.handleGetServer).Methods(http.MethodGet)
	router.HandleFunc("/status", h.handleStatus).Methods(http.MethodGet)
}

func (h *Handler) handleGetServer(w http.ResponseWriter, r *http.Request) {
	addr, ok := h.registry.GetServer()
	if !ok {
		h.respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Code:    http.StatusServiceUnavailable,
			Message: ErrNoServers.Error(),
		})
		return
	}
	h.respondJSON(w, http.StatusOK, ServerResponse{Code: http.StatusOK, Server: addr})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.registry.GetStatus())
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("encoding JSON response", logging.Error(err))
	}
}
