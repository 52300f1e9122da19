package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dd0wney/cluso-failover/pkg/api/middleware"
	"github.com/dd0wney/cluso-failover/pkg/logging"
	"github.com/dd0wney/cluso-failover/pkg/mirror"
	"github.com/dd0wney/cluso-failover/pkg/replication"
	"github.com/dd0wney/cluso-failover/pkg/validation"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	s.respondJSON(w, status, response)
}

// respondBackendError logs the full error and sends the client a generic
// message. Both stores being unreachable is a 503; anything else is a 500.
func (s *Server) respondBackendError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	s.logger.Error(operation+" failed",
		logging.Error(err),
		logging.RequestID(middleware.GetRequestID(r)),
	)

	status := http.StatusInternalServerError
	if errors.Is(err, replication.ErrRead) || errors.Is(err, mirror.ErrAllStoresUnavailable) {
		status = http.StatusServiceUnavailable
	}
	s.respondError(w, status, fmt.Sprintf("%s failed", operation))
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// pathID parses a positive integer path variable.
func pathID(r *http.Request, name string) (int64, error) {
	return validation.ParseID(mux.Vars(r)[name])
}

// pathUserID returns the validated userId path variable.
func pathUserID(r *http.Request) (string, error) {
	id := mux.Vars(r)["userId"]
	if err := validation.ValidateUserID(id); err != nil {
		return "", err
	}
	return id, nil
}
