package registry

import "errors"

var (
	// ErrProbe wraps a failed liveness probe. It never leaves a refresh
	// cycle; it is recorded as the backend's LastError.
	ErrProbe = errors.New("probe failed")

	// ErrNoServers is returned when no backend is currently Alive.
	ErrNoServers = errors.New("no servers available")

	ErrNoBackends       = errors.New("registry needs at least one backend")
	ErrDuplicateBackend = errors.New("duplicate backend address")
	ErrInvalidConfig    = errors.New("invalid registry config")
	ErrAlreadyStarted   = errors.New("registry already started")
	ErrUnknownPolicy    = errors.New("unknown selection policy")
)
