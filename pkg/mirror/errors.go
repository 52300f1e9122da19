package mirror

import "errors"

var (
	// ErrAllStoresUnavailable is returned when both the primary and the
	// secondary rejected a statement.
	ErrAllStoresUnavailable = errors.New("all stores unavailable")
)
