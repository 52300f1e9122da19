package api

import "errors"

var (
	// ErrNotFound is returned when a product lookup matches nothing
	ErrNotFound = errors.New("not found")

	// ErrUnexpectedValue is returned when a column holds a value the
	// handler cannot convert
	ErrUnexpectedValue = errors.New("unexpected column value")
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
