package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes bounds catalog JSON request bodies.
const DefaultMaxBodyBytes = 1 << 20

// BodySizeLimit creates middleware that limits the size of incoming request bodies.
func BodySizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// reject early when the client declares the size
			if r.ContentLength > maxBytes {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}

			// chunked or lying clients are cut off while reading
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}
