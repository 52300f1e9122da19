package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProberAnyResponseIsAlive(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(status)
		}))

		err := NewHTTPProber("").Probe(context.Background(), srv.URL)
		assert.NoError(t, err, "status %d", status)
		srv.Close()
	}
}

func TestHTTPProberConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	err := NewHTTPProber("/health").Probe(context.Background(), addr)
	assert.Error(t, err)
}

func TestHTTPProberTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewHTTPProber("/health").Probe(ctx, srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHTTPProberURL(t *testing.T) {
	tests := []struct {
		path, addr, want string
	}{
		{"/health", "localhost:3001", "http://localhost:3001/health"},
		{"health", "http://localhost:3001/", "http://localhost:3001/health"},
		{"", "https://api.internal", "https://api.internal/health"},
		{"/products", "10.0.0.5:8080", "http://10.0.0.5:8080/products"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewHTTPProber(tt.path).URL(tt.addr))
	}
}

func TestRegistryWithHTTPBackends(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadAddr := dead.URL
	dead.Close()

	r := newTestRegistry(t, []string{deadAddr, healthy.URL}, NewHTTPProber("/health"), testConfig())
	require.NoError(t, r.Refresh(context.Background()))

	addr, ok := r.GetServer()
	require.True(t, ok)
	assert.Equal(t, healthy.URL, addr)
}
