package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultHealthPath is the path probed on each backend.
const DefaultHealthPath = "/health"

// Prober checks whether one backend is alive. A nil error means Alive.
// Implementations must return promptly once ctx is done.
type Prober interface {
	Probe(ctx context.Context, addr string) error
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, addr string) error

func (f ProberFunc) Probe(ctx context.Context, addr string) error {
	return f(ctx, addr)
}

// HTTPProber probes a backend with a single GET request. Any complete HTTP
// response, whatever its status code, counts as alive: the probe answers
// "is the process accepting requests", not "is it healthy".
type HTTPProber struct {
	client *http.Client
	path   string
}

// NewHTTPProber creates a prober for the given health path.
func NewHTTPProber(path string) *HTTPProber {
	if path == "" {
		path = DefaultHealthPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return &HTTPProber{
		client: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		path: path,
	}
}

// Probe issues GET addr+path. The request is bound to ctx, so the caller's
// deadline aborts it in flight.
func (p *HTTPProber) Probe(ctx context.Context, addr string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL(addr), nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// a response only counts once the body has arrived
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	return nil
}

// URL returns the probe URL for addr. Bare host:port addresses get an
// http:// scheme.
func (p *HTTPProber) URL(addr string) string {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return strings.TrimRight(addr, "/") + p.path
}
