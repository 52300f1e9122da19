package registry

import (
	"fmt"
	"time"
)

// State is the liveness of a backend as of its last probe.
type State int

const (
	Alive State = iota
	Down
)

func (s State) String() string {
	switch s {
	case Alive:
		return "alive"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state as "alive" or "down".
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Backend is one candidate request-serving process.
type Backend struct {
	Addr      string    `json:"url"`
	State     State     `json:"status"`
	LastProbe time.Time `json:"last_probe,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// SelectionPolicy decides how the current backend moves between refreshes.
type SelectionPolicy string

const (
	// SelectionPriority moves to the first Alive backend in registration
	// order after every refresh, so a recovered higher-priority backend is
	// preferred again.
	SelectionPriority SelectionPolicy = "priority"

	// SelectionSticky keeps the current backend until it goes Down, then
	// moves to the first Alive backend in registration order.
	SelectionSticky SelectionPolicy = "sticky"
)

// ParseSelectionPolicy parses a policy name. The empty string selects
// SelectionPriority.
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch SelectionPolicy(s) {
	case "", SelectionPriority:
		return SelectionPriority, nil
	case SelectionSticky:
		return SelectionSticky, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// ServerStatus is one entry of a Status report.
type ServerStatus struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

// Status is a point-in-time view of every backend and the current selection.
type Status struct {
	Servers       []ServerStatus `json:"servers"`
	CurrentServer string         `json:"currentServer"`
}

// Config controls probing and selection.
type Config struct {
	// ProbeInterval is the time between refresh cycles.
	ProbeInterval time.Duration

	// ProbeTimeout bounds one probe. A probe still running at the deadline
	// is cancelled and the backend is marked Down.
	ProbeTimeout time.Duration

	// ProbeConcurrency is the number of probes in flight during a refresh.
	// 1 probes strictly one after another.
	ProbeConcurrency int

	Selection SelectionPolicy
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() Config {
	return Config{
		ProbeInterval:    5 * time.Second,
		ProbeTimeout:     2 * time.Second,
		ProbeConcurrency: 1,
		Selection:        SelectionPriority,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("%w: probe interval must be positive", ErrInvalidConfig)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("%w: probe timeout must be positive", ErrInvalidConfig)
	}
	if c.ProbeTimeout >= c.ProbeInterval {
		return fmt.Errorf("%w: probe timeout %s must be shorter than probe interval %s",
			ErrInvalidConfig, c.ProbeTimeout, c.ProbeInterval)
	}
	if c.ProbeConcurrency < 1 {
		return fmt.Errorf("%w: probe concurrency must be at least 1", ErrInvalidConfig)
	}
	if _, err := ParseSelectionPolicy(string(c.Selection)); err != nil {
		return err
	}
	return nil
}
