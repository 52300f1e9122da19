package replication

import "time"

// Config configures the async coordinator.
type Config struct {
	// FlushInterval is the period between flush attempts.
	FlushInterval time.Duration
	// FlushOnShutdown makes Stop attempt one last flush before returning.
	FlushOnShutdown bool
	// ShutdownTimeout bounds that final flush.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default flush schedule.
func DefaultConfig() Config {
	return Config{
		FlushInterval:   5 * time.Second,
		FlushOnShutdown: true,
		ShutdownTimeout: 10 * time.Second,
	}
}
