// Package config loads the process configuration from a YAML file and the
// environment. Configuration is read once at startup and not reloaded.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-failover/pkg/logging"
	"github.com/dd0wney/cluso-failover/pkg/registry"
	"github.com/dd0wney/cluso-failover/pkg/replication"
	"github.com/dd0wney/cluso-failover/pkg/store"
	"github.com/dd0wney/cluso-failover/pkg/validation"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrReadConfig    = errors.New("cannot read configuration file")
)

// Replication modes.
const (
	ModeAsync = "async"
	ModeSync  = "sync"
)

// Environment variables that override file values.
const (
	EnvPrimaryURL   = "CLUSO_PRIMARY_URL"
	EnvSecondaryURL = "CLUSO_SECONDARY_URL"
	EnvMode         = "CLUSO_MODE"
	EnvBackends     = "CLUSO_BACKENDS"
	EnvLogLevel     = "LOG_LEVEL"
)

// Config is the full process configuration.
type Config struct {
	Primary     StoreConfig       `yaml:"primary"`
	Secondary   StoreConfig       `yaml:"secondary"`
	Replication ReplicationConfig `yaml:"replication"`
	Registry    RegistryConfig    `yaml:"registry"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	LogLevel    string            `yaml:"log_level"`
}

// StoreConfig describes one PostgreSQL connection pool.
type StoreConfig struct {
	URL             string        `yaml:"url"`
	MaxConns        int32         `yaml:"max_conns" validate:"gte=0"`
	MinConns        int32         `yaml:"min_conns" validate:"gte=0"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
}

// ReplicationConfig selects and tunes the replication strategy.
type ReplicationConfig struct {
	Mode            string        `yaml:"mode" validate:"required,oneof=async sync"`
	FlushInterval   time.Duration `yaml:"flush_interval"`
	FlushOnShutdown bool          `yaml:"flush_on_shutdown"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RegistryConfig configures the discovery service.
type RegistryConfig struct {
	Listen           string        `yaml:"listen" validate:"required"`
	Backends         []string      `yaml:"backends"`
	ProbeInterval    time.Duration `yaml:"probe_interval"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout"`
	HealthPath       string        `yaml:"health_path" validate:"required,startswith=/"`
	ProbeConcurrency int           `yaml:"probe_concurrency"`
	Selection        string        `yaml:"selection" validate:"omitempty,oneof=priority sticky"`
}

// CatalogConfig configures the catalog API server.
type CatalogConfig struct {
	Listen string `yaml:"listen" validate:"required"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	repl := replication.DefaultConfig()
	reg := registry.DefaultConfig()
	return &Config{
		Primary:   defaultStoreConfig(),
		Secondary: defaultStoreConfig(),
		Replication: ReplicationConfig{
			Mode:            ModeAsync,
			FlushInterval:   repl.FlushInterval,
			FlushOnShutdown: repl.FlushOnShutdown,
			ShutdownTimeout: repl.ShutdownTimeout,
		},
		Registry: RegistryConfig{
			Listen:           ":3000",
			ProbeInterval:    reg.ProbeInterval,
			ProbeTimeout:     reg.ProbeTimeout,
			HealthPath:       registry.DefaultHealthPath,
			ProbeConcurrency: reg.ProbeConcurrency,
			Selection:        string(reg.Selection),
		},
		Catalog:  CatalogConfig{Listen: ":3001"},
		LogLevel: "info",
	}
}

func defaultStoreConfig() StoreConfig {
	opts := store.DefaultOptions("")
	return StoreConfig{
		MaxConns:        opts.MaxConns,
		MinConns:        opts.MinConns,
		MaxConnLifetime: opts.MaxConnLifetime,
		MaxConnIdleTime: opts.MaxConnIdleTime,
		ConnectTimeout:  opts.ConnectTimeout,
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides. The result is not validated; call Validate or the
// mode-specific checks.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadConfig, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up with
// getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvPrimaryURL); v != "" {
		c.Primary.URL = v
	}
	if v := getenv(EnvSecondaryURL); v != "" {
		c.Secondary.URL = v
	}
	if v := getenv(EnvMode); v != "" {
		c.Replication.Mode = strings.ToLower(v)
	}
	if v := getenv(EnvBackends); v != "" {
		var backends []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				backends = append(backends, b)
			}
		}
		c.Registry.Backends = backends
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.ValidateCatalog(); err != nil {
		return err
	}
	return c.ValidateRegistry()
}

// ValidateCatalog checks what the catalog server needs: both stores and the
// replication settings.
func (c *Config) ValidateCatalog() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cv := validation.NewConfigValidator("Config").
		Required("Primary.URL", c.Primary.URL).
		Required("Secondary.URL", c.Secondary.URL).
		Required("Catalog.Listen", c.Catalog.Listen).
		When(c.LogLevel != "", func(cv *validation.ConfigValidator) {
			cv.OneOf("LogLevel", strings.ToLower(c.LogLevel), []string{"debug", "info", "warn", "warning", "error"})
		}).
		When(c.Primary.URL != "" && c.Primary.URL == c.Secondary.URL, func(cv *validation.ConfigValidator) {
			cv.Custom("Secondary.URL", func() error {
				return errors.New("must differ from Primary.URL")
			})
		}).
		When(c.Replication.Mode == ModeAsync, func(cv *validation.ConfigValidator) {
			cv.MinDuration("Replication.FlushInterval", c.Replication.FlushInterval, 10*time.Millisecond)
		})

	if err := cv.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateRegistry checks what the discovery service needs.
func (c *Config) ValidateRegistry() error {
	if err := validation.Struct(&c.Registry); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cv := validation.NewConfigValidator("Config").
		Positive("Registry.Backends", len(c.Registry.Backends)).
		Distinct("Registry.Backends", c.Registry.Backends).
		Positive("Registry.ProbeConcurrency", c.Registry.ProbeConcurrency).
		MinDuration("Registry.ProbeTimeout", c.Registry.ProbeTimeout, time.Millisecond).
		Shorter("Registry.ProbeTimeout", c.Registry.ProbeTimeout, c.Registry.ProbeInterval, "Registry.ProbeInterval")

	if err := cv.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// StoreOptions converts a StoreConfig to pool options.
func (s StoreConfig) StoreOptions() store.Options {
	opts := store.DefaultOptions(s.URL)
	if s.MaxConns > 0 {
		opts.MaxConns = s.MaxConns
	}
	if s.MinConns > 0 {
		opts.MinConns = s.MinConns
	}
	opts.MaxConnLifetime = validation.DefaultOrDuration(s.MaxConnLifetime, opts.MaxConnLifetime)
	opts.MaxConnIdleTime = validation.DefaultOrDuration(s.MaxConnIdleTime, opts.MaxConnIdleTime)
	opts.ConnectTimeout = validation.DefaultOrDuration(s.ConnectTimeout, opts.ConnectTimeout)
	return opts
}

// ReplicationSettings converts the replication section for the async
// coordinator.
func (r ReplicationConfig) ReplicationSettings() replication.Config {
	def := replication.DefaultConfig()
	return replication.Config{
		FlushInterval:   validation.DefaultOrDuration(r.FlushInterval, def.FlushInterval),
		FlushOnShutdown: r.FlushOnShutdown,
		ShutdownTimeout: validation.DefaultOrDuration(r.ShutdownTimeout, def.ShutdownTimeout),
	}
}

// RegistrySettings converts the registry section for registry.New.
func (r RegistryConfig) RegistrySettings() (registry.Config, error) {
	policy, err := registry.ParseSelectionPolicy(r.Selection)
	if err != nil {
		return registry.Config{}, err
	}
	return registry.Config{
		ProbeInterval:    r.ProbeInterval,
		ProbeTimeout:     r.ProbeTimeout,
		ProbeConcurrency: r.ProbeConcurrency,
		Selection:        policy,
	}, nil
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}
