// Package config holds the messaging runtime's own configuration: the
// socket factory's root URL, the default frame size, and the receive-loop
// and dial timeouts every socket uses. Grounded on the teacher's
// functional-option construction plus a thread-safe SafeConfig wrapper
// (config/config.go), trimmed to the handful of settings this domain
// actually needs — the teacher's component/KV/schema-driven configuration
// machinery has no equivalent here (see DESIGN.md).
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/modelingevolution/cppplumberd/errors"
)

// Default settings, matching spec.md §6's suggested values.
const (
	DefaultRootURL              = "ipc:///tmp/cppplumberd"
	DefaultMaxFrameSize         = 64 * 1024
	DefaultServerReceiveTimeout = 250 * time.Millisecond
	DefaultClientDialTimeout    = 5 * time.Second
)

// Config is the root configuration for a plumberd server or client.
type Config struct {
	RootURL              string        `yaml:"root_url"`
	MaxFrameSize         int           `yaml:"max_frame_size"`
	ServerReceiveTimeout time.Duration `yaml:"server_receive_timeout"`
	ClientDialTimeout    time.Duration `yaml:"client_dial_timeout"`
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithRootURL sets the socket factory's root URL (e.g. "ipc:///tmp/app"
// or a NATS subject prefix).
func WithRootURL(url string) Option {
	return func(c *Config) { c.RootURL = url }
}

// WithMaxFrameSize sets the maximum encoded frame size in bytes.
func WithMaxFrameSize(n int) Option {
	return func(c *Config) { c.MaxFrameSize = n }
}

// WithServerReceiveTimeout sets the server and subscribe receive-loop's
// per-iteration timeout (spec.md §5's "bounded timeout (default
// 100-1000ms)").
func WithServerReceiveTimeout(d time.Duration) Option {
	return func(c *Config) { c.ServerReceiveTimeout = d }
}

// WithClientDialTimeout sets the request-client and subscribe socket's
// dial/start timeout.
func WithClientDialTimeout(d time.Duration) Option {
	return func(c *Config) { c.ClientDialTimeout = d }
}

// New builds a Config from defaults plus opts.
func New(opts ...Option) *Config {
	c := &Config{
		RootURL:              DefaultRootURL,
		MaxFrameSize:         DefaultMaxFrameSize,
		ServerReceiveTimeout: DefaultServerReceiveTimeout,
		ClientDialTimeout:    DefaultClientDialTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate reports a ConfigurationError for any setting that cannot
// produce a working runtime.
func (c *Config) Validate() error {
	if c.RootURL == "" {
		return errors.NewConfigurationError("config", "root_url must not be empty", nil)
	}
	if c.MaxFrameSize <= 0 {
		return errors.NewConfigurationError("config", fmt.Sprintf("max_frame_size must be positive, got %d", c.MaxFrameSize), nil)
	}
	if c.ServerReceiveTimeout <= 0 {
		return errors.NewConfigurationError("config", "server_receive_timeout must be positive", nil)
	}
	if c.ClientDialTimeout <= 0 {
		return errors.NewConfigurationError("config", "client_dial_timeout must be positive", nil)
	}
	return nil
}

// Clone returns a deep copy (all fields are value types, so a shallow
// copy suffices).
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Load reads a YAML config file, starting from defaults and overriding
// any field the file sets, grounded on the teacher's config.Loader
// layered-override style.
func Load(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfig(err, "config", "Load")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapConfig(err, "config", "Load")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SafeConfig provides thread-safe access to a Config that may be swapped
// out at runtime, grounded on the teacher's SafeConfig wrapper.
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig wraps cfg (or a fresh default Config if nil).
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = New()
	}
	return &SafeConfig{config: cfg}
}

// Get returns a copy of the current configuration.
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update validates cfg and, if valid, atomically replaces the current
// configuration.
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.NewConfigurationError("config", "cannot update to a nil config", nil)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}
