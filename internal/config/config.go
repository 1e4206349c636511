package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/display-toggle/display-toggle/internal/cache"
	"github.com/display-toggle/display-toggle/internal/history"
	"github.com/display-toggle/display-toggle/internal/lock"
)

const appDirName = "display-toggle"

// Config holds all application configuration
type Config struct {
	// Model cache configuration
	Cache CacheConfig

	// ddcutil backend configuration
	Backend BackendConfig

	// Alternate source table configuration
	Mapping MappingConfig

	// Switch history configuration
	History HistoryConfig

	// Desktop notification configuration
	Notify NotifyConfig

	// Single-instance lock configuration
	Lock LockConfig
}

// CacheConfig holds model cache configuration
type CacheConfig struct {
	Path     string // Path to the JSON cache file
	Disabled bool   // Query every display and never write the cache
}

// BackendConfig holds display backend configuration
type BackendConfig struct {
	Command    string        // ddcutil executable
	Timeout    time.Duration // Bound on each ddcutil invocation
	MinTimeout time.Duration // Minimum allowed timeout
	MaxTimeout time.Duration // Maximum allowed timeout
}

// MappingConfig holds alternate source table configuration
type MappingConfig struct {
	Path string // Optional YAML override file
}

// HistoryConfig holds switch history configuration
type HistoryConfig struct {
	Enabled   bool
	Path      string        // Path to SQLite database file
	Limit     int           // Runs shown by --history
	Retention time.Duration // Switches older than this are pruned; 0 keeps all
}

// NotifyConfig holds desktop notification configuration
type NotifyConfig struct {
	Enabled bool
}

// LockConfig holds single-instance lock configuration
type LockConfig struct {
	Path string // Path to PID file
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Path: cache.DefaultPath(),
		},
		Backend: BackendConfig{
			Command:    "ddcutil",
			Timeout:    10 * time.Second,
			MinTimeout: 1 * time.Second,
			MaxTimeout: 120 * time.Second,
		},
		Mapping: MappingConfig{
			Path: filepath.Join(xdg.ConfigHome, appDirName, "sources.yaml"),
		},
		History: HistoryConfig{
			Enabled:   true,
			Path:      history.DefaultPath(),
			Limit:     10,
			Retention: 90 * 24 * time.Hour,
		},
		Notify: NotifyConfig{
			Enabled: false,
		},
		Lock: LockConfig{
			Path: lock.DefaultPath(),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Backend.Timeout < c.Backend.MinTimeout {
		return fmt.Errorf("backend timeout (%v) cannot be less than minimum (%v)",
			c.Backend.Timeout, c.Backend.MinTimeout)
	}

	if c.Backend.Timeout > c.Backend.MaxTimeout {
		return fmt.Errorf("backend timeout (%v) cannot be greater than maximum (%v)",
			c.Backend.Timeout, c.Backend.MaxTimeout)
	}

	if c.Backend.Command == "" {
		return fmt.Errorf("ddcutil command cannot be empty")
	}

	if !c.Cache.Disabled && c.Cache.Path == "" {
		return fmt.Errorf("cache path cannot be empty")
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history path cannot be empty")
	}

	if c.History.Limit < 1 {
		return fmt.Errorf("history limit must be at least 1, got %d", c.History.Limit)
	}

	if c.History.Retention < 0 {
		return fmt.Errorf("history retention cannot be negative")
	}

	if c.Lock.Path == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// SetTimeout sets the backend timeout with validation
func (c *Config) SetTimeout(timeout time.Duration) error {
	if timeout < c.Backend.MinTimeout {
		return fmt.Errorf("timeout cannot be less than %v", c.Backend.MinTimeout)
	}
	if timeout > c.Backend.MaxTimeout {
		return fmt.Errorf("timeout cannot be greater than %v", c.Backend.MaxTimeout)
	}
	c.Backend.Timeout = timeout
	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Cache:
    Path: %s
    Disabled: %v
  Backend:
    Command: %s
    Timeout: %v
  Mapping:
    Path: %s
  History:
    Enabled: %v
    Path: %s
    Limit: %d
    Retention: %v
  Notify:
    Enabled: %v
  Lock:
    PID File: %s`,
		c.Cache.Path,
		c.Cache.Disabled,
		c.Backend.Command,
		c.Backend.Timeout,
		c.Mapping.Path,
		c.History.Enabled,
		c.History.Path,
		c.History.Limit,
		c.History.Retention,
		c.Notify.Enabled,
		c.Lock.Path,
	)
}
