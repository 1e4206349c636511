package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// EnvFilePath returns the optional env file read before the environment
func EnvFilePath() string {
	return filepath.Join(xdg.ConfigHome, appDirName, "env")
}

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// Variables already set are left alone. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return err
	}
	log.Debug().Str("path", path).Msg("Loaded env file")
	return nil
}

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values
func LoadFromEnv(cfg *Config) {
	// Cache configuration
	if cachePath := os.Getenv("DISPLAY_TOGGLE_CACHE_PATH"); cachePath != "" {
		cfg.Cache.Path = cachePath
	}

	if noCache := os.Getenv("DISPLAY_TOGGLE_NO_CACHE"); noCache != "" {
		if val, err := strconv.ParseBool(noCache); err == nil {
			cfg.Cache.Disabled = val
		}
	}

	// Backend configuration
	if command := os.Getenv("DISPLAY_TOGGLE_DDCUTIL"); command != "" {
		cfg.Backend.Command = command
	}

	if timeout := os.Getenv("DISPLAY_TOGGLE_TIMEOUT"); timeout != "" {
		if seconds, err := strconv.Atoi(timeout); err == nil && seconds > 0 {
			d := time.Duration(seconds) * time.Second
			if d >= cfg.Backend.MinTimeout && d <= cfg.Backend.MaxTimeout {
				cfg.Backend.Timeout = d
			}
		}
	}

	// Mapping configuration
	if sources := os.Getenv("DISPLAY_TOGGLE_SOURCES"); sources != "" {
		cfg.Mapping.Path = sources
	}

	// History configuration
	if enabled := os.Getenv("DISPLAY_TOGGLE_HISTORY"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.History.Enabled = val
		}
	}

	if historyPath := os.Getenv("DISPLAY_TOGGLE_HISTORY_PATH"); historyPath != "" {
		cfg.History.Path = historyPath
	}

	if retention := os.Getenv("DISPLAY_TOGGLE_HISTORY_RETENTION"); retention != "" {
		if days, err := strconv.Atoi(retention); err == nil && days >= 0 {
			cfg.History.Retention = time.Duration(days) * 24 * time.Hour
		}
	}

	// Notify configuration
	if notify := os.Getenv("DISPLAY_TOGGLE_NOTIFY"); notify != "" {
		if val, err := strconv.ParseBool(notify); err == nil {
			cfg.Notify.Enabled = val
		}
	}

	// Lock configuration
	if pidFile := os.Getenv("DISPLAY_TOGGLE_LOCK_FILE"); pidFile != "" {
		cfg.Lock.Path = pidFile
	}
}

// New creates a new Config with default values, the env file and the
// environment applied in that order
func New() *Config {
	cfg := Default()
	if err := LoadEnvFile(EnvFilePath()); err != nil {
		log.Warn().Err(err).Msg("Ignoring malformed env file")
	}
	LoadFromEnv(cfg)
	return cfg
}
