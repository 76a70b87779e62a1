// Package config resolves expectd's configuration from environment
// variables (per spec §6), with an optional YAML file layered underneath
// to seed defaults before the environment overrides them.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names.
const (
	EnvHost                       = "HOST"
	EnvPort                       = "PORT"
	EnvLogLevel                   = "LOG_LEVEL"
	EnvMaxHeaderSizeKB            = "MAX_HEADER_SIZE_KB"
	EnvInitializationJSONPath     = "INITIALIZATION_JSON_PATH"
	EnvWatchInitializationJSON    = "WATCH_INITIALIZATION_JSON"
	EnvPersistExpectations        = "PERSIST_EXPECTATIONS"
	EnvPersistedExpectationsPath  = "PERSISTED_EXPECTATIONS_PATH"
)

// Config is the fully resolved server configuration.
type Config struct {
	Host                      string
	Port                      int
	LogLevel                  string
	MaxHeaderSizeKB           int
	InitializationJSONPath    string
	WatchInitializationJSON   bool
	PersistExpectations       bool
	PersistedExpectationsPath string
}

// Default returns the configuration with spec §6's documented defaults.
func Default() Config {
	return Config{
		Host:                      "0.0.0.0",
		Port:                      1080,
		LogLevel:                  "info",
		MaxHeaderSizeKB:           8192,
		InitializationJSONPath:    "",
		WatchInitializationJSON:   false,
		PersistExpectations:       true,
		PersistedExpectationsPath: "./data/expectations.json",
	}
}

// LoadEnv overlays cfg with whatever is present in the environment. It
// only touches fields whose variable is actually set, so a prior
// YAML-seeded default survives an unset variable.
func LoadEnv(cfg *Config) error {
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q: %w", EnvPort, v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvMaxHeaderSizeKB); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q: %w", EnvMaxHeaderSizeKB, v, err)
		}
		cfg.MaxHeaderSizeKB = size
	}
	if v := os.Getenv(EnvInitializationJSONPath); v != "" {
		cfg.InitializationJSONPath = v
	}
	if v := os.Getenv(EnvWatchInitializationJSON); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q: %w", EnvWatchInitializationJSON, v, err)
		}
		cfg.WatchInitializationJSON = b
	}
	if v := os.Getenv(EnvPersistExpectations); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q: %w", EnvPersistExpectations, v, err)
		}
		cfg.PersistExpectations = b
	}
	if v := os.Getenv(EnvPersistedExpectationsPath); v != "" {
		cfg.PersistedExpectationsPath = v
	}
	return nil
}
