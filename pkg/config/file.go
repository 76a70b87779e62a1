package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config's fields in YAML form; every field is optional,
// so a file only needs to set what it wants to override.
type fileConfig struct {
	Host                      *string `yaml:"host"`
	Port                      *int    `yaml:"port"`
	LogLevel                  *string `yaml:"logLevel"`
	MaxHeaderSizeKB           *int    `yaml:"maxHeaderSizeKb"`
	InitializationJSONPath    *string `yaml:"initializationJsonPath"`
	WatchInitializationJSON   *bool   `yaml:"watchInitializationJson"`
	PersistExpectations       *bool   `yaml:"persistExpectations"`
	PersistedExpectationsPath *string `yaml:"persistedExpectationsPath"`
}

// LoadFile reads a YAML file and overlays cfg with whatever it sets,
// leaving unset fields untouched. A missing file is an error — callers
// should only invoke LoadFile when the user passed --config explicitly.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if fc.Host != nil {
		cfg.Host = *fc.Host
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.MaxHeaderSizeKB != nil {
		cfg.MaxHeaderSizeKB = *fc.MaxHeaderSizeKB
	}
	if fc.InitializationJSONPath != nil {
		cfg.InitializationJSONPath = *fc.InitializationJSONPath
	}
	if fc.WatchInitializationJSON != nil {
		cfg.WatchInitializationJSON = *fc.WatchInitializationJSON
	}
	if fc.PersistExpectations != nil {
		cfg.PersistExpectations = *fc.PersistExpectations
	}
	if fc.PersistedExpectationsPath != nil {
		cfg.PersistedExpectationsPath = *fc.PersistedExpectationsPath
	}
	return nil
}

// Load builds a Config starting from Default, optionally seeded by a YAML
// file at configPath (skipped if empty), then overlaid by the environment.
// Command-line flags are not read here; the serve command (pkg/cli) overlays
// them on the result, completing the file-then-env-then-flag layering.
func Load(configPath string) (Config, error) {
	cfg := Default()
	if configPath != "" {
		if err := LoadFile(configPath, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := LoadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
