package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention JANUS_SECTION_FIELD (e.g., JANUS_POLICY_FILE_PATH).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format JANUS_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Policy overrides
	if val := os.Getenv("JANUS_POLICY_MODE"); val != "" {
		cfg.Policy.Mode = val
	}
	if val := os.Getenv("JANUS_POLICY_FILE_PATH"); val != "" {
		cfg.Policy.FilePath = val
	}
	if val := os.Getenv("JANUS_POLICY_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Policy.Watch = b
		}
	}
	if val := os.Getenv("JANUS_POLICY_GIT_REPOSITORY"); val != "" {
		cfg.Policy.Git.Repository = val
	}
	if val := os.Getenv("JANUS_POLICY_GIT_BRANCH"); val != "" {
		cfg.Policy.Git.Branch = val
	}
	if val := os.Getenv("JANUS_POLICY_GIT_RULES_PATH"); val != "" {
		cfg.Policy.Git.RulesPath = val
	}
	if val := os.Getenv("JANUS_POLICY_GIT_TOKEN"); val != "" {
		cfg.Policy.Git.Token = val
	}
	if val := os.Getenv("JANUS_POLICY_GIT_POLL_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Policy.Git.PollInterval = d
		}
	}

	// Trust overrides
	if val := os.Getenv("JANUS_TRUST_BACKEND"); val != "" {
		cfg.Trust.Backend = val
	}
	if val := os.Getenv("JANUS_TRUST_SQLITE_PATH"); val != "" {
		cfg.Trust.SQLite.Path = val
	}
	if val := os.Getenv("JANUS_TRUST_RETENTION"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Trust.Retention = f
		}
	}
	if val := os.Getenv("JANUS_TRUST_DECAY_SCHEDULE"); val != "" {
		cfg.Trust.Decay.Schedule = val
	}

	// Knowledge overrides
	if val := os.Getenv("JANUS_KNOWLEDGE_BACKEND"); val != "" {
		cfg.Knowledge.Backend = val
	}
	if val := os.Getenv("JANUS_KNOWLEDGE_SQLITE_PATH"); val != "" {
		cfg.Knowledge.SQLite.Path = val
	}

	// Provenance overrides
	if val := os.Getenv("JANUS_PROVENANCE_BACKEND"); val != "" {
		cfg.Provenance.Backend = val
	}
	if val := os.Getenv("JANUS_PROVENANCE_SQLITE_PATH"); val != "" {
		cfg.Provenance.SQLite.Path = val
	}

	// Telemetry overrides
	if val := os.Getenv("JANUS_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("JANUS_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("JANUS_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("JANUS_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := os.Getenv("JANUS_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}
