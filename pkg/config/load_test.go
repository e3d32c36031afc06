package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
policy:
  mode: file
  file_path: ./rules.yaml
  watch: true

trust:
  backend: sqlite
  sqlite:
    path: data/trust.db
  retention: 0.95

knowledge:
  affinity:
    spouse-1: [family, memories]

telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Policy.Mode != "file" || !cfg.Policy.Watch {
		t.Errorf("policy = %+v, want file mode with watch", cfg.Policy)
	}
	if cfg.Trust.Backend != "sqlite" || cfg.Trust.SQLite.Path != "data/trust.db" {
		t.Errorf("trust = %+v, want sqlite backend", cfg.Trust)
	}
	if cfg.Trust.Retention != 0.95 {
		t.Errorf("retention = %f, want 0.95", cfg.Trust.Retention)
	}
	if got := cfg.Knowledge.Affinity["spouse-1"]; len(got) != 2 {
		t.Errorf("affinity = %v, want two domains", got)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("logging = %+v, want debug/text", cfg.Telemetry.Logging)
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Policy.Mode != DefaultPolicyMode {
		t.Errorf("policy mode = %q, want %q", cfg.Policy.Mode, DefaultPolicyMode)
	}
	if cfg.Trust.Backend != DefaultStorageBackend {
		t.Errorf("trust backend = %q, want %q", cfg.Trust.Backend, DefaultStorageBackend)
	}
	if cfg.Trust.Retention != DefaultTrustRetention {
		t.Errorf("retention = %f, want %f", cfg.Trust.Retention, DefaultTrustRetention)
	}
	if cfg.Trust.Decay.Schedule != DefaultDecaySchedule {
		t.Errorf("decay schedule = %q, want %q", cfg.Trust.Decay.Schedule, DefaultDecaySchedule)
	}
	if cfg.Policy.Git.PollInterval != DefaultGitPollInterval {
		t.Errorf("poll interval = %v, want %v", cfg.Policy.Git.PollInterval, DefaultGitPollInterval)
	}
	if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
		t.Errorf("logging level = %q, want %q", cfg.Telemetry.Logging.Level, DefaultLoggingLevel)
	}
	if !cfg.Telemetry.Logging.RedactContent {
		t.Error("content redaction should default on")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfig() should fail for a missing file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "policy: [not a mapping")); err == nil {
		t.Error("LoadConfig() should fail for invalid YAML")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("JANUS_POLICY_FILE_PATH", "/etc/janus/rules.yaml")
	t.Setenv("JANUS_TRUST_BACKEND", "sqlite")
	t.Setenv("JANUS_TRUST_SQLITE_PATH", "/var/lib/janus/trust.db")
	t.Setenv("JANUS_TRUST_RETENTION", "0.9")
	t.Setenv("JANUS_POLICY_GIT_POLL_INTERVAL", "1m")
	t.Setenv("JANUS_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, "{}"))
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Policy.FilePath != "/etc/janus/rules.yaml" {
		t.Errorf("file path = %q, env override lost", cfg.Policy.FilePath)
	}
	if cfg.Trust.Backend != "sqlite" || cfg.Trust.SQLite.Path != "/var/lib/janus/trust.db" {
		t.Errorf("trust = %+v, env overrides lost", cfg.Trust)
	}
	if cfg.Trust.Retention != 0.9 {
		t.Errorf("retention = %f, want 0.9", cfg.Trust.Retention)
	}
	if cfg.Policy.Git.PollInterval != time.Minute {
		t.Errorf("poll interval = %v, want 1m", cfg.Policy.Git.PollInterval)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("logging level = %q, want warn", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfigWithEnvOverridesRevalidates(t *testing.T) {
	t.Setenv("JANUS_TRUST_BACKEND", "redis")

	if _, err := LoadConfigWithEnvOverrides(writeConfig(t, "{}")); err == nil {
		t.Error("an invalid env override should fail validation")
	}
}
