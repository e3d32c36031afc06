package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Validate(&cfg); err != nil {
		t.Errorf("Validate() error = %v, defaults should be valid", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "unknown policy mode",
			mutate:    func(c *Config) { c.Policy.Mode = "http" },
			wantField: "policy.mode",
		},
		{
			name: "git mode without repository",
			mutate: func(c *Config) {
				c.Policy.Mode = "git"
				c.Policy.Git.Repository = ""
			},
			wantField: "policy.git.repository",
		},
		{
			name:      "unknown trust backend",
			mutate:    func(c *Config) { c.Trust.Backend = "redis" },
			wantField: "trust.backend",
		},
		{
			name: "sqlite backend without path",
			mutate: func(c *Config) {
				c.Knowledge.Backend = "sqlite"
				c.Knowledge.SQLite.Path = ""
			},
			wantField: "knowledge.sqlite.path",
		},
		{
			name:      "retention above one",
			mutate:    func(c *Config) { c.Trust.Retention = 1.5 },
			wantField: "trust.retention",
		},
		{
			name:      "invalid decay schedule",
			mutate:    func(c *Config) { c.Trust.Decay.Schedule = "every day" },
			wantField: "trust.decay.schedule",
		},
		{
			name:      "ladder threshold out of range",
			mutate:    func(c *Config) { c.Engine.Ladder.Probe = 1.2 },
			wantField: "engine.ladder.probe",
		},
		{
			name:      "trust threshold out of range",
			mutate:    func(c *Config) { c.Engine.TrustThresholds = map[string]float64{"finance": -0.1} },
			wantField: "engine.trust_thresholds.finance",
		},
		{
			name:      "unknown logging level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "tracing enabled without endpoint",
			mutate:    func(c *Config) { c.Telemetry.Tracing.Enabled = true },
			wantField: "telemetry.tracing.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := Validate(&cfg)
			if err == nil {
				t.Fatal("Validate() should have failed")
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q should mention field %q", err, tt.wantField)
			}
		})
	}
}

func TestValidationErrorAggregates(t *testing.T) {
	cfg := validConfig()
	cfg.Policy.Mode = "http"
	cfg.Trust.Backend = "redis"

	err := Validate(&cfg)
	if err == nil {
		t.Fatal("Validate() should have failed")
	}

	var verr ValidationError
	ok := false
	if v, isV := err.(ValidationError); isV {
		verr, ok = v, true
	}
	if !ok {
		t.Fatalf("error type = %T, want ValidationError", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("error count = %d, want 2", len(verr.Errors))
	}
}
