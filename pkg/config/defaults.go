package config

import "time"

// Default values for configuration fields.
const (
	// Policy defaults
	DefaultPolicyMode      = "file"
	DefaultPolicyFilePath  = "./rules.yaml"
	DefaultGitBranch       = "main"
	DefaultGitRulesPath    = "rules.yaml"
	DefaultGitPollInterval = 30 * time.Second
	DefaultGitPullTimeout  = 10 * time.Second
	DefaultGitCloneDepth   = 1

	// Storage defaults
	DefaultStorageBackend         = "memory"
	DefaultTrustSQLitePath        = "data/trust.db"
	DefaultKnowledgeSQLitePath    = "data/knowledge.db"
	DefaultProvenanceSQLitePath   = "data/provenance.db"
	DefaultSQLiteBusyTimeout      = 5 * time.Second
	DefaultSQLiteSnapshotInterval = 5 * time.Minute

	// Trust defaults
	DefaultTrustRetention = 0.98
	DefaultDecaySchedule  = "0 3 * * *"
	DefaultDecayChunkSize = 100

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultLoggingRedactContent = true
	DefaultMetricsEnabled       = true
	DefaultMetricsPath          = "/metrics"
	DefaultTracingSampleRatio   = 0.1
	DefaultTracingServiceName   = "janus"
	DefaultTracingInsecure      = true
	DefaultTracingTimeout       = 10 * time.Second
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Policy defaults
	if cfg.Policy.Mode == "" {
		cfg.Policy.Mode = DefaultPolicyMode
	}
	if cfg.Policy.FilePath == "" {
		cfg.Policy.FilePath = DefaultPolicyFilePath
	}
	if cfg.Policy.Git.Branch == "" {
		cfg.Policy.Git.Branch = DefaultGitBranch
	}
	if cfg.Policy.Git.RulesPath == "" {
		cfg.Policy.Git.RulesPath = DefaultGitRulesPath
	}
	if cfg.Policy.Git.PollInterval == 0 {
		cfg.Policy.Git.PollInterval = DefaultGitPollInterval
	}
	if cfg.Policy.Git.PullTimeout == 0 {
		cfg.Policy.Git.PullTimeout = DefaultGitPullTimeout
	}
	if cfg.Policy.Git.Depth == 0 {
		cfg.Policy.Git.Depth = DefaultGitCloneDepth
	}

	// Trust defaults
	if cfg.Trust.Backend == "" {
		cfg.Trust.Backend = DefaultStorageBackend
	}
	if cfg.Trust.SQLite.Path == "" {
		cfg.Trust.SQLite.Path = DefaultTrustSQLitePath
	}
	if cfg.Trust.Retention == 0 {
		cfg.Trust.Retention = DefaultTrustRetention
	}
	if cfg.Trust.Decay.Schedule == "" {
		cfg.Trust.Decay.Schedule = DefaultDecaySchedule
	}
	if cfg.Trust.Decay.ChunkSize == 0 {
		cfg.Trust.Decay.ChunkSize = DefaultDecayChunkSize
	}

	// Knowledge defaults
	if cfg.Knowledge.Backend == "" {
		cfg.Knowledge.Backend = DefaultStorageBackend
	}
	if cfg.Knowledge.SQLite.Path == "" {
		cfg.Knowledge.SQLite.Path = DefaultKnowledgeSQLitePath
	}

	// Provenance defaults
	if cfg.Provenance.Backend == "" {
		cfg.Provenance.Backend = DefaultStorageBackend
	}
	if cfg.Provenance.SQLite.Path == "" {
		cfg.Provenance.SQLite.Path = DefaultProvenanceSQLitePath
	}

	// SQLite defaults shared across sections
	for _, s := range []*SQLiteConfig{&cfg.Trust.SQLite, &cfg.Knowledge.SQLite, &cfg.Provenance.SQLite} {
		if s.BusyTimeout == 0 {
			s.BusyTimeout = DefaultSQLiteBusyTimeout
		}
		if s.SnapshotInterval == 0 {
			s.SnapshotInterval = DefaultSQLiteSnapshotInterval
		}
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
		cfg.Telemetry.Logging.RedactContent = DefaultLoggingRedactContent
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
		cfg.Telemetry.Tracing.Insecure = DefaultTracingInsecure
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
