package config

import "time"

// Config is the root configuration structure for the Janus decision engine.
// It contains all configuration sections for the policy source, trust
// storage, knowledge and provenance ledgers, engine thresholds, and
// telemetry settings.
type Config struct {
	// Policy contains configuration for the policy rule source including
	// file or Git mode and watch settings.
	Policy PolicyConfig `yaml:"policy"`

	// Trust contains configuration for trust profile storage and decay.
	Trust TrustConfig `yaml:"trust"`

	// Knowledge contains configuration for the knowledge ledger.
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// Provenance contains configuration for the provenance ledger.
	Provenance ProvenanceConfig `yaml:"provenance"`

	// Engine contains the orchestrator's thresholds.
	Engine EngineConfig `yaml:"engine"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PolicyConfig contains configuration for the policy rule source.
type PolicyConfig struct {
	// Mode specifies how policy rules are loaded.
	// Options: "file" (local file), "git" (Git repository)
	// Default: "file"
	Mode string `yaml:"mode"`

	// FilePath is the path to the rules file when Mode is "file".
	// Default: "./rules.yaml"
	FilePath string `yaml:"file_path"`

	// Watch enables automatic reloading when the rule source changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// Git contains Git repository configuration.
	// Used when Mode is "git".
	Git GitPolicyConfig `yaml:"git"`
}

// GitPolicyConfig configures Git-based rule loading.
type GitPolicyConfig struct {
	// Repository URL (HTTPS).
	// Example: "https://github.com/company/janus-rules.git"
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// RulesPath within the repository to the rules file.
	// Default: "rules.yaml"
	RulesPath string `yaml:"rules_path"`

	// LocalPath where the repository is cloned.
	// Default: system temp directory
	LocalPath string `yaml:"local_path"`

	// Token for HTTPS authentication (supports env vars).
	// Example: "${GITHUB_TOKEN}"
	// Optional for public repositories.
	Token string `yaml:"token"`

	// PollInterval between change-detection pulls.
	// Default: 30s
	PollInterval time.Duration `yaml:"poll_interval"`

	// PullTimeout for individual Git operations.
	// Default: 10s
	PullTimeout time.Duration `yaml:"pull_timeout"`

	// Depth for shallow clones (0 = full clone).
	// Default: 1
	Depth int `yaml:"depth"`

	// CleanOnStart removes the local checkout before cloning.
	// Default: false
	CleanOnStart bool `yaml:"clean_on_start"`
}

// TrustConfig contains configuration for trust profile storage and decay.
type TrustConfig struct {
	// Backend specifies the storage backend for trust profiles.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention is the per-day score retention factor in (0, 1].
	// Default: 0.98
	Retention float64 `yaml:"retention"`

	// Decay contains the accumulator decay sweep configuration.
	Decay DecayConfig `yaml:"decay"`
}

// DecayConfig configures the periodic trust accumulator sweep.
type DecayConfig struct {
	// Schedule is a cron expression for the sweep.
	// Empty disables scheduled sweeps.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`

	// ChunkSize is the number of profiles processed between cancellation
	// checks.
	// Default: 100
	ChunkSize int `yaml:"chunk_size"`
}

// KnowledgeConfig contains configuration for the knowledge ledger.
type KnowledgeConfig struct {
	// Backend specifies the ledger backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Affinity maps caller identifiers to the topic domains their
	// relationship is associated with.
	// Example: "spouse-1" -> ["family", "memories"]
	Affinity map[string][]string `yaml:"affinity"`
}

// ProvenanceConfig contains configuration for the provenance ledger.
type ProvenanceConfig struct {
	// Backend specifies the ledger backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite-specific configuration shared by the
// storage-backed sections.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// SnapshotInterval is how often to checkpoint the WAL.
	// Default: 5m
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

// EngineConfig contains the orchestrator's thresholds. Zero values fall
// back to the engine package defaults.
type EngineConfig struct {
	// Ladder holds the five ascending mutual-knowledge cut points.
	Ladder LadderConfig `yaml:"ladder"`

	// TrustThresholds are the per-domain disclosure thresholds.
	TrustThresholds map[string]float64 `yaml:"trust_thresholds"`

	// DefaultTrustThreshold applies to domains without an entry.
	// Default: 0.60
	DefaultTrustThreshold float64 `yaml:"default_trust_threshold"`

	// DegradedTrustScore substitutes when the trust store is unreachable.
	// Default: 0.10
	DegradedTrustScore float64 `yaml:"degraded_trust_score"`
}

// LadderConfig holds the mutual-knowledge cut points.
type LadderConfig struct {
	Divert   float64 `yaml:"divert"`
	Probe    float64 `yaml:"probe"`
	Partial  float64 `yaml:"partial"`
	Disclose float64 `yaml:"disclose"`
	Verify   float64 `yaml:"verify"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactContent masks utterances, facts, and provenance fragments in
	// log entries.
	// Default: true
	RedactContent bool `yaml:"redact_content"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is an optional address for the Prometheus endpoint.
	// Empty disables the HTTP listener; collectors can still be scraped by
	// an embedding application.
	// Default: ""
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service name in traces.
	// Default: "janus"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
