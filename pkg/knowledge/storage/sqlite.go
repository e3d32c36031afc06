package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/janus/pkg/decision"
	"mercator-hq/janus/pkg/knowledge"
)

const knowledgeSchema = `
CREATE TABLE IF NOT EXISTS knowledge_records (
	id TEXT PRIMARY KEY,
	fact TEXT NOT NULL,
	known_by TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL,
	domain TEXT NOT NULL DEFAULT '',
	timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_knowledge_domain ON knowledge_records(domain);
CREATE INDEX IF NOT EXISTS idx_knowledge_timestamp ON knowledge_records(timestamp);
`

// SQLiteLedgerConfig configures the SQLite knowledge ledger.
type SQLiteLedgerConfig struct {
	// Path is the database file path.
	Path string

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true.
	WALMode bool

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// DefaultSQLiteLedgerConfig returns the default ledger configuration.
func DefaultSQLiteLedgerConfig() *SQLiteLedgerConfig {
	return &SQLiteLedgerConfig{
		Path:        "data/knowledge.db",
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteLedger implements knowledge.Ledger using SQLite.
type SQLiteLedger struct {
	db        *sql.DB
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewSQLiteLedger creates a SQLite-backed knowledge ledger.
func NewSQLiteLedger(cfg *SQLiteLedgerConfig) (*SQLiteLedger, error) {
	if cfg == nil {
		cfg = DefaultSQLiteLedgerConfig()
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge database: %w", err)
	}

	logger := slog.Default().With("component", "knowledge.storage.sqlite")

	l := &SQLiteLedger{db: db, logger: logger}
	if err := l.initialize(cfg); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("knowledge ledger initialized", "path", cfg.Path, "wal_mode", cfg.WALMode)

	return l, nil
}

// initialize sets pragmas and creates the schema.
func (l *SQLiteLedger) initialize(cfg *SQLiteLedgerConfig) error {
	if cfg.WALMode {
		if _, err := l.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := l.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := l.db.Exec(knowledgeSchema); err != nil {
		return fmt.Errorf("failed to create knowledge schema: %w", err)
	}
	return nil
}

// Scan returns all records passing the query's filters.
//
// Confidence, time and domain filters are pushed into SQL; the known-by
// filter runs in Go because the set is stored as JSON.
func (l *SQLiteLedger) Scan(ctx context.Context, q knowledge.Query) ([]*knowledge.Record, error) {
	query := `
		SELECT id, fact, known_by, source, confidence, domain, timestamp
		FROM knowledge_records
		WHERE confidence >= ?`
	args := []any{q.MinConfidence}

	if q.Domain != "" {
		// Domain-agnostic records always match.
		query += " AND (domain = '' OR domain = ?)"
		args = append(args, string(q.Domain))
	}
	if !q.AsOf.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, q.AsOf.Unix())
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan knowledge ledger: %w", err)
	}
	defer rows.Close()

	var out []*knowledge.Record
	for rows.Next() {
		var (
			rec         knowledge.Record
			knownByJSON string
			domain      string
			ts          int64
		)
		if err := rows.Scan(&rec.ID, &rec.Fact, &knownByJSON, &rec.Source, &rec.Confidence, &domain, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge row: %w", err)
		}
		if err := json.Unmarshal([]byte(knownByJSON), &rec.KnownBy); err != nil {
			return nil, fmt.Errorf("failed to unmarshal known-by set for %s: %w", rec.ID, err)
		}
		rec.Domain = decision.Domain(domain)
		rec.Timestamp = time.Unix(ts, 0)

		if q.KnownBy != "" && !rec.KnownTo(q.KnownBy) {
			continue
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge rows: %w", err)
	}

	return out, nil
}

// Append adds a record to the ledger. A missing ID or timestamp is filled in.
func (l *SQLiteLedger) Append(ctx context.Context, rec *knowledge.Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid knowledge record: %w", err)
	}

	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	knownByJSON, err := json.Marshal(rec.KnownBy)
	if err != nil {
		return fmt.Errorf("failed to marshal known-by set: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO knowledge_records (id, fact, known_by, source, confidence, domain, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Fact, string(knownByJSON), rec.Source, rec.Confidence, string(rec.Domain), ts.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append knowledge record: %w", err)
	}
	return nil
}

// Close releases the database handle. Safe to call multiple times.
func (l *SQLiteLedger) Close() error {
	var closeErr error
	l.closeOnce.Do(func() {
		closeErr = l.db.Close()
	})
	return closeErr
}
