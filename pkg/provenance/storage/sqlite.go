package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/janus/pkg/provenance"
)

const provenanceSchema = `
CREATE TABLE IF NOT EXISTS provenance_records (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id TEXT NOT NULL UNIQUE,
	key TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	speaker TEXT NOT NULL,
	fragment TEXT NOT NULL,
	verified INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_provenance_key ON provenance_records(key);
`

// SQLiteLedgerConfig configures the SQLite provenance ledger.
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
		Path:        "data/provenance.db",
		WALMode:     true,
		BusyTimeout: 5 * time.Second,
	}
}

// SQLiteLedger implements provenance.Ledger using SQLite.
type SQLiteLedger struct {
	db        *sql.DB
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewSQLiteLedger creates a SQLite-backed provenance ledger.
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
		return nil, fmt.Errorf("failed to open provenance database: %w", err)
	}

	logger := slog.Default().With("component", "provenance.storage.sqlite")

	l := &SQLiteLedger{db: db, logger: logger}
	if err := l.initialize(cfg); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("provenance ledger initialized", "path", cfg.Path, "wal_mode", cfg.WALMode)

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
	if _, err := l.db.Exec(provenanceSchema); err != nil {
		return fmt.Errorf("failed to create provenance schema: %w", err)
	}
	return nil
}

// Scan returns all records in append order.
func (l *SQLiteLedger) Scan(ctx context.Context) ([]*provenance.Record, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT event_id, key, timestamp, speaker, fragment, verified
		FROM provenance_records
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan provenance ledger: %w", err)
	}
	defer rows.Close()

	var out []*provenance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating provenance rows: %w", err)
	}

	return out, nil
}

// Append adds a record. A missing event id or timestamp is filled in.
func (l *SQLiteLedger) Append(ctx context.Context, rec *provenance.Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid provenance record: %w", err)
	}

	id := rec.EventID
	if id == "" {
		id = uuid.NewString()
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	verified := 0
	if rec.Verified {
		verified = 1
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO provenance_records (event_id, key, timestamp, speaker, fragment, verified)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, rec.Key, ts.Unix(), rec.Speaker, rec.Fragment, verified,
	)
	if err != nil {
		return fmt.Errorf("failed to append provenance record: %w", err)
	}
	return nil
}

// Get returns the record for an event id.
func (l *SQLiteLedger) Get(ctx context.Context, eventID string) (*provenance.Record, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT event_id, key, timestamp, speaker, fragment, verified
		FROM provenance_records
		WHERE event_id = ?`, eventID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, provenance.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Verify marks the record verified, monotonically.
func (l *SQLiteLedger) Verify(ctx context.Context, eventID string) error {
	result, err := l.db.ExecContext(ctx, `
		UPDATE provenance_records SET verified = 1 WHERE event_id = ?`, eventID)
	if err != nil {
		return fmt.Errorf("failed to verify provenance record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return provenance.ErrNotFound
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

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*provenance.Record, error) {
	var (
		rec      provenance.Record
		ts       int64
		verified int
	)
	if err := row.Scan(&rec.EventID, &rec.Key, &ts, &rec.Speaker, &rec.Fragment, &verified); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan provenance row: %w", err)
	}
	rec.Timestamp = time.Unix(ts, 0)
	rec.Verified = verified == 1
	return &rec, nil
}
