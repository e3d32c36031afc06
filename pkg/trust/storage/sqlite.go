package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/janus/pkg/decision"
)

// SQLiteStore implements Store using SQLite for persistence. It is suitable
// for single-instance deployments where trust must survive restarts.
//
// The store opens the database in WAL mode with a single writer connection,
// so per-key atomicity of Update falls out of transaction serialization.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	done      chan struct{}
	closeOnce sync.Once

	getStmt  *sql.Stmt
	saveStmt *sql.Stmt
	hasStmt  *sql.Stmt
	keysStmt *sql.Stmt

	now func() time.Time
}

// SQLiteStoreConfig configures the SQLite trust store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a SQLite trust store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a SQLite trust store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
		done:   make(chan struct{}),
		now:    time.Now,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go store.checkpointLoop(cfg.CheckpointInterval)

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trust_profiles (
		caller_id TEXT NOT NULL,
		domain TEXT NOT NULL,
		successes REAL NOT NULL,
		failures REAL NOT NULL,
		updated_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (caller_id, domain)
	);

	CREATE INDEX IF NOT EXISTS idx_trust_caller ON trust_profiles(caller_id);
	CREATE INDEX IF NOT EXISTS idx_trust_updated ON trust_profiles(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare(`
		SELECT successes, failures, updated_at, created_at
		FROM trust_profiles
		WHERE caller_id = ? AND domain = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO trust_profiles (caller_id, domain, successes, failures, updated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (caller_id, domain) DO UPDATE SET
			successes = excluded.successes,
			failures = excluded.failures,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.hasStmt, err = s.db.Prepare(`
		SELECT 1 FROM trust_profiles WHERE caller_id = ? LIMIT 1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare caller statement: %w", err)
	}

	s.keysStmt, err = s.db.Prepare(`
		SELECT caller_id, domain FROM trust_profiles
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare keys statement: %w", err)
	}

	return nil
}

// Get returns the profile for a key, or nil if none exists.
func (s *SQLiteStore) Get(ctx context.Context, callerID string, domain decision.Domain) (*Profile, error) {
	if callerID == "" {
		return nil, fmt.Errorf("caller id cannot be empty")
	}
	if domain == "" {
		return nil, fmt.Errorf("domain cannot be empty")
	}

	var (
		successes float64
		failures  float64
		updatedAt int64
		createdAt int64
	)

	err := s.getStmt.QueryRowContext(ctx, callerID, string(domain)).Scan(
		&successes, &failures, &updatedAt, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trust profile: %w", err)
	}

	return &Profile{
		CallerID:  callerID,
		Domain:    domain,
		Successes: successes,
		Failures:  failures,
		UpdatedAt: time.Unix(updatedAt, 0),
		CreatedAt: time.Unix(createdAt, 0),
	}, nil
}

// Update applies fn to the profile inside a transaction.
func (s *SQLiteStore) Update(ctx context.Context, callerID string, domain decision.Domain, fn func(*Profile) error) error {
	if callerID == "" {
		return fmt.Errorf("caller id cannot be empty")
	}
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("update function cannot be nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		successes float64
		failures  float64
		updatedAt int64
		createdAt int64
	)

	profile := NewProfile(callerID, domain, s.now())
	err = tx.StmtContext(ctx, s.getStmt).QueryRowContext(ctx, callerID, string(domain)).Scan(
		&successes, &failures, &updatedAt, &createdAt,
	)
	switch {
	case err == sql.ErrNoRows:
		// Keep the fresh prior profile.
	case err != nil:
		return fmt.Errorf("failed to load trust profile: %w", err)
	default:
		profile.Successes = successes
		profile.Failures = failures
		profile.UpdatedAt = time.Unix(updatedAt, 0)
		profile.CreatedAt = time.Unix(createdAt, 0)
	}

	if err := fn(profile); err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("update produced invalid profile: %w", err)
	}

	_, err = tx.StmtContext(ctx, s.saveStmt).ExecContext(ctx,
		callerID,
		string(domain),
		profile.Successes,
		profile.Failures,
		profile.UpdatedAt.Unix(),
		profile.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save trust profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trust update: %w", err)
	}
	return nil
}

// HasCaller reports whether the caller has a profile in any domain.
func (s *SQLiteStore) HasCaller(ctx context.Context, callerID string) (bool, error) {
	if callerID == "" {
		return false, fmt.Errorf("caller id cannot be empty")
	}

	var one int
	err := s.hasStmt.QueryRowContext(ctx, callerID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check caller: %w", err)
	}
	return true, nil
}

// Keys returns all profile keys.
func (s *SQLiteStore) Keys(ctx context.Context) ([]Key, error) {
	rows, err := s.keysStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profile keys: %w", err)
	}
	defer rows.Close()

	var keys []Key
	for rows.Next() {
		var callerID, domain string
		if err := rows.Scan(&callerID, &domain); err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w", err)
		}
		keys = append(keys, Key{CallerID: callerID, Domain: decision.Domain(domain)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key rows: %w", err)
	}

	return keys, nil
}

// Close releases any resources held by the store.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		if s.getStmt != nil {
			s.getStmt.Close()
		}
		if s.saveStmt != nil {
			s.saveStmt.Close()
		}
		if s.hasStmt != nil {
			s.hasStmt.Close()
		}
		if s.keysStmt != nil {
			s.keysStmt.Close()
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
