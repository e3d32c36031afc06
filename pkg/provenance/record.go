package provenance

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no record exists for an event id.
var ErrNotFound = errors.New("provenance record not found")

// Record is one provenance entry: an attributed, timestamped transcript
// fragment under a semantic key.
type Record struct {
	// EventID uniquely identifies the record.
	EventID string

	// Key is the normalized topic phrase the record attaches to. Multiple
	// records may share a key.
	Key string

	// Timestamp is when the underlying event happened.
	Timestamp time.Time

	// Speaker is the identity the fragment is attributed to.
	Speaker string

	// Fragment is the verbatim transcript fragment.
	Fragment string

	// Verified marks the record as independently confirmed. Moves from
	// false to true only.
	Verified bool
}

// Validate checks the structural invariants of a record.
func (r *Record) Validate() error {
	if r.Key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if r.Speaker == "" {
		return fmt.Errorf("speaker cannot be empty")
	}
	if r.Fragment == "" {
		return fmt.Errorf("fragment cannot be empty")
	}
	return nil
}

// Ledger stores provenance records. Appends come from an external ingestion
// process; the verifier reads and flips verified flags.
type Ledger interface {
	// Scan returns all records.
	Scan(ctx context.Context) ([]*Record, error)

	// Append adds a record to the ledger.
	Append(ctx context.Context, rec *Record) error

	// Get returns the record for an event id, or ErrNotFound.
	Get(ctx context.Context, eventID string) (*Record, error)

	// Verify marks the record verified. Verification is monotonic:
	// verifying an already verified record is a no-op, and there is no
	// way back. Returns ErrNotFound for unknown event ids.
	Verify(ctx context.Context, eventID string) error

	// Close releases any resources held by the ledger.
	Close() error
}
