package knowledge

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/janus/pkg/decision"
)

// Record is one entry in the knowledge ledger: a fact, the identities known
// to possess it, and how confidently it was established.
type Record struct {
	// ID uniquely identifies the record.
	ID string

	// Fact is the text of the established fact.
	Fact string

	// KnownBy lists the identities known to possess the fact.
	KnownBy []string

	// Source names where the fact was established (conversation, document).
	Source string

	// Confidence is how firmly the fact is established, in [0, 1].
	Confidence float64

	// Domain is the topic domain the fact belongs to. Empty means
	// domain-agnostic.
	Domain decision.Domain

	// Timestamp is when the fact was established.
	Timestamp time.Time
}

// Validate checks the structural invariants of a record.
func (r *Record) Validate() error {
	if r.Fact == "" {
		return fmt.Errorf("fact cannot be empty")
	}
	if len(r.KnownBy) == 0 {
		return fmt.Errorf("known-by set cannot be empty")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence must be in [0, 1], got %f", r.Confidence)
	}
	return nil
}

// KnownTo reports whether the identity appears in the record's known-by set.
func (r *Record) KnownTo(identity string) bool {
	for _, id := range r.KnownBy {
		if id == identity {
			return true
		}
	}
	return false
}

// Query filters a ledger scan. Zero-valued fields do not filter.
type Query struct {
	// Domain restricts to records in one domain (domain-agnostic records
	// always match).
	Domain decision.Domain

	// AsOf restricts to records established at or before this time.
	AsOf time.Time

	// MinConfidence drops records below this confidence.
	MinConfidence float64

	// KnownBy restricts to records whose known-by set contains this
	// identity.
	KnownBy string
}

// Matches reports whether a record passes the query's filters.
func (q Query) Matches(r *Record) bool {
	if q.Domain != "" && r.Domain != "" && r.Domain != q.Domain {
		return false
	}
	if !q.AsOf.IsZero() && r.Timestamp.After(q.AsOf) {
		return false
	}
	if r.Confidence < q.MinConfidence {
		return false
	}
	if q.KnownBy != "" && !r.KnownTo(q.KnownBy) {
		return false
	}
	return true
}

// Ledger is the read interface the estimator depends on, plus the append
// path used by seeding and ingestion.
type Ledger interface {
	// Scan returns all records passing the query's filters.
	Scan(ctx context.Context, q Query) ([]*Record, error)

	// Append adds a record to the ledger.
	Append(ctx context.Context, rec *Record) error

	// Close releases any resources held by the ledger.
	Close() error
}
