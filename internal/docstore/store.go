package docstore

import (
	"context"
	"errors"
)

// Common errors returned by document stores
var (
	ErrNotFound         = errors.New("document not found")
	ErrRevisionConflict = errors.New("document revision conflict")
)

// Revision is the opaque version marker of a stored document. It changes on
// every successful write and is the precondition of ConditionalSet.
type Revision string

// Document is the field map of a stored document, without the key or the
// revision bookkeeping.
type Document map[string]interface{}

// Store is keyed document storage with optimistic-concurrency updates.
// Any backend with per-document versioning satisfies it; the Mongo adapter
// keeps the revision in a document field, a SQL table would use a version
// column.
type Store interface {
	// Get returns the document fields and current revision for the key,
	// or ErrNotFound.
	Get(ctx context.Context, key string) (Document, Revision, error)

	// ConditionalSet merges fields into the document only if its revision
	// still equals expected, returning the new revision. A concurrent
	// writer surfaces as ErrRevisionConflict.
	ConditionalSet(ctx context.Context, key string, fields Document, expected Revision) (Revision, error)

	// Put unconditionally creates or replaces the document. Used for
	// seeding and admin writes, never by the reservation path.
	Put(ctx context.Context, key string, fields Document) (Revision, error)

	// List returns every key and document in the store.
	List(ctx context.Context) (map[string]Document, error)
}

// Int64 reads a numeric field that may have been decoded as any of the
// integer or float widths the backend uses.
func Int64(doc Document, field string) (int64, bool) {
	switch v := doc[field].(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// String reads a string field, tolerating its absence.
func String(doc Document, field string) string {
	if v, ok := doc[field].(string); ok {
		return v
	}
	return ""
}
