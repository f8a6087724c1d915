// Package docstore is a narrow document database interface covering the
// operations the remote accessor needs: point reads and writes, partial
// updates with array set operations, and ordered equality queries with an
// exclusive start-after cursor.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

// Document is a stored document snapshot.
type Document interface {
	ID() string
	DataTo(v interface{}) error
}

// Filter is an equality predicate on a top-level field.
type Filter struct {
	Field string
	Value interface{}
}

// Query selects documents of one collection. When OrderBy is set, documents
// without that field are excluded and StartAfter (if non-nil) skips every
// document whose OrderBy value is not strictly after it in the requested
// direction. Limit <= 0 means no limit.
type Query struct {
	Where      []Filter
	OrderBy    string
	Descending bool
	StartAfter interface{}
	Limit      int
}

// Update sets one top-level field. Value may be ArrayUnion or ArrayRemove.
type Update struct {
	Field string
	Value interface{}
}

type arrayOp struct {
	remove bool
	elems  []interface{}
}

// ArrayUnion adds elems to an array field, skipping values already present.
func ArrayUnion(elems ...interface{}) interface{} {
	return arrayOp{elems: elems}
}

// ArrayRemove removes every occurrence of elems from an array field.
func ArrayRemove(elems ...interface{}) interface{} {
	return arrayOp{remove: true, elems: elems}
}

// Store is implemented by FirestoreStore and MemoryStore.
type Store interface {
	// NewID returns a fresh document id for collection.
	NewID(collection string) string
	// Get returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Set creates or fully replaces a document.
	Set(ctx context.Context, collection, id string, data interface{}) error
	// Create fails with ErrAlreadyExists when the document exists.
	Create(ctx context.Context, collection, id string, data interface{}) error
	// Update fails with ErrNotFound when the document does not exist.
	Update(ctx context.Context, collection, id string, updates []Update) error
	// Delete succeeds when the document does not exist.
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Close() error
}
