// Package domain contains the interfaces, entities and typed errors shared by
// every Stash component.
//
// The package defines the contracts that must be implemented by adapters:
// storage backends, the value comparator, the field-path resolver, the
// condition evaluator, the query builder, the batch processor and the entity
// transform pipeline.
package domain

import (
	"context"
	"time"
)

// Comparer provides a total order across heterogeneous value kinds, used by
// both condition evaluation and sorting. Compare never fails: values that
// cannot be compared meaningfully degrade to a stable, documented ordering.
type Comparer interface {
	// Compare returns a negative number, zero or a positive number as a
	// orders before, equal to or after b.
	Compare(a, b any) int
}

// PathResolver resolves a dot-notation field path against a storage entry.
type PathResolver interface {
	// Resolve returns the value addressed by path and whether the path is
	// defined. Missing segments, nil intermediates and non-object
	// intermediates yield (nil, false); a present nil leaf yields
	// (nil, true). Resolve never fails on document shape.
	Resolve(entry *StorageEntry, path string) (value any, defined bool)
}

// Evaluator evaluates query conditions against a storage entry.
type Evaluator interface {
	// Matches reports whether the entry satisfies the condition. Type
	// precondition failures (e.g. array-contains on a non-array field)
	// evaluate to false, never to an error.
	Matches(entry *StorageEntry, cond QueryCondition) bool
	// MatchesAll reports whether the entry satisfies every condition
	// (logical AND).
	MatchesAll(entry *StorageEntry, conds []QueryCondition) bool
}

// Storage is the backend contract consumed by repositories, the query
// builder and the batch processor. Implementations hand out deep copies;
// callers may mutate returned entries freely.
type Storage interface {
	// Get returns the entry stored under id, or an [ErrNotFound] error.
	Get(ctx context.Context, collection, id string) (*StorageEntry, error)
	// Set stores the entry under id, inserting or replacing.
	Set(ctx context.Context, collection, id string, entry *StorageEntry) error
	// Delete removes the entry stored under id. Deleting a missing id is
	// a no-op; existence checks belong to the caller.
	Delete(ctx context.Context, collection, id string) error
	// List returns a snapshot of all entries in the collection, in the
	// backend's iteration order (insertion order for the in-memory
	// backend).
	List(ctx context.Context, collection string) ([]*StorageEntry, error)
	// Collections returns the names of all non-empty collections.
	Collections(ctx context.Context) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// Query is the immutable, chainable query builder. Builder methods return a
// new builder and never mutate the receiver; execution methods snapshot the
// backing store at call time.
type Query interface {
	// Where appends one condition. All conditions must hold for an entry
	// to match.
	Where(field string, op ComparisonOperator, value any) Query
	// OrderBy appends one sort criterion; multiple calls compose
	// left-to-right as a tie-break chain.
	OrderBy(field string, direction SortDirection) Query
	// Skip sets the number of matching entries to drop before the page.
	Skip(n int64) Query
	// Limit sets the page size. Negative counts are rejected: the error
	// is recorded and returned by the next execution call.
	Limit(n int64) Query
	// Clone deep-copies the builder state into a new builder sharing the
	// same storage reference.
	Clone() Query
	// GetQueryOptions returns a defensive copy of the current state.
	GetQueryOptions() QueryOptions
	// GetResults filters, sorts and paginates a snapshot of the
	// collection and materializes the surviving entries.
	GetResults(ctx context.Context) ([]Result, error)
	// Count returns the effective page size after skip/limit, not the
	// raw match count: max(0, matches-skip) capped at the limit.
	Count(ctx context.Context) (int64, error)
}

// Batch collects create/update/delete operations and applies them
// all-or-nothing on Commit.
type Batch interface {
	// Create queues an insert into the schema's collection.
	Create(schema *CollectionSchema, id string, data Document) error
	// Update queues a shallow merge of data into an existing entry.
	Update(schema *CollectionSchema, id string, data Document) error
	// Delete queues a removal.
	Delete(schema *CollectionSchema, id string) error
	// Len returns the number of queued operations.
	Len() int
	// Commit validates preconditions and applies all queued operations.
	// On any error every mutation already applied is rolled back and the
	// error is returned; the queue is cleared in either outcome.
	Commit(ctx context.Context) error
}

// Transformer converts between caller values and storage documents,
// applying the per-field codecs declared by a collection schema.
type Transformer interface {
	// ToStorageFormat converts a struct, map or Document into a storage
	// Document and applies field codecs.
	ToStorageFormat(schema *CollectionSchema, value any) (Document, error)
	// FromStorageFormat reverses field codecs and decodes the document
	// into target, which must be a non-nil pointer.
	FromStorageFormat(schema *CollectionSchema, doc Document, target any) error
}

// TimeGetter provides current time for timestamping operations.
type TimeGetter interface {
	// GetTime returns the current time.
	GetTime() time.Time
}

// IDGenerator creates unique IDs for new entries.
type IDGenerator interface {
	// GenerateID returns a new unique ID.
	GenerateID() (string, error)
}

// Repository provides CRUD, query and batch access to one collection.
type Repository interface {
	// Create stores a new entry. When id is empty a generated ID is
	// used. CreateTime and UpdateTime are both set to now.
	Create(ctx context.Context, value any, id string) (*Result, error)
	// Update shallow-merges the patch into the existing entry's data and
	// refreshes UpdateTime. Returns [ErrNotFound] for a missing id.
	Update(ctx context.Context, id string, patch any) (*Result, error)
	// Delete removes an entry. Returns [ErrNotFound] for a missing id.
	Delete(ctx context.Context, id string) error
	// GetByID decodes the entry's data into target. Returns
	// [ErrNotFound] for a missing id.
	GetByID(ctx context.Context, id string, target any) (*Result, error)
	// GetAll returns every entry in the collection, untransformed order.
	GetAll(ctx context.Context) ([]Result, error)
	// Query returns a fresh query builder over the collection.
	Query() Query
	// Schema returns the collection's registered schema.
	Schema() *CollectionSchema
}

// Stash is the explicit context handle binding a storage backend to a schema
// registry. It replaces the original design's module-level singleton: two
// handles with two different backends can coexist in one process.
type Stash interface {
	// Register adds a collection schema to the handle's registry.
	Register(schema CollectionSchema) error
	// Repository returns a repository for a registered collection, or an
	// [ErrNoSchema] error.
	Repository(collection string) (Repository, error)
	// Batch returns a fresh batch processor bound to the handle's
	// backend.
	Batch() Batch
	// Close tears down the handle and its storage backend.
	Close() error
}
