// Package stash provides an embedded, schema-aware document store organized
// around the repository pattern.
//
// The basic usage starts with creating a new [Stash] handle by calling [New],
// registering collection schemas on it and asking it for per-collection
// repositories. Each repository offers CRUD operations, an immutable
// chainable query builder and access to all-or-nothing batches.
package stash

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/text/language"

	"github.com/leoafarias/firekit-sub000/domain"
	"github.com/leoafarias/firekit-sub000/internal/adapter/comparer"
	"github.com/leoafarias/firekit-sub000/internal/adapter/filestore"
	"github.com/leoafarias/firekit-sub000/internal/adapter/idgen"
	"github.com/leoafarias/firekit-sub000/internal/adapter/kvstore"
	"github.com/leoafarias/firekit-sub000/internal/adapter/memstore"
	"github.com/leoafarias/firekit-sub000/internal/adapter/repository"
	"github.com/leoafarias/firekit-sub000/schema"
)

// ErrClosed is returned when operating on a storage backend or handle after
// Close.
var ErrClosed = domain.ErrClosed

// ErrNotFound is returned when an operation targets an id that does not exist
// in its collection.
type ErrNotFound = domain.ErrNotFound

// ErrInvalidLimit is returned by query execution after [Query.Limit] received
// a negative count.
type ErrInvalidLimit = domain.ErrInvalidLimit

// ErrNoSchema is returned when an operation references a collection with no
// registered schema.
type ErrNoSchema = domain.ErrNoSchema

// ErrEmptyCollectionName is returned when registering a schema without a
// collection name.
type ErrEmptyCollectionName = domain.ErrEmptyCollectionName

// ErrEmptyFieldName is returned when a schema declares a field without a
// name.
type ErrEmptyFieldName = domain.ErrEmptyFieldName

// ErrTargetNil is returned when a decode target that should be a non-nil
// pointer is nil.
type ErrTargetNil = domain.ErrTargetNil

// Document represents the data of one stored entry.
type Document = domain.Document

// Result is the materialized form of a stored entry returned by repositories
// and queries.
type Result = domain.Result

// CollectionSchema declares a collection and its field codecs.
type CollectionSchema = domain.CollectionSchema

// FieldSpec declares one field of a collection schema.
type FieldSpec = domain.FieldSpec

// QueryCondition is one filter predicate of a query.
type QueryCondition = domain.QueryCondition

// QueryOptions is the accumulated state of a query builder.
type QueryOptions = domain.QueryOptions

// ComparisonOperator identifies one of the supported condition operators.
type ComparisonOperator = domain.ComparisonOperator

// Supported condition operators.
const (
	OperatorEqual            = domain.OperatorEqual
	OperatorNotEqual         = domain.OperatorNotEqual
	OperatorLessThan         = domain.OperatorLessThan
	OperatorLessThanEqual    = domain.OperatorLessThanEqual
	OperatorGreaterThan      = domain.OperatorGreaterThan
	OperatorGreaterThanEqual = domain.OperatorGreaterThanEqual
	OperatorIn               = domain.OperatorIn
	OperatorNotIn            = domain.OperatorNotIn
	OperatorArrayContains    = domain.OperatorArrayContains
	OperatorArrayContainsAny = domain.OperatorArrayContainsAny
)

// SortDirection identifies the direction of one sort criterion.
type SortDirection = domain.SortDirection

// Sort directions.
const (
	Ascending  = domain.Ascending
	Descending = domain.Descending
)

// Field codecs.
const (
	CodecNone = domain.CodecNone
	CodecCSV  = domain.CodecCSV
)

// Storage is the pluggable backend contract.
type Storage = domain.Storage

// Comparer provides a total order across heterogeneous value kinds.
type Comparer = domain.Comparer

// PathResolver resolves dot-notation field paths against stored entries.
type PathResolver = domain.PathResolver

// Evaluator evaluates query conditions against stored entries.
type Evaluator = domain.Evaluator

// Query is the immutable, chainable query builder.
type Query = domain.Query

// Batch collects create/update/delete operations and applies them
// all-or-nothing on Commit.
type Batch = domain.Batch

// Repository provides CRUD, query and batch access to one collection.
type Repository = domain.Repository

// Stash is the handle binding a storage backend to a schema registry.
type Stash = domain.Stash

// Transformer converts between caller values and storage documents.
type Transformer = domain.Transformer

// TimeGetter provides current time for timestamping operations.
type TimeGetter = domain.TimeGetter

// IDGenerator creates unique IDs for new entries.
type IDGenerator = domain.IDGenerator

// New creates a new [Stash] handle with the provided configuration options:
//
// - [WithStorage]: sets the storage backend (in-memory by default).
//
// - [WithComparer]: sets the comparer for value comparison operations.
//
// - [WithPathResolver]: sets the field-path resolver.
//
// - [WithEvaluator]: sets the condition evaluator.
//
// - [WithTransformer]: sets the entity transform pipeline.
//
// - [WithTimeGetter]: sets the time getter for timestamping operations.
//
// - [WithIDGenerator]: sets the generator used for empty ids on create.
//
// - [WithLogger]: sets the structured logger.
func New(options ...Option) Stash {
	return repository.NewHandle(options...)
}

// Option configures handle behavior through the functional options pattern.
type Option = repository.Option

// WithStorage sets the storage backend.
func WithStorage(s Storage) Option {
	return repository.WithStorage(s)
}

// WithComparer sets the comparer for value comparison operations.
func WithComparer(c Comparer) Option {
	return repository.WithComparer(c)
}

// WithPathResolver sets the field-path resolver.
func WithPathResolver(r PathResolver) Option {
	return repository.WithPathResolver(r)
}

// WithEvaluator sets the condition evaluator.
func WithEvaluator(e Evaluator) Option {
	return repository.WithEvaluator(e)
}

// WithTransformer sets the entity transform pipeline.
func WithTransformer(t Transformer) Option {
	return repository.WithTransformer(t)
}

// WithTimeGetter sets the time getter for timestamping operations.
func WithTimeGetter(t TimeGetter) Option {
	return repository.WithTimeGetter(t)
}

// WithIDGenerator sets the generator used when creating entries without an
// explicit id.
func WithIDGenerator(g IDGenerator) Option {
	return repository.WithIDGenerator(g)
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return repository.WithLogger(l)
}

// WithRandomReader replaces the default UUID id generation with base64 ids
// read from the given entropy source.
func WithRandomReader(r io.Reader) Option {
	return repository.WithIDGenerator(idgen.NewIDGenerator(idgen.WithRandomReader(r)))
}

// NewMemoryStorage returns the in-memory [Storage] backend.
func NewMemoryStorage() Storage {
	return memstore.NewStore()
}

// NewFileStorage returns the JSON-file [Storage] backend rooted at dir, one
// file per document.
func NewFileStorage(dir string, mode os.FileMode) (Storage, error) {
	return filestore.NewStore(dir, filestore.WithFileMode(mode))
}

// NewBadgerStorage returns the Badger-backed [Storage] backend rooted at dir.
func NewBadgerStorage(dir string) (Storage, error) {
	return kvstore.NewStore(dir)
}

// NewComparer returns the default comparer configured for the given language.
// Strings collate according to the language's rules.
func NewComparer(lang language.Tag) Comparer {
	return comparer.NewComparer(comparer.WithLanguage(lang))
}

// LoadSchemas parses a YAML schema file and registers every collection it
// declares on the handle.
func LoadSchemas(handle Stash, path string) error {
	schemas, err := schema.LoadFile(path)
	if err != nil {
		return err
	}
	for _, s := range schemas {
		if err := handle.Register(s); err != nil {
			return err
		}
	}
	return nil
}
