package domain

import (
	"errors"
	"fmt"
)

// ErrClosed is returned when operating on a storage backend or handle after
// Close.
var ErrClosed = errors.New("storage is closed")

// ErrNotFound is returned when an operation targets an id that does not
// exist in its collection. It is the designed trigger for batch rollback.
type ErrNotFound struct {
	Collection string
	ID         string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("document %q not found in collection %q", e.ID, e.Collection)
}

// ErrInvalidLimit is returned when a query builder receives a negative limit.
type ErrInvalidLimit struct {
	Limit int64
}

func (e *ErrInvalidLimit) Error() string {
	return fmt.Sprintf("limit must not be negative, got %d", e.Limit)
}

// ErrNoSchema is returned when a repository or batch operation references a
// collection with no registered schema.
type ErrNoSchema struct {
	Collection string
}

func (e *ErrNoSchema) Error() string {
	if e.Collection == "" {
		return "no collection schema provided"
	}
	return fmt.Sprintf("no schema registered for collection %q", e.Collection)
}

// ErrEmptyCollectionName is returned when registering a schema without a
// collection name.
type ErrEmptyCollectionName struct{}

func (e *ErrEmptyCollectionName) Error() string {
	return "collection name must not be empty"
}

// ErrEmptyFieldName is returned when a schema declares a field without a
// name.
type ErrEmptyFieldName struct {
	Collection string
}

func (e *ErrEmptyFieldName) Error() string {
	return fmt.Sprintf("collection %q declares a field with an empty name", e.Collection)
}

// ErrTargetNil is returned when a decode target that should be a non-nil
// pointer is nil.
type ErrTargetNil struct{}

func (e *ErrTargetNil) Error() string { return "target interface is nil" }
