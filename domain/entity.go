package domain

import (
	"maps"
	"slices"
	"time"
)

// Document represents one persisted record's content: an untyped mapping from
// field name to value. Values may be strings, numbers, booleans, nil,
// [time.Time], nested Documents (or plain maps) and slices of these. The core
// never assumes a schema; fields are addressed by dot-separated paths at
// query time.
type Document map[string]any

// Clone returns a deep copy of the document. Nested maps and slices are
// copied recursively; scalar values are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	res := make(Document, len(d))
	for k, v := range d {
		res[k] = cloneValue(v)
	}
	return res
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return t.Clone()
	case map[string]any:
		return Document(t).Clone()
	case []any:
		res := make([]any, len(t))
		for n, item := range t {
			res[n] = cloneValue(item)
		}
		return res
	default:
		return t
	}
}

// StorageEntry is a Document plus its identity and lifecycle timestamps, as
// held by a storage backend. ID is immutable once assigned and CreateTime
// never changes after creation; UpdateTime is refreshed on every successful
// update.
type StorageEntry struct {
	ID         string
	Data       Document
	CreateTime time.Time
	UpdateTime time.Time
}

// Clone returns a deep copy of the entry. Backends hand out clones so that
// query and batch code can never mutate stored state by accident.
func (e *StorageEntry) Clone() *StorageEntry {
	if e == nil {
		return nil
	}
	res := *e
	res.Data = e.Data.Clone()
	return &res
}

// ComparisonOperator identifies how a condition's field value relates to the
// condition's argument.
type ComparisonOperator string

const (
	OperatorEqual            ComparisonOperator = "=="
	OperatorNotEqual         ComparisonOperator = "!="
	OperatorLessThan         ComparisonOperator = "<"
	OperatorLessThanEqual    ComparisonOperator = "<="
	OperatorGreaterThan      ComparisonOperator = ">"
	OperatorGreaterThanEqual ComparisonOperator = ">="
	OperatorIn               ComparisonOperator = "in"
	OperatorNotIn            ComparisonOperator = "not-in"
	OperatorArrayContains    ComparisonOperator = "array-contains"
	OperatorArrayContainsAny ComparisonOperator = "array-contains-any"
)

// SortDirection orders a sort criterion ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// QueryCondition is a single field/operator/value filter predicate. Field is
// a dot-path. Conditions are immutable once added to a builder.
type QueryCondition struct {
	Field    string
	Operator ComparisonOperator
	Value    any
}

// SortSpec is a field/direction pair used for ordering. Multiple specs form a
// composite, left-to-right tie-break order.
type SortSpec struct {
	Field     string
	Direction SortDirection
}

// QueryOptions is the entire internal state of a query builder.
type QueryOptions struct {
	Conditions []QueryCondition
	Sort       []SortSpec
	Skip       int64
	Limit      int64
}

// Clone deep-copies the options so that mutating a clone never affects the
// original builder.
func (o QueryOptions) Clone() QueryOptions {
	res := o
	res.Conditions = slices.Clone(o.Conditions)
	res.Sort = slices.Clone(o.Sort)
	return res
}

// BatchOperationType tags a queued batch operation.
type BatchOperationType string

const (
	BatchCreate BatchOperationType = "create"
	BatchUpdate BatchOperationType = "update"
	BatchDelete BatchOperationType = "delete"
)

// BatchOperation is one queued create/update/delete, tagged by collection.
// Data is nil for deletes and holds the full document for creates or the
// partial patch for updates.
type BatchOperation struct {
	Type       BatchOperationType
	Collection string
	ID         string
	Data       Document
}

// Result is one materialized query or repository result. DeletedAt is always
// nil for live entries; it exists so callers get a uniform record shape.
type Result struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
	Data      Document
}

// FieldCodec names a field-level storage encoding applied by the transform
// pipeline.
type FieldCodec string

const (
	// CodecNone stores the value as-is.
	CodecNone FieldCodec = ""
	// CodecCSV stores a string slice as one comma-joined string,
	// preserving element order. Lossy for elements containing commas.
	CodecCSV FieldCodec = "csv"
)

// FieldSpec declares one persisted field of a collection.
type FieldSpec struct {
	Name  string     `yaml:"name"`
	Codec FieldCodec `yaml:"codec"`
}

// CollectionSchema is the explicit registration record for a persisted type:
// the collection name plus its declared fields. It replaces runtime
// class-metadata discovery; schemas are built once and passed to
// repositories and batch processors explicitly.
type CollectionSchema struct {
	Name   string      `yaml:"name"`
	Fields []FieldSpec `yaml:"fields"`
}

// Field returns the declaration of the named field, if present.
func (s *CollectionSchema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Merge returns a shallow merge of patch into base: top-level keys of patch
// replace the corresponding keys of base, nested objects are replaced whole,
// never merged recursively. Neither argument is mutated.
func Merge(base, patch Document) Document {
	res := make(Document, len(base)+len(patch))
	maps.Copy(res, base)
	maps.Copy(res, patch)
	return res
}
