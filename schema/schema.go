// Package schema holds collection schemas: a validating in-memory registry
// and a YAML loader for declaring collections in a config file.
package schema

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/leoafarias/firekit-sub000/domain"
)

// Registry is a concurrency-safe set of collection schemas keyed by
// collection name.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]domain.CollectionSchema
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]domain.CollectionSchema)}
}

// Register validates and stores a schema. Registering the same collection
// twice replaces the earlier schema.
func (r *Registry) Register(schema domain.CollectionSchema) error {
	if err := Validate(schema); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[schema.Name] = schema
	return nil
}

// Lookup returns the schema registered for the collection, or an
// [domain.ErrNoSchema] error.
func (r *Registry) Lookup(collection string) (*domain.CollectionSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.schemas[collection]
	if !ok {
		return nil, &domain.ErrNoSchema{Collection: collection}
	}
	return &schema, nil
}

// Collections returns the registered collection names, sorted.
func (r *Registry) Collections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

// Validate checks a schema's shape: the collection and each declared field
// must be named, and declared codecs must be known.
func Validate(schema domain.CollectionSchema) error {
	if schema.Name == "" {
		return &domain.ErrEmptyCollectionName{}
	}
	for _, field := range schema.Fields {
		if field.Name == "" {
			return &domain.ErrEmptyFieldName{Collection: schema.Name}
		}
		switch field.Codec {
		case domain.CodecNone, domain.CodecCSV:
		default:
			return fmt.Errorf("collection %q field %q: unknown codec %q", schema.Name, field.Name, field.Codec)
		}
	}
	return nil
}

// File is the YAML schema file layout:
//
//	collections:
//	  - name: users
//	    fields:
//	      - name: tags
//	        codec: csv
type File struct {
	Collections []domain.CollectionSchema `yaml:"collections"`
}

// Load parses a YAML schema definition and validates every collection.
func Load(r io.Reader) ([]domain.CollectionSchema, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing schema file: %w", err)
	}
	for _, schema := range file.Collections {
		if err := Validate(schema); err != nil {
			return nil, err
		}
	}
	return file.Collections, nil
}

// LoadFile reads and parses a YAML schema file from disk.
func LoadFile(path string) ([]domain.CollectionSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
