// Package fieldpath contains the default [domain.PathResolver]
// implementation: dot-notation field access over storage entries.
package fieldpath

import (
	"strings"

	"github.com/leoafarias/firekit-sub000/domain"
)

// Resolver implements [domain.PathResolver]. Paths are re-walked per call,
// per document; collections are assumed small enough that caching would not
// pay for itself.
type Resolver struct{}

// NewResolver returns a new implementation of [domain.PathResolver].
func NewResolver() domain.PathResolver {
	return &Resolver{}
}

// Resolve implements [domain.PathResolver].
func (r *Resolver) Resolve(entry *domain.StorageEntry, path string) (any, bool) {
	if entry == nil || path == "" {
		return nil, false
	}

	// Bare metadata segments read from the entry itself, not from data.
	switch path {
	case "id":
		return entry.ID, true
	case "createdAt", "createTime":
		return entry.CreateTime, true
	case "updatedAt", "updateTime":
		return entry.UpdateTime, true
	case "deletedAt":
		return nil, true
	}

	parts := strings.Split(path, ".")
	// Callers may address fields as "data.foo.bar" uniformly with the
	// metadata paths above; the leading "data" segment is discarded.
	if parts[0] == "data" {
		parts = parts[1:]
		if len(parts) == 0 {
			return nil, false
		}
	}

	var current any = entry.Data
	for i, part := range parts {
		obj, ok := asObject(current)
		if !ok {
			return nil, false
		}
		value, ok := obj[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return value, true
		}
		current = value
	}
	return nil, false
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case domain.Document:
		return t, t != nil
	case map[string]any:
		return t, t != nil
	default:
		return nil, false
	}
}
