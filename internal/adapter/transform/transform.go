// Package transform contains the default [domain.Transformer]
// implementation: it converts caller structs and maps into storage documents
// and back, applying the per-field codecs a collection schema declares.
package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-reflect"
	"github.com/mitchellh/mapstructure"

	"github.com/leoafarias/firekit-sub000/domain"
)

// TagName is the struct tag consulted when parsing and decoding entities.
const TagName = "stash"

var timeType = reflect.TypeOf(time.Time{})

// Transformer implements [domain.Transformer].
type Transformer struct{}

// NewTransformer returns a new implementation of [domain.Transformer].
func NewTransformer() domain.Transformer {
	return &Transformer{}
}

// ToStorageFormat implements [domain.Transformer].
func (t *Transformer) ToStorageFormat(schema *domain.CollectionSchema, value any) (domain.Document, error) {
	doc, err := t.parseDocument(value)
	if err != nil {
		return nil, err
	}
	if schema != nil {
		t.encodeFields(schema, doc)
	}
	return doc, nil
}

// FromStorageFormat implements [domain.Transformer].
func (t *Transformer) FromStorageFormat(schema *domain.CollectionSchema, doc domain.Document, target any) error {
	if target == nil {
		return &domain.ErrTargetNil{}
	}
	decoded := doc.Clone()
	if schema != nil {
		t.decodeFields(schema, decoded)
	}

	switch tgt := target.(type) {
	case *domain.Document:
		*tgt = decoded
		return nil
	case *map[string]any:
		*tgt = decoded
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: TagName,
		Result:  target,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(decoded))
}

// encodeFields applies the schema's codecs in place.
func (t *Transformer) encodeFields(schema *domain.CollectionSchema, doc domain.Document) {
	for _, field := range schema.Fields {
		if field.Codec != domain.CodecCSV {
			continue
		}
		value, ok := doc[field.Name]
		if !ok {
			continue
		}
		if joined, ok := joinCSV(value); ok {
			doc[field.Name] = joined
		}
	}
}

// decodeFields reverses the schema's codecs in place.
func (t *Transformer) decodeFields(schema *domain.CollectionSchema, doc domain.Document) {
	for _, field := range schema.Fields {
		if field.Codec != domain.CodecCSV {
			continue
		}
		value, ok := doc[field.Name].(string)
		if !ok {
			continue
		}
		if value == "" {
			doc[field.Name] = []string{}
			continue
		}
		doc[field.Name] = strings.Split(value, ",")
	}
}

func joinCSV(value any) (string, bool) {
	switch items := value.(type) {
	case []string:
		return strings.Join(items, ","), true
	case []any:
		parts := make([]string, len(items))
		for n, item := range items {
			s, ok := item.(string)
			if !ok {
				return "", false
			}
			parts[n] = s
		}
		return strings.Join(parts, ","), true
	default:
		return "", false
	}
}

// parseDocument normalizes a caller value (Document, map or struct) into a
// storage Document.
func (t *Transformer) parseDocument(value any) (domain.Document, error) {
	if value == nil {
		return domain.Document{}, nil
	}
	switch v := value.(type) {
	case domain.Document:
		return v.Clone(), nil
	case map[string]any:
		return domain.Document(v).Clone(), nil
	}

	r := reflect.ValueNoEscapeOf(value)
	for r.Kind() == reflect.Ptr || r.Kind() == reflect.Interface {
		if r.IsNil() {
			return domain.Document{}, nil
		}
		r = r.Elem()
	}
	parsed, err := t.parseValue(r)
	if err != nil {
		return nil, err
	}
	doc, ok := parsed.(domain.Document)
	if !ok {
		return nil, fmt.Errorf("expected map or struct, got %s", r.Type().String())
	}
	return doc, nil
}

func (t *Transformer) parseValue(r reflect.Value) (any, error) {
	for r.Kind() == reflect.Ptr || r.Kind() == reflect.Interface {
		if r.IsNil() {
			return nil, nil
		}
		r = r.Elem()
	}

	switch r.Kind() {
	case reflect.Struct:
		if r.Type() == timeType {
			return r.Interface(), nil
		}
		return t.parseStruct(r)
	case reflect.Map:
		return t.parseMap(r)
	case reflect.Slice, reflect.Array:
		res := make([]any, r.Len())
		for i := range res {
			value, err := t.parseValue(r.Index(i))
			if err != nil {
				return nil, err
			}
			res[i] = value
		}
		return res, nil
	default:
		return r.Interface(), nil
	}
}

func (t *Transformer) parseStruct(r reflect.Value) (any, error) {
	typ := r.Type()
	doc := make(domain.Document, typ.NumField())
	for i := range typ.NumField() {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		name, omitEmpty := fieldName(field)
		if name == "-" {
			continue
		}
		value, err := t.parseValue(r.Field(i))
		if err != nil {
			return nil, err
		}
		if omitEmpty && value == nil {
			continue
		}
		doc[name] = value
	}
	return doc, nil
}

func (t *Transformer) parseMap(r reflect.Value) (any, error) {
	if r.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("map keys must be strings, got %s", r.Type().Key().String())
	}
	doc := make(domain.Document, r.Len())
	for _, key := range r.MapKeys() {
		value, err := t.parseValue(r.MapIndex(key))
		if err != nil {
			return nil, err
		}
		doc[key.String()] = value
	}
	return doc, nil
}

func fieldName(field reflect.StructField) (string, bool) {
	tag, ok := field.Tag.Lookup(TagName)
	if !ok {
		return field.Name, false
	}
	name, rest, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, strings.Contains(rest, "omitempty")
}
