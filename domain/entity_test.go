package domain

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type EntityTestSuite struct {
	suite.Suite
}

// Clone copies nested maps and slices; mutating the copy never reaches the
// original.
func (s *EntityTestSuite) TestDocumentClone() {
	src := Document{
		"name":    "ada",
		"address": Document{"city": "london"},
		"geo":     map[string]any{"lat": 51.5},
		"tags":    []any{"a", "b"},
	}
	cp := src.Clone()
	s.Equal(src, cp)

	cp["name"] = "mutated"
	cp["address"].(Document)["city"] = "paris"
	cp["tags"].([]any)[0] = "z"

	s.Equal("ada", src["name"])
	s.Equal("london", src["address"].(Document)["city"])
	s.Equal("a", src["tags"].([]any)[0])

	s.Nil(Document(nil).Clone())
}

func (s *EntityTestSuite) TestStorageEntryClone() {
	entry := &StorageEntry{ID: "u1", Data: Document{"name": "ada"}}
	cp := entry.Clone()
	cp.Data["name"] = "mutated"
	s.Equal("ada", entry.Data["name"])

	s.Nil((*StorageEntry)(nil).Clone())
}

// Merge is shallow: patch keys replace base keys whole, nested objects
// included.
func (s *EntityTestSuite) TestMerge() {
	base := Document{
		"name":    "ada",
		"age":     36,
		"address": Document{"city": "london", "zip": "E1"},
	}
	patch := Document{
		"age":     37,
		"address": Document{"city": "paris"},
	}

	merged := Merge(base, patch)
	s.Equal("ada", merged["name"])
	s.Equal(37, merged["age"])
	s.Equal(Document{"city": "paris"}, merged["address"])

	// Neither input is mutated.
	s.Equal(36, base["age"])
	s.Equal(Document{"city": "paris"}, patch["address"])
}

func (s *EntityTestSuite) TestQueryOptionsClone() {
	opts := QueryOptions{
		Conditions: []QueryCondition{{Field: "age", Operator: OperatorEqual, Value: 1}},
		Sort:       []SortSpec{{Field: "age", Direction: Ascending}},
		Skip:       2,
		Limit:      5,
	}
	cp := opts.Clone()
	cp.Conditions[0].Value = 9
	cp.Sort[0].Direction = Descending

	s.Equal(1, opts.Conditions[0].Value)
	s.Equal(Ascending, opts.Sort[0].Direction)
}

func (s *EntityTestSuite) TestSchemaFieldLookup() {
	schema := CollectionSchema{
		Name:   "users",
		Fields: []FieldSpec{{Name: "tags", Codec: CodecCSV}},
	}
	field, ok := schema.Field("tags")
	s.True(ok)
	s.Equal(CodecCSV, field.Codec)

	_, ok = schema.Field("missing")
	s.False(ok)
}

func TestEntityTestSuite(t *testing.T) {
	suite.Run(t, new(EntityTestSuite))
}
