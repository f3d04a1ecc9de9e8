package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/leoafarias/firekit-sub000/domain"
)

type SchemaTestSuite struct {
	suite.Suite
	r *Registry
}

func (s *SchemaTestSuite) SetupTest() {
	s.r = NewRegistry()
}

func (s *SchemaTestSuite) TestRegisterAndLookup() {
	err := s.r.Register(domain.CollectionSchema{
		Name: "users",
		Fields: []domain.FieldSpec{
			{Name: "tags", Codec: domain.CodecCSV},
		},
	})
	s.Require().NoError(err)

	got, err := s.r.Lookup("users")
	s.Require().NoError(err)
	s.Equal("users", got.Name)

	field, ok := got.Field("tags")
	s.True(ok)
	s.Equal(domain.CodecCSV, field.Codec)

	_, ok = got.Field("missing")
	s.False(ok)
}

func (s *SchemaTestSuite) TestLookupUnregistered() {
	_, err := s.r.Lookup("ghosts")
	var noSchema *domain.ErrNoSchema
	s.ErrorAs(err, &noSchema)
	s.Equal("ghosts", noSchema.Collection)
}

func (s *SchemaTestSuite) TestRegisterReplaces() {
	s.Require().NoError(s.r.Register(domain.CollectionSchema{Name: "users"}))
	s.Require().NoError(s.r.Register(domain.CollectionSchema{
		Name:   "users",
		Fields: []domain.FieldSpec{{Name: "tags", Codec: domain.CodecCSV}},
	}))

	got, err := s.r.Lookup("users")
	s.Require().NoError(err)
	s.Len(got.Fields, 1)
}

func (s *SchemaTestSuite) TestCollections() {
	s.Require().NoError(s.r.Register(domain.CollectionSchema{Name: "users"}))
	s.Require().NoError(s.r.Register(domain.CollectionSchema{Name: "posts"}))
	s.Equal([]string{"posts", "users"}, s.r.Collections())
}

func (s *SchemaTestSuite) TestValidation() {
	var emptyName *domain.ErrEmptyCollectionName
	s.ErrorAs(s.r.Register(domain.CollectionSchema{}), &emptyName)

	var emptyField *domain.ErrEmptyFieldName
	err := s.r.Register(domain.CollectionSchema{
		Name:   "users",
		Fields: []domain.FieldSpec{{Codec: domain.CodecCSV}},
	})
	s.ErrorAs(err, &emptyField)
	s.Equal("users", emptyField.Collection)

	err = s.r.Register(domain.CollectionSchema{
		Name:   "users",
		Fields: []domain.FieldSpec{{Name: "tags", Codec: "base64"}},
	})
	s.ErrorContains(err, "unknown codec")
}

const schemaYAML = `
collections:
  - name: users
    fields:
      - name: tags
        codec: csv
      - name: email
  - name: posts
`

func (s *SchemaTestSuite) TestLoad() {
	schemas, err := Load(strings.NewReader(schemaYAML))
	s.Require().NoError(err)
	s.Require().Len(schemas, 2)

	s.Equal("users", schemas[0].Name)
	s.Require().Len(schemas[0].Fields, 2)
	s.Equal(domain.CodecCSV, schemas[0].Fields[0].Codec)
	s.Equal(domain.CodecNone, schemas[0].Fields[1].Codec)
	s.Equal("posts", schemas[1].Name)
}

func (s *SchemaTestSuite) TestLoadRejectsInvalid() {
	_, err := Load(strings.NewReader("collections:\n  - fields: []\n"))
	var emptyName *domain.ErrEmptyCollectionName
	s.ErrorAs(err, &emptyName)

	// Unknown top-level keys are a config mistake, not silence.
	_, err = Load(strings.NewReader("collektions: []\n"))
	s.Error(err)
}

func (s *SchemaTestSuite) TestLoadFile() {
	path := filepath.Join(s.T().TempDir(), "schemas.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(schemaYAML), 0o644))

	schemas, err := LoadFile(path)
	s.Require().NoError(err)
	s.Len(schemas, 2)

	_, err = LoadFile(filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.Error(err)
}

func TestSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(SchemaTestSuite))
}
