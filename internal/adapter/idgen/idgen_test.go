package idgen

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type IDGeneratorTestSuite struct {
	suite.Suite
}

func (s *IDGeneratorTestSuite) TestDefaultGeneratesUUIDs() {
	g := NewIDGenerator()

	id, err := g.GenerateID()
	s.Require().NoError(err)
	_, parseErr := uuid.Parse(id)
	s.NoError(parseErr)

	other, err := g.GenerateID()
	s.Require().NoError(err)
	s.NotEqual(id, other)
}

// A custom entropy source makes IDs reproducible.
func (s *IDGeneratorTestSuite) TestReaderBackedIsDeterministic() {
	seed := bytes.Repeat([]byte{1, 2, 3, 4}, 32)

	g1 := NewIDGenerator(WithRandomReader(bytes.NewReader(seed)))
	g2 := NewIDGenerator(WithRandomReader(bytes.NewReader(seed)))

	id1, err := g1.GenerateID()
	s.Require().NoError(err)
	id2, err := g2.GenerateID()
	s.Require().NoError(err)
	s.Equal(id1, id2)
	s.Len(id1, 16)
	s.NotContains(id1, "+")
	s.NotContains(id1, "/")
	s.NotContains(id1, "=")
}

func (s *IDGeneratorTestSuite) TestReaderExhausted() {
	g := NewIDGenerator(WithRandomReader(bytes.NewReader(nil)))
	_, err := g.GenerateID()
	s.Error(err)
}

func TestIDGeneratorTestSuite(t *testing.T) {
	suite.Run(t, new(IDGeneratorTestSuite))
}
