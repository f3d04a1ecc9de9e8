package comparer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/text/language"

	"github.com/leoafarias/firekit-sub000/domain"
)

type ComparerTestSuite struct {
	suite.Suite
	c domain.Comparer
}

func (s *ComparerTestSuite) SetupTest() {
	s.c = NewComparer()
}

// nil should always be the smallest value.
func (s *ComparerTestSuite) TestNilIsSmallest() {
	otherStuff := [...]any{"string", "", -1, 0, uint(12), false,
		time.UnixMilli(12345), domain.Document{}, []any{"quite", 5},
	}
	for _, stuff := range otherStuff {
		s.Equal(-1, s.c.Compare(nil, stuff))
		s.Equal(1, s.c.Compare(stuff, nil))
	}
	s.Equal(0, s.c.Compare(nil, nil))
}

// Mismatched kinds order by kind name: boolean, date, number, object, string.
func (s *ComparerTestSuite) TestKindOrder() {
	ladder := []any{
		false,
		time.UnixMilli(12345),
		42,
		domain.Document{"a": 1},
		"string",
	}
	for i := range ladder {
		for j := i + 1; j < len(ladder); j++ {
			s.Negative(s.c.Compare(ladder[i], ladder[j]))
			s.Positive(s.c.Compare(ladder[j], ladder[i]))
		}
	}
}

// All numeric kinds compare within one widened number domain.
func (s *ComparerTestSuite) TestNumbers() {
	testCases := []struct {
		arg1 any
		arg2 any
		res  int
	}{
		{arg1: int64(-12), arg2: int16(0), res: -1},
		{arg1: uint8(0), arg2: int8(-3), res: 1},
		{arg1: 5.7, arg2: uint32(2), res: 1},
		{arg1: 5.7, arg2: float32(12.5), res: -1},
		{arg1: uint64(0), arg2: uint16(0), res: 0},
		{arg1: -2.5, arg2: -2.5, res: 0},
		{arg1: int32(5), arg2: 5, res: 0},
		{arg1: 3, arg2: 3.0, res: 0},
	}
	for _, tc := range testCases {
		s.Equal(tc.res, s.c.Compare(tc.arg1, tc.arg2))
	}
}

func (s *ComparerTestSuite) TestStringsCollate() {
	testCases := []struct {
		arg1 string
		arg2 string
		res  int
	}{
		{arg1: "apple", arg2: "banana", res: -1},
		{arg1: "banana", arg2: "apple", res: 1},
		{arg1: "same", arg2: "same", res: 0},
		{arg1: "", arg2: "a", res: -1},
	}
	for _, tc := range testCases {
		s.Equal(tc.res, s.c.Compare(tc.arg1, tc.arg2))
	}
}

func (s *ComparerTestSuite) TestStringsWithLanguage() {
	c := NewComparer(WithLanguage(language.English))
	s.Negative(c.Compare("apple", "banana"))
	s.Equal(0, c.Compare("same", "same"))
}

func (s *ComparerTestSuite) TestBooleans() {
	s.Equal(-1, s.c.Compare(false, true))
	s.Equal(1, s.c.Compare(true, false))
	s.Equal(0, s.c.Compare(true, true))
	s.Equal(0, s.c.Compare(false, false))
}

func (s *ComparerTestSuite) TestDates() {
	earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s.Negative(s.c.Compare(earlier, later))
	s.Positive(s.c.Compare(later, earlier))
	s.Equal(0, s.c.Compare(earlier, earlier))
}

// Objects fall back to canonical JSON; the order is stable rather than
// meaningful.
func (s *ComparerTestSuite) TestObjects() {
	a := domain.Document{"name": "ada"}
	b := domain.Document{"name": "bob"}
	s.Negative(s.c.Compare(a, b))
	s.Positive(s.c.Compare(b, a))
	s.Equal(0, s.c.Compare(a, domain.Document{"name": "ada"}))

	// Arrays are objects too.
	s.Equal(0, s.c.Compare([]any{1, 2}, []any{1, 2}))
	s.NotEqual(0, s.c.Compare([]any{1, 2}, []any{2, 1}))
}

// Unserializable values degrade to equal instead of failing.
func (s *ComparerTestSuite) TestUnserializableDegradesToEqual() {
	s.Equal(0, s.c.Compare(make(chan int), make(chan int)))
	s.Equal(0, s.c.Compare(func() {}, domain.Document{"a": 1}))
}

// Compare defines a consistent order: swapping arguments flips the sign.
func (s *ComparerTestSuite) TestAntisymmetry() {
	values := []any{nil, false, true, time.UnixMilli(0), -1, 0, 2.5, "a", "b",
		domain.Document{"k": "v"}, []any{1},
	}
	for _, a := range values {
		for _, b := range values {
			s.Equal(s.c.Compare(a, b), -s.c.Compare(b, a))
		}
	}
}

func TestComparerTestSuite(t *testing.T) {
	suite.Run(t, new(ComparerTestSuite))
}
