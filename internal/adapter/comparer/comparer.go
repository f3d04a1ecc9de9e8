// Package comparer contains the default [domain.Comparer] implementation: a
// total order across heterogeneous value kinds, shared by condition
// evaluation and sorting.
package comparer

import (
	"cmp"
	"encoding/json"
	"math/big"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/leoafarias/firekit-sub000/domain"
)

// Comparer implements [domain.Comparer].
//
// Values are first classified into a kind ("boolean", "date", "number",
// "object", "string"). Two values of the same kind compare within the kind;
// any mismatched pair compares by the lexical order of the kind names, which
// is stable and deterministic but not semantically meaningful.
type Comparer struct {
	collator *collate.Collator
}

// Option configures a Comparer.
type Option func(*Comparer)

// WithLanguage sets the collation language for string comparison. The
// default is [language.Und], whose tailoring is stable across machines.
func WithLanguage(tag language.Tag) Option {
	return func(c *Comparer) {
		c.collator = collate.New(tag)
	}
}

// NewComparer returns a new implementation of [domain.Comparer].
func NewComparer(opts ...Option) domain.Comparer {
	c := &Comparer{
		collator: collate.New(language.Und),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare implements [domain.Comparer].
func (c *Comparer) Compare(a, b any) int {
	// nil (and unresolved fields, which callers pass as nil) sorts before
	// any defined value; two nullish values compare equal.
	if comp, ok := c.checkNil(a, b); ok {
		return comp
	}

	kindA, kindB := c.kindOf(a), c.kindOf(b)
	if kindA != kindB {
		return cmp.Compare(kindA, kindB)
	}

	switch kindA {
	case kindDate:
		return a.(time.Time).Compare(b.(time.Time))
	case kindString:
		return c.collator.CompareString(a.(string), b.(string))
	case kindNumber:
		na, _ := c.asNumber(a)
		nb, _ := c.asNumber(b)
		return na.Cmp(nb)
	case kindBoolean:
		return c.compareBool(a.(bool), b.(bool))
	default:
		return c.compareObjects(a, b)
	}
}

const (
	kindBoolean = "boolean"
	kindDate    = "date"
	kindNumber  = "number"
	kindObject  = "object"
	kindString  = "string"
)

func (c *Comparer) kindOf(v any) string {
	switch v.(type) {
	case time.Time:
		return kindDate
	case string:
		return kindString
	case bool:
		return kindBoolean
	}
	if _, ok := c.asNumber(v); ok {
		return kindNumber
	}
	return kindObject
}

func (c *Comparer) checkNil(a, b any) (int, bool) {
	if a == nil {
		if b == nil {
			return 0, true
		}
		return -1, true
	}
	if b == nil {
		return 1, true
	}
	return 0, false
}

// compareObjects falls back to comparing canonical JSON serializations
// lexically. Serialization failures (cyclic structures, channels and the
// like) degrade to equal rather than failing the whole query.
func (c *Comparer) compareObjects(a, b any) int {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return 0
	}
	return cmp.Compare(string(ja), string(jb))
}

func (c *Comparer) compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if a {
		return 1
	}
	return -1
}

// asNumber widens every numeric kind through big.Float so int64 and float64
// compare without precision loss.
func (c *Comparer) asNumber(v any) (*big.Float, bool) {
	r := big.NewFloat(0)
	switch n := v.(type) {
	case int:
		r.SetInt64(int64(n))
	case int8:
		r.SetInt64(int64(n))
	case int16:
		r.SetInt64(int64(n))
	case int32:
		r.SetInt64(int64(n))
	case int64:
		r.SetInt64(n)
	case uint:
		r.SetUint64(uint64(n))
	case uint8:
		r.SetUint64(uint64(n))
	case uint16:
		r.SetUint64(uint64(n))
	case uint32:
		r.SetUint64(uint64(n))
	case uint64:
		r.SetUint64(n)
	case float32:
		r.SetFloat64(float64(n))
	case float64:
		r.SetFloat64(n)
	default:
		return nil, false
	}
	return r, true
}
