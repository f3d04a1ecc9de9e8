// Package evaluator contains the default [domain.Evaluator] implementation:
// it evaluates one query condition against a storage entry.
package evaluator

import (
	"github.com/goccy/go-reflect"

	"github.com/leoafarias/firekit-sub000/domain"
	"github.com/leoafarias/firekit-sub000/internal/adapter/comparer"
	"github.com/leoafarias/firekit-sub000/internal/adapter/fieldpath"
)

// matchFn evaluates one operator given the resolved field value and the
// condition argument.
type matchFn func(fieldValue any, condValue any) bool

// Evaluator implements [domain.Evaluator]. Unknown operators and operator
// type precondition failures evaluate to false so that a single malformed
// document or condition can never abort a whole query.
type Evaluator struct {
	cmp      domain.Comparer
	resolver domain.PathResolver
	ops      map[domain.ComparisonOperator]matchFn
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithComparer sets the comparer used for all value comparisons.
func WithComparer(c domain.Comparer) Option {
	return func(e *Evaluator) {
		e.cmp = c
	}
}

// WithPathResolver sets the resolver used for field access.
func WithPathResolver(r domain.PathResolver) Option {
	return func(e *Evaluator) {
		e.resolver = r
	}
}

// NewEvaluator returns a new implementation of [domain.Evaluator].
func NewEvaluator(opts ...Option) domain.Evaluator {
	e := &Evaluator{
		cmp:      comparer.NewComparer(),
		resolver: fieldpath.NewResolver(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ops = map[domain.ComparisonOperator]matchFn{
		domain.OperatorEqual:            e.equal,
		domain.OperatorNotEqual:         e.notEqual,
		domain.OperatorLessThan:         e.lessThan,
		domain.OperatorLessThanEqual:    e.lessThanEqual,
		domain.OperatorGreaterThan:      e.greaterThan,
		domain.OperatorGreaterThanEqual: e.greaterThanEqual,
		domain.OperatorIn:               e.in,
		domain.OperatorNotIn:            e.notIn,
		domain.OperatorArrayContains:    e.arrayContains,
		domain.OperatorArrayContainsAny: e.arrayContainsAny,
	}
	return e
}

// Matches implements [domain.Evaluator].
func (e *Evaluator) Matches(entry *domain.StorageEntry, cond domain.QueryCondition) bool {
	op, ok := e.ops[cond.Operator]
	if !ok {
		return false
	}
	// Undefined fields participate as nil: the comparator already sorts
	// nullish values before everything else.
	value, _ := e.resolver.Resolve(entry, cond.Field)
	return op(value, cond.Value)
}

// MatchesAll implements [domain.Evaluator].
func (e *Evaluator) MatchesAll(entry *domain.StorageEntry, conds []domain.QueryCondition) bool {
	for _, cond := range conds {
		if !e.Matches(entry, cond) {
			return false
		}
	}
	return true
}

func (e *Evaluator) equal(fieldValue, condValue any) bool {
	return e.cmp.Compare(fieldValue, condValue) == 0
}

func (e *Evaluator) notEqual(fieldValue, condValue any) bool {
	return e.cmp.Compare(fieldValue, condValue) != 0
}

func (e *Evaluator) lessThan(fieldValue, condValue any) bool {
	return e.cmp.Compare(fieldValue, condValue) < 0
}

func (e *Evaluator) lessThanEqual(fieldValue, condValue any) bool {
	return e.cmp.Compare(fieldValue, condValue) <= 0
}

func (e *Evaluator) greaterThan(fieldValue, condValue any) bool {
	return e.cmp.Compare(fieldValue, condValue) > 0
}

func (e *Evaluator) greaterThanEqual(fieldValue, condValue any) bool {
	return e.cmp.Compare(fieldValue, condValue) >= 0
}

func (e *Evaluator) in(fieldValue, condValue any) bool {
	candidates, ok := asSlice(condValue)
	if !ok {
		return false
	}
	for _, candidate := range candidates {
		if e.cmp.Compare(fieldValue, candidate) == 0 {
			return true
		}
	}
	return false
}

func (e *Evaluator) notIn(fieldValue, condValue any) bool {
	candidates, ok := asSlice(condValue)
	if !ok {
		return false
	}
	for _, candidate := range candidates {
		if e.cmp.Compare(fieldValue, candidate) == 0 {
			return false
		}
	}
	return true
}

func (e *Evaluator) arrayContains(fieldValue, condValue any) bool {
	items, ok := asSlice(fieldValue)
	if !ok {
		return false
	}
	for _, item := range items {
		if e.cmp.Compare(item, condValue) == 0 {
			return true
		}
	}
	return false
}

func (e *Evaluator) arrayContainsAny(fieldValue, condValue any) bool {
	items, ok := asSlice(fieldValue)
	if !ok {
		return false
	}
	candidates, ok := asSlice(condValue)
	if !ok {
		return false
	}
	for _, item := range items {
		for _, candidate := range candidates {
			if e.cmp.Compare(item, candidate) == 0 {
				return true
			}
		}
	}
	return false
}

// asSlice normalizes any slice or array value into []any. Non-list values
// report false, which the operators translate into a non-match.
func asSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if arr, ok := v.([]any); ok {
		return arr, true
	}
	r := reflect.ValueNoEscapeOf(v)
	if r.Kind() != reflect.Slice && r.Kind() != reflect.Array {
		return nil, false
	}
	res := make([]any, r.Len())
	for i := range res {
		res[i] = r.Index(i).Interface()
	}
	return res, true
}
