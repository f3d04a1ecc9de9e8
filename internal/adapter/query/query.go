// Package query contains the default [domain.Query] implementation: an
// immutable, chainable builder that filters, sorts and paginates a snapshot
// of one collection.
package query

import (
	"context"
	"fmt"
	"slices"

	"github.com/leoafarias/firekit-sub000/domain"
	"github.com/leoafarias/firekit-sub000/internal/adapter/comparer"
	"github.com/leoafarias/firekit-sub000/internal/adapter/evaluator"
	"github.com/leoafarias/firekit-sub000/internal/adapter/fieldpath"
	"github.com/leoafarias/firekit-sub000/internal/adapter/transform"
)

// DefaultLimit is the page size of a fresh builder.
const DefaultLimit int64 = 10

// Builder implements [domain.Query]. Builder methods copy the whole state
// into a new Builder, so holding onto an intermediate query and branching
// from it is always safe. Execution methods snapshot the backing store at
// call time; there is no fixed snapshot across chained calls.
type Builder struct {
	storage     domain.Storage
	schema      *domain.CollectionSchema
	evaluator   domain.Evaluator
	cmp         domain.Comparer
	resolver    domain.PathResolver
	transformer domain.Transformer
	opts        domain.QueryOptions
	err         error
}

// Option configures a Builder.
type Option func(*Builder)

// WithEvaluator sets the condition evaluator.
func WithEvaluator(e domain.Evaluator) Option {
	return func(b *Builder) {
		b.evaluator = e
	}
}

// WithComparer sets the comparer used for sorting.
func WithComparer(c domain.Comparer) Option {
	return func(b *Builder) {
		b.cmp = c
	}
}

// WithPathResolver sets the resolver used for sort criteria.
func WithPathResolver(r domain.PathResolver) Option {
	return func(b *Builder) {
		b.resolver = r
	}
}

// WithTransformer sets the transform pipeline applied to materialized
// results.
func WithTransformer(t domain.Transformer) Option {
	return func(b *Builder) {
		b.transformer = t
	}
}

// NewBuilder returns a new implementation of [domain.Query] over one
// collection of the given storage backend.
func NewBuilder(storage domain.Storage, schema *domain.CollectionSchema, opts ...Option) domain.Query {
	b := &Builder{
		storage:     storage,
		schema:      schema,
		cmp:         comparer.NewComparer(),
		resolver:    fieldpath.NewResolver(),
		transformer: transform.NewTransformer(),
		opts: domain.QueryOptions{
			Limit: DefaultLimit,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.evaluator == nil {
		b.evaluator = evaluator.NewEvaluator(
			evaluator.WithComparer(b.cmp),
			evaluator.WithPathResolver(b.resolver),
		)
	}
	return b
}

// clone copies the builder, deep-copying its options.
func (b *Builder) clone() *Builder {
	res := *b
	res.opts = b.opts.Clone()
	return &res
}

// Where implements [domain.Query].
func (b *Builder) Where(field string, op domain.ComparisonOperator, value any) domain.Query {
	res := b.clone()
	res.opts.Conditions = append(res.opts.Conditions, domain.QueryCondition{
		Field:    field,
		Operator: op,
		Value:    value,
	})
	return res
}

// OrderBy implements [domain.Query].
func (b *Builder) OrderBy(field string, direction domain.SortDirection) domain.Query {
	res := b.clone()
	res.opts.Sort = append(res.opts.Sort, domain.SortSpec{
		Field:     field,
		Direction: direction,
	})
	return res
}

// Skip implements [domain.Query].
func (b *Builder) Skip(n int64) domain.Query {
	res := b.clone()
	res.opts.Skip = n
	return res
}

// Limit implements [domain.Query]. A negative limit poisons the builder: the
// error is kept and surfaces on the next execution call, preserving the
// chainable surface.
func (b *Builder) Limit(n int64) domain.Query {
	res := b.clone()
	if n < 0 {
		if res.err == nil {
			res.err = &domain.ErrInvalidLimit{Limit: n}
		}
		return res
	}
	res.opts.Limit = n
	return res
}

// Clone implements [domain.Query].
func (b *Builder) Clone() domain.Query {
	return b.clone()
}

// GetQueryOptions implements [domain.Query].
func (b *Builder) GetQueryOptions() domain.QueryOptions {
	return b.opts.Clone()
}

// GetResults implements [domain.Query].
func (b *Builder) GetResults(ctx context.Context) ([]domain.Result, error) {
	page, err := b.page(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]domain.Result, len(page))
	for n, entry := range page {
		var data domain.Document
		if err := b.transformer.FromStorageFormat(b.schema, entry.Data, &data); err != nil {
			return nil, fmt.Errorf("transforming entry %q: %w", entry.ID, err)
		}
		res[n] = domain.Result{
			ID:        entry.ID,
			CreatedAt: entry.CreateTime,
			UpdatedAt: entry.UpdateTime,
			DeletedAt: nil,
			Data:      data,
		}
	}
	return res, nil
}

// Count implements [domain.Query]. The count mirrors pagination: it reflects
// the effective page size after skip/limit, not the raw match count.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	matched, err := b.filter(ctx)
	if err != nil {
		return 0, err
	}
	count := max(int64(len(matched))-max(b.opts.Skip, 0), 0)
	return min(count, b.opts.Limit), nil
}

// page filters, sorts and slices a fresh snapshot.
func (b *Builder) page(ctx context.Context) ([]*domain.StorageEntry, error) {
	matched, err := b.filter(ctx)
	if err != nil {
		return nil, err
	}
	if len(b.opts.Sort) != 0 {
		b.sort(matched)
	}
	return b.slice(matched), nil
}

func (b *Builder) filter(ctx context.Context) ([]*domain.StorageEntry, error) {
	if b.err != nil {
		return nil, b.err
	}

	snapshot, err := b.storage.List(ctx, b.schema.Name)
	if err != nil {
		return nil, fmt.Errorf("listing collection %q: %w", b.schema.Name, err)
	}

	res := make([]*domain.StorageEntry, 0, len(snapshot))
	for _, entry := range snapshot {
		if b.evaluator.MatchesAll(entry, b.opts.Conditions) {
			res = append(res, entry)
		}
	}
	return res, nil
}

// sort orders entries by the composite sort chain. The sort is stable: two
// entries equal on every criterion keep their storage order.
func (b *Builder) sort(entries []*domain.StorageEntry) {
	slices.SortStableFunc(entries, func(x, y *domain.StorageEntry) int {
		for _, crit := range b.opts.Sort {
			comp := b.compareByCriterion(x, y, crit)
			if comp != 0 {
				return comp
			}
		}
		return 0
	})
}

func (b *Builder) compareByCriterion(x, y *domain.StorageEntry, crit domain.SortSpec) int {
	valueX, _ := b.resolver.Resolve(x, crit.Field)
	valueY, _ := b.resolver.Resolve(y, crit.Field)
	comp := b.cmp.Compare(valueX, valueY)
	if crit.Direction == domain.Descending {
		return -comp
	}
	return comp
}

func (b *Builder) slice(entries []*domain.StorageEntry) []*domain.StorageEntry {
	length := int64(len(entries))
	start := min(max(b.opts.Skip, 0), length)
	end := min(start+b.opts.Limit, length)
	return entries[start:end]
}
