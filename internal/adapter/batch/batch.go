// Package batch contains the default [domain.Batch] implementation: a queue
// of create/update/delete operations applied all-or-nothing on commit.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/leoafarias/firekit-sub000/domain"
	"github.com/leoafarias/firekit-sub000/internal/adapter/timegetter"
)

// Processor implements [domain.Batch]. Queued operations never touch storage
// before Commit. Processor is not safe for concurrent use; like the rest of
// the engine it assumes cooperative single-writer access.
type Processor struct {
	storage    domain.Storage
	timeGetter domain.TimeGetter
	queue      []domain.BatchOperation
}

// Option configures a Processor.
type Option func(*Processor)

// WithTimeGetter sets the clock used to timestamp mutations.
func WithTimeGetter(t domain.TimeGetter) Option {
	return func(p *Processor) {
		p.timeGetter = t
	}
}

// NewProcessor returns a new implementation of [domain.Batch] over the given
// storage backend.
func NewProcessor(storage domain.Storage, opts ...Option) domain.Batch {
	p := &Processor{
		storage:    storage,
		timeGetter: timegetter.NewTimeGetter(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Create implements [domain.Batch].
func (p *Processor) Create(schema *domain.CollectionSchema, id string, data domain.Document) error {
	return p.enqueue(schema, domain.BatchOperation{
		Type: domain.BatchCreate,
		ID:   id,
		Data: data.Clone(),
	})
}

// Update implements [domain.Batch].
func (p *Processor) Update(schema *domain.CollectionSchema, id string, data domain.Document) error {
	return p.enqueue(schema, domain.BatchOperation{
		Type: domain.BatchUpdate,
		ID:   id,
		Data: data.Clone(),
	})
}

// Delete implements [domain.Batch].
func (p *Processor) Delete(schema *domain.CollectionSchema, id string) error {
	return p.enqueue(schema, domain.BatchOperation{
		Type: domain.BatchDelete,
		ID:   id,
	})
}

// enqueue validates the collection metadata and appends the operation. The
// check happens at enqueue time, not commit time: passing a type with no
// registered collection is a programming error and should fail immediately.
func (p *Processor) enqueue(schema *domain.CollectionSchema, op domain.BatchOperation) error {
	if schema == nil || schema.Name == "" {
		return &domain.ErrNoSchema{}
	}
	op.Collection = schema.Name
	p.queue = append(p.queue, op)
	return nil
}

// Len implements [domain.Batch].
func (p *Processor) Len() int {
	return len(p.queue)
}

// Commit implements [domain.Batch].
//
// Operations are grouped by collection, preserving relative order within
// each group; groups are processed in first-appearance order of their
// collection in the queue. Before a collection is mutated, every one of its
// update/delete targets must exist. Any error rolls back every mutation
// already applied across all collections of this commit, restoring each
// entry to its pre-commit value or removing entries that did not exist. The
// queue is cleared whether the commit succeeded or the error propagated.
func (p *Processor) Commit(ctx context.Context) (err error) {
	if len(p.queue) == 0 {
		return nil
	}
	defer func() {
		p.queue = p.queue[:0]
	}()

	groups, order := p.group()

	// Side table of pre-images captured before the first mutation of each
	// entry. The nil value is the "did not exist" sentinel.
	preImages := make(map[string]map[string]*domain.StorageEntry)

	for _, collection := range order {
		if err = p.checkTargets(ctx, collection, groups[collection]); err != nil {
			break
		}
		if err = p.applyGroup(ctx, collection, groups[collection], preImages); err != nil {
			break
		}
	}
	if err == nil {
		return nil
	}

	if rollbackErr := p.rollback(ctx, preImages); rollbackErr != nil {
		return errors.Join(err, fmt.Errorf("rolling back batch: %w", rollbackErr))
	}
	return err
}

// group splits the queue per collection, keeping submission order inside
// each group and first-appearance order across groups.
func (p *Processor) group() (map[string][]domain.BatchOperation, []string) {
	groups := make(map[string][]domain.BatchOperation)
	var order []string
	for _, op := range p.queue {
		if _, seen := groups[op.Collection]; !seen {
			order = append(order, op.Collection)
		}
		groups[op.Collection] = append(groups[op.Collection], op)
	}
	return groups, order
}

// checkTargets verifies that every update/delete target of the group exists
// in storage before the group mutates anything. Creates queued in the same
// batch do not count: the check reads the pre-commit state only.
func (p *Processor) checkTargets(ctx context.Context, collection string, ops []domain.BatchOperation) error {
	for _, op := range ops {
		if op.Type != domain.BatchUpdate && op.Type != domain.BatchDelete {
			continue
		}
		if _, err := p.storage.Get(ctx, collection, op.ID); err != nil {
			return fmt.Errorf("batch %s: %w", op.Type, err)
		}
	}
	return nil
}

func (p *Processor) applyGroup(ctx context.Context, collection string, ops []domain.BatchOperation, preImages map[string]map[string]*domain.StorageEntry) error {
	for _, op := range ops {
		if err := p.recordPreImage(ctx, collection, op.ID, preImages); err != nil {
			return err
		}
		if err := p.apply(ctx, op); err != nil {
			return fmt.Errorf("batch %s %q in %q: %w", op.Type, op.ID, collection, err)
		}
	}
	return nil
}

// recordPreImage captures the entry's current value the first time this
// commit touches it. Later operations on the same entry keep the original
// pre-image so rollback restores the true pre-commit state.
func (p *Processor) recordPreImage(ctx context.Context, collection, id string, preImages map[string]map[string]*domain.StorageEntry) error {
	coll, ok := preImages[collection]
	if !ok {
		coll = make(map[string]*domain.StorageEntry)
		preImages[collection] = coll
	}
	if _, recorded := coll[id]; recorded {
		return nil
	}
	entry, err := p.storage.Get(ctx, collection, id)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			coll[id] = nil
			return nil
		}
		return err
	}
	coll[id] = entry
	return nil
}

func (p *Processor) apply(ctx context.Context, op domain.BatchOperation) error {
	switch op.Type {
	case domain.BatchCreate:
		now := p.timeGetter.GetTime()
		return p.storage.Set(ctx, op.Collection, op.ID, &domain.StorageEntry{
			ID:         op.ID,
			Data:       op.Data,
			CreateTime: now,
			UpdateTime: now,
		})

	case domain.BatchUpdate:
		entry, err := p.storage.Get(ctx, op.Collection, op.ID)
		if err != nil {
			return err
		}
		entry.Data = domain.Merge(entry.Data, op.Data)
		entry.UpdateTime = p.timeGetter.GetTime()
		return p.storage.Set(ctx, op.Collection, op.ID, entry)

	case domain.BatchDelete:
		return p.storage.Delete(ctx, op.Collection, op.ID)

	default:
		return fmt.Errorf("unknown batch operation type %q", op.Type)
	}
}

// rollback restores every recorded pre-image. Entries whose pre-image is the
// nil sentinel are deleted; all others are written back verbatim.
func (p *Processor) rollback(ctx context.Context, preImages map[string]map[string]*domain.StorageEntry) error {
	var errs []error
	for collection, entries := range preImages {
		for id, entry := range entries {
			var err error
			if entry == nil {
				err = p.storage.Delete(ctx, collection, id)
			} else {
				err = p.storage.Set(ctx, collection, id, entry)
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
