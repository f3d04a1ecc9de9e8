package repository

import (
	"context"
	"fmt"

	"github.com/leoafarias/firekit-sub000/domain"
	"github.com/leoafarias/firekit-sub000/internal/adapter/query"
)

// Repository implements [domain.Repository] for one registered collection.
type Repository struct {
	handle *Handle
	schema *domain.CollectionSchema
}

// Create implements [domain.Repository].
func (r *Repository) Create(ctx context.Context, value any, id string) (*domain.Result, error) {
	doc, err := r.handle.transformer.ToStorageFormat(r.schema, value)
	if err != nil {
		return nil, fmt.Errorf("transforming value: %w", err)
	}

	if id == "" {
		id, err = r.handle.idGenerator.GenerateID()
		if err != nil {
			return nil, fmt.Errorf("generating id: %w", err)
		}
	}

	now := r.handle.timeGetter.GetTime()
	entry := &domain.StorageEntry{
		ID:         id,
		Data:       doc,
		CreateTime: now,
		UpdateTime: now,
	}
	if err := r.handle.storage.Set(ctx, r.schema.Name, id, entry); err != nil {
		return nil, err
	}
	r.handle.logger.Debug("created document", "collection", r.schema.Name, "id", id)
	return r.result(entry)
}

// Update implements [domain.Repository].
func (r *Repository) Update(ctx context.Context, id string, patch any) (*domain.Result, error) {
	doc, err := r.handle.transformer.ToStorageFormat(r.schema, patch)
	if err != nil {
		return nil, fmt.Errorf("transforming patch: %w", err)
	}

	entry, err := r.handle.storage.Get(ctx, r.schema.Name, id)
	if err != nil {
		return nil, err
	}
	entry.Data = domain.Merge(entry.Data, doc)
	entry.UpdateTime = r.handle.timeGetter.GetTime()

	if err := r.handle.storage.Set(ctx, r.schema.Name, id, entry); err != nil {
		return nil, err
	}
	r.handle.logger.Debug("updated document", "collection", r.schema.Name, "id", id)
	return r.result(entry)
}

// Delete implements [domain.Repository]. Unlike [domain.Storage.Delete], a
// missing id is an [domain.ErrNotFound] error here.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.handle.storage.Get(ctx, r.schema.Name, id); err != nil {
		return err
	}
	if err := r.handle.storage.Delete(ctx, r.schema.Name, id); err != nil {
		return err
	}
	r.handle.logger.Debug("deleted document", "collection", r.schema.Name, "id", id)
	return nil
}

// GetByID implements [domain.Repository]. A nil target skips decoding and
// only returns the result envelope.
func (r *Repository) GetByID(ctx context.Context, id string, target any) (*domain.Result, error) {
	entry, err := r.handle.storage.Get(ctx, r.schema.Name, id)
	if err != nil {
		return nil, err
	}
	if target != nil {
		if err := r.handle.transformer.FromStorageFormat(r.schema, entry.Data, target); err != nil {
			return nil, fmt.Errorf("decoding document %q: %w", id, err)
		}
	}
	return r.result(entry)
}

// GetAll implements [domain.Repository].
func (r *Repository) GetAll(ctx context.Context) ([]domain.Result, error) {
	entries, err := r.handle.storage.List(ctx, r.schema.Name)
	if err != nil {
		return nil, err
	}
	res := make([]domain.Result, len(entries))
	for n, entry := range entries {
		materialized, err := r.result(entry)
		if err != nil {
			return nil, err
		}
		res[n] = *materialized
	}
	return res, nil
}

// Query implements [domain.Repository].
func (r *Repository) Query() domain.Query {
	return query.NewBuilder(r.handle.storage, r.schema,
		query.WithEvaluator(r.handle.evaluator),
		query.WithComparer(r.handle.cmp),
		query.WithPathResolver(r.handle.resolver),
		query.WithTransformer(r.handle.transformer),
	)
}

// Schema implements [domain.Repository].
func (r *Repository) Schema() *domain.CollectionSchema {
	s := *r.schema
	return &s
}

// result materializes an entry through the transform pipeline.
func (r *Repository) result(entry *domain.StorageEntry) (*domain.Result, error) {
	var data domain.Document
	if err := r.handle.transformer.FromStorageFormat(r.schema, entry.Data, &data); err != nil {
		return nil, fmt.Errorf("transforming entry %q: %w", entry.ID, err)
	}
	return &domain.Result{
		ID:        entry.ID,
		CreatedAt: entry.CreateTime,
		UpdatedAt: entry.UpdateTime,
		DeletedAt: nil,
		Data:      data,
	}, nil
}
