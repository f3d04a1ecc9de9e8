// Package repository contains the default [domain.Stash] and
// [domain.Repository] implementations: the handle binds a storage backend to
// a schema registry and hands out per-collection repositories.
package repository

import (
	"log/slog"

	"github.com/leoafarias/firekit-sub000/domain"
	"github.com/leoafarias/firekit-sub000/internal/adapter/batch"
	"github.com/leoafarias/firekit-sub000/internal/adapter/comparer"
	"github.com/leoafarias/firekit-sub000/internal/adapter/evaluator"
	"github.com/leoafarias/firekit-sub000/internal/adapter/fieldpath"
	"github.com/leoafarias/firekit-sub000/internal/adapter/idgen"
	"github.com/leoafarias/firekit-sub000/internal/adapter/memstore"
	"github.com/leoafarias/firekit-sub000/internal/adapter/timegetter"
	"github.com/leoafarias/firekit-sub000/internal/adapter/transform"
	"github.com/leoafarias/firekit-sub000/schema"
)

// Handle implements [domain.Stash]. Two handles with two different backends
// can coexist in one process; nothing is shared through package state.
type Handle struct {
	storage     domain.Storage
	registry    *schema.Registry
	cmp         domain.Comparer
	resolver    domain.PathResolver
	evaluator   domain.Evaluator
	transformer domain.Transformer
	timeGetter  domain.TimeGetter
	idGenerator domain.IDGenerator
	logger      *slog.Logger
}

// Option configures a Handle.
type Option func(*Handle)

// WithStorage sets the storage backend. The default is a fresh in-memory
// store.
func WithStorage(s domain.Storage) Option {
	return func(h *Handle) {
		h.storage = s
	}
}

// WithComparer sets the value comparer used for sorting and condition
// evaluation.
func WithComparer(c domain.Comparer) Option {
	return func(h *Handle) {
		h.cmp = c
	}
}

// WithPathResolver sets the field-path resolver.
func WithPathResolver(r domain.PathResolver) Option {
	return func(h *Handle) {
		h.resolver = r
	}
}

// WithEvaluator sets the condition evaluator.
func WithEvaluator(e domain.Evaluator) Option {
	return func(h *Handle) {
		h.evaluator = e
	}
}

// WithTransformer sets the entity transform pipeline.
func WithTransformer(t domain.Transformer) Option {
	return func(h *Handle) {
		h.transformer = t
	}
}

// WithTimeGetter sets the clock used to timestamp mutations.
func WithTimeGetter(t domain.TimeGetter) Option {
	return func(h *Handle) {
		h.timeGetter = t
	}
}

// WithIDGenerator sets the generator used when Create receives an empty id.
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(h *Handle) {
		h.idGenerator = g
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handle) {
		h.logger = l
	}
}

// NewHandle returns a new implementation of [domain.Stash].
func NewHandle(opts ...Option) domain.Stash {
	h := &Handle{
		storage:     memstore.NewStore(),
		registry:    schema.NewRegistry(),
		cmp:         comparer.NewComparer(),
		resolver:    fieldpath.NewResolver(),
		transformer: transform.NewTransformer(),
		timeGetter:  timegetter.NewTimeGetter(),
		idGenerator: idgen.NewIDGenerator(),
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.evaluator == nil {
		h.evaluator = evaluator.NewEvaluator(
			evaluator.WithComparer(h.cmp),
			evaluator.WithPathResolver(h.resolver),
		)
	}
	return h
}

// Register implements [domain.Stash].
func (h *Handle) Register(s domain.CollectionSchema) error {
	if err := h.registry.Register(s); err != nil {
		return err
	}
	h.logger.Debug("registered collection", "collection", s.Name, "fields", len(s.Fields))
	return nil
}

// Repository implements [domain.Stash].
func (h *Handle) Repository(collection string) (domain.Repository, error) {
	s, err := h.registry.Lookup(collection)
	if err != nil {
		return nil, err
	}
	return &Repository{handle: h, schema: s}, nil
}

// Batch implements [domain.Stash].
func (h *Handle) Batch() domain.Batch {
	return batch.NewProcessor(h.storage, batch.WithTimeGetter(h.timeGetter))
}

// Close implements [domain.Stash].
func (h *Handle) Close() error {
	return h.storage.Close()
}
