// Package kvstore contains the Badger-backed [domain.Storage]
// implementation. Documents live under `<collection>/<id>` keys as JSON
// blobs.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/leoafarias/firekit-sub000/domain"
)

const keySeparator = "/"

type storedDocument struct {
	ID         string          `json:"id"`
	Data       domain.Document `json:"data"`
	CreateTime time.Time       `json:"createTime"`
	UpdateTime time.Time       `json:"updateTime"`
}

// Store implements [domain.Storage] over a Badger key-value database.
type Store struct {
	db *badger.DB
}

// Option configures the Badger options used to open the database.
type Option func(*badger.Options)

// WithInMemory opens the database in memory, without a directory. Useful for
// tests.
func WithInMemory() Option {
	return func(o *badger.Options) {
		o.InMemory = true
		o.Dir = ""
		o.ValueDir = ""
	}
}

// WithLogger sets Badger's internal logger. The default is silent.
func WithLogger(l badger.Logger) Option {
	return func(o *badger.Options) {
		o.Logger = l
	}
}

// NewStore opens (creating if needed) a Badger-backed store rooted at dir.
func NewStore(dir string, opts ...Option) (*Store, error) {
	options := badger.DefaultOptions(dir)
	options.Logger = nil
	for _, opt := range opts {
		opt(&options)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}
	return &Store{db: db}, nil
}

// Get implements [domain.Storage].
func (s *Store) Get(ctx context.Context, collection, id string) (*domain.StorageEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry *domain.StorageEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(collection, id))
		if err != nil {
			return err
		}
		return item.Value(func(blob []byte) error {
			entry, err = decode(blob)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &domain.ErrNotFound{Collection: collection, ID: id}
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return nil, domain.ErrClosed
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Set implements [domain.Storage].
func (s *Store) Set(ctx context.Context, collection, id string, entry *domain.StorageEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	blob, err := json.Marshal(storedDocument{
		ID:         entry.ID,
		Data:       entry.Data,
		CreateTime: entry.CreateTime,
		UpdateTime: entry.UpdateTime,
	})
	if err != nil {
		return fmt.Errorf("encoding document %q: %w", id, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(collection, id), blob)
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return domain.ErrClosed
	}
	return err
}

// Delete implements [domain.Storage]. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(collection, id))
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return domain.ErrClosed
	}
	return err
}

// List implements [domain.Storage]. Badger iterates in key order, so entries
// come back ordered by id.
func (s *Store) List(ctx context.Context, collection string) ([]*domain.StorageEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var res []*domain.StorageEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = key(collection, "")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(blob []byte) error {
				entry, err := decode(blob)
				if err != nil {
					return err
				}
				res = append(res, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return nil, domain.ErrClosed
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Collections implements [domain.Storage].
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			name, _, found := strings.Cut(string(it.Item().Key()), keySeparator)
			if found {
				seen[name] = struct{}{}
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return nil, domain.ErrClosed
	}
	if err != nil {
		return nil, err
	}

	res := make([]string, 0, len(seen))
	for name := range seen {
		res = append(res, name)
	}
	sort.Strings(res)
	return res, nil
}

// Close implements [domain.Storage].
func (s *Store) Close() error {
	return s.db.Close()
}

func key(collection, id string) []byte {
	return []byte(collection + keySeparator + id)
}

func decode(blob []byte) (*domain.StorageEntry, error) {
	var doc storedDocument
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &domain.StorageEntry{
		ID:         doc.ID,
		Data:       doc.Data,
		CreateTime: doc.CreateTime,
		UpdateTime: doc.UpdateTime,
	}, nil
}
