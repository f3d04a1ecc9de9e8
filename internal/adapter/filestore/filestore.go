// Package filestore contains the JSON-file [domain.Storage] implementation:
// one <id>.json file per document, grouped in one directory per collection.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dolmen-go/contextio"
	"github.com/gofrs/flock"

	"github.com/leoafarias/firekit-sub000/domain"
)

const (
	// DefaultDirMode is the mode for collection directories.
	DefaultDirMode os.FileMode = 0o755
	// DefaultFileMode is the mode for document files.
	DefaultFileMode os.FileMode = 0o644

	lockFilename = "stash.lock"
	docSuffix    = ".json"
	tempSuffix   = "~"
)

// storedDocument is the on-disk layout of one entry. Timestamps marshal as
// RFC 3339 strings.
type storedDocument struct {
	ID         string          `json:"id"`
	Data       domain.Document `json:"data"`
	CreateTime time.Time       `json:"createTime"`
	UpdateTime time.Time       `json:"updateTime"`
}

// Store implements [domain.Storage] on a directory tree. Writes are
// crash-safe: each document is written to a temp file, fsynced and renamed
// over the target. An advisory flock on the root directory keeps a second
// process from opening the same tree; durability beyond fsync is explicitly
// not guaranteed.
type Store struct {
	dir      string
	fileMode os.FileMode
	dirMode  os.FileMode
	lock     *flock.Flock
	mu       sync.RWMutex
	closed   bool
}

// Option configures a Store.
type Option func(*Store)

// WithFileMode sets the permissions of document files.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Store) {
		s.fileMode = mode
	}
}

// WithDirMode sets the permissions of collection directories.
func WithDirMode(mode os.FileMode) Option {
	return func(s *Store) {
		s.dirMode = mode
	}
}

// NewStore opens (creating if needed) a file-backed store rooted at dir and
// acquires its advisory lock.
func NewStore(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		dir:      dir,
		fileMode: DefaultFileMode,
		dirMode:  DefaultDirMode,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, s.dirMode); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s.lock = flock.New(filepath.Join(dir, lockFilename))
	locked, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking store directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("store directory %q is locked by another process", dir)
	}
	return s, nil
}

// Get implements [domain.Storage].
func (s *Store) Get(ctx context.Context, collection, id string) (*domain.StorageEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrClosed
	}

	entry, err := s.readDocument(ctx, s.docPath(collection, id))
	if os.IsNotExist(err) {
		return nil, &domain.ErrNotFound{Collection: collection, ID: id}
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Set implements [domain.Storage].
func (s *Store) Set(ctx context.Context, collection, id string, entry *domain.StorageEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrClosed
	}

	collDir := filepath.Join(s.dir, collection)
	if err := os.MkdirAll(collDir, s.dirMode); err != nil {
		return fmt.Errorf("creating collection directory: %w", err)
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
	return s.crashSafeWrite(ctx, s.docPath(collection, id), blob)
}

// Delete implements [domain.Storage].
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrClosed
	}

	err := os.Remove(s.docPath(collection, id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// List implements [domain.Storage]. Entries come back ordered by file name;
// the directory itself has no insertion order to preserve.
func (s *Store) List(ctx context.Context, collection string) ([]*domain.StorageEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrClosed
	}

	files, err := os.ReadDir(filepath.Join(s.dir, collection))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res := make([]*domain.StorageEntry, 0, len(files))
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasSuffix(name, docSuffix) || strings.HasSuffix(name, tempSuffix) {
			continue
		}
		entry, err := s.readDocument(ctx, filepath.Join(s.dir, collection, name))
		if err != nil {
			return nil, err
		}
		res = append(res, entry)
	}
	return res, nil
}

// Collections implements [domain.Storage]. A collection whose documents were
// all deleted leaves an empty directory behind and is not reported.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrClosed
	}

	dirs, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		empty, err := s.collectionEmpty(dir.Name())
		if err != nil {
			return nil, err
		}
		if !empty {
			res = append(res, dir.Name())
		}
	}
	slices.Sort(res)
	return res, nil
}

func (s *Store) collectionEmpty(collection string) (bool, error) {
	files, err := os.ReadDir(filepath.Join(s.dir, collection))
	if err != nil {
		return false, err
	}
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), docSuffix) {
			return false, nil
		}
	}
	return true, nil
}

// Close implements [domain.Storage].
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.lock.Unlock()
}

func (s *Store) docPath(collection, id string) string {
	return filepath.Join(s.dir, collection, id+docSuffix)
}

func (s *Store) readDocument(ctx context.Context, path string) (*domain.StorageEntry, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, s.fileMode)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	blob, err := io.ReadAll(contextio.NewReader(ctx, f))
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	var doc storedDocument
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("decoding %q: %w", path, err)
	}
	return &domain.StorageEntry{
		ID:         doc.ID,
		Data:       doc.Data,
		CreateTime: doc.CreateTime,
		UpdateTime: doc.UpdateTime,
	}, nil
}

// crashSafeWrite writes blob to a temp file, fsyncs it, renames it over the
// target and fsyncs the parent directory, so a crash leaves either the old
// or the new document, never a torn one.
func (s *Store) crashSafeWrite(ctx context.Context, path string, blob []byte) error {
	tempPath := path + tempSuffix

	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.fileMode)
	if err != nil {
		return err
	}
	if _, err := contextio.NewWriter(ctx, f).Write(blob); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		return err
	}
	return s.syncDir(filepath.Dir(path))
}

func (s *Store) syncDir(dir string) error {
	f, err := os.OpenFile(dir, os.O_RDONLY, s.dirMode)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
