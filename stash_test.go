package stash_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	stash "github.com/leoafarias/firekit-sub000"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) GetTime() time.Time { return c.now }

type sequentialIDs struct {
	next int
}

func (g *sequentialIDs) GenerateID() (string, error) {
	g.next++
	return string(rune('a'+g.next-1)) + "-id", nil
}

type account struct {
	Name string   `stash:"name"`
	Age  int      `stash:"age"`
	Tags []string `stash:"tags"`
}

type StashTestSuite struct {
	suite.Suite
	ctx    context.Context
	clock  *fixedClock
	handle stash.Stash
}

func (s *StashTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = &fixedClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s.handle = stash.New(
		stash.WithTimeGetter(s.clock),
		stash.WithIDGenerator(&sequentialIDs{}),
	)
	s.Require().NoError(s.handle.Register(stash.CollectionSchema{
		Name: "accounts",
		Fields: []stash.FieldSpec{
			{Name: "tags", Codec: stash.CodecCSV},
		},
	}))
}

func (s *StashTestSuite) TearDownTest() {
	s.handle.Close()
}

func (s *StashTestSuite) repo() stash.Repository {
	repo, err := s.handle.Repository("accounts")
	s.Require().NoError(err)
	return repo
}

func (s *StashTestSuite) TestRepositoryForUnregisteredCollection() {
	_, err := s.handle.Repository("ghosts")
	var noSchema *stash.ErrNoSchema
	s.ErrorAs(err, &noSchema)
	s.Equal("ghosts", noSchema.Collection)
}

func (s *StashTestSuite) TestCreateWithExplicitID() {
	res, err := s.repo().Create(s.ctx, account{Name: "ada", Age: 36}, "ada-1")
	s.Require().NoError(err)
	s.Equal("ada-1", res.ID)
	s.Equal(s.clock.now, res.CreatedAt)
	s.Equal(s.clock.now, res.UpdatedAt)
	s.Nil(res.DeletedAt)
	s.Equal("ada", res.Data["name"])
}

func (s *StashTestSuite) TestCreateGeneratesID() {
	res, err := s.repo().Create(s.ctx, account{Name: "ada"}, "")
	s.Require().NoError(err)
	s.Equal("a-id", res.ID)

	res, err = s.repo().Create(s.ctx, account{Name: "bob"}, "")
	s.Require().NoError(err)
	s.Equal("b-id", res.ID)
}

func (s *StashTestSuite) TestGetByID() {
	_, err := s.repo().Create(s.ctx, account{Name: "ada", Age: 36, Tags: []string{"x", "y"}}, "ada-1")
	s.Require().NoError(err)

	var got account
	res, err := s.repo().GetByID(s.ctx, "ada-1", &got)
	s.Require().NoError(err)
	s.Equal("ada-1", res.ID)
	s.Equal("ada", got.Name)
	s.Equal(36, got.Age)
	// The CSV codec round-trips through storage.
	s.Equal([]string{"x", "y"}, got.Tags)

	_, err = s.repo().GetByID(s.ctx, "missing", &got)
	var notFound *stash.ErrNotFound
	s.ErrorAs(err, &notFound)
}

// Update merges shallowly, keeps CreateTime and refreshes UpdateTime.
func (s *StashTestSuite) TestUpdate() {
	created := s.clock.now
	_, err := s.repo().Create(s.ctx, account{Name: "ada", Age: 36}, "ada-1")
	s.Require().NoError(err)

	s.clock.now = s.clock.now.Add(time.Hour)
	res, err := s.repo().Update(s.ctx, "ada-1", stash.Document{"age": 37})
	s.Require().NoError(err)
	s.Equal(created, res.CreatedAt)
	s.Equal(s.clock.now, res.UpdatedAt)
	s.Equal("ada", res.Data["name"])
	s.Equal(37, res.Data["age"])

	_, err = s.repo().Update(s.ctx, "missing", stash.Document{"age": 1})
	var notFound *stash.ErrNotFound
	s.ErrorAs(err, &notFound)
}

func (s *StashTestSuite) TestDelete() {
	_, err := s.repo().Create(s.ctx, account{Name: "ada"}, "ada-1")
	s.Require().NoError(err)

	s.Require().NoError(s.repo().Delete(s.ctx, "ada-1"))

	var notFound *stash.ErrNotFound
	s.ErrorAs(s.repo().Delete(s.ctx, "ada-1"), &notFound)
}

func (s *StashTestSuite) TestGetAll() {
	for _, name := range []string{"ada", "bob", "cyd"} {
		_, err := s.repo().Create(s.ctx, account{Name: name}, name)
		s.Require().NoError(err)
	}

	all, err := s.repo().GetAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("ada", all[0].ID)
	s.Equal("cyd", all[2].ID)
}

func (s *StashTestSuite) TestQueryThroughRepository() {
	seed := []account{
		{Name: "ada", Age: 36, Tags: []string{"admin"}},
		{Name: "bob", Age: 17, Tags: []string{"guest"}},
		{Name: "cyd", Age: 52, Tags: []string{"admin", "staff"}},
	}
	for _, acc := range seed {
		_, err := s.repo().Create(s.ctx, acc, acc.Name)
		s.Require().NoError(err)
	}

	results, err := s.repo().Query().
		Where("age", stash.OperatorGreaterThanEqual, 18).
		OrderBy("age", stash.Descending).
		GetResults(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal("cyd", results[0].ID)
	s.Equal("ada", results[1].ID)

	count, err := s.repo().Query().
		Where("age", stash.OperatorGreaterThanEqual, 18).
		Skip(1).
		Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *StashTestSuite) TestBatchThroughHandle() {
	_, err := s.repo().Create(s.ctx, account{Name: "ada"}, "ada-1")
	s.Require().NoError(err)

	schema := s.repo().Schema()
	b := s.handle.Batch()
	s.Require().NoError(b.Create(schema, "bob-1", stash.Document{"name": "bob"}))
	s.Require().NoError(b.Update(schema, "ada-1", stash.Document{"age": 36}))
	s.Require().NoError(b.Commit(s.ctx))

	var got account
	_, err = s.repo().GetByID(s.ctx, "bob-1", &got)
	s.Require().NoError(err)
	s.Equal("bob", got.Name)

	_, err = s.repo().GetByID(s.ctx, "ada-1", &got)
	s.Require().NoError(err)
	s.Equal(36, got.Age)
}

func (s *StashTestSuite) TestBatchRollbackThroughHandle() {
	schema := s.repo().Schema()
	b := s.handle.Batch()
	s.Require().NoError(b.Create(schema, "bob-1", stash.Document{"name": "bob"}))
	s.Require().NoError(b.Delete(schema, "missing"))

	var notFound *stash.ErrNotFound
	s.ErrorAs(b.Commit(s.ctx), &notFound)

	_, err := s.repo().GetByID(s.ctx, "bob-1", nil)
	s.Error(err)
}

func (s *StashTestSuite) TestLoadSchemas() {
	path := filepath.Join(s.T().TempDir(), "schemas.yaml")
	yaml := "collections:\n  - name: invoices\n    fields:\n      - name: lines\n        codec: csv\n"
	s.Require().NoError(os.WriteFile(path, []byte(yaml), 0o644))

	s.Require().NoError(stash.LoadSchemas(s.handle, path))

	repo, err := s.handle.Repository("invoices")
	s.Require().NoError(err)
	field, ok := repo.Schema().Field("lines")
	s.True(ok)
	s.Equal(stash.CodecCSV, field.Codec)
}

func (s *StashTestSuite) TestFileStorageIntegration() {
	storage, err := stash.NewFileStorage(s.T().TempDir(), 0o644)
	s.Require().NoError(err)

	handle := stash.New(stash.WithStorage(storage))
	defer handle.Close()
	s.Require().NoError(handle.Register(stash.CollectionSchema{Name: "accounts"}))

	repo, err := handle.Repository("accounts")
	s.Require().NoError(err)

	_, err = repo.Create(s.ctx, account{Name: "ada", Age: 36}, "ada-1")
	s.Require().NoError(err)

	var got account
	_, err = repo.GetByID(s.ctx, "ada-1", &got)
	s.Require().NoError(err)
	s.Equal("ada", got.Name)
}

func (s *StashTestSuite) TestBadgerStorageIntegration() {
	storage, err := stash.NewBadgerStorage(s.T().TempDir())
	s.Require().NoError(err)

	handle := stash.New(stash.WithStorage(storage))
	defer handle.Close()
	s.Require().NoError(handle.Register(stash.CollectionSchema{Name: "accounts"}))

	repo, err := handle.Repository("accounts")
	s.Require().NoError(err)

	_, err = repo.Create(s.ctx, account{Name: "ada"}, "ada-1")
	s.Require().NoError(err)

	results, err := repo.Query().GetResults(s.ctx)
	s.Require().NoError(err)
	s.Len(results, 1)
}

func (s *StashTestSuite) TestClosedHandle() {
	s.Require().NoError(s.handle.Close())
	_, err := s.repo().Create(s.ctx, account{Name: "ada"}, "ada-1")
	s.ErrorIs(err, stash.ErrClosed)
}

func TestStashTestSuite(t *testing.T) {
	suite.Run(t, new(StashTestSuite))
}
