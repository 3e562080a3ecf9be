package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grahama1970/arangodb-sub000/internal/models"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

type fakeDocumentStore struct {
	collections map[string]bool
	docs        map[string][]*models.Document
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{collections: map[string]bool{}, docs: map[string][]*models.Document{}}
}

func (f *fakeDocumentStore) HasCollection(_ context.Context, collection string) (bool, error) {
	return f.collections[collection], nil
}
func (f *fakeDocumentStore) CreateCollection(_ context.Context, collection string, _ bool) error {
	f.collections[collection] = true
	return nil
}
func (f *fakeDocumentStore) Insert(_ context.Context, doc *models.Document) error {
	f.docs[doc.Collection] = append(f.docs[doc.Collection], doc)
	return nil
}
func (f *fakeDocumentStore) InsertMany(ctx context.Context, docs []*models.Document) error {
	for _, d := range docs {
		if err := f.Insert(ctx, d); err != nil {
			return err
		}
	}
	return nil
}
func (f *fakeDocumentStore) Get(_ context.Context, collection, key string) (*models.Document, error) {
	for _, d := range f.docs[collection] {
		if d.Key == key {
			return d, nil
		}
	}
	return nil, assert.AnError
}
func (f *fakeDocumentStore) Has(_ context.Context, collection, key string) (bool, error) {
	for _, d := range f.docs[collection] {
		if d.Key == key {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeDocumentStore) Update(_ context.Context, _ *models.Document) error  { return nil }
func (f *fakeDocumentStore) Replace(_ context.Context, _ *models.Document) error { return nil }
func (f *fakeDocumentStore) Delete(_ context.Context, _, _ string) error         { return nil }

func (f *fakeDocumentStore) List(_ context.Context, filter store.DocumentFilter) ([]*models.Document, error) {
	var out []*models.Document
	for _, d := range f.docs[filter.Collection] {
		if len(filter.Tags) > 0 {
			if filter.RequireAll && !d.HasAllTags(filter.Tags) {
				continue
			}
			if !filter.RequireAll && !d.HasAnyTag(filter.Tags) {
				continue
			}
		}
		out = append(out, d)
	}
	return out, nil
}
func (f *fakeDocumentStore) Count(_ context.Context, collection string) (int64, error) {
	return int64(len(f.docs[collection])), nil
}
func (f *fakeDocumentStore) ListForStats(ctx context.Context, collection string) ([]*models.Document, error) {
	return f.docs[collection], nil
}

func TestBM25SearchEmptyQueryIsBusinessFailure(t *testing.T) {
	db := newFakeDocumentStore()
	db.collections["docs"] = true

	resp, err := BM25Search(context.Background(), db, BM25Request{QueryText: "   ", Collection: "docs"})
	require.NoError(t, err)
	assert.Equal(t, "bm25-failed", resp.SearchEngine)
	assert.Contains(t, resp.Error, "empty")
}

func TestBM25SearchMissingCollectionIsBusinessFailure(t *testing.T) {
	db := newFakeDocumentStore()

	resp, err := BM25Search(context.Background(), db, BM25Request{QueryText: "hello", Collection: "missing"})
	require.NoError(t, err)
	assert.Equal(t, "bm25-failed", resp.SearchEngine)
}

func TestBM25SearchRanksMoreRelevantDocumentHigher(t *testing.T) {
	db := newFakeDocumentStore()
	db.collections["docs"] = true
	db.docs["docs"] = []*models.Document{
		{Key: "d1", Collection: "docs", Text: "the quick brown fox jumps over the lazy dog"},
		{Key: "d2", Collection: "docs", Text: "fox fox fox fox everywhere, a den of foxes"},
		{Key: "d3", Collection: "docs", Text: "completely unrelated text about numbers and dates"},
	}

	resp, err := BM25Search(context.Background(), db, BM25Request{QueryText: "fox", Collection: "docs", TopN: 10})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(resp.Results), 2)
	assert.Equal(t, "d2", resp.Results[0].DocumentKey)
}

func TestBM25SearchTagPreFilter(t *testing.T) {
	db := newFakeDocumentStore()
	db.collections["docs"] = true
	db.docs["docs"] = []*models.Document{
		{Key: "d1", Collection: "docs", Text: "fox content", Tags: []string{"animals"}},
		{Key: "d2", Collection: "docs", Text: "fox content too", Tags: []string{"other"}},
	}

	resp, err := BM25Search(context.Background(), db, BM25Request{QueryText: "fox", Collection: "docs", Tags: []string{"animals"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "d1", resp.Results[0].DocumentKey)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "123"}, tokenize("Hello, World! 123"))
}
