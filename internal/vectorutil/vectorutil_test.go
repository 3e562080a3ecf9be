package vectorutil

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grahama1970/arangodb-sub000/internal/embedding"
	"github.com/grahama1970/arangodb-sub000/internal/models"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

type fakeDocumentStore struct {
	docs map[string][]*models.Document
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: map[string][]*models.Document{}}
}

func (f *fakeDocumentStore) HasCollection(_ context.Context, collection string) (bool, error) {
	_, ok := f.docs[collection]
	return ok, nil
}
func (f *fakeDocumentStore) CreateCollection(_ context.Context, collection string, _ bool) error {
	if _, ok := f.docs[collection]; !ok {
		f.docs[collection] = nil
	}
	return nil
}
func (f *fakeDocumentStore) Insert(_ context.Context, doc *models.Document) error {
	f.docs[doc.Collection] = append(f.docs[doc.Collection], doc)
	return nil
}
func (f *fakeDocumentStore) InsertMany(ctx context.Context, docs []*models.Document) error {
	for _, d := range docs {
		_ = f.Insert(ctx, d)
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
func (f *fakeDocumentStore) Update(_ context.Context, doc *models.Document) error {
	for i, d := range f.docs[doc.Collection] {
		if d.Key == doc.Key {
			f.docs[doc.Collection][i] = doc
			return nil
		}
	}
	return assert.AnError
}
func (f *fakeDocumentStore) Replace(ctx context.Context, doc *models.Document) error { return f.Update(ctx, doc) }
func (f *fakeDocumentStore) Delete(_ context.Context, _, _ string) error             { return nil }
func (f *fakeDocumentStore) List(_ context.Context, filter store.DocumentFilter) ([]*models.Document, error) {
	return f.docs[filter.Collection], nil
}
func (f *fakeDocumentStore) Count(_ context.Context, collection string) (int64, error) {
	return int64(len(f.docs[collection])), nil
}
func (f *fakeDocumentStore) ListForStats(_ context.Context, collection string) ([]*models.Document, error) {
	return f.docs[collection], nil
}

func TestCheckEmbeddingFormatRejectsEmpty(t *testing.T) {
	ok, reason := CheckEmbeddingFormat(nil)
	assert.False(t, ok)
	assert.Contains(t, reason, "empty")
}

func TestCheckEmbeddingFormatRejectsNonFinite(t *testing.T) {
	ok, reason := CheckEmbeddingFormat([]float32{1, float32(math.NaN()), 3})
	assert.False(t, ok)
	assert.Contains(t, reason, "not finite")
}

func TestCheckEmbeddingFormatAcceptsValidVector(t *testing.T) {
	ok, reason := CheckEmbeddingFormat([]float32{0.1, 0.2, 0.3})
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestDocumentStatsReportFlagsMissingAndInconsistentDimensions(t *testing.T) {
	db := newFakeDocumentStore()
	db.docs["docs"] = []*models.Document{
		{Key: "d1", Embedding: []float32{1, 2, 3}},
		{Key: "d2", Embedding: []float32{1, 2}},
		{Key: "d3"},
	}

	stats, err := DocumentStatsReport(context.Background(), db, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.WithEmbeddings)
	assert.Equal(t, 1, stats.Missing)
	assert.Len(t, stats.DimensionsFound, 2)
	assert.Contains(t, stats.Issues, "inconsistent embedding dimensions across collection")
	assert.Contains(t, stats.Issues, "1 documents missing an embedding")
}

func TestFixCollectionEmbeddingsDryRunMakesNoWrites(t *testing.T) {
	db := newFakeDocumentStore()
	db.docs["docs"] = []*models.Document{
		{Key: "d1", Collection: "docs", Text: "hello"},
	}
	embedder := embedding.NewStaticService(4)

	result, err := FixCollectionEmbeddings(context.Background(), db, embedder, "docs", true)
	require.NoError(t, err)
	assert.Contains(t, result.Regenerated, "d1")
	assert.True(t, result.DryRun)
	assert.Empty(t, embedder.Calls)
	assert.Empty(t, db.docs["docs"][0].Embedding)
}

func TestFixCollectionEmbeddingsRegeneratesMissing(t *testing.T) {
	db := newFakeDocumentStore()
	db.docs["docs"] = []*models.Document{
		{Key: "d1", Collection: "docs", Text: "hello"},
		{Key: "d2", Collection: "docs", Text: "world", Embedding: []float32{0.1, 0.2, 0.3, 0.4}},
	}
	embedder := embedding.NewStaticService(4)

	result, err := FixCollectionEmbeddings(context.Background(), db, embedder, "docs", false)
	require.NoError(t, err)
	assert.Contains(t, result.Regenerated, "d1")
	assert.Contains(t, result.Skipped, "d2")
	assert.NotEmpty(t, db.docs["docs"][0].Embedding)
	assert.Equal(t, 4, len(db.docs["docs"][0].Embedding))
	assert.Equal(t, "static-fake", db.docs["docs"][0].EmbeddingMetadata.Model)
}
