package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grahama1970/arangodb-sub000/internal/models"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

// fakeDatabase satisfies store.Database for readiness-gate tests: document
// storage is real (embeds fakeDocumentStore), edges/views/vector-index
// tracking are minimal stubs sufficient for CheckCollectionReadiness.
type fakeDatabase struct {
	*fakeDocumentStore
	views   map[string]*models.SearchView
	indices map[string]bool
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{
		fakeDocumentStore: newFakeDocumentStore(),
		views:             map[string]*models.SearchView{},
		indices:           map[string]bool{},
	}
}

func (f *fakeDatabase) InsertEdge(_ context.Context, _ *models.Edge) error { return nil }
func (f *fakeDatabase) GetEdge(_ context.Context, _, _ string) (*models.Edge, error) {
	return nil, assert.AnError
}
func (f *fakeDatabase) UpdateEdge(_ context.Context, _ *models.Edge) error { return nil }
func (f *fakeDatabase) ListEdges(_ context.Context, _ store.EdgeFilter) ([]*models.Edge, error) {
	return nil, nil
}
func (f *fakeDatabase) ListAllByType(_ context.Context, _, _ string) ([]*models.Edge, error) {
	return nil, nil
}

func (f *fakeDatabase) HasView(_ context.Context, name string) (bool, error) {
	_, ok := f.views[name]
	return ok, nil
}
func (f *fakeDatabase) CreateView(_ context.Context, v *models.SearchView) error {
	f.views[v.Name] = v
	return nil
}
func (f *fakeDatabase) UpdateView(_ context.Context, v *models.SearchView) error {
	f.views[v.Name] = v
	return nil
}
func (f *fakeDatabase) GetView(_ context.Context, name string) (*models.SearchView, error) {
	return f.views[name], nil
}

func (f *fakeDatabase) HasVectorIndex(_ context.Context, collection, field string) (bool, error) {
	return f.indices[collection+"."+field], nil
}
func (f *fakeDatabase) RecordVectorIndex(_ context.Context, collection, field string, _ int, _ string) error {
	f.indices[collection+"."+field] = true
	return nil
}

func (f *fakeDatabase) Ping(_ context.Context) error { return nil }
func (f *fakeDatabase) Close() error                 { return nil }

func TestCheckCollectionReadinessEmptyCollectionLiteralScenario(t *testing.T) {
	db := newFakeDatabase()
	db.collections["X"] = true

	readiness, err := CheckCollectionReadiness(context.Background(), db, "X", "embedding")
	require.NoError(t, err)
	assert.False(t, readiness.Ready)
	assert.Contains(t, readiness.Reason, "empty")
}

func TestCheckCollectionReadinessMissingCollection(t *testing.T) {
	db := newFakeDatabase()

	readiness, err := CheckCollectionReadiness(context.Background(), db, "missing", "embedding")
	require.NoError(t, err)
	assert.False(t, readiness.Ready)
	assert.Equal(t, "collection does not exist", readiness.Reason)
}

func TestCheckCollectionReadinessNotEnoughEmbeddings(t *testing.T) {
	db := newFakeDatabase()
	db.collections["docs"] = true
	db.docs["docs"] = []*models.Document{
		{Key: "a", Collection: "docs", Text: "hello"},
	}

	readiness, err := CheckCollectionReadiness(context.Background(), db, "docs", "embedding")
	require.NoError(t, err)
	assert.False(t, readiness.Ready)
	assert.True(t, readiness.Fixable)
}
