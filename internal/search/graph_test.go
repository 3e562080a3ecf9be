package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grahama1970/arangodb-sub000/internal/models"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

type fakeEdgeStore struct {
	edges []*models.Edge
}

func (f *fakeEdgeStore) InsertEdge(_ context.Context, e *models.Edge) error { f.edges = append(f.edges, e); return nil }
func (f *fakeEdgeStore) GetEdge(_ context.Context, collection, key string) (*models.Edge, error) {
	for _, e := range f.edges {
		if e.Collection == collection && e.Key == key {
			return e, nil
		}
	}
	return nil, assert.AnError
}
func (f *fakeEdgeStore) UpdateEdge(_ context.Context, e *models.Edge) error { return nil }
func (f *fakeEdgeStore) ListEdges(_ context.Context, filter store.EdgeFilter) ([]*models.Edge, error) {
	var out []*models.Edge
	for _, e := range f.edges {
		if e.Collection != filter.Collection {
			continue
		}
		if filter.From != "" && e.From != filter.From {
			continue
		}
		if filter.To != "" && e.To != filter.To {
			continue
		}
		if !filter.IncludeInvalidated && e.InvalidAt != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
func (f *fakeEdgeStore) ListAllByType(_ context.Context, collection, questionType string) ([]*models.Edge, error) {
	var out []*models.Edge
	for _, e := range f.edges {
		if e.Collection == collection && (questionType == "" || string(e.QuestionType) == questionType) {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestGraphTraverseCapsHardMaxDepth(t *testing.T) {
	db := &fakeEdgeStore{edges: []*models.Edge{
		{Collection: "rel", Key: "e1", From: "a", To: "b", Type: "R", ValidAt: time.Unix(0, 0)},
		{Collection: "rel", Key: "e2", From: "b", To: "c", Type: "R", ValidAt: time.Unix(0, 0)},
		{Collection: "rel", Key: "e3", From: "c", To: "d", Type: "R", ValidAt: time.Unix(0, 0)},
		{Collection: "rel", Key: "e4", From: "d", To: "e", Type: "R", ValidAt: time.Unix(0, 0)},
	}}

	resp, err := GraphTraverse(context.Background(), db, GraphRequest{
		Collection:    "rel",
		StartVertices: []string{"a"},
		MaxDepth:      10,
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Warnings[0], "capped")

	var maxDepthSeen int
	for _, r := range resp.Results {
		if r.Depth > maxDepthSeen {
			maxDepthSeen = r.Depth
		}
	}
	assert.LessOrEqual(t, maxDepthSeen, HardMaxDepth)
}

func TestGraphTraverseRespectsRelationshipTypeFilter(t *testing.T) {
	db := &fakeEdgeStore{edges: []*models.Edge{
		{Collection: "rel", Key: "e1", From: "a", To: "b", Type: "causes", ValidAt: time.Unix(0, 0)},
		{Collection: "rel", Key: "e2", From: "a", To: "c", Type: "unrelated", ValidAt: time.Unix(0, 0)},
	}}

	resp, err := GraphTraverse(context.Background(), db, GraphRequest{
		Collection:        "rel",
		StartVertices:     []string{"a"},
		RelationshipTypes: []string{"causes"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "b", resp.Results[0].DocumentKey)
}

func TestGraphTraverseSkipsInactiveEdges(t *testing.T) {
	invalidAt := time.Unix(50, 0)
	db := &fakeEdgeStore{edges: []*models.Edge{
		{Collection: "rel", Key: "e1", From: "a", To: "b", Type: "R", ValidAt: time.Unix(0, 0), InvalidAt: &invalidAt},
	}}

	at := time.Unix(100, 0)
	resp, err := GraphTraverse(context.Background(), db, GraphRequest{
		Collection:    "rel",
		StartVertices: []string{"a"},
		At:            &at,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}
