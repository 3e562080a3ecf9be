package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grahama1970/arangodb-sub000/internal/models"
)

func TestBM25SearchTagFilterLiteralScenario(t *testing.T) {
	db := newFakeDocumentStore()
	db.collections["docs"] = true
	db.docs["docs"] = []*models.Document{
		{Key: "A", Collection: "docs", Text: "python and databases", Tags: []string{"python", "db"}},
		{Key: "B", Collection: "docs", Text: "python only", Tags: []string{"python"}},
		{Key: "C", Collection: "docs", Text: "databases only", Tags: []string{"db"}},
	}

	resp, err := BM25Search(context.Background(), db, BM25Request{
		QueryText:  "python",
		Collection: "docs",
		Tags:       []string{"python", "db"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "A", resp.Results[0].DocumentKey)
	assert.Greater(t, resp.Results[0].Score, 0.0)
}

func TestAllowSetKeysRequiresAllTags(t *testing.T) {
	db := newFakeDocumentStore()
	db.collections["docs"] = true
	db.docs["docs"] = []*models.Document{
		{Key: "A", Collection: "docs", Tags: []string{"python", "db"}},
		{Key: "B", Collection: "docs", Tags: []string{"python"}},
	}

	allow, err := AllowSetKeys(context.Background(), db, "docs", []string{"python", "db"})
	require.NoError(t, err)
	assert.True(t, allow["A"])
	assert.False(t, allow["B"])
}

func TestIntersectTags(t *testing.T) {
	assert.ElementsMatch(t, []string{"a", "b"}, intersectTags([]string{"a", "b", "c"}, []string{"a", "b", "z"}))
}
