package corpus

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grahama1970/arangodb-sub000/internal/ingest"
)

func TestValidateMatchesExactSubstring(t *testing.T) {
	loadCalls := 0
	cache := NewCache(func(_ context.Context, documentID string) ([]Block, error) {
		loadCalls++
		return []Block{
			{ID: "b1", Text: "The quick brown fox jumps over the lazy dog."},
			{ID: "b2", Text: "Paris is the capital of France."},
		}, nil
	})

	result, err := cache.Validate(context.Background(), "Paris is the capital of France.", "doc1", 0.97)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "b2", result.MatchedBlockID)
	assert.GreaterOrEqual(t, result.Score, 0.97)

	_, err = cache.Validate(context.Background(), "unrelated claim entirely", "doc1", 0.97)
	require.NoError(t, err)
	assert.Equal(t, 1, loadCalls, "second validate call must hit the cache, not reload the corpus")
}

func TestValidateRejectsUnrelatedAnswer(t *testing.T) {
	cache := NewCache(func(_ context.Context, _ string) ([]Block, error) {
		return []Block{{ID: "b1", Text: "The mitochondria is the powerhouse of the cell."}}, nil
	})

	result, err := cache.Validate(context.Background(), "Bananas are a good source of potassium.", "doc1", 0.97)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestInvalidateForcesReload(t *testing.T) {
	loadCalls := 0
	cache := NewCache(func(_ context.Context, _ string) ([]Block, error) {
		loadCalls++
		return []Block{{ID: "b1", Text: "some text"}}, nil
	})

	_, err := cache.Validate(context.Background(), "some text", "doc1", 0.5)
	require.NoError(t, err)
	cache.Invalidate("doc1")
	_, err = cache.Validate(context.Background(), "some text", "doc1", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, loadCalls)
}

func TestValidateBatchLoadsEachDocumentOnce(t *testing.T) {
	loads := map[string]int{}
	cache := NewCache(func(_ context.Context, documentID string) ([]Block, error) {
		loads[documentID]++
		return []Block{{ID: "b1", Text: fmt.Sprintf("text for %s", documentID)}}, nil
	})

	items := []BatchItem{
		{Key: "1", Answer: "text for doc1", DocumentID: "doc1"},
		{Key: "2", Answer: "text for doc1", DocumentID: "doc1"},
		{Key: "3", Answer: "text for doc2", DocumentID: "doc2"},
	}

	results := cache.ValidateBatch(context.Background(), items, 0.9)
	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.True(t, r.Result.Valid)
	}
	assert.Equal(t, 1, loads["doc1"])
	assert.Equal(t, 1, loads["doc2"])
}

func TestSplitSegmentsKeepsShortFirstSentence(t *testing.T) {
	segments := splitSegments("Yes. This is a much longer second sentence that exceeds twenty characters.")
	require.Len(t, segments, 2)
	assert.Equal(t, "Yes", segments[0])
}

func TestSplitSegmentsDropsShortNonFirstSentences(t *testing.T) {
	segments := splitSegments("This is a much longer first sentence that passes the bar. No. Also no.")
	for _, s := range segments {
		assert.NotEqual(t, "No", s)
		assert.NotEqual(t, "Also no", s)
	}
}

func TestLoaderFromParsedDocumentPrefersRawCorpusPages(t *testing.T) {
	doc := &ingest.ParsedDocument{
		Sections:  []ingest.Section{{ID: "s1", Text: "section text"}},
		RawCorpus: &ingest.RawCorpus{Pages: []ingest.CorpusPage{{Number: 1, Text: "page one"}, {Number: 2, Text: "page two"}}},
	}
	blocks := LoaderFromParsedDocument(doc)
	require.Len(t, blocks, 2)
	assert.Equal(t, "page-1", blocks[0].ID)
}

func TestLoaderFromParsedDocumentFallsBackToSections(t *testing.T) {
	doc := &ingest.ParsedDocument{
		Sections: []ingest.Section{{ID: "s1", Text: "section text"}},
	}
	blocks := LoaderFromParsedDocument(doc)
	require.Len(t, blocks, 1)
	assert.Equal(t, "s1", blocks[0].ID)
}
