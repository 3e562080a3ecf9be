package qa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grahama1970/arangodb-sub000/internal/corpus"
	"github.com/grahama1970/arangodb-sub000/internal/models"
)

func TestValidateBatchSetsCitationFoundAndScore(t *testing.T) {
	cache := corpus.NewCache(func(_ context.Context, _ string) ([]corpus.Block, error) {
		return []corpus.Block{
			{ID: "b1", Text: "Reciprocal Rank Fusion combines ranked lists independently of their score scales."},
		}, nil
	})

	batch := &models.QABatch{
		DocumentID: "doc1",
		QAPairs: []models.QAPair{
			{Question: "What does RRF do?", Answer: "Reciprocal Rank Fusion combines ranked lists independently of their score scales."},
			{Question: "Unrelated?", Answer: "Bananas are yellow and curved."},
		},
	}

	err := ValidateBatch(context.Background(), cache, batch, 0.97)
	require.NoError(t, err)

	require.NotNil(t, batch.QAPairs[0].ValidationScore)
	assert.True(t, batch.QAPairs[0].CitationFound)
	assert.GreaterOrEqual(t, *batch.QAPairs[0].ValidationScore, float32(0.97))

	assert.False(t, batch.QAPairs[1].CitationFound)
	assert.Equal(t, 1, batch.ValidPairs)
	assert.Equal(t, 2, batch.TotalPairs)
}
