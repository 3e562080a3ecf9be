package qa

import (
	"context"
	"strconv"

	"github.com/grahama1970/arangodb-sub000/internal/corpus"
	"github.com/grahama1970/arangodb-sub000/internal/models"
)

// ValidateBatch: identical contract to the corpus validator
// applied to every pair in batch, setting citation_found = score >=
// threshold and recording validation_score.
func ValidateBatch(ctx context.Context, cache *corpus.Cache, batch *models.QABatch, threshold float64) error {
	items := make([]corpus.BatchItem, len(batch.QAPairs))
	for i, p := range batch.QAPairs {
		items[i] = corpus.BatchItem{Key: strconv.Itoa(i), Answer: p.Answer, DocumentID: batch.DocumentID}
	}

	results := cache.ValidateBatch(ctx, items, threshold)
	byKey := make(map[string]corpus.BatchResult, len(results))
	for _, r := range results {
		byKey[r.Key] = r
	}

	for i := range batch.QAPairs {
		r, ok := byKey[strconv.Itoa(i)]
		if !ok || r.Err != nil || r.Result == nil {
			continue
		}
		score := float32(r.Result.Score)
		batch.QAPairs[i].ValidationScore = &score
		batch.QAPairs[i].CitationFound = r.Result.Valid
	}

	batch.Recompute()
	return nil
}
