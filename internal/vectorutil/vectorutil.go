// Package vectorutil implements the vector-index invariants: embedding
// format checks, per-collection dimension auditing, index creation, and
// best-effort repair of missing/mismatched embeddings. Every component that
// writes documents or edges with vectors goes through these invariants
// before trusting a collection for semantic search.
package vectorutil

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/grahama1970/arangodb-sub000/internal/config"
	"github.com/grahama1970/arangodb-sub000/internal/embedding"
	"github.com/grahama1970/arangodb-sub000/internal/logging"
	"github.com/grahama1970/arangodb-sub000/internal/models"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

var log = logging.For("vectorutil")

// CheckEmbeddingFormat reports whether v is usable as an embedding: non-empty
// and every component finite. It never returns an error for business
// reasons — only a boolean/reason pair.
func CheckEmbeddingFormat(v []float32) (ok bool, reason string) {
	if len(v) == 0 {
		return false, "embedding is empty"
	}
	for i, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return false, fmt.Sprintf("embedding component %d is not finite", i)
		}
	}
	return true, ""
}

// DocumentStats summarizes a collection's embedding health.
type DocumentStats struct {
	Total            int
	WithEmbeddings   int
	Missing          int
	DimensionsFound  map[int]int
	ModelsFound      map[string]int
	Issues           []string
}

// DocumentStatsReport runs a document_stats audit over collection.
func DocumentStatsReport(ctx context.Context, db store.DocumentStore, collection string) (*DocumentStats, error) {
	docs, err := db.ListForStats(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("audit collection %s: %w", collection, err)
	}

	stats := &DocumentStats{
		DimensionsFound: make(map[int]int),
		ModelsFound:     make(map[string]int),
	}
	stats.Total = len(docs)

	for _, doc := range docs {
		if len(doc.Embedding) == 0 {
			stats.Missing++
			continue
		}
		if ok, reason := CheckEmbeddingFormat(doc.Embedding); !ok {
			stats.Issues = append(stats.Issues, fmt.Sprintf("document %s has invalid embedding: %s", doc.Key, reason))
			continue
		}
		stats.WithEmbeddings++
		stats.DimensionsFound[len(doc.Embedding)]++
		if doc.EmbeddingMetadata != nil {
			stats.ModelsFound[doc.EmbeddingMetadata.Model]++
		}
	}

	if stats.Missing > 0 {
		stats.Issues = append(stats.Issues, fmt.Sprintf("%d documents missing an embedding", stats.Missing))
	}
	if len(stats.DimensionsFound) > 1 {
		stats.Issues = append(stats.Issues, "inconsistent embedding dimensions across collection")
	}
	if len(stats.ModelsFound) > 1 {
		stats.Issues = append(stats.Issues, "inconsistent embedding models across collection")
	}
	return stats, nil
}

// EnsureVectorIndex creates a vector index on (collection, field) if one
// does not already exist. Dimension is detected from a sampled document,
// falling back to defaultDimension when the collection has no embeddings
// yet to sample from.
func EnsureVectorIndex(ctx context.Context, db store.Database, index *store.QdrantIndex, collection, field string, defaultDimension int) error {
	exists, err := db.HasVectorIndex(ctx, collection, field)
	if err != nil {
		return fmt.Errorf("check vector index %s.%s: %w", collection, field, err)
	}
	if exists {
		return nil
	}

	dimension := defaultDimension
	docs, err := db.ListForStats(ctx, collection)
	if err != nil {
		return fmt.Errorf("sample collection %s for dimension: %w", collection, err)
	}
	for _, doc := range docs {
		if len(doc.Embedding) > 0 {
			dimension = len(doc.Embedding)
			break
		}
	}

	if err := index.EnsureCollection(ctx, collection, field, dimension); err != nil {
		return fmt.Errorf("create vector index %s.%s: %w", collection, field, err)
	}
	if err := db.RecordVectorIndex(ctx, collection, field, dimension, "cosine"); err != nil {
		return fmt.Errorf("record vector index %s.%s: %w", collection, field, err)
	}
	log.WithField("collection", collection).WithField("field", field).WithField("dimension", dimension).
		Info("created vector index")
	return nil
}

// FixResult reports what FixCollectionEmbeddings did or would do.
type FixResult struct {
	Regenerated []string
	Skipped     []string
	DryRun      bool
}

// FixCollectionEmbeddings regenerates missing or dimension-mismatched
// embeddings for every document in collection using embedder. When dryRun is
// true, no writes happen; the report still lists what would be regenerated.
func FixCollectionEmbeddings(ctx context.Context, db store.DocumentStore, embedder embedding.Service, collection string, dryRun bool) (*FixResult, error) {
	docs, err := db.ListForStats(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list documents in %s: %w", collection, err)
	}

	targetDim := embedder.Dimension()
	result := &FixResult{DryRun: dryRun}

	for _, doc := range docs {
		needsFix := len(doc.Embedding) == 0 || len(doc.Embedding) != targetDim
		if !needsFix {
			if ok, _ := CheckEmbeddingFormat(doc.Embedding); ok {
				result.Skipped = append(result.Skipped, doc.Key)
				continue
			}
			needsFix = true
		}

		result.Regenerated = append(result.Regenerated, doc.Key)
		if dryRun {
			continue
		}

		vec, err := embedder.Embed(ctx, doc.Text)
		if err != nil {
			return nil, fmt.Errorf("regenerate embedding for %s: %w", doc.Key, err)
		}
		doc.Embedding = vec
		doc.EmbeddingMetadata = &models.EmbeddingMetadata{
			Model:      embedder.Model(),
			Dimensions: len(vec),
			CreatedAt:  time.Now(),
		}
		if err := db.Update(ctx, doc); err != nil {
			return nil, fmt.Errorf("persist regenerated embedding for %s: %w", doc.Key, err)
		}
	}

	if len(result.Regenerated) > 0 {
		log.WithField("collection", collection).WithField("count", len(result.Regenerated)).
			WithField("dry_run", dryRun).Info("fixed collection embeddings")
	}
	return result, nil
}

// DefaultDimension returns the embedding dimension this package falls back
// to when a collection has no sampleable document yet.
func DefaultDimension(cfg *config.EmbeddingConfig) int {
	return cfg.Dimension
}
