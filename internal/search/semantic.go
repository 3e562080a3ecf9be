package search

import (
	"context"
	"fmt"
	"time"

	"github.com/grahama1970/arangodb-sub000/internal/embedding"
	"github.com/grahama1970/arangodb-sub000/internal/logging"
	"github.com/grahama1970/arangodb-sub000/internal/store"
	"github.com/grahama1970/arangodb-sub000/internal/vectorutil"
)

var semanticLog = logging.For("semantic")

const (
	defaultKInflateNoTags   = 2
	defaultKInflateWithTags = 5
)

// SemanticRequest configures one semantic search call.
type SemanticRequest struct {
	QueryText         string
	QueryVector       []float32
	Collection        string
	Field             string
	MinScore          float64
	TopN              int
	Tags              []string
	ValidateBeforeSearch bool
	AutoFixEmbeddings bool
	KInflateNoTags    int
	KInflateWithTags  int
}

// Readiness describes why a collection is or isn't ready for semantic
// search.
type Readiness struct {
	Ready      bool
	Reason     string
	Fixable    bool
	Dimension  int
}

// CheckCollectionReadiness reports whether collection is ready for ANN
// search: it exists, is non-empty, has >=2 embedded documents sharing one
// dimension, and has a registered vector index.
func CheckCollectionReadiness(ctx context.Context, db store.Database, collection, field string) (*Readiness, error) {
	exists, err := db.HasCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("check readiness of %s: %w", collection, err)
	}
	if !exists {
		return &Readiness{Ready: false, Reason: "collection does not exist", Fixable: false}, nil
	}

	stats, err := vectorutil.DocumentStatsReport(ctx, db, collection)
	if err != nil {
		return nil, err
	}
	if stats.Total == 0 {
		return &Readiness{Ready: false, Reason: "empty collection", Fixable: false}, nil
	}
	if stats.WithEmbeddings < 2 {
		return &Readiness{Ready: false, Reason: "not enough documents with embeddings", Fixable: true}, nil
	}
	if len(stats.DimensionsFound) > 1 {
		return &Readiness{Ready: false, Reason: "inconsistent embedding dimensions", Fixable: true}, nil
	}

	dimension := 0
	for d := range stats.DimensionsFound {
		dimension = d
	}

	hasIndex, err := db.HasVectorIndex(ctx, collection, field)
	if err != nil {
		return nil, fmt.Errorf("check vector index %s.%s: %w", collection, field, err)
	}
	if !hasIndex {
		return &Readiness{Ready: false, Reason: "no vector index", Fixable: true, Dimension: dimension}, nil
	}

	return &Readiness{Ready: true, Dimension: dimension}, nil
}

// SemanticSearch runs an ANN cosine search gated by readiness, optionally
// self-healing repairable failures first.
func SemanticSearch(ctx context.Context, db store.Database, index *store.QdrantIndex, embedder embedding.Service, req SemanticRequest) (*Response, error) {
	start := time.Now()

	field := req.Field
	if field == "" {
		field = "embedding"
	}

	readiness, err := CheckCollectionReadiness(ctx, db, req.Collection, field)
	if err != nil {
		return nil, err
	}

	if !readiness.Ready && readiness.Fixable && req.AutoFixEmbeddings {
		if _, err := vectorutil.FixCollectionEmbeddings(ctx, db, embedder, req.Collection, false); err != nil {
			return nil, err
		}
		if err := vectorutil.EnsureVectorIndex(ctx, db, index, req.Collection, field, embedder.Dimension()); err != nil {
			return nil, err
		}
		readiness, err = CheckCollectionReadiness(ctx, db, req.Collection, field)
		if err != nil {
			return nil, err
		}
	}

	if !readiness.Ready {
		resp := Failed("failed", readiness.Reason)
		resp.CollectionStatus = map[string]interface{}{
			"ready":   readiness.Ready,
			"reason":  readiness.Reason,
			"fixable": readiness.Fixable,
		}
		resp.Duration = time.Since(start)
		return resp, nil
	}

	queryVector := req.QueryVector
	if len(queryVector) == 0 {
		if req.QueryText == "" {
			resp := Failed("failed", "invalid query embedding")
			resp.Duration = time.Since(start)
			return resp, nil
		}
		v, err := embedder.Embed(ctx, req.QueryText)
		if err != nil {
			return nil, fmt.Errorf("embed semantic query: %w", err)
		}
		queryVector = v
	}

	if ok, reason := checkFormat(queryVector); !ok {
		resp := Failed("failed", fmt.Sprintf("invalid query embedding: %s", reason))
		resp.Duration = time.Since(start)
		return resp, nil
	}

	kInflate := defaultKInflateNoTags
	if req.KInflateNoTags > 0 {
		kInflate = req.KInflateNoTags
	}
	if len(req.Tags) > 0 {
		kInflate = defaultKInflateWithTags
		if req.KInflateWithTags > 0 {
			kInflate = req.KInflateWithTags
		}
	}

	topN := req.TopN
	if topN <= 0 {
		topN = 10
	}

	matches, err := index.Search(ctx, req.Collection, field, queryVector, topN*kInflate)
	if err != nil {
		return nil, fmt.Errorf("semantic ANN search in %s: %w", req.Collection, err)
	}

	results := make([]Result, 0, topN)
	for _, m := range matches {
		if float64(m.Score) < req.MinScore {
			continue
		}
		if len(req.Tags) > 0 {
			doc, err := db.Get(ctx, req.Collection, m.DocKey)
			if err != nil {
				continue
			}
			if !doc.HasAllTags(req.Tags) {
				continue
			}
		}
		results = append(results, Result{
			DocumentKey:     m.DocKey,
			Collection:      req.Collection,
			Score:           float64(m.Score),
			SimilarityScore: float64(m.Score),
		})
		if len(results) >= topN {
			break
		}
	}

	semanticLog.WithField("collection", req.Collection).WithField("results", len(results)).Debug("semantic search complete")

	return &Response{
		Results:      results,
		Total:        len(results),
		SearchEngine: "semantic",
		SearchType:   "vector",
		Duration:     time.Since(start),
	}, nil
}

func checkFormat(v []float32) (bool, string) {
	return vectorutil.CheckEmbeddingFormat(v)
}
