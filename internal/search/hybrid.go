package search

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grahama1970/arangodb-sub000/internal/embedding"
	"github.com/grahama1970/arangodb-sub000/internal/logging"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

var hybridLog = logging.For("hybrid")

// HybridRequest configures one orchestrated retrieval call.
type HybridRequest struct {
	QueryText   string
	QueryVector []float32
	Collection  string
	Field       string
	Tags        []string
	TopN        int
	MinScoreBM25     float64
	MinScoreSemantic float64

	UseGraph            bool
	GraphCollection     string // edge collection; defaults to Collection if empty
	GraphStartVertices  []string
	GraphMaxDepth       int
	GraphDirection      Direction
	GraphRelationshipTypes []string

	BM25Weight     float64
	SemanticWeight float64
	GraphWeight    float64
	RRFK           int
}

// HybridConfig is a validated options bundle for HybridWithConfig, grouping
// the weight/pagination knobs that would otherwise be bare parameters into
// one struct with validation.
type HybridConfig struct {
	TopN           int
	BM25Weight     float64
	SemanticWeight float64
	GraphWeight    float64
	RRFK           int
}

// Validate checks that weights are non-negative with a positive sum (Hybrid
// renormalizes them to sum to 1), and that top_n is positive, returning a
// descriptive error otherwise.
func (c HybridConfig) Validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("hybrid config: top_n must be positive, got %d", c.TopN)
	}
	if c.BM25Weight < 0 || c.SemanticWeight < 0 || c.GraphWeight < 0 {
		return fmt.Errorf("hybrid config: weights must be non-negative")
	}
	sum := c.BM25Weight + c.SemanticWeight + c.GraphWeight
	if sum <= 0 {
		return fmt.Errorf("hybrid config: weights must sum to a positive value, got %f", sum)
	}
	return nil
}

// HybridWithConfig validates cfg and runs Hybrid with its weights/top_n
// folded into req.
func HybridWithConfig(ctx context.Context, db store.Database, index *store.QdrantIndex, embedder embedding.Service, req HybridRequest, cfg HybridConfig) (*Response, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	req.TopN = cfg.TopN
	req.BM25Weight = cfg.BM25Weight
	req.SemanticWeight = cfg.SemanticWeight
	req.GraphWeight = cfg.GraphWeight
	req.RRFK = cfg.RRFK
	return Hybrid(ctx, db, index, embedder, req)
}

// Hybrid applies a tag pre-filter, runs BM25 and semantic search (plus graph
// traversal when UseGraph is set and the edge collection exists)
// concurrently, and fuses the ranked lists with RRF.
func Hybrid(ctx context.Context, db store.Database, index *store.QdrantIndex, embedder embedding.Service, req HybridRequest) (*Response, error) {
	start := time.Now()
	var warnings []string

	weights := []float64{req.BM25Weight, req.SemanticWeight}
	useGraph := req.UseGraph
	graphCollection := req.GraphCollection
	if graphCollection == "" {
		graphCollection = req.Collection
	}
	edgeCollectionExists := false
	if useGraph {
		exists, err := db.HasCollection(ctx, graphCollection)
		if err != nil {
			return nil, fmt.Errorf("check edge collection for graph stage: %w", err)
		}
		edgeCollectionExists = exists
		if !edgeCollectionExists {
			warnings = append(warnings, "graph stage skipped: edge collection does not exist")
			useGraph = false
		} else {
			weights = append(weights, req.GraphWeight)
		}
	}

	normalized, renormalized := NormalizeWeights(weights)
	if renormalized {
		warnings = append(warnings, "signal weights renormalized to sum to 1")
	}
	bm25Weight := normalized[0]
	semanticWeight := normalized[1]
	var graphWeight float64
	if useGraph {
		graphWeight = normalized[2]
	}

	var allowSet map[string]bool
	if len(req.Tags) > 0 {
		var err error
		allowSet, err = AllowSetKeys(ctx, db, req.Collection, req.Tags)
		if err != nil {
			return nil, fmt.Errorf("hybrid tag pre-filter: %w", err)
		}
		if len(allowSet) == 0 {
			resp := Failed("hybrid-tag-filtered", "no documents match the requested tags")
			resp.Duration = time.Since(start)
			return resp, nil
		}
	}

	var bm25Resp, semanticResp, graphResp *Response

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := BM25Search(gctx, db, BM25Request{
			QueryText:  req.QueryText,
			Collection: req.Collection,
			Tags:       req.Tags,
			MinScore:   req.MinScoreBM25,
			TopN:       req.TopN * 3,
		})
		if err != nil {
			return err
		}
		bm25Resp = resp
		return nil
	})

	g.Go(func() error {
		resp, err := SemanticSearch(gctx, db, index, embedder, SemanticRequest{
			QueryText:  req.QueryText,
			QueryVector: req.QueryVector,
			Collection: req.Collection,
			Field:      req.Field,
			MinScore:   req.MinScoreSemantic,
			TopN:       req.TopN * 3,
			Tags:       req.Tags,
		})
		if err != nil {
			return err
		}
		semanticResp = resp
		return nil
	})

	if useGraph {
		g.Go(func() error {
			resp, err := GraphTraverse(gctx, db, GraphRequest{
				Collection:        graphCollection,
				StartVertices:     req.GraphStartVertices,
				MaxDepth:          req.GraphMaxDepth,
				Direction:         req.GraphDirection,
				RelationshipTypes: req.GraphRelationshipTypes,
			})
			if err != nil {
				return err
			}
			graphResp = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("hybrid search fan-out: %w", err)
	}

	lists := []RankedList{
		{Keys: filteredKeys(bm25Resp, allowSet), Weight: bm25Weight},
		{Keys: filteredKeys(semanticResp, allowSet), Weight: semanticWeight},
	}
	if semanticResp != nil && semanticResp.Error != "" {
		warnings = append(warnings, fmt.Sprintf("semantic branch failed: %s", semanticResp.Error))
	}
	if bm25Resp != nil && bm25Resp.Error != "" {
		warnings = append(warnings, fmt.Sprintf("bm25 branch failed: %s", bm25Resp.Error))
	}
	if useGraph {
		lists = append(lists, RankedList{Keys: filteredKeys(graphResp, allowSet), Weight: graphWeight})
		if graphResp != nil {
			warnings = append(warnings, graphResp.Warnings...)
		}
	}

	fused := Fuse(lists, req.RRFK)

	topN := req.TopN
	if topN <= 0 {
		topN = 10
	}
	if len(fused) > topN {
		fused = fused[:topN]
	}

	results := make([]Result, 0, len(fused))
	scoreByKey := mergeTextByKey(bm25Resp, semanticResp, graphResp)
	for _, f := range fused {
		r := Result{DocumentKey: f.DocumentKey, Collection: req.Collection, Score: f.HybridScore}
		if txt, ok := scoreByKey[f.DocumentKey]; ok {
			r.Text = txt
		}
		results = append(results, r)
	}

	engine := "hybrid-bm25-semantic"
	if useGraph {
		engine = "hybrid-bm25-semantic-graph"
	}
	if (bm25Resp == nil || bm25Resp.Error != "") && (semanticResp == nil || semanticResp.Error != "") {
		engine = "hybrid-failed"
	}

	hybridLog.WithField("collection", req.Collection).WithField("engine", engine).WithField("results", len(results)).
		Debug("hybrid search complete")

	return &Response{
		Results:      results,
		Total:        len(results),
		SearchEngine: engine,
		Warnings:     warnings,
		Duration:     time.Since(start),
	}, nil
}

func filteredKeys(resp *Response, allow map[string]bool) []string {
	if resp == nil {
		return nil
	}
	var keys []string
	for _, r := range resp.Results {
		if allow != nil && !allow[r.DocumentKey] {
			continue
		}
		keys = append(keys, r.DocumentKey)
	}
	return keys
}

func mergeTextByKey(responses ...*Response) map[string]string {
	out := make(map[string]string)
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		for _, r := range resp.Results {
			if r.Text != "" {
				out[r.DocumentKey] = r.Text
			}
		}
	}
	return out
}
