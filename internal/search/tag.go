package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/grahama1970/arangodb-sub000/internal/store"
)

// TagRequest configures one tag search call.
type TagRequest struct {
	Collection string
	Tags       []string
	RequireAll bool // ALL vs ANY
}

// TagSearch filters documents by tag membership, sorting by key for
// determinism. Each result carries tag_match_score =
// |intersection| / |requested| for the fusion layer.
func TagSearch(ctx context.Context, db store.DocumentStore, req TagRequest) (*Response, error) {
	start := time.Now()

	docs, err := db.List(ctx, store.DocumentFilter{
		Collection: req.Collection,
		Tags:       req.Tags,
		RequireAll: req.RequireAll,
	})
	if err != nil {
		return nil, fmt.Errorf("tag search in %s: %w", req.Collection, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })

	results := make([]Result, 0, len(docs))
	for _, doc := range docs {
		matched := intersectTags(doc.Tags, req.Tags)
		score := 0.0
		if len(req.Tags) > 0 {
			score = float64(len(matched)) / float64(len(req.Tags))
		}
		results = append(results, Result{
			DocumentKey:   doc.Key,
			Collection:    req.Collection,
			Score:         score,
			TagMatchScore: score,
			MatchedTags:   matched,
			Text:          doc.Text,
		})
	}

	return &Response{
		Results:      results,
		Total:        len(results),
		SearchEngine: "tag",
		SearchType:   "tag",
		Duration:     time.Since(start),
	}, nil
}

func intersectTags(have, want []string) []string {
	haveSet := make(map[string]bool, len(have))
	for _, t := range have {
		haveSet[t] = true
	}
	var out []string
	for _, t := range want {
		if haveSet[t] {
			out = append(out, t)
		}
	}
	return out
}

// AllowSetKeys runs a tag search restricted to ALL of tags and returns just
// the matching document keys, used by the hybrid orchestrator to build its pre-filter allow-set.
func AllowSetKeys(ctx context.Context, db store.DocumentStore, collection string, tags []string) (map[string]bool, error) {
	resp, err := TagSearch(ctx, db, TagRequest{Collection: collection, Tags: tags, RequireAll: true})
	if err != nil {
		return nil, err
	}
	allow := make(map[string]bool, len(resp.Results))
	for _, r := range resp.Results {
		allow[r.DocumentKey] = true
	}
	return allow, nil
}
