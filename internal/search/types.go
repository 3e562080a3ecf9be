// Package search implements the hybrid retrieval engine: BM25, semantic/ANN,
// tag, and graph-traversal search, fused by Reciprocal Rank Fusion and
// orchestrated concurrently.
package search

import "time"

// Result is one ranked document produced by any single-signal searcher.
type Result struct {
	DocumentKey     string  `json:"document_key"`
	Collection      string  `json:"collection"`
	Score           float64 `json:"score"`
	SimilarityScore float64 `json:"similarity_score,omitempty"`
	TagMatchScore   float64 `json:"tag_match_score,omitempty"`
	MatchedTags     []string `json:"matched_tags,omitempty"`
	Depth           int     `json:"depth,omitempty"`
	Text            string  `json:"text,omitempty"`
}

// Response is the envelope every searcher returns: business-level failures
// are values here, never errors. Only infrastructure-level failures
// propagate as Go errors.
type Response struct {
	Results      []Result      `json:"results"`
	Total        int           `json:"total"`
	SearchEngine string        `json:"search_engine"`
	SearchType   string        `json:"search_type,omitempty"`
	Error        string        `json:"error,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
	Duration     time.Duration `json:"duration"`

	// CollectionStatus is populated by the semantic searcher's readiness
	// gate diagnostics.
	CollectionStatus map[string]interface{} `json:"collection_status,omitempty"`
}

// Failed builds a Response carrying a business-level failure: never an
// exception, always a valued error in the envelope.
func Failed(engine, errMsg string) *Response {
	return &Response{
		Results:      []Result{},
		SearchEngine: engine,
		Error:        errMsg,
	}
}
