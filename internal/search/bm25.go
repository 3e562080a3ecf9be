package search

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/grahama1970/arangodb-sub000/internal/logging"
	"github.com/grahama1970/arangodb-sub000/internal/models"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

var bm25Log = logging.For("bm25")

// BM25 parameters, the standard Robertson/Sparck-Jones defaults.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// tokenize lower-cases and splits text on non-alphanumeric boundaries,
// standing in for the view's configured text analyzer.
func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// BM25Request configures one BM25 search call.
type BM25Request struct {
	QueryText  string
	Collection string
	Tags       []string
	MinScore   float64
	TopN       int
	Offset     int
}

// BM25Search scores collection's documents against query_text with BM25,
// applying an ALL-of tag pre-filter, and paginates the descending-score
// result. Empty query or missing collection are returned as business-level
// failures, never exceptions.
func BM25Search(ctx context.Context, db store.DocumentStore, req BM25Request) (*Response, error) {
	start := time.Now()

	if strings.TrimSpace(req.QueryText) == "" {
		return Failed("bm25-failed", "Query text cannot be empty"), nil
	}

	exists, err := db.HasCollection(ctx, req.Collection)
	if err != nil {
		return nil, fmt.Errorf("bm25 search check collection %s: %w", req.Collection, err)
	}
	if !exists {
		resp := Failed("bm25-failed", fmt.Sprintf("collection %q does not exist", req.Collection))
		resp.Duration = time.Since(start)
		return resp, nil
	}

	docs, err := db.List(ctx, store.DocumentFilter{
		Collection: req.Collection,
		Tags:       req.Tags,
		RequireAll: true,
	})
	if err != nil {
		return nil, fmt.Errorf("bm25 search list documents in %s: %w", req.Collection, err)
	}

	queryTokens := tokenize(req.QueryText)
	scores := scoreBM25(queryTokens, docs)

	var ranked []scoredDoc
	for _, sd := range scores {
		if sd.score >= req.MinScore {
			ranked = append(ranked, sd)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].doc.Key < ranked[j].doc.Key
	})

	total := len(ranked)
	ranked = paginate(ranked, req.Offset, req.TopN)

	results := make([]Result, 0, len(ranked))
	for _, sd := range ranked {
		results = append(results, Result{
			DocumentKey: sd.doc.Key,
			Collection:  req.Collection,
			Score:       sd.score,
			Text:        sd.doc.Text,
		})
	}

	bm25Log.WithField("collection", req.Collection).WithField("results", len(results)).Debug("bm25 search complete")

	return &Response{
		Results:      results,
		Total:        total,
		SearchEngine: "bm25",
		SearchType:   "text",
		Duration:     time.Since(start),
	}, nil
}

type scoredDoc struct {
	doc   *models.Document
	score float64
}

// scoreBM25 computes the Okapi BM25 score of every document against
// queryTokens, using the document set itself as the corpus for IDF and
// average length.
func scoreBM25(queryTokens []string, docs []*models.Document) []scoredDoc {
	if len(queryTokens) == 0 || len(docs) == 0 {
		out := make([]scoredDoc, len(docs))
		for i, d := range docs {
			out[i] = scoredDoc{doc: d, score: 0}
		}
		return out
	}

	docTokens := make([][]string, len(docs))
	totalLen := 0
	df := make(map[string]int)

	for i, d := range docs {
		toks := tokenize(d.Text)
		docTokens[i] = toks
		totalLen += len(toks)
		seen := make(map[string]bool)
		for _, t := range toks {
			if !seen[t] {
				df[t]++
				seen[t] = true
			}
		}
	}
	avgDocLen := float64(totalLen) / float64(len(docs))
	n := float64(len(docs))

	out := make([]scoredDoc, len(docs))
	for i, d := range docs {
		toks := docTokens[i]
		tf := make(map[string]int)
		for _, t := range toks {
			tf[t]++
		}
		docLen := float64(len(toks))

		var score float64
		for _, qt := range queryTokens {
			f := float64(tf[qt])
			if f == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(df[qt])+0.5)/(float64(df[qt])+0.5))
			numerator := f * (bm25K1 + 1)
			denominator := f + bm25K1*(1-bm25B+bm25B*docLen/avgDocLen)
			score += idf * numerator / denominator
		}
		out[i] = scoredDoc{doc: d, score: score}
	}
	return out
}

func paginate(docs []scoredDoc, offset, limit int) []scoredDoc {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(docs) {
		return nil
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}
