// Package corpus implements a RapidFuzz-style grounding validator:
// fuzzy-matching a candidate answer against a per-document corpus of text
// blocks, with a per-process cache keyed by document id. Q&A
// validator is a thin wrapper over the same Validate call.
package corpus

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/grahama1970/arangodb-sub000/internal/ingest"
	"github.com/grahama1970/arangodb-sub000/internal/logging"
)

var log = logging.For("corpus")

// Block is one addressable unit of a document's corpus: either a raw-corpus
// page or a reconstructed section.
type Block struct {
	ID   string
	Text string
}

// Loader supplies the blocks that make up a document's corpus. The ingest
// adapter's ParsedDocument is the production source; tests can substitute
// any func.
type Loader func(ctx context.Context, documentID string) ([]Block, error)

// Result is the outcome of validating one answer.
type Result struct {
	Valid         bool
	Score         float64
	MatchedBlockID string
	MatchedText   string
}

// Cache is the process-wide, per-document corpus cache. Read-mostly,
// rebuilt idempotently, no locking beyond what's needed to protect the map
// itself (last-writer-wins is fine on a race).
type Cache struct {
	mu     sync.RWMutex
	blocks map[string][]Block
	load   Loader
}

// NewCache builds a corpus cache that loads misses via load.
func NewCache(load Loader) *Cache {
	return &Cache{blocks: make(map[string][]Block), load: load}
}

// Invalidate drops a document's cached corpus, forcing the next get to
// reload it.
func (c *Cache) Invalidate(documentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.blocks, documentID)
	log.WithField("document_id", documentID).Debug("invalidated corpus cache entry")
}

func (c *Cache) get(ctx context.Context, documentID string) ([]Block, error) {
	c.mu.RLock()
	blocks, ok := c.blocks[documentID]
	c.mu.RUnlock()
	if ok {
		return blocks, nil
	}

	blocks, err := c.load(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load corpus for %s: %w", documentID, err)
	}
	c.mu.Lock()
	c.blocks[documentID] = blocks
	c.mu.Unlock()
	return blocks, nil
}

// Validate fuzzy-matches answer against documentID's cached corpus,
// returning the best score across every (segment, block) pair.
func (c *Cache) Validate(ctx context.Context, answer, documentID string, threshold float64) (*Result, error) {
	blocks, err := c.get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return validateAgainstBlocks(answer, blocks, threshold), nil
}

// BatchItem is one (answer, documentID) pair to validate together.
type BatchItem struct {
	Key        string
	Answer     string
	DocumentID string
}

// BatchResult pairs a BatchItem's Key with its validation Result.
type BatchResult struct {
	Key    string
	Result *Result
	Err    error
}

// ValidateBatch validates many pairs concurrently, loading each distinct
// document's corpus only once.
func (c *Cache) ValidateBatch(ctx context.Context, items []BatchItem, threshold float64) []BatchResult {
	// Warm the cache sequentially first, so items sharing a document do not
	// race each other into separate loads.
	loaded := make(map[string]bool)
	for _, item := range items {
		if !loaded[item.DocumentID] {
			loaded[item.DocumentID] = true
			_, _ = c.get(ctx, item.DocumentID)
		}
	}

	results := make([]BatchResult, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item BatchItem) {
			defer wg.Done()
			res, err := c.Validate(ctx, item.Answer, item.DocumentID, threshold)
			results[i] = BatchResult{Key: item.Key, Result: res, Err: err}
		}(i, item)
	}
	wg.Wait()
	return results
}

func validateAgainstBlocks(answer string, blocks []Block, threshold float64) *Result {
	segments := splitSegments(answer)
	if len(segments) == 0 {
		return &Result{Valid: false, Score: 0}
	}

	best := &Result{Valid: false, Score: 0}
	for _, seg := range segments {
		for _, block := range blocks {
			score := partialRatio(seg, block.Text)
			if score > best.Score {
				best.Score = score
				best.MatchedBlockID = block.ID
				best.MatchedText = block.Text
			}
		}
	}
	best.Valid = best.Score >= threshold
	return best
}

// splitSegments breaks answer into the meaningful units validated
// independently: sentences at least 20 characters long, plus the full first
// sentence when it is short (<=100 chars) and would otherwise be dropped.
func splitSegments(answer string) []string {
	raw := strings.FieldsFunc(answer, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})

	var segments []string
	seen := make(map[string]bool)
	for i, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if len(s) >= 20 || (i == 0 && len(s) <= 100) {
			if !seen[s] {
				segments = append(segments, s)
				seen[s] = true
			}
		}
	}
	if len(segments) == 0 && strings.TrimSpace(answer) != "" {
		segments = append(segments, strings.TrimSpace(answer))
	}
	return segments
}

// partialRatio scores how well needle matches somewhere inside haystack,
// RapidFuzz-style: slide a needle-length window across haystack (or vice
// versa, if needle is longer) and keep the best Levenshtein-derived ratio.
func partialRatio(needle, haystack string) float64 {
	needle = strings.ToLower(strings.TrimSpace(needle))
	haystack = strings.ToLower(strings.TrimSpace(haystack))
	if needle == "" || haystack == "" {
		return 0
	}

	shorter, longer := needle, haystack
	if len(longer) < len(shorter) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}

	best := 0.0
	windowLen := len(shorter)
	for start := 0; start+windowLen <= len(longer); start++ {
		window := longer[start : start+windowLen]
		ratio := levenshteinRatio(shorter, window)
		if ratio > best {
			best = ratio
		}
	}
	// also score the whole-string alignment in case windowLen == len(longer)
	if windowLen == len(longer) {
		if r := levenshteinRatio(shorter, longer); r > best {
			best = r
		}
	}
	return best
}

func levenshteinRatio(a, b string) float64 {
	dist := fuzzy.LevenshteinDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

// LoaderFromParsedDocument adapts a ParsedDocument's RawCorpus (when present)
// or its Sections into corpus blocks, authoritative raw corpus taking
// precedence.
func LoaderFromParsedDocument(doc *ingest.ParsedDocument) []Block {
	if doc.RawCorpus != nil && len(doc.RawCorpus.Pages) > 0 {
		blocks := make([]Block, 0, len(doc.RawCorpus.Pages))
		for _, p := range doc.RawCorpus.Pages {
			blocks = append(blocks, Block{ID: fmt.Sprintf("page-%d", p.Number), Text: p.Text})
		}
		sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })
		return blocks
	}
	if doc.RawCorpus != nil && doc.RawCorpus.FullText != "" {
		return []Block{{ID: "full_text", Text: doc.RawCorpus.FullText}}
	}

	blocks := make([]Block, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		blocks = append(blocks, Block{ID: s.ID, Text: s.Text})
	}
	return blocks
}
