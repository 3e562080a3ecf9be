// Package qa implements the Q&A generation pipeline: typed generation
// generation, reversal generation, and corpus-backed validation.
package qa

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/grahama1970/arangodb-sub000/internal/concurrency"
	"github.com/grahama1970/arangodb-sub000/internal/ingest"
	"github.com/grahama1970/arangodb-sub000/internal/llm"
	"github.com/grahama1970/arangodb-sub000/internal/logging"
	"github.com/grahama1970/arangodb-sub000/internal/models"
)

var genLog = logging.For("qa-generator")

// GenerationConfig enumerates the generator's tunable knobs.
type GenerationConfig struct {
	Model                    string
	QuestionTemperatureRange []float32
	AnswerTemperature        float32
	MaxTokens                int
	BatchSize                int
	SemaphoreLimit           int
	ValidationThreshold      float64
	MinAnswerLength          int
	MaxAnswerLength          int
	MaxRetries               int
	QuestionTypeWeights      map[models.QuestionType]float64
	MaxPairs                 int
}

// TypeCounts computes integer per-type counts from maxPairs and weights,
// distributing the remainder to the types with the largest fractional part
// (a remainder-distribution allocation).
func TypeCounts(maxPairs int, weights map[models.QuestionType]float64) map[models.QuestionType]int {
	type frac struct {
		t    models.QuestionType
		frac float64
	}
	counts := make(map[models.QuestionType]int, len(weights))
	var fracs []frac
	assigned := 0

	for t, w := range weights {
		exact := float64(maxPairs) * w
		base := int(exact)
		counts[t] = base
		assigned += base
		fracs = append(fracs, frac{t, exact - float64(base)})
	}

	remainder := maxPairs - assigned
	for remainder > 0 && len(fracs) > 0 {
		bestIdx := 0
		for i, f := range fracs {
			if f.frac > fracs[bestIdx].frac {
				bestIdx = i
			}
		}
		counts[fracs[bestIdx].t]++
		fracs[bestIdx].frac = -1
		remainder--
	}
	return counts
}

// Generator drives typed Q&A generation over a parsed document.
type Generator struct {
	completer llm.CompletionService
	sem       *concurrency.Semaphore
	cfg       GenerationConfig
}

// NewGenerator builds a Generator bounded by cfg.SemaphoreLimit concurrent
// completion requests.
func NewGenerator(completer llm.CompletionService, cfg GenerationConfig) *Generator {
	limit := cfg.SemaphoreLimit
	if limit <= 0 {
		limit = 10
	}
	return &Generator{completer: completer, sem: concurrency.NewSemaphore(limit), cfg: cfg}
}

// GenerateBatch produces up to cfg.MaxPairs typed Q&A pairs from doc,
// distributed across types per cfg.QuestionTypeWeights, each pair built
// independently and concurrently under the generator's semaphore.
func (g *Generator) GenerateBatch(ctx context.Context, doc *ingest.ParsedDocument) (*models.QABatch, error) {
	counts := TypeCounts(g.cfg.MaxPairs, g.cfg.QuestionTypeWeights)

	type job struct {
		qType models.QuestionType
		idx   int
	}
	var jobs []job
	for t, n := range counts {
		for i := 0; i < n; i++ {
			jobs = append(jobs, job{qType: t, idx: i})
		}
	}

	results := make([]*models.QAPair, len(jobs))
	errs := make([]error, len(jobs))
	done := make(chan int, len(jobs))

	for i, j := range jobs {
		i, j := i, j
		go func() {
			if err := g.sem.Acquire(ctx); err != nil {
				errs[i] = err
				done <- i
				return
			}
			defer g.sem.Release()

			pair, err := g.generateOne(ctx, doc, j.qType)
			results[i] = pair
			errs[i] = err
			done <- i
		}()
	}
	for range jobs {
		<-done
	}

	batch := &models.QABatch{DocumentID: doc.Metadata.DocumentID}
	for i, pair := range results {
		if errs[i] != nil {
			genLog.WithField("document_id", doc.Metadata.DocumentID).WithField("type", jobs[i].qType).
				WithField("error", errs[i]).Warn("dropped q&a pair after exhausting retries")
			continue
		}
		if pair != nil {
			batch.QAPairs = append(batch.QAPairs, *pair)
		}
	}
	batch.Recompute()
	return batch, nil
}

// generateOne runs the bounded retry/self-repair loop for a single pair of
// the given type.
func (g *Generator) generateOne(ctx context.Context, doc *ingest.ParsedDocument, qType models.QuestionType) (*models.QAPair, error) {
	var lastErrs []string
	temperature := pickTemperature(g.cfg.QuestionTemperatureRange)

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		prompt, source, err := buildPrompt(doc, qType, lastErrs)
		if err != nil {
			return nil, err
		}

		temp := temperature
		if attempt > 0 {
			temp = g.cfg.AnswerTemperature
		}

		resp, err := g.completer.Complete(ctx, llm.CompletionRequest{
			Prompt:      prompt,
			Model:       g.cfg.Model,
			Temperature: temp,
			MaxTokens:   g.cfg.MaxTokens,
			JSONMode:    true,
		})
		if err != nil {
			lastErrs = []string{err.Error()}
			continue
		}

		pair, parseErrs := parseAndValidate(resp.Content, qType, source, temp, g.cfg.MinAnswerLength, g.cfg.MaxAnswerLength)
		if len(parseErrs) == 0 {
			return pair, nil
		}
		lastErrs = parseErrs
	}
	return nil, fmt.Errorf("generate %s pair: exhausted %d retries: %s", qType, g.cfg.MaxRetries, strings.Join(lastErrs, "; "))
}

func pickTemperature(choices []float32) float32 {
	if len(choices) == 0 {
		return 0.7
	}
	return choices[rand.Intn(len(choices))]
}
