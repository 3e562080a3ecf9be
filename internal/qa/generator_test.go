package qa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grahama1970/arangodb-sub000/internal/ingest"
	"github.com/grahama1970/arangodb-sub000/internal/llm"
	"github.com/grahama1970/arangodb-sub000/internal/models"
)

func TestTypeCountsDistributesRemainderToLargestFraction(t *testing.T) {
	weights := map[models.QuestionType]float64{
		models.QuestionFactual:      0.5,
		models.QuestionRelationship: 0.3,
		models.QuestionMultiHop:     0.2,
	}
	// 7 pairs: exact shares 3.5, 2.1, 1.4 floor to 3+2+1=6; the one left over
	// goes to FACTUAL, whose fraction (0.5) is the largest.
	counts := TypeCounts(7, weights)

	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, 7, total)
	assert.Equal(t, 4, counts[models.QuestionFactual])
	assert.Equal(t, 2, counts[models.QuestionRelationship])
	assert.Equal(t, 1, counts[models.QuestionMultiHop])
}

func TestTypeCountsHandlesUnevenWeights(t *testing.T) {
	weights := map[models.QuestionType]float64{
		models.QuestionFactual:  0.34,
		models.QuestionCausal:   0.33,
		models.QuestionCausal + "2": 0.33, // distinct key, same fraction behavior
	}
	counts := TypeCounts(7, weights)
	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, 7, total)
}

// scriptedCompleter returns queued responses in order, one per Complete call.
type scriptedCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return &llm.CompletionResponse{Content: s.responses[i]}, nil
}

func sampleDoc() *ingest.ParsedDocument {
	return &ingest.ParsedDocument{
		Metadata: ingest.DocumentMetadata{DocumentID: "doc1"},
		Sections: []ingest.Section{
			{ID: "s1", Title: "Intro", Text: "Reciprocal Rank Fusion combines ranked lists independently of their score scales."},
		},
	}
}

func TestGenerateOneSucceedsOnFirstAttempt(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{`{"question":"What does RRF do?","thinking":"...","answer":"combines ranked lists independently of their score scales"}`},
	}
	g := NewGenerator(completer, GenerationConfig{MaxRetries: 2, MinAnswerLength: 3, MaxAnswerLength: 200})

	pair, err := g.generateOne(context.Background(), sampleDoc(), models.QuestionFactual)
	require.NoError(t, err)
	assert.Equal(t, models.QuestionFactual, pair.QuestionType)
	assert.NotEmpty(t, pair.Answer)
}

func TestGenerateOneRetriesAfterUngroundedAnswer(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{
			`{"question":"Q?","thinking":"...","answer":"totally made up and ungrounded text"}`,
			`{"question":"What does RRF do?","thinking":"...","answer":"combines ranked lists independently of their score scales"}`,
		},
	}
	g := NewGenerator(completer, GenerationConfig{MaxRetries: 2, MinAnswerLength: 3, MaxAnswerLength: 200})

	pair, err := g.generateOne(context.Background(), sampleDoc(), models.QuestionFactual)
	require.NoError(t, err)
	assert.Equal(t, 2, completer.calls)
	assert.Contains(t, pair.Answer, "combines ranked lists")
}

func TestGenerateOneDropsAfterExhaustingRetries(t *testing.T) {
	completer := &scriptedCompleter{
		responses: []string{"not json", "not json"},
	}
	g := NewGenerator(completer, GenerationConfig{MaxRetries: 1, MinAnswerLength: 3, MaxAnswerLength: 200})

	_, err := g.generateOne(context.Background(), sampleDoc(), models.QuestionFactual)
	require.Error(t, err)
}
