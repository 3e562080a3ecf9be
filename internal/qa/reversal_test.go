package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grahama1970/arangodb-sub000/internal/models"
)

func TestReverseCapitalOfFranceExample(t *testing.T) {
	original := models.QAPair{
		Question:     "What is the capital of France?",
		Answer:       "Paris",
		QuestionType: models.QuestionFactual,
		Confidence:   1.0,
	}

	reversed := Reverse(original)

	assert.Equal(t, models.QuestionReversal, reversed.QuestionType)
	assert.InDelta(t, 0.9, reversed.Confidence, 1e-6)
	assert.Equal(t, original.Question, reversed.ReversalOf)
	assert.Equal(t, "France", reversed.Answer)
	assert.Contains(t, reversed.Question, "Paris")
}

func TestReversePatternReversalUsesCapitalOfTemplate(t *testing.T) {
	original := models.QAPair{Question: "What is the capital of France?", Answer: "Paris"}
	q, entity, ok := tryPatternReversal(original.Question, original.Answer)
	assert.True(t, ok)
	assert.Equal(t, "France", entity)
	assert.Contains(t, q, "Paris")
	assert.Contains(t, q, "capital")
}

func TestReverseRelationshipInversion(t *testing.T) {
	original := models.QAPair{
		Question:          "How does rainfall causes flooding?",
		Answer:             "Excess rainfall overwhelms drainage capacity.",
		RelationshipTypes:  []string{"causes"},
	}
	q, a, ok := tryRelationshipInversion(original.Question, original)
	assert.True(t, ok)
	assert.Contains(t, q, "is caused by")
	assert.Equal(t, original.Answer, a)
}

func TestReverseGenericFallback(t *testing.T) {
	q, a := genericReversal("a bag-of-words lexical relevance function")
	assert.Contains(t, q, "a bag-of-words lexical relevance function")
	assert.Equal(t, "a bag-of-words lexical relevance function", a)
}

func TestReversalCountAppliesRatio(t *testing.T) {
	assert.Equal(t, 3, ReversalCount(20, 0.15))
	assert.Equal(t, 0, ReversalCount(0, 0.15))
}
