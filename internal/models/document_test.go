package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentTagMatching(t *testing.T) {
	d := &Document{Tags: []string{"go", "retrieval", "graph"}}

	assert.True(t, d.HasTag("go"))
	assert.False(t, d.HasTag("rust"))

	assert.True(t, d.HasAllTags([]string{"go", "graph"}))
	assert.False(t, d.HasAllTags([]string{"go", "rust"}))

	assert.True(t, d.HasAnyTag([]string{"rust", "graph"}))
	assert.False(t, d.HasAnyTag([]string{"rust", "java"}))

	assert.Equal(t, 2, d.MatchingTagCount([]string{"go", "graph", "rust"}))
}

func TestQABatchRecompute(t *testing.T) {
	b := &QABatch{QAPairs: []QAPair{
		{CitationFound: true},
		{CitationFound: false},
		{CitationFound: true},
	}}
	b.Recompute()
	assert.Equal(t, 3, b.TotalPairs)
	assert.Equal(t, 2, b.ValidPairs)
}
