// Package models holds the core domain entities shared across the
// retrieval, knowledge-graph, and Q&A subsystems.
package models

import "time"

// EmbeddingMetadata records how a Document's embedding was produced.
type EmbeddingMetadata struct {
	Model      string    `json:"model"`
	Dimensions int       `json:"dimensions"`
	CreatedAt  time.Time `json:"created_at"`
}

// Document is a unit of retrievable content belonging to exactly one
// collection.
type Document struct {
	ID                string                 `json:"id"`
	Key               string                 `json:"key"`
	Collection        string                 `json:"collection"`
	Type              string                 `json:"type"`
	Text              string                 `json:"text"`
	Tags              []string               `json:"tags,omitempty"`
	Embedding         []float32              `json:"embedding,omitempty"`
	EmbeddingMetadata *EmbeddingMetadata      `json:"embedding_metadata,omitempty"`
	Attributes        map[string]interface{} `json:"attributes,omitempty"`
}

// HasTag reports whether the document carries the given tag.
func (d *Document) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAllTags reports whether the document carries every tag in want.
func (d *Document) HasAllTags(want []string) bool {
	for _, t := range want {
		if !d.HasTag(t) {
			return false
		}
	}
	return true
}

// HasAnyTag reports whether the document carries at least one tag in want.
func (d *Document) HasAnyTag(want []string) bool {
	for _, t := range want {
		if d.HasTag(t) {
			return true
		}
	}
	return false
}

// MatchingTagCount returns how many of want appear in the document's tags.
func (d *Document) MatchingTagCount(want []string) int {
	n := 0
	for _, t := range want {
		if d.HasTag(t) {
			n++
		}
	}
	return n
}
