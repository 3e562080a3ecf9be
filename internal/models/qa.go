package models

import "time"

// QuestionType enumerates the supported Q&A generation strategies.
type QuestionType string

const (
	QuestionFactual      QuestionType = "FACTUAL"
	QuestionRelationship QuestionType = "RELATIONSHIP"
	QuestionMultiHop     QuestionType = "MULTI_HOP"
	QuestionHierarchical QuestionType = "HIERARCHICAL"
	QuestionComparative  QuestionType = "COMPARATIVE"
	QuestionReversal     QuestionType = "REVERSAL"
	QuestionCausal       QuestionType = "CAUSAL"
	QuestionDefinitional QuestionType = "DEFINITIONAL"
	QuestionProcedural   QuestionType = "PROCEDURAL"
)

// BaseTypeWeight is the per-type weight table used by the edge enricher
// when computing an edge's weight.
var BaseTypeWeight = map[QuestionType]float32{
	QuestionFactual:      0.9,
	QuestionDefinitional: 0.85,
	QuestionRelationship: 0.8,
	QuestionCausal:       0.8,
	QuestionProcedural:   0.75,
	QuestionHierarchical: 0.7,
	QuestionComparative:  0.7,
	QuestionMultiHop:     0.6,
	QuestionReversal:     0.5,
}

// QAPair is a generated, and optionally validated, question/answer tuple.
type QAPair struct {
	Question     string       `json:"question"`
	Thinking     string       `json:"thinking"`
	Answer       string       `json:"answer"`
	QuestionType QuestionType `json:"question_type"`
	Difficulty   string       `json:"difficulty,omitempty"`

	Confidence      float32 `json:"confidence"`
	TemperatureUsed float32 `json:"temperature_used"`

	SourceSection string `json:"source_section,omitempty"`
	SourceHash    string `json:"source_hash,omitempty"`

	EvidenceBlocks     []string `json:"evidence_blocks,omitempty"`
	RelationshipTypes  []string `json:"relationship_types,omitempty"`
	RelatedEntities    []string `json:"related_entities,omitempty"`

	ValidationScore *float32 `json:"validation_score,omitempty"`
	CitationFound   bool     `json:"citation_found"`

	ReversalOf string `json:"reversal_of,omitempty"`
}

// QABatch groups the QAPairs produced for a single source document.
type QABatch struct {
	QAPairs        []QAPair               `json:"qa_pairs"`
	DocumentID     string                  `json:"document_id"`
	GenerationTime time.Time               `json:"generation_time"`
	Metadata       map[string]interface{}  `json:"metadata,omitempty"`
	TotalPairs     int                     `json:"total_pairs"`
	ValidPairs     int                     `json:"valid_pairs"`
}

// Recompute refreshes TotalPairs/ValidPairs from QAPairs.
func (b *QABatch) Recompute() {
	b.TotalPairs = len(b.QAPairs)
	valid := 0
	for _, p := range b.QAPairs {
		if p.CitationFound {
			valid++
		}
	}
	b.ValidPairs = valid
}
