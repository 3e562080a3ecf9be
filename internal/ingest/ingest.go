// Package ingest describes the document-ingestion adapter's contract
// pre-parsed structured documents consumed by the Q&A
// generator. The adapter itself — file-format parsing, OCR, whatever
// produces these structures — is an external collaborator out of scope
// here; this package only names the shape it hands over.
package ingest

// Section is one titled chunk of a source document, part of its outline.
type Section struct {
	ID          string
	Title       string
	Level       int
	Text        string
	ContentHash string
}

// Relationship is a claimed relation between two sections' text spans,
// the raw material generation turns into RELATIONSHIP and MULTI_HOP questions.
type Relationship struct {
	FromText         string
	ToText           string
	RelationshipType string
	Confidence       float32
}

// CorpusPage is one page of an authoritative raw corpus, used instead of
// section text for grounding validation when present.
type CorpusPage struct {
	Number int
	Text   string
}

// RawCorpus is the authoritative source text for corpus validation,
// taking precedence over reconstructing text from Sections when present.
type RawCorpus struct {
	FullText string
	Pages    []CorpusPage
}

// DocumentMetadata carries identifying information about the source
// document a ParsedDocument was extracted from.
type DocumentMetadata struct {
	DocumentID string
	Title      string
	SourcePath string
}

// ParsedDocument is the full contract the ingestion adapter hands to the
// Q&A generation pipeline.
type ParsedDocument struct {
	Metadata      DocumentMetadata
	Sections      []Section
	Relationships []Relationship
	RawCorpus     *RawCorpus
}
