// Package embedding wraps the text-embedding collaborator (named in the
// design): a fixed-dimension vector for a configured model, or an error on
// provider failure. Nothing downstream of this package talks to an
// embedding provider's SDK directly.
package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/grahama1970/arangodb-sub000/internal/config"
)

// Service produces an embedding vector for a piece of text.
type Service interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// OpenAIEmbedder implements Service against an OpenAI-compatible embeddings
// endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder constructs an embedder from cfg.
func NewOpenAIEmbedder(cfg *config.EmbeddingConfig) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}
}

// Dimension returns the vector length this embedder produces.
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Model returns the configured embedding model identifier.
func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed returns a single text's embedding.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed: provider returned no vectors")
	}
	return vectors[0], nil
}

// EmbedBatch embeds many texts in one request.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding provider request failed: %w", err)
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// StaticService is a deterministic fake used by tests: embeds a string to a
// fixed-dimension vector derived from a simple hash of its bytes, so equal
// inputs always produce equal vectors without touching a provider.
type StaticService struct {
	Dim   int
	Calls int
}

// NewStaticService returns a fake embedder of the given dimension.
func NewStaticService(dim int) *StaticService {
	return &StaticService{Dim: dim}
}

// Dimension returns the configured fake dimension.
func (s *StaticService) Dimension() int { return s.Dim }

// Model returns a fixed fake model name.
func (s *StaticService) Model() string { return "static-fake" }

// Embed deterministically derives a vector from text's bytes.
func (s *StaticService) Embed(ctx context.Context, text string) ([]float32, error) {
	s.Calls++
	v := make([]float32, s.Dim)
	if len(text) == 0 {
		return v, nil
	}
	for i := range v {
		b := text[i%len(text)]
		v[i] = float32(int(b)%97) / 97.0
	}
	return v, nil
}

// EmbedBatch embeds each text independently.
func (s *StaticService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
