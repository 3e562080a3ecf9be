// Package llm wraps the LLM completion collaborator (the "LLM completion
// service"): schema-validated JSON completions with retry on transient
// provider errors. The Q&A generator and reversal strategies never talk to
// a provider SDK directly.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/grahama1970/arangodb-sub000/internal/config"
	"github.com/grahama1970/arangodb-sub000/internal/logging"
)

var log = logging.For("llm")

// CompletionRequest describes one completion call.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	Model        string
	Temperature  float32
	MaxTokens    int
	// JSONMode, when set, requests a JSON-object response; the caller is
	// responsible for unmarshaling and validating Content.
	JSONMode bool
}

// CompletionResponse is a single completion result.
type CompletionResponse struct {
	Content string
}

// CompletionService issues structured completions against an LLM provider,
// retrying transient failures with exponential backoff.
type CompletionService interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// OpenAICompatible implements CompletionService against any OpenAI-compatible
// chat completion endpoint.
type OpenAICompatible struct {
	client     *openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAICompatible constructs a completion service from cfg.
func NewOpenAICompatible(cfg *config.LLMConfig) *OpenAICompatible {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAICompatible{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Complete issues a chat completion, retrying on transient errors with
// exponential backoff up to maxRetries. The outer context's deadline is
// honored; once expired, no further attempts are made.
func (o *OpenAICompatible) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	messages := []openai.ChatCompletionMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("llm completion abandoned, context done: %w", ctx.Err())
		}

		resp, err := o.client.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			if len(resp.Choices) == 0 {
				lastErr = fmt.Errorf("llm completion returned no choices")
			} else {
				return &CompletionResponse{Content: resp.Choices[0].Message.Content}, nil
			}
		} else {
			lastErr = fmt.Errorf("llm completion request failed: %w", err)
		}

		if attempt < o.maxRetries {
			backoff := o.retryDelay * time.Duration(1<<attempt)
			log.WithError(lastErr).WithField("attempt", attempt).Warn("retrying llm completion")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("llm completion abandoned during backoff: %w", ctx.Err())
			}
		}
	}
	return nil, fmt.Errorf("llm completion exhausted %d retries: %w", o.maxRetries, lastErr)
}
