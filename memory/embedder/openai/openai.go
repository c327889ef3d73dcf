// Package openai provides an Embedder backed by an OpenAI-compatible
// embeddings API. The default endpoint is OpenRouter, which fronts the
// bge-m3 model the assistant was tuned against, but any compatible base
// URL works.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Config configures the embedder.
type Config struct {
	// APIKey authenticates against the embeddings endpoint. Required.
	APIKey string

	// BaseURL overrides the API endpoint. Defaults to OpenRouter.
	BaseURL string

	// Model is the embedding model identifier. Defaults to "baai/bge-m3".
	Model string

	// Dimensions is the vector size the model produces.
	// Defaults to 1024 (bge-m3).
	Dimensions int
}

// Embedder calls a remote embeddings API. One synchronous round trip per
// Embed call; callers wanting timeouts or retries wrap the context or the
// embedder themselves.
type Embedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

// New creates the embedder. A missing API key is rejected here rather than
// on first use, so a misconfigured session fails at startup.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embeddings API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "baai/bge-m3"
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 1024
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts a single text to an embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("embeddings response is empty")
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}
