// Package openai implements the ai ports against OpenAI-compatible HTTP
// endpoints, so local inference servers and hosted APIs are interchangeable.
package openai

import (
	"context"

	"github.com/openmool/openmool/internal/logging"
	"github.com/openmool/openmool/internal/server/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using an OpenAI-compatible embeddings API.
type Embedder struct {
	embedder embeddings.Embedder
	logger   logging.Logger
}

// NewEmbedder creates an embedder from the backend configuration.
func NewEmbedder(cfg *ai.Config, logger logging.Logger) (*Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.EmbeddingHost),
		openai.WithToken(tokenOrNone(cfg.APIToken)),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   logger.With("component", "openai-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug(ctx, "generating embedding", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error(ctx, "failed to generate embedding", "err", err)
		return nil, err
	}

	if len(vectors) == 0 {
		e.logger.Warn(ctx, "embedder returned empty result")
		return []float32{}, nil
	}

	return vectors[0], nil
}

// tokenOrNone substitutes a placeholder token for local OpenAI-compatible
// services that don't require authentication.
func tokenOrNone(token string) string {
	if token == "" {
		return "none"
	}
	return token
}
