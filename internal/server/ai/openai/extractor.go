package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openmool/openmool/internal/logging"
	"github.com/openmool/openmool/internal/server/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxDecodeAttempts bounds the number of model calls made when the response
// cannot be decoded into the entity schema.
const maxDecodeAttempts = 3

// EntityExtractor implements ai.EntityExtractor using an OpenAI-compatible
// chat API in JSON mode. Malformed output fails closed: after the decode
// attempts are exhausted the stage gets an error, never a fake empty result.
type EntityExtractor struct {
	client llms.Model
	logger logging.Logger
}

// NewEntityExtractor creates an extractor from the backend configuration.
func NewEntityExtractor(cfg *ai.Config, logger logging.Logger) (*EntityExtractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.ExtractorHost),
		openai.WithToken(tokenOrNone(cfg.APIToken)),
		openai.WithModel(cfg.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return &EntityExtractor{
		client: client,
		logger: logger.With("component", "openai-extractor"),
	}, nil
}

// Extract sends the transcription to the model and decodes the three entity
// lists from its JSON response.
func (e *EntityExtractor) Extract(ctx context.Context, text string) (ai.Entities, error) {
	if strings.TrimSpace(text) == "" {
		return emptyEntities(), nil
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(extractionSystemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= maxDecodeAttempts; attempt++ {
		response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			e.logger.Error(ctx, "failed to generate content", "attempt", attempt, "err", err)
			return ai.Entities{}, err
		}

		if len(response.Choices) < 1 {
			// The model genuinely returned nothing: successful empty result.
			e.logger.Debug(ctx, "no choices returned from model")
			return emptyEntities(), nil
		}

		entities, err := decodeEntities(response.Choices[0].Content)
		if err != nil {
			lastErr = err
			e.logger.Warn(ctx, "malformed extraction response", "attempt", attempt, "err", err)
			continue
		}
		return entities, nil
	}

	return ai.Entities{}, fmt.Errorf("entity extraction returned malformed output: %w", lastErr)
}

// decodeEntities strictly decodes the model response into the three-list
// schema. Unknown fields and non-object payloads are rejected.
func decodeEntities(raw string) (ai.Entities, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var entities ai.Entities
	if err := dec.Decode(&entities); err != nil {
		return ai.Entities{}, err
	}

	if entities.Deities == nil {
		entities.Deities = []string{}
	}
	if entities.Places == nil {
		entities.Places = []string{}
	}
	if entities.Botanicals == nil {
		entities.Botanicals = []string{}
	}
	return entities, nil
}

func emptyEntities() ai.Entities {
	return ai.Entities{Deities: []string{}, Places: []string{}, Botanicals: []string{}}
}
