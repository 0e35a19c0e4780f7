// Package ai defines the inference ports used by the enrichment pipeline.
// Each backend is a stateless request/response call over the network;
// implementations must be safe for concurrent use.
package ai

import "context"

// Entities are the three named string lists extracted from a transcription.
type Entities struct {
	// Deities are gods, goddesses, spiritual figures, divine beings.
	Deities []string `json:"deities"`
	// Places are geographical locations, temples, shrines, landmarks.
	Places []string `json:"places"`
	// Botanicals are plants, herbs, trees, medicinal plants.
	Botanicals []string `json:"botanicals"`
}

// Transcriber converts raw audio/video bytes into text.
type Transcriber interface {
	// Transcribe returns the spoken text of the given media bytes.
	// The filename is passed along so the backend can infer the container
	// format from its extension.
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// EntityExtractor pulls the three entity lists out of free text.
//
// A well-formed response with no entities is a successful empty result.
// Malformed model output is an error: the caller records a stage failure
// instead of silently treating it as empty.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) (Entities, error)
}

// Embedder generates a fixed-length vector embedding for a text string.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
