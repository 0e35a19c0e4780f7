package ai

import "errors"

var (
	ErrEmbeddingConfigIncomplete   = errors.New("embedding host and model are both required")
	ErrExtractorConfigIncomplete   = errors.New("extractor host and model are both required")
	ErrTranscriberConfigIncomplete = errors.New("transcriber host and model are both required")
)

// Config holds connection settings for the OpenAI-compatible backends.
// Any backend may be left unconfigured (both host and model empty); the
// pipeline then skips the stages that depend on it.
type Config struct {
	APIToken string

	EmbeddingHost  string
	EmbeddingModel string

	ExtractorHost  string
	ExtractorModel string

	TranscriberHost  string
	TranscriberModel string
}

// EmbeddingConfigured reports whether the embedding backend is set up.
func (c *Config) EmbeddingConfigured() bool {
	return c.EmbeddingHost != "" && c.EmbeddingModel != ""
}

// ExtractorConfigured reports whether the extraction backend is set up.
func (c *Config) ExtractorConfigured() bool {
	return c.ExtractorHost != "" && c.ExtractorModel != ""
}

// TranscriberConfigured reports whether the transcription backend is set up.
func (c *Config) TranscriberConfigured() bool {
	return c.TranscriberHost != "" && c.TranscriberModel != ""
}

// Validate rejects half-configured backends, where exactly one of host and
// model is set.
func (c *Config) Validate() error {
	if (c.EmbeddingHost == "") != (c.EmbeddingModel == "") {
		return ErrEmbeddingConfigIncomplete
	}
	if (c.ExtractorHost == "") != (c.ExtractorModel == "") {
		return ErrExtractorConfigIncomplete
	}
	if (c.TranscriberHost == "") != (c.TranscriberModel == "") {
		return ErrTranscriberConfigIncomplete
	}
	return nil
}
