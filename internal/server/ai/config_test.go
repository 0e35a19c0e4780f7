package ai

import "testing"

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"all empty is valid", Config{}, nil},
		{
			"fully configured is valid",
			Config{
				EmbeddingHost: "http://h", EmbeddingModel: "m",
				ExtractorHost: "http://h", ExtractorModel: "m",
				TranscriberHost: "http://h", TranscriberModel: "whisper-1",
			},
			nil,
		},
		{"embedding host without model", Config{EmbeddingHost: "http://h"}, ErrEmbeddingConfigIncomplete},
		{"extractor model without host", Config{ExtractorModel: "m"}, ErrExtractorConfigIncomplete},
		{"transcriber host without model", Config{TranscriberHost: "http://h"}, ErrTranscriberConfigIncomplete},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err != tc.wantErr {
				t.Fatalf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestConfig_ConfiguredFlags(t *testing.T) {
	cfg := Config{EmbeddingHost: "http://h", EmbeddingModel: "m"}
	if !cfg.EmbeddingConfigured() {
		t.Fatalf("expected embedding to be configured")
	}
	if cfg.ExtractorConfigured() || cfg.TranscriberConfigured() {
		t.Fatalf("expected extractor and transcriber to be unconfigured")
	}
}
