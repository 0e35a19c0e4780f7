// Package refinery runs the asynchronous enrichment pipeline for freshly
// uploaded media: transcription, entity extraction, embedding and vector
// indexing. Every stage is best-effort; a stage failure never invalidates
// the artifact, it only leaves that stage's columns empty.
package refinery

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/openmool/openmool/internal/logging"
	"github.com/openmool/openmool/internal/server/ai"
	"github.com/openmool/openmool/internal/server/objectstore"
	"github.com/openmool/openmool/internal/server/repositories/media"
	"github.com/openmool/openmool/internal/server/vector"
)

// TranscribeSizeLimit is the hard cap on bytes sent to the speech-to-text
// backend.
const TranscribeSizeLimit = 25 * 1024 * 1024

// snippetLength is how much transcription is attached to the vector-index
// metadata.
const snippetLength = 100

var mediaKeyPattern = regexp.MustCompile(`(?i)\.(mp3|wav|ogg|m4a|mp4|webm|mov|avi|flv)$`)

// Job carries the minimal context the pipeline needs for one artifact.
type Job struct {
	ArtifactID  int64
	StorageKey  string
	Title       string
	Description string
	OwnerID     string
}

// Pipeline executes the four enrichment stages in order. The AI backends
// are optional: a nil Transcriber, Extractor or Embedder skips the stages
// that depend on it. All persistence is an idempotent overwrite, so
// re-running the pipeline for the same artifact is safe.
type Pipeline struct {
	store       objectstore.Store
	mediaRepo   media.Repository
	transcriber ai.Transcriber
	extractor   ai.EntityExtractor
	embedder    ai.Embedder
	index       vector.Index
	logger      logging.Logger
}

// NewPipeline wires a pipeline. index must be non-nil whenever embedder is.
func NewPipeline(
	store objectstore.Store,
	mediaRepo media.Repository,
	transcriber ai.Transcriber,
	extractor ai.EntityExtractor,
	embedder ai.Embedder,
	index vector.Index,
	logger logging.Logger,
) *Pipeline {
	return &Pipeline{
		store:       store,
		mediaRepo:   mediaRepo,
		transcriber: transcriber,
		extractor:   extractor,
		embedder:    embedder,
		index:       index,
		logger:      logger.With("component", "refinery"),
	}
}

// Process runs the pipeline for one artifact. It never returns an error to
// its caller's flow: stage failures are logged and the remaining
// independent stages still run.
func (p *Pipeline) Process(ctx context.Context, job Job) {
	log := p.logger.With("artifact_id", job.ArtifactID, "key", job.StorageKey)
	log.Info(ctx, "enrichment started")

	transcription := p.transcribe(ctx, log, job)
	entities := p.extract(ctx, log, job, transcription)

	if p.embedder == nil {
		log.Info(ctx, "no embedding backend configured, artifact left unprocessed")
		return
	}

	embedding, err := p.embedder.EmbedText(ctx, BuildEmbedText(job.Title, job.Description, transcription, entities))
	if err != nil {
		log.Error(ctx, "embedding failed", "err", err)
		return
	}

	if err := p.indexArtifact(ctx, job, transcription, embedding); err != nil {
		log.Error(ctx, "indexing failed", "err", err)
		return
	}

	log.Info(ctx, "enrichment complete")
}

// transcribe runs stage 1 and returns the transcription text, empty on
// skip or failure. A successful transcription is persisted immediately so
// a later crash cannot lose it.
func (p *Pipeline) transcribe(ctx context.Context, log logging.Logger, job Job) string {
	if p.transcriber == nil {
		return ""
	}
	if !mediaKeyPattern.MatchString(job.StorageKey) {
		log.Debug(ctx, "key has no media extension, skipping transcription")
		return ""
	}

	data, _, err := p.store.Get(ctx, job.StorageKey)
	if err != nil {
		log.Error(ctx, "failed to fetch object for transcription", "err", err)
		return ""
	}
	if len(data) >= TranscribeSizeLimit {
		log.Warn(ctx, "file too large for transcription", "bytes", len(data))
		return ""
	}

	text, err := p.transcriber.Transcribe(ctx, job.StorageKey, data)
	if err != nil {
		log.Error(ctx, "transcription failed", "err", err)
		return ""
	}
	if text == "" {
		return ""
	}

	if err := p.mediaRepo.UpdateTranscription(ctx, job.ArtifactID, text); err != nil {
		log.Error(ctx, "failed to persist transcription", "err", err)
		return ""
	}
	log.Info(ctx, "transcription persisted", "length", len(text))
	return text
}

// extract runs stage 2 and returns the entity lists, empty on skip or
// failure. Lists are persisted only when extraction succeeds.
func (p *Pipeline) extract(ctx context.Context, log logging.Logger, job Job, transcription string) ai.Entities {
	empty := ai.Entities{Deities: []string{}, Places: []string{}, Botanicals: []string{}}

	if p.extractor == nil || transcription == "" {
		return empty
	}

	entities, err := p.extractor.Extract(ctx, transcription)
	if err != nil {
		log.Error(ctx, "entity extraction failed", "err", err)
		return empty
	}

	if err := p.mediaRepo.UpdateEntities(ctx, job.ArtifactID, entities.Deities, entities.Places, entities.Botanicals); err != nil {
		log.Error(ctx, "failed to persist entities", "err", err)
		return entities
	}
	log.Info(ctx, "entities persisted",
		"deities", len(entities.Deities), "places", len(entities.Places), "botanicals", len(entities.Botanicals))
	return entities
}

// indexArtifact runs stage 4: vector upsert first, processed flag after.
// Ordering guarantees processed=true implies the artifact is retrievable
// via semantic search.
func (p *Pipeline) indexArtifact(ctx context.Context, job Job, transcription string, embedding []float32) error {
	item := vector.Item{
		ID:     fmt.Sprintf("%d", job.ArtifactID),
		Vector: embedding,
		Metadata: map[string]string{
			"title":         job.Title,
			"owner":         job.OwnerID,
			"transcription": snippet(transcription),
		},
	}
	if err := p.index.Upsert(ctx, []vector.Item{item}); err != nil {
		return fmt.Errorf("vector upsert: %w", err)
	}
	if err := p.mediaRepo.MarkProcessed(ctx, job.ArtifactID); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// BuildEmbedText concatenates the embeddable fields. Every component is
// optional; an artifact with no transcription still embeds from title and
// description alone.
func BuildEmbedText(title, description, transcription string, entities ai.Entities) string {
	terms := make([]string, 0, len(entities.Deities)+len(entities.Places)+len(entities.Botanicals))
	terms = append(terms, entities.Deities...)
	terms = append(terms, entities.Places...)
	terms = append(terms, entities.Botanicals...)

	text := fmt.Sprintf("Title: %s\nDescription: %s\nTranscription: %s\nEntities: %s",
		title, description, transcription, strings.Join(terms, " "))
	return strings.TrimSpace(text)
}

func snippet(s string) string {
	runes := []rune(s)
	if len(runes) > snippetLength {
		return string(runes[:snippetLength])
	}
	return s
}
