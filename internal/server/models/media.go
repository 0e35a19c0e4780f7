// Package models defines server-side data models persisted in the database.
package models

import "time"

// MediaArtifact is the durable record for one uploaded media file.
// The bytes themselves live in object storage under StorageKey; the
// enrichment columns are populated asynchronously, one per successful
// pipeline stage.
type MediaArtifact struct {
	// ID is assigned by the database on insert.
	ID int64
	// StorageKey is the object-storage key of the uploaded blob.
	StorageKey string
	// OwnerID is the validated subject identifier of the uploader.
	OwnerID string

	Title       string
	Description string
	// Language is free-text, as supplied by the contributor.
	Language string
	// Latitude/Longitude are optional; Geotagged reports whether they are set.
	Latitude  float64
	Longitude float64
	Geotagged bool

	// Transcription stays empty until the transcribe stage succeeds.
	Transcription string
	// Deities, Places and Botanicals are the extracted entity lists.
	// They stay empty until the extract stage succeeds.
	Deities    []string
	Places     []string
	Botanicals []string

	// Processed becomes true only after an embedding has been upserted
	// into the vector index. Processed implies the artifact is retrievable
	// via semantic search.
	Processed bool

	CreatedAt time.Time
}
