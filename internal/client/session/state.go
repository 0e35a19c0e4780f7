// Package session drives one resumable chunked upload to completion,
// persisting progress after every acknowledged chunk so an interrupted
// upload resumes from the last acknowledged part.
package session

// Part is one acknowledged chunk of a multipart upload.
type Part struct {
	PartNumber int32  `json:"partNumber"`
	ETag       string `json:"etag"`
}

// State is the persisted snapshot of one upload session. It is written
// after every acknowledged chunk, before the next chunk starts, so a crash
// never loses an acknowledgment.
type State struct {
	UploadID       string `json:"uploadId"`
	ObjectKey      string `json:"objectKey"`
	UploadedParts  []Part `json:"uploadedParts"`
	NextPartNumber int32  `json:"nextPartNumber"`
	TotalSize      int64  `json:"totalSize"`
	ChunkSize      int64  `json:"chunkSize"`
	Filename       string `json:"filename"`
}

// TotalParts is how many chunks the file splits into.
func (s *State) TotalParts() int32 {
	if s.ChunkSize <= 0 {
		return 0
	}
	return int32((s.TotalSize + s.ChunkSize - 1) / s.ChunkSize)
}
