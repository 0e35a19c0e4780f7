package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/openmool/openmool/internal/common"
	"github.com/openmool/openmool/internal/logging"
)

// DefaultChunkSize is the fixed chunk size for multipart uploads.
const DefaultChunkSize int64 = 5 * 1024 * 1024

// LargeFileThreshold is the size at which uploads switch from a single
// presigned PUT to a resumable multipart session.
const LargeFileThreshold int64 = 100 * 1024 * 1024

// chunkRetryBase and chunkMaxRetries bound the per-chunk retry loop. A
// chunk that still fails after the retries surfaces its error to the
// caller; the session stays resumable.
const (
	chunkRetryBase  = 500 * time.Millisecond
	chunkMaxRetries = 3
)

// Source is the local file being uploaded. os.File satisfies io.ReaderAt;
// use FileSource to wrap one.
type Source interface {
	io.ReaderAt
	Name() string
	Size() int64
}

// Transport is the server-side upload API as seen by the session manager.
type Transport interface {
	CreateMultipart(ctx context.Context, filename, contentType string) (uploadID, key string, err error)
	UploadPart(ctx context.Context, uploadID, key string, partNumber int32, body []byte) (etag string, err error)
	CompleteMultipart(ctx context.Context, uploadID, key string, parts []Part) error
	AbortMultipart(ctx context.Context, uploadID, key string) error
	PresignPut(ctx context.Context, filename, contentType string) (key, url string, err error)
	PutPresigned(ctx context.Context, url, contentType string, body io.Reader, size int64) error
}

// Result reports the outcome of a Start or Resume call. Completed is false
// when the loop exited because of Pause; the session stays resumable.
type Result struct {
	ObjectKey string
	Completed bool
}

// Manager owns the chunk-sequencing state machine for one resumable
// upload. At most one chunk is in flight at a time; progress is persisted
// after every acknowledged chunk and before the next one starts, so an
// interruption never loses an acknowledgment.
type Manager struct {
	transport Transport
	states    StateStore
	logger    logging.Logger

	// ChunkSize and Threshold may be overridden before the first Start.
	ChunkSize int64
	Threshold int64
	// OnProgress, when set, is called after every acknowledged chunk
	// with (acknowledged parts, total parts).
	OnProgress func(done, total int32)

	paused atomic.Bool

	mu     sync.Mutex
	source Source
}

func NewManager(transport Transport, states StateStore, logger logging.Logger) *Manager {
	return &Manager{
		transport: transport,
		states:    states,
		logger:    logger.With("component", "upload-session"),
		ChunkSize: DefaultChunkSize,
		Threshold: LargeFileThreshold,
	}
}

// Start begins or continues an upload of src. If persisted state exists it
// is picked up from the next outstanding part; otherwise a new session is
// created. Files below LargeFileThreshold bypass multipart entirely via a
// presigned single PUT, which has no resumability.
func (m *Manager) Start(ctx context.Context, src Source) (*Result, error) {
	if src == nil {
		return nil, common.ErrMissingFileHandle
	}

	m.mu.Lock()
	m.source = src
	m.mu.Unlock()
	m.paused.Store(false)

	state, err := m.states.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	if state == nil {
		if src.Size() < m.Threshold {
			return m.putDirect(ctx, src)
		}

		contentType := contentTypeFor(src.Name())
		uploadID, key, err := m.transport.CreateMultipart(ctx, src.Name(), contentType)
		if err != nil {
			return nil, fmt.Errorf("failed to create upload session: %w", err)
		}

		state = &State{
			UploadID:       uploadID,
			ObjectKey:      key,
			NextPartNumber: 1,
			TotalSize:      src.Size(),
			ChunkSize:      m.ChunkSize,
			Filename:       src.Name(),
		}
		if err := m.states.Save(state); err != nil {
			return nil, fmt.Errorf("failed to persist session state: %w", err)
		}
	}

	return m.run(ctx, src, state)
}

// Pause requests the chunk loop to exit after the in-flight chunk
// finishes. Safe to call from another goroutine.
func (m *Manager) Pause() {
	m.paused.Store(true)
}

// Resume continues a persisted session. src may be nil if a source was
// retained from a prior Start in this process; otherwise the caller must
// supply one.
func (m *Manager) Resume(ctx context.Context, src Source) (*Result, error) {
	if src == nil {
		m.mu.Lock()
		src = m.source
		m.mu.Unlock()
	}
	if src == nil {
		return nil, common.ErrMissingFileHandle
	}

	state, err := m.states.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}
	if state == nil {
		return nil, common.ErrSessionCompleted
	}

	m.mu.Lock()
	m.source = src
	m.mu.Unlock()
	m.paused.Store(false)

	return m.run(ctx, src, state)
}

// Cancel aborts the live session, if any, and clears persisted state
// unconditionally. An abort failure is logged, never escalated: local
// state must not leak.
func (m *Manager) Cancel(ctx context.Context) error {
	state, err := m.states.Load()
	if err != nil {
		return fmt.Errorf("failed to load session state: %w", err)
	}

	if state != nil && state.UploadID != "" {
		if err := m.transport.AbortMultipart(ctx, state.UploadID, state.ObjectKey); err != nil {
			m.logger.Warn(ctx, "abort failed, clearing local state anyway",
				"upload_id", state.UploadID, "err", err)
		}
	}

	m.mu.Lock()
	m.source = nil
	m.mu.Unlock()

	return m.states.Clear()
}

// run uploads outstanding chunks in strictly increasing part order,
// persisting after each acknowledgment, then finalizes. A finalize failure
// leaves the session resumable.
func (m *Manager) run(ctx context.Context, src Source, state *State) (*Result, error) {
	totalParts := state.TotalParts()

	for state.NextPartNumber <= totalParts {
		if m.paused.Load() {
			m.logger.Info(ctx, "upload paused",
				"key", state.ObjectKey, "next_part", state.NextPartNumber)
			return &Result{ObjectKey: state.ObjectKey, Completed: false}, nil
		}

		chunk, err := readChunk(src, state, state.NextPartNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk %d: %w", state.NextPartNumber, err)
		}

		etag, err := m.uploadChunk(ctx, state, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to upload chunk %d: %w", state.NextPartNumber, err)
		}

		state.UploadedParts = append(state.UploadedParts, Part{
			PartNumber: state.NextPartNumber,
			ETag:       etag,
		})
		state.NextPartNumber++

		// Persist before moving on so a crash here never re-sends an
		// acknowledged part.
		if err := m.states.Save(state); err != nil {
			return nil, fmt.Errorf("failed to persist session state: %w", err)
		}

		if m.OnProgress != nil {
			m.OnProgress(int32(len(state.UploadedParts)), totalParts)
		}
	}

	if err := m.transport.CompleteMultipart(ctx, state.UploadID, state.ObjectKey, state.UploadedParts); err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	if err := m.states.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear session state: %w", err)
	}

	m.logger.Info(ctx, "upload completed", "key", state.ObjectKey, "parts", totalParts)
	return &Result{ObjectKey: state.ObjectKey, Completed: true}, nil
}

// uploadChunk sends one chunk with bounded backoff retries.
func (m *Manager) uploadChunk(ctx context.Context, state *State, chunk []byte) (string, error) {
	var etag string
	backoff := retry.WithMaxRetries(chunkMaxRetries, retry.NewFibonacci(chunkRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		etag, err = m.transport.UploadPart(ctx, state.UploadID, state.ObjectKey, state.NextPartNumber, chunk)
		if err != nil {
			m.logger.Warn(ctx, "chunk upload failed, retrying",
				"part", state.NextPartNumber, "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	return etag, err
}

// putDirect is the small-file path: one presigned PUT, no resumability.
func (m *Manager) putDirect(ctx context.Context, src Source) (*Result, error) {
	contentType := contentTypeFor(src.Name())

	key, url, err := m.transport.PresignPut(ctx, src.Name(), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to get presigned URL: %w", err)
	}

	reader := io.NewSectionReader(src, 0, src.Size())
	if err := m.transport.PutPresigned(ctx, url, contentType, reader, src.Size()); err != nil {
		return nil, fmt.Errorf("presigned upload failed: %w", err)
	}

	m.logger.Info(ctx, "upload completed via presigned url", "key", key)
	return &Result{ObjectKey: key, Completed: true}, nil
}

func readChunk(src Source, state *State, partNumber int32) ([]byte, error) {
	offset := int64(partNumber-1) * state.ChunkSize
	size := state.ChunkSize
	if remaining := state.TotalSize - offset; remaining < size {
		size = remaining
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(src, offset, size), buf); err != nil {
		return nil, err
	}
	return buf, nil
}
