package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openmool/openmool/internal/common"
	"github.com/openmool/openmool/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

type memStore struct {
	mu    sync.Mutex
	state *State
	saves int
}

func (m *memStore) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	cp := *m.state
	cp.UploadedParts = append([]Part(nil), m.state.UploadedParts...)
	return &cp, nil
}

func (m *memStore) Save(state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	cp.UploadedParts = append([]Part(nil), state.UploadedParts...)
	m.state = &cp
	m.saves++
	return nil
}

func (m *memStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

type byteSource struct {
	*bytes.Reader
	name string
}

func newByteSource(name string, data []byte) *byteSource {
	return &byteSource{Reader: bytes.NewReader(data), name: name}
}

func (b *byteSource) Name() string { return b.name }
func (b *byteSource) Size() int64  { return int64(b.Reader.Len()) }

type fakeTransport struct {
	mu        sync.Mutex
	parts     map[int32][]byte
	completed bool
	aborted   bool

	// failPart makes the given part number fail failCount times before
	// succeeding.
	failPart    int32
	failCount   int
	completeErr error
	abortErr    error
	presignKey  string
	presignBody []byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{parts: map[int32][]byte{}}
}

func (f *fakeTransport) CreateMultipart(ctx context.Context, filename, contentType string) (string, string, error) {
	return "upl-1", "key-" + filename, nil
}

func (f *fakeTransport) UploadPart(ctx context.Context, uploadID, key string, partNumber int32, body []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if partNumber == f.failPart && f.failCount > 0 {
		f.failCount--
		return "", errors.New("network blip")
	}
	if _, seen := f.parts[partNumber]; seen {
		return "", fmt.Errorf("part %d uploaded twice", partNumber)
	}
	f.parts[partNumber] = append([]byte(nil), body...)
	return fmt.Sprintf("etag-%d", partNumber), nil
}

func (f *fakeTransport) CompleteMultipart(ctx context.Context, uploadID, key string, parts []Part) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	for i, p := range parts {
		if p.PartNumber != int32(i+1) {
			return fmt.Errorf("parts not contiguous at %d", p.PartNumber)
		}
	}
	f.completed = true
	return nil
}

func (f *fakeTransport) AbortMultipart(ctx context.Context, uploadID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.abortErr != nil {
		return f.abortErr
	}
	f.aborted = true
	return nil
}

func (f *fakeTransport) PresignPut(ctx context.Context, filename, contentType string) (string, string, error) {
	f.presignKey = "presigned-" + filename
	return f.presignKey, "http://store/" + filename, nil
}

func (f *fakeTransport) PutPresigned(ctx context.Context, url, contentType string, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.presignBody = data
	return nil
}

func newManager(transport Transport, store StateStore) *Manager {
	m := NewManager(transport, store, testLogger())
	m.ChunkSize = 4
	m.Threshold = 8
	return m
}

func TestStart_SmallFileUsesPresignedPut(t *testing.T) {
	transport := newFakeTransport()
	m := newManager(transport, &memStore{})

	res, err := m.Start(context.Background(), newByteSource("tiny.mp3", []byte("abc")))
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.Equal(t, "presigned-tiny.mp3", res.ObjectKey)
	require.Equal(t, []byte("abc"), transport.presignBody)
	require.Empty(t, transport.parts)
}

func TestStart_SplitsIntoParts(t *testing.T) {
	transport := newFakeTransport()
	store := &memStore{}
	m := newManager(transport, store)

	// 12 bytes at chunk size 4 make exactly 3 parts, the last one full.
	data := []byte("aaaabbbbcccc")
	res, err := m.Start(context.Background(), newByteSource("three.mp4", data))
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.True(t, transport.completed)

	require.Len(t, transport.parts, 3)
	require.Equal(t, []byte("aaaa"), transport.parts[1])
	require.Equal(t, []byte("bbbb"), transport.parts[2])
	require.Equal(t, []byte("cccc"), transport.parts[3])

	// Completion clears persisted state.
	st, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, st)
}

func TestStart_ShortLastChunk(t *testing.T) {
	transport := newFakeTransport()
	m := newManager(transport, &memStore{})

	res, err := m.Start(context.Background(), newByteSource("f.mp4", []byte("aaaabbbbcc")))
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.Equal(t, []byte("cc"), transport.parts[3])
}

func TestResume_AfterCrashNeverResendsAcknowledgedParts(t *testing.T) {
	transport := newFakeTransport()
	store := &memStore{}
	m := newManager(transport, store)

	// Part 2 keeps failing past the retry limit, simulating a dead
	// connection.
	transport.failPart = 2
	transport.failCount = 10

	data := []byte("aaaabbbbcccc")
	_, err := m.Start(context.Background(), newByteSource("f.mp4", data))
	require.Error(t, err)

	// Part 1 is acknowledged and persisted.
	st, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, st)
	require.Len(t, st.UploadedParts, 1)
	require.Equal(t, int32(2), st.NextPartNumber)

	// New process: fresh manager over the same store. The fake transport
	// errors if any part is uploaded twice.
	transport.failCount = 0
	m2 := newManager(transport, store)
	res, err := m2.Resume(context.Background(), newByteSource("f.mp4", data))
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.True(t, transport.completed)
	require.Len(t, transport.parts, 3)
}

func TestOrderingInvariant(t *testing.T) {
	transport := newFakeTransport()
	store := &memStore{}
	m := newManager(transport, store)

	m.OnProgress = func(done, total int32) {
		st, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, st)
		var maxPart int32
		for _, p := range st.UploadedParts {
			if p.PartNumber > maxPart {
				maxPart = p.PartNumber
			}
		}
		require.Equal(t, maxPart+1, st.NextPartNumber)
	}

	_, err := m.Start(context.Background(), newByteSource("f.mp4", []byte("aaaabbbbcccc")))
	require.NoError(t, err)
}

func TestPause_StopsBetweenChunks(t *testing.T) {
	transport := newFakeTransport()
	store := &memStore{}
	m := newManager(transport, store)

	m.OnProgress = func(done, total int32) {
		if done == 1 {
			m.Pause()
		}
	}

	res, err := m.Start(context.Background(), newByteSource("f.mp4", []byte("aaaabbbbcccc")))
	require.NoError(t, err)
	require.False(t, res.Completed)
	require.Len(t, transport.parts, 1)
	require.False(t, transport.completed)

	// Resume with the retained source finishes the upload.
	m.OnProgress = nil
	res, err = m.Resume(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.Len(t, transport.parts, 3)
}

func TestResume_MissingFileHandle(t *testing.T) {
	m := newManager(newFakeTransport(), &memStore{})

	_, err := m.Resume(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrMissingFileHandle)
}

func TestResume_NothingPersisted(t *testing.T) {
	m := newManager(newFakeTransport(), &memStore{})

	_, err := m.Resume(context.Background(), newByteSource("f.mp4", []byte("aaaabbbbcccc")))
	require.ErrorIs(t, err, common.ErrSessionCompleted)
}

func TestCancel_ClearsStateEvenWhenAbortFails(t *testing.T) {
	transport := newFakeTransport()
	store := &memStore{}
	m := newManager(transport, store)

	m.OnProgress = func(done, total int32) { m.Pause() }
	_, err := m.Start(context.Background(), newByteSource("f.mp4", []byte("aaaabbbbcccc")))
	require.NoError(t, err)

	transport.abortErr = errors.New("storage unreachable")
	require.NoError(t, m.Cancel(context.Background()))

	st, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, st)

	// Resume after cancel has nothing to pick up, even though the source
	// was retained earlier.
	_, err = m.Resume(context.Background(), newByteSource("f.mp4", []byte("aaaabbbbcccc")))
	require.ErrorIs(t, err, common.ErrSessionCompleted)
}

func TestFinalizeFailure_StaysResumable(t *testing.T) {
	transport := newFakeTransport()
	store := &memStore{}
	m := newManager(transport, store)

	transport.completeErr = errors.New("complete failed")
	_, err := m.Start(context.Background(), newByteSource("f.mp4", []byte("aaaabbbbcccc")))
	require.Error(t, err)

	st, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, st)
	require.Len(t, st.UploadedParts, 3)

	// The caller decides to retry: all parts are acknowledged so resume
	// goes straight to finalize without re-sending anything.
	transport.completeErr = nil
	res, err := m.Resume(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.True(t, transport.completed)
	require.Len(t, transport.parts, 3)
}

func TestChunkRetry_RecoversFromTransientFailure(t *testing.T) {
	transport := newFakeTransport()
	m := newManager(transport, &memStore{})

	transport.failPart = 2
	transport.failCount = 2

	res, err := m.Start(context.Background(), newByteSource("f.mp4", []byte("aaaabbbbcccc")))
	require.NoError(t, err)
	require.True(t, res.Completed)
	require.Len(t, transport.parts, 3)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir() + "/nested/session.json")

	st, err := store.Load()
	require.NoError(t, err)
	require.Nil(t, st)

	state := &State{
		UploadID:       "upl",
		ObjectKey:      "key",
		UploadedParts:  []Part{{PartNumber: 1, ETag: "e1"}},
		NextPartNumber: 2,
		TotalSize:      12,
		ChunkSize:      4,
		Filename:       "f.mp4",
	}
	require.NoError(t, store.Save(state))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, state, loaded)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	st, err = store.Load()
	require.NoError(t, err)
	require.Nil(t, st)
}
