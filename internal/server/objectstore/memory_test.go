package objectstore

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/openmool/openmool/internal/common"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", "audio/mpeg", bytes.NewReader([]byte("abc"))))

	data, ct, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), data)
	require.Equal(t, "audio/mpeg", ct)
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	s := NewMemoryStore()
	_, _, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryStore_MultipartAssemblesInOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	uploadID, err := s.CreateMultipart(ctx, "k", "video/mp4")
	require.NoError(t, err)

	var parts []Part
	for i, chunk := range [][]byte{[]byte("aa"), []byte("bb"), []byte("c")} {
		etag, err := s.UploadPart(ctx, "k", uploadID, int32(i+1), chunk)
		require.NoError(t, err)
		parts = append(parts, Part{PartNumber: int32(i + 1), ETag: etag})
	}

	require.NoError(t, s.CompleteMultipart(ctx, "k", uploadID, parts))

	data, ct, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("aabbc"), data)
	require.Equal(t, "video/mp4", ct)

	// upload is gone after complete
	err = s.CompleteMultipart(ctx, "k", uploadID, parts)
	require.ErrorIs(t, err, common.ErrUploadNotFound)
}

func TestMemoryStore_CompleteRejectsGap(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	uploadID, err := s.CreateMultipart(ctx, "k", "video/mp4")
	require.NoError(t, err)

	e1, err := s.UploadPart(ctx, "k", uploadID, 1, []byte("aa"))
	require.NoError(t, err)
	e3, err := s.UploadPart(ctx, "k", uploadID, 3, []byte("cc"))
	require.NoError(t, err)

	err = s.CompleteMultipart(ctx, "k", uploadID, []Part{
		{PartNumber: 1, ETag: e1},
		{PartNumber: 3, ETag: e3},
	})
	require.ErrorIs(t, err, common.ErrPartsNotContiguous)
}

func TestMemoryStore_PartReuploadOverwrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	uploadID, err := s.CreateMultipart(ctx, "k", "audio/mpeg")
	require.NoError(t, err)

	_, err = s.UploadPart(ctx, "k", uploadID, 1, []byte("old"))
	require.NoError(t, err)
	etag, err := s.UploadPart(ctx, "k", uploadID, 1, []byte("new"))
	require.NoError(t, err)

	require.NoError(t, s.CompleteMultipart(ctx, "k", uploadID, []Part{{PartNumber: 1, ETag: etag}}))

	data, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), data)
}

func TestMemoryStore_AbortReleasesUpload(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	uploadID, err := s.CreateMultipart(ctx, "k", "audio/mpeg")
	require.NoError(t, err)
	require.NoError(t, s.AbortMultipart(ctx, "k", uploadID))

	_, err = s.UploadPart(ctx, "k", uploadID, 1, []byte("a"))
	require.True(t, errors.Is(err, common.ErrUploadNotFound))
}
