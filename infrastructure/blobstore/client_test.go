package blobstore

import (
	"chunk-relay/domain"
	"chunk-relay/errors"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func newTestClient(t *testing.T) (*Client, *blob.Bucket) {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })
	return NewClient(bucket, slog.New(slog.NewTextHandler(io.Discard, nil))), bucket
}

func writeFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunk")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644))
	return path
}

func TestClient_UploadDownload(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	client, _ := newTestClient(t)
	source := writeFile(t, 100_000)

	var last, total uint64
	id, err := client.Upload(ctx, "me", source, func(current, size uint64) {
		last, total = current, size
	})
	req.NoError(err)
	req.True(strings.HasPrefix(string(id), "me/"))
	req.Equal(uint64(100_000), last)
	req.Equal(uint64(100_000), total)

	dest := filepath.Join(t.TempDir(), "restored")
	var downloaded uint64
	err = client.Download(ctx, "me", id, dest, func(current, _ uint64) { downloaded = current })
	req.NoError(err)
	req.Equal(uint64(100_000), downloaded)

	got, err := os.ReadFile(dest)
	req.NoError(err)
	want, err := os.ReadFile(source)
	req.NoError(err)
	req.Equal(want, got)
}

func TestClient_Upload_FreshKeyEachCall(t *testing.T) {
	req := require.New(t)
	client, _ := newTestClient(t)
	source := writeFile(t, 10)

	first, err := client.Upload(context.Background(), "me", source, nil)
	req.NoError(err)
	second, err := client.Upload(context.Background(), "me", source, nil)
	req.NoError(err)
	req.NotEqual(first, second)
}

func TestClient_Download_MissingBlob(t *testing.T) {
	req := require.New(t)
	client, _ := newTestClient(t)

	err := client.Download(context.Background(), "me", "me/missing", filepath.Join(t.TempDir(), "x"), nil)
	req.ErrorIs(err, errors.ErrTransportFailure)
}

func TestClient_DeleteBlobs_ToleratesMissing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	client, bucket := newTestClient(t)

	id, err := client.Upload(ctx, "me", writeFile(t, 10), nil)
	req.NoError(err)

	req.NoError(client.DeleteBlobs(ctx, "me", []domain.BlobID{id, "me/never-existed"}))
	exists, err := bucket.Exists(ctx, string(id))
	req.NoError(err)
	req.False(exists)
}

func TestClient_ListAllBlobs_ScopedToChannel(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	client, _ := newTestClient(t)
	source := writeFile(t, 10)

	mine, err := client.Upload(ctx, "me", source, nil)
	req.NoError(err)
	_, err = client.Upload(ctx, "other", source, nil)
	req.NoError(err)

	var listed []domain.BlobID
	for id, err := range client.ListAllBlobs(ctx, "me") {
		req.NoError(err)
		listed = append(listed, id)
	}
	req.Equal([]domain.BlobID{mine}, listed)
}

func TestClient_AbortInFlight(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	client, _ := newTestClient(t)
	source := writeFile(t, 1_000_000)

	_, err := client.Upload(ctx, "me", source, func(current, total uint64) {
		if current < total {
			client.AbortInFlight()
		}
	})
	req.ErrorIs(err, errors.ErrTransferAborted)

	var listed int
	for _, err := range client.ListAllBlobs(ctx, "me") {
		req.NoError(err)
		listed++
	}
	req.Zero(listed, "an aborted upload must not leave a blob behind")

	// The abort only targets calls that were running.
	_, err = client.Upload(ctx, "me", writeFile(t, 10), nil)
	req.NoError(err)
}
