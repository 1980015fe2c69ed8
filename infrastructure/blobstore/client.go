// Package blobstore talks to the remote bucket through gocloud.dev/blob.
// Any driver registered by the binary (s3, gcs, file, mem) can back it.
package blobstore

import (
	"chunk-relay/contract"
	"chunk-relay/domain"
	"chunk-relay/errors"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

var _ contract.BlobStore = (*Client)(nil)

const blobContentType = "application/octet-stream"

// Client is the blob store seen by a single slot.
// The bucket is shared, the set of in-flight calls is not.
type Client struct {
	bucket *blob.Bucket
	log    *slog.Logger

	mu       sync.Mutex
	nextCall uint64
	inFlight map[uint64]context.CancelFunc
}

func NewClient(bucket *blob.Bucket, log *slog.Logger) *Client {
	return &Client{
		bucket:   bucket,
		log:      log,
		inFlight: make(map[uint64]context.CancelFunc),
	}
}

// Upload stores sourcePath under a fresh key of the channel and returns that key.
func (c *Client) Upload(ctx context.Context, channel, sourcePath string, onProgress domain.ProgressFunc) (domain.BlobID, error) {
	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", sourcePath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", sourcePath, err)
	}

	opCtx, done := c.begin(ctx)
	defer done()

	key := path.Join(channel, uuid.NewString())
	w, err := c.bucket.NewWriter(opCtx, key, &blob.WriterOptions{ContentType: blobContentType})
	if err != nil {
		return "", c.wrap(opCtx, fmt.Errorf("create writer: %w", err))
	}

	reader := &progressReader{ctx: opCtx, r: src, total: uint64(info.Size()), onProgress: onProgress}
	if _, err := io.Copy(w, reader); err != nil {
		wrapped := c.wrap(opCtx, fmt.Errorf("write %s: %w", key, err))
		// Cancelling the writer context before Close discards the partial object.
		done()
		_ = w.Close()
		return "", wrapped
	}
	if err := opCtx.Err(); err != nil {
		_ = w.Close()
		return "", c.wrap(opCtx, err)
	}
	if err := w.Close(); err != nil {
		return "", c.wrap(opCtx, fmt.Errorf("commit %s: %w", key, err))
	}

	c.log.Debug("Blob uploaded", "key", key, "size", humanize.IBytes(uint64(info.Size())))
	return domain.BlobID(key), nil
}

// Download writes the blob into destPath, replacing any previous content.
func (c *Client) Download(ctx context.Context, channel string, id domain.BlobID, destPath string, onProgress domain.ProgressFunc) error {
	opCtx, done := c.begin(ctx)
	defer done()

	r, err := c.bucket.NewReader(opCtx, string(id), nil)
	if err != nil {
		return c.wrap(opCtx, fmt.Errorf("open blob %s: %w", id, err))
	}
	defer r.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}

	reader := &progressReader{ctx: opCtx, r: r, total: uint64(r.Size()), onProgress: onProgress}
	_, err = io.Copy(dst, reader)
	if closeErr := dst.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return c.wrap(opCtx, fmt.Errorf("read blob %s: %w", id, err))
	}

	c.log.Debug("Blob downloaded", "channel", channel, "key", id, "size", humanize.IBytes(uint64(r.Size())))
	return nil
}

// DeleteBlobs removes every id, already missing ones included, and reports all failures together.
func (c *Client) DeleteBlobs(ctx context.Context, channel string, ids []domain.BlobID) error {
	opCtx, done := c.begin(ctx)
	defer done()

	var errs []error
	for _, id := range ids {
		if err := c.bucket.Delete(opCtx, string(id)); err != nil && !isNotExist(err) {
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return c.wrap(opCtx, errors.Join(errs...))
	}

	c.log.Debug("Blobs deleted", "channel", channel, "count", len(ids))
	return nil
}

// ListAllBlobs walks every blob key stored under the channel.
func (c *Client) ListAllBlobs(ctx context.Context, channel string) iter.Seq2[domain.BlobID, error] {
	return func(yield func(domain.BlobID, error) bool) {
		it := c.bucket.List(&blob.ListOptions{Prefix: channel + "/"})
		for {
			obj, err := it.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("%w: list %s: %w", errors.ErrTransportFailure, channel, err))
				return
			}
			if obj.IsDir {
				continue
			}
			if !yield(domain.BlobID(obj.Key), nil) {
				return
			}
		}
	}
}

// AbortInFlight cancels every call currently running on this client.
// Calls started afterwards are not affected.
func (c *Client) AbortInFlight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cancel := range c.inFlight {
		cancel()
	}
	if len(c.inFlight) > 0 {
		c.log.Info("Blob calls aborted", "count", len(c.inFlight))
	}
}

func (c *Client) begin(ctx context.Context) (context.Context, func()) {
	opCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	id := c.nextCall
	c.nextCall++
	c.inFlight[id] = cancel
	c.mu.Unlock()

	return opCtx, func() {
		c.mu.Lock()
		delete(c.inFlight, id)
		c.mu.Unlock()
		cancel()
	}
}

// wrap tags err as an abort when the call context was cancelled, as a transport failure otherwise.
func (c *Client) wrap(opCtx context.Context, err error) error {
	if opCtx.Err() != nil {
		return fmt.Errorf("%w: %w", errors.ErrTransferAborted, err)
	}
	return fmt.Errorf("%w: %w", errors.ErrTransportFailure, err)
}

func isNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}

// progressReader reports bytes read so far and stops as soon as ctx is cancelled.
type progressReader struct {
	ctx        context.Context
	r          io.Reader
	read       uint64
	total      uint64
	onProgress domain.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += uint64(n)
		if p.onProgress != nil {
			p.onProgress(p.read, p.total)
		}
	}
	return n, err
}
