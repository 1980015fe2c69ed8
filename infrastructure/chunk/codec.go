// Package chunk splits files into bounded byte ranges and glues them back together.
// Both directions copy through fixed sub-buffers so memory use does not depend on chunk size.
package chunk

import (
	"chunk-relay/contract"
	"chunk-relay/errors"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/disk"
)

var _ contract.ChunkCodec = (*FileCodec)(nil)

type FileCodec struct {
	log          *slog.Logger
	minFreeSpace uint64
	bufferPool   *sync.Pool
}

// NewFileCodec keeps minFreeSpace bytes free on the destination volume after each split.
func NewFileCodec(log *slog.Logger, minFreeSpace uint64) *FileCodec {
	return &FileCodec{
		log:          log,
		minFreeSpace: minFreeSpace,
		bufferPool: &sync.Pool{
			New: func() any {
				b := make([]byte, 0)
				return &b
			},
		},
	}
}

// Split copies at most chunkSize bytes of sourcePath starting at cursor into destPath.
// It returns the cursor of the next chunk, or 0 when the source has been fully consumed.
func (c *FileCodec) Split(ctx context.Context, cursor uint64, sourcePath, destPath string, chunkSize, bufferSize uint64) (uint64, error) {
	if chunkSize == 0 || bufferSize == 0 {
		return 0, fmt.Errorf("chunk and buffer sizes must be positive")
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	size := uint64(info.Size())
	if cursor > size {
		return 0, fmt.Errorf("cursor %d beyond end of %s (%d bytes)", cursor, sourcePath, size)
	}

	length := min(chunkSize, size-cursor)
	if err := c.ensureSpace(filepath.Dir(destPath), length); err != nil {
		return 0, err
	}

	if _, err := src.Seek(int64(cursor), io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek source: %w", err)
	}

	dst, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("create chunk: %w", err)
	}

	written, err := c.copy(ctx, dst, io.LimitReader(src, int64(length)), bufferSize)
	if closeErr := dst.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(destPath)
		return 0, fmt.Errorf("write chunk: %w", err)
	}
	if written != length {
		_ = os.Remove(destPath)
		return 0, fmt.Errorf("short chunk: got %d bytes, want %d", written, length)
	}

	c.log.Debug("Chunk materialized", "source", sourcePath, "chunk", destPath,
		"offset", cursor, "size", humanize.IBytes(written))

	next := cursor + written
	if next >= size {
		return 0, nil
	}
	return next, nil
}

// Concat appends chunkPath to destPath and returns the number of bytes appended.
func (c *FileCodec) Concat(ctx context.Context, chunkPath, destPath string, bufferSize uint64) (uint64, error) {
	if bufferSize == 0 {
		return 0, fmt.Errorf("buffer size must be positive")
	}

	src, err := os.Open(chunkPath)
	if err != nil {
		return 0, fmt.Errorf("open chunk: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open destination: %w", err)
	}

	written, err := c.copy(ctx, dst, src, bufferSize)
	if closeErr := dst.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return written, fmt.Errorf("append chunk: %w", err)
	}
	return written, nil
}

// copy moves data through a pooled buffer of bufferSize bytes and checks ctx between buffers.
func (c *FileCodec) copy(ctx context.Context, dst io.Writer, src io.Reader, bufferSize uint64) (uint64, error) {
	bufPtr := c.bufferPool.Get().(*[]byte)
	defer c.bufferPool.Put(bufPtr)
	if uint64(cap(*bufPtr)) < bufferSize {
		*bufPtr = make([]byte, bufferSize)
	}
	buf := (*bufPtr)[:bufferSize]

	var written uint64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			w, err := dst.Write(buf[:n])
			written += uint64(w)
			if err != nil {
				return written, err
			}
			if w != n {
				return written, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

func (c *FileCodec) ensureSpace(dir string, length uint64) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		c.log.Debug("Free space check unavailable", "dir", dir, "error", err)
		return nil
	}
	if usage.Free < length+c.minFreeSpace {
		return fmt.Errorf("%w: %s free in %s, chunk needs %s plus %s reserve",
			errors.ErrInsufficientSpace, humanize.IBytes(usage.Free), dir,
			humanize.IBytes(length), humanize.IBytes(c.minFreeSpace))
	}
	return nil
}
