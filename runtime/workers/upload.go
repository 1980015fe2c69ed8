package workers

import (
	"chunk-relay/domain"
	"chunk-relay/errors"
	"context"
	"fmt"
	"os"
	"path/filepath"
)

func (w *SlotWorker) upload(ctx context.Context, job domain.TransferJob) domain.TransferResult {
	if err := w.checkSource(job); err != nil {
		return w.incomplete(job, err)
	}
	if job.TotalSize <= w.cfg.ChunkSize {
		return w.uploadSingle(ctx, job)
	}
	return w.uploadMulti(ctx, job)
}

// uploadSingle sends the file as is. Nothing is persisted before the blob exists.
func (w *SlotWorker) uploadSingle(ctx context.Context, job domain.TransferJob) domain.TransferResult {
	id, err := w.blobs.Upload(ctx, w.cfg.Channel, job.LocalPath, w.progressFunc(job, 0, 1))
	if w.aborted() {
		if err == nil {
			w.discard(ctx, id)
		}
		return w.incomplete(job, errors.ErrTransferAborted)
	}
	if err != nil {
		return w.incomplete(job, transportError(err))
	}

	job.BlobIDs = []domain.BlobID{id}
	job.UploadIndex++
	return w.completed(job)
}

// uploadMulti materializes one chunk at a time, sends it and persists the resume record.
// The record always describes the last chunk the remote store acknowledged.
func (w *SlotWorker) uploadMulti(ctx context.Context, job domain.TransferJob) domain.TransferResult {
	totalChunks := domain.ChunkCount(job.TotalSize, w.cfg.ChunkSize)

	for {
		if w.aborted() {
			return w.incomplete(job, errors.ErrTransferAborted)
		}

		chunkPath := w.uploadChunkPath(job.UploadIndex)
		next, err := w.codec.Split(ctx, job.ChunkCursor, job.LocalPath, chunkPath, w.cfg.ChunkSize, w.cfg.BufferSize)
		if err != nil {
			w.removeTemp(chunkPath)
			if w.aborted() {
				return w.incomplete(job, errors.ErrTransferAborted)
			}
			return w.incomplete(job, fmt.Errorf("split chunk at offset %d: %w", job.ChunkCursor, err))
		}

		sent := uint64(len(job.BlobIDs))
		id, err := w.blobs.Upload(ctx, w.cfg.Channel, chunkPath, w.progressFunc(job, sent, totalChunks))
		w.removeTemp(chunkPath)
		if w.aborted() {
			if err == nil {
				w.discard(ctx, id)
			}
			return w.incomplete(job, errors.ErrTransferAborted)
		}
		if err != nil {
			return w.incomplete(job, transportError(err))
		}

		job.BlobIDs = append(job.BlobIDs, id)
		job.UploadIndex++
		w.log.Debug("Chunk uploaded", "path", job.LogicalPath.String(), "chunk", sent+1, "of", totalChunks)

		if next == 0 {
			job.ChunkCursor = 0
			return w.completed(job)
		}

		cursor := job.ChunkCursor
		job.ChunkCursor = next
		if err := w.resume.Save(w.slot, job); err != nil {
			// The blob is not in any record, recovery would send the chunk again.
			w.discard(ctx, id)
			job.BlobIDs = job.BlobIDs[:len(job.BlobIDs)-1]
			job.ChunkCursor = cursor
			return w.incomplete(job, err)
		}

		if w.stopRequested() == domain.SoftCancel {
			return w.incomplete(job, errors.ErrTransferCancelled)
		}
	}
}

// checkSource refuses to go on with a file whose size differs from the one recorded at start.
func (w *SlotWorker) checkSource(job domain.TransferJob) error {
	info, err := os.Stat(job.LocalPath)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if uint64(info.Size()) != job.TotalSize {
		return fmt.Errorf("%w: %s is %d bytes, %d expected", errors.ErrSourceChanged, job.LocalPath, info.Size(), job.TotalSize)
	}
	return nil
}

func (w *SlotWorker) uploadChunkPath(uploadIndex uint64) string {
	return filepath.Join(w.cfg.TmpDir, fmt.Sprintf("%d_%d", w.slot, uploadIndex))
}
