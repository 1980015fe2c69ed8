package workers

import (
	"chunk-relay/domain"
	"chunk-relay/errors"
	"context"
	"fmt"
	"os"
	"path/filepath"
)

func (w *SlotWorker) download(ctx context.Context, job domain.TransferJob) domain.TransferResult {
	if len(job.BlobIDs) == 0 {
		return w.incomplete(job, fmt.Errorf("%s has no blobs to download", job.LogicalPath))
	}
	dest, err := w.destinationPath(job)
	if err != nil {
		return w.incomplete(job, err)
	}
	if len(job.BlobIDs) == 1 {
		return w.downloadSingle(ctx, job, dest)
	}
	return w.downloadMulti(ctx, job, dest)
}

// downloadSingle fetches the only blob straight into the destination.
func (w *SlotWorker) downloadSingle(ctx context.Context, job domain.TransferJob, dest string) domain.TransferResult {
	err := w.blobs.Download(ctx, w.cfg.Channel, job.BlobIDs[0], dest, w.progressFunc(job, 0, 1))
	if w.aborted() {
		w.removeTemp(dest)
		return w.incomplete(job, errors.ErrTransferAborted)
	}
	if err != nil {
		w.removeTemp(dest)
		return w.incomplete(job, transportError(err))
	}

	job.BlobIndex = 1
	job.BytesDone = job.TotalSize
	return w.completed(job)
}

// downloadMulti fetches blobs in order into a temporary file and appends each one to the destination.
// The record is saved after every append but the last one.
func (w *SlotWorker) downloadMulti(ctx context.Context, job domain.TransferJob, dest string) domain.TransferResult {
	if err := prepareDestination(dest, job); err != nil {
		return w.incomplete(job, err)
	}
	if job.BlobIndex == 0 {
		job.BytesDone = 0
	}

	total := uint64(len(job.BlobIDs))
	chunkPath := filepath.Join(w.cfg.TmpDir, fmt.Sprintf("%d_%s_chunk", w.slot, job.LogicalPath.Name()))

	for job.BlobIndex < total {
		if w.aborted() {
			return w.incomplete(job, errors.ErrTransferAborted)
		}

		id := job.BlobIDs[job.BlobIndex]
		err := w.blobs.Download(ctx, w.cfg.Channel, id, chunkPath, w.progressFunc(job, job.BlobIndex, total))
		if w.aborted() {
			w.removeTemp(chunkPath)
			return w.incomplete(job, errors.ErrTransferAborted)
		}
		if err != nil {
			w.removeTemp(chunkPath)
			return w.incomplete(job, transportError(err))
		}

		appended, err := w.codec.Concat(ctx, chunkPath, dest, w.cfg.BufferSize)
		w.removeTemp(chunkPath)
		if err != nil {
			if w.aborted() {
				return w.incomplete(job, errors.ErrTransferAborted)
			}
			return w.incomplete(job, fmt.Errorf("append blob %d of %d: %w", job.BlobIndex+1, total, err))
		}

		job.BlobIndex++
		job.BytesDone += appended
		w.log.Debug("Chunk downloaded", "path", job.LogicalPath.String(), "chunk", job.BlobIndex, "of", total)

		if job.BlobIndex == total {
			break
		}
		if err := w.resume.Save(w.slot, job); err != nil {
			return w.incomplete(job, err)
		}
		if w.stopRequested() == domain.SoftCancel {
			return w.incomplete(job, errors.ErrTransferCancelled)
		}
	}
	return w.completed(job)
}

// destinationPath creates the directory the file lands in and returns the file path.
func (w *SlotWorker) destinationPath(job domain.TransferJob) (string, error) {
	dir := job.DestinationDir
	if w.cfg.DownloadFullPath && len(job.LogicalPath) > 1 {
		dir = filepath.Join(append([]string{dir}, job.LogicalPath[:len(job.LogicalPath)-1]...)...)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create destination directory: %w", err)
	}
	return filepath.Join(dir, job.LogicalPath.Name()), nil
}

// prepareDestination starts from an empty file, or cuts a resumed file back to the bytes the record accounts for.
// Anything past BytesDone was appended after the last save and will be fetched again.
func prepareDestination(dest string, job domain.TransferJob) error {
	if job.BlobIndex == 0 {
		f, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("create destination: %w", err)
		}
		return f.Close()
	}
	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("resume %s: %w", dest, err)
	}
	if uint64(info.Size()) < job.BytesDone {
		return fmt.Errorf("resume %s: file has %d bytes, %d already downloaded", dest, info.Size(), job.BytesDone)
	}
	if err := os.Truncate(dest, int64(job.BytesDone)); err != nil {
		return fmt.Errorf("resume %s at byte %d: %w", dest, job.BytesDone, err)
	}
	return nil
}
