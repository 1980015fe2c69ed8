package runtime

import (
	"chunk-relay/domain"
	"chunk-relay/errors"
	"context"
	"fmt"
)

// ResolveRecovery applies the caller's choice to the record left on slot.
//
// Finish resumes the transfer on the same slot from the record.
// Ignore keeps the record and the slot held.
// Delete drops the record and, for an upload, the blobs it already sent. Deleting a slot without record is a no-op.
func (c *Coordinator) ResolveRecovery(ctx context.Context, slot domain.SlotID, choice domain.RecoveryChoice) (domain.TransferResult, error) {
	if _, err := c.worker(slot); err != nil {
		return domain.TransferResult{}, err
	}
	switch choice {
	case domain.Finish:
		return c.finishRecovery(ctx, slot)
	case domain.Ignore:
		return domain.TransferResult{}, c.ignoreRecovery(slot)
	case domain.Delete:
		return domain.TransferResult{}, c.deleteRecovery(ctx, slot)
	default:
		return domain.TransferResult{}, fmt.Errorf("unknown recovery choice %d", choice)
	}
}

// finishRecovery claims the slot before reading its record: no other recovery or drain can interleave.
func (c *Coordinator) finishRecovery(ctx context.Context, slot domain.SlotID) (domain.TransferResult, error) {
	prior, err := c.pool.AcquireSlot(slot)
	if err != nil {
		return domain.TransferResult{}, err
	}
	job, found, err := c.resume.Load(slot)
	if err == nil && !found {
		err = fmt.Errorf("%w: %d", errors.ErrNoPendingRecovery, slot)
	}
	if err == nil && job.Direction == domain.Upload {
		err = c.checkPathFree(job.LogicalPath, slot)
	}
	if err != nil {
		c.giveBack(slot, prior)
		return domain.TransferResult{}, err
	}

	c.forget(slot)
	c.log.Info("Resuming interrupted transfer", "slot", int(slot), "direction", job.Direction.String(),
		"path", job.LogicalPath.String())

	if job.Direction == domain.Download {
		return c.runDownload(ctx, slot, job)
	}
	if err := c.reserve(job.LogicalPath, slot); err != nil {
		c.settle(slot, job)
		return domain.TransferResult{}, err
	}
	return c.runUpload(ctx, slot, job)
}

func (c *Coordinator) ignoreRecovery(slot domain.SlotID) error {
	_, found, err := c.resume.Load(slot)
	if err == nil && !found {
		return fmt.Errorf("%w: %d", errors.ErrNoPendingRecovery, slot)
	}
	c.log.Info("Interrupted transfer left for later", "slot", int(slot))
	return nil
}

// deleteRecovery holds the slot Busy while the record and its blobs go away.
// On failure the slot goes back to the state it had.
func (c *Coordinator) deleteRecovery(ctx context.Context, slot domain.SlotID) error {
	prior, err := c.pool.AcquireSlot(slot)
	if err != nil {
		return err
	}
	if err := c.dropRecord(ctx, slot); err != nil {
		c.giveBack(slot, prior)
		return err
	}
	c.forget(slot)
	c.release(slot)
	return nil
}

func (c *Coordinator) dropRecord(ctx context.Context, slot domain.SlotID) error {
	job, found, err := c.resume.Load(slot)
	switch {
	case err != nil && errors.Is(err, errors.ErrCorruptResumeRecord):
		c.log.Warn("Dropping unreadable resume record, its blobs are left to orphan cleanup", "slot", int(slot), "error", err)
	case err != nil:
		return err
	case !found:
		return nil
	case job.Direction == domain.Upload && len(job.BlobIDs) > 0:
		if err := c.maintenance.DeleteBlobs(ctx, c.opts.Transfer.Channel, job.BlobIDs); err != nil {
			return fmt.Errorf("delete blobs of interrupted upload on slot %d: %w", slot, err)
		}
	}

	if found && err == nil {
		if err := c.indexes.Raise(slot, job.UploadIndex); err != nil {
			return err
		}
	}
	if err := c.resume.Delete(slot); err != nil {
		return err
	}
	c.log.Info("Interrupted transfer deleted", "slot", int(slot), "path", job.LogicalPath.String())
	return nil
}

func (c *Coordinator) forget(slot domain.SlotID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, slot)
}
