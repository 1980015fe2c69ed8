package workers

import (
	"chunk-relay/contract"
	"chunk-relay/domain"
	"chunk-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

var _ contract.NamedWorker = (*SlotWorker)(nil)

// discardTimeout bounds the best-effort removal of a blob uploaded by an aborted transfer.
const discardTimeout = 30 * time.Second

// TransferConfig is shared by every slot.
type TransferConfig struct {
	Channel    string
	TmpDir     string
	ChunkSize  uint64
	BufferSize uint64
	// DownloadFullPath recreates the logical directories under the destination.
	DownloadFullPath bool
}

type slotCommand struct {
	ctx   context.Context
	job   domain.TransferJob
	reply chan domain.TransferResult
}

// SlotWorker executes the transfers of one slot, one job at a time.
// Jobs arrive on the inbox, the result goes back on the reply channel of the command.
type SlotWorker struct {
	slot     domain.SlotID
	blobs    contract.BlobStore
	codec    contract.ChunkCodec
	resume   contract.ResumeStore
	cfg      TransferConfig
	log      *slog.Logger
	progress chan<- domain.Progress
	inbox    chan slotCommand
	closed   chan struct{}

	closeOnce sync.Once

	mu    sync.Mutex
	state domain.TransferState
	stop  domain.CancelStrength
	abort context.CancelFunc
}

func NewSlotWorker(
	slot domain.SlotID,
	blobs contract.BlobStore,
	codec contract.ChunkCodec,
	resume contract.ResumeStore,
	cfg TransferConfig,
	log *slog.Logger,
	progress chan<- domain.Progress,
) *SlotWorker {
	return &SlotWorker{
		slot:     slot,
		blobs:    blobs,
		codec:    codec,
		resume:   resume,
		cfg:      cfg,
		log:      log.With("slot", int(slot)),
		progress: progress,
		inbox:    make(chan slotCommand),
		closed:   make(chan struct{}),
	}
}

func (w *SlotWorker) Name() string {
	return fmt.Sprintf("slot-%d", w.slot)
}

func (w *SlotWorker) Slot() domain.SlotID {
	return w.slot
}

func (w *SlotWorker) State() domain.TransferState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *SlotWorker) Run(ctx context.Context) error {
	w.log.Debug("Slot worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Slot worker stopping")
			return ctx.Err()
		case cmd := <-w.inbox:
			cmd.reply <- w.execute(ctx, cmd)
		}
	}
}

// Submit hands job to the worker and blocks until it stops.
// Cancelling ctx while the job runs is a hard cancel.
func (w *SlotWorker) Submit(ctx context.Context, job domain.TransferJob) (domain.TransferResult, error) {
	cmd := slotCommand{
		ctx:   ctx,
		job:   job.Clone(),
		reply: make(chan domain.TransferResult, 1),
	}
	select {
	case w.inbox <- cmd:
	case <-ctx.Done():
		return domain.TransferResult{}, ctx.Err()
	case <-w.closed:
		return domain.TransferResult{}, fmt.Errorf("%w: %s", errors.ErrWorkerStopped, w.Name())
	}
	return <-cmd.reply, nil
}

// Close refuses every later Submit. Call it once Run has returned for good.
func (w *SlotWorker) Close() {
	w.closeOnce.Do(func() { close(w.closed) })
}

// Cancel asks the running transfer to stop.
// Soft stops after the chunk in flight is persisted and is refused for single-chunk transfers.
// Hard interrupts the transport call in flight. A request never weakens a previous one.
func (w *SlotWorker) Cancel(strength domain.CancelStrength) error {
	if strength != domain.SoftCancel && strength != domain.HardCancel {
		return fmt.Errorf("%w: %s", errors.ErrInvalidCancelStrength, strength)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.state == domain.Idle:
		return errors.ErrAlreadyCancelled
	case strength == domain.SoftCancel && w.state == domain.SingleChunk:
		return errors.ErrInvalidCancelStrength
	case strength <= w.stop:
		return errors.ErrAlreadyCancelled
	}

	w.stop = strength
	w.log.Info("Stop requested", "strength", strength.String(), "transfer", w.state.String())
	if strength == domain.HardCancel {
		if w.abort != nil {
			w.abort()
		}
		w.blobs.AbortInFlight()
	}
	return nil
}

func (w *SlotWorker) execute(runCtx context.Context, cmd slotCommand) (res domain.TransferResult) {
	job := cmd.job
	jobCtx, cancel := context.WithCancel(runCtx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Transfer panicked", "path", job.LogicalPath.String(), "panic", r)
			res = w.incomplete(job, fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r))
		}
		w.reset()
	}()

	w.begin(w.transferState(job), cancel)
	stopWatch := context.AfterFunc(cmd.ctx, func() {
		_ = w.Cancel(domain.HardCancel)
	})
	defer stopWatch()

	w.log.Info("Transfer started", "direction", job.Direction.String(), "path", job.LogicalPath.String(),
		"state", w.State().String(), "resumed", job.Started())

	switch job.Direction {
	case domain.Upload:
		return w.upload(jobCtx, job)
	case domain.Download:
		return w.download(jobCtx, job)
	default:
		return w.incomplete(job, fmt.Errorf("unknown direction %d", job.Direction))
	}
}

func (w *SlotWorker) transferState(job domain.TransferJob) domain.TransferState {
	if job.Direction == domain.Download {
		if len(job.BlobIDs) == 1 {
			return domain.SingleChunk
		}
		return domain.MultiChunk
	}
	if job.TotalSize <= w.cfg.ChunkSize {
		return domain.SingleChunk
	}
	return domain.MultiChunk
}

func (w *SlotWorker) begin(state domain.TransferState, abort context.CancelFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = state
	w.stop = domain.NoCancel
	w.abort = abort
}

func (w *SlotWorker) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = domain.Idle
	w.stop = domain.NoCancel
	w.abort = nil
}

func (w *SlotWorker) stopRequested() domain.CancelStrength {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stop
}

func (w *SlotWorker) aborted() bool {
	return w.stopRequested() == domain.HardCancel
}

func (w *SlotWorker) completed(job domain.TransferJob) domain.TransferResult {
	total := domain.ChunkCount(job.TotalSize, w.cfg.ChunkSize)
	if job.Direction == domain.Download {
		total = uint64(len(job.BlobIDs))
	}
	w.publish(domain.Progress{
		Slot:        w.slot,
		Direction:   job.Direction,
		LogicalPath: job.LogicalPath,
		TotalSize:   job.TotalSize,
		Chunk:       total,
		TotalChunks: total,
		Percent:     100,
	})
	w.log.Info("Transfer completed", "direction", job.Direction.String(), "path", job.LogicalPath.String())
	return domain.TransferResult{Slot: w.slot, Job: job, Status: domain.Completed}
}

func (w *SlotWorker) incomplete(job domain.TransferJob, err error) domain.TransferResult {
	w.log.Warn("Transfer stopped", "direction", job.Direction.String(), "path", job.LogicalPath.String(), "error", err)
	return domain.TransferResult{Slot: w.slot, Job: job, Status: domain.Incomplete, Err: err}
}

func (w *SlotWorker) progressFunc(job domain.TransferJob, chunk, totalChunks uint64) domain.ProgressFunc {
	return func(current, total uint64) {
		w.publish(domain.Progress{
			Slot:        w.slot,
			Direction:   job.Direction,
			LogicalPath: job.LogicalPath,
			TotalSize:   job.TotalSize,
			Chunk:       chunk,
			TotalChunks: totalChunks,
			Percent:     domain.Percent(current, total, chunk, totalChunks),
		})
	}
}

// publish never blocks the transfer: a full channel drops the update.
func (w *SlotWorker) publish(p domain.Progress) {
	if w.progress == nil {
		return
	}
	select {
	case w.progress <- p:
	default:
		w.log.Debug("Progress channel full, update dropped", "percent", p.Percent)
	}
}

// discard removes a blob nobody will reference. It runs after an abort, so it gets its own deadline.
func (w *SlotWorker) discard(ctx context.Context, ids ...domain.BlobID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	if err := w.blobs.DeleteBlobs(ctx, w.cfg.Channel, ids); err != nil {
		w.log.Warn("Could not discard blobs of an aborted transfer", "blobs", ids, "error", err)
	}
}

func (w *SlotWorker) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.log.Warn("Could not remove partial file", "path", path, "error", err)
	}
}

func transportError(err error) error {
	if errors.Is(err, errors.ErrTransportFailure) || errors.Is(err, errors.ErrTransferAborted) {
		return err
	}
	return fmt.Errorf("%w: %w", errors.ErrTransportFailure, err)
}
