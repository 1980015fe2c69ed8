// Package runtime hands transfers to the session slots and settles what they leave behind.
// It owns the slot pool, the pending recoveries and the catalog side effects of a transfer.
package runtime

import (
	"chunk-relay/contract"
	"chunk-relay/domain"
	"chunk-relay/errors"
	"chunk-relay/runtime/workers"
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Options struct {
	MaxSessions    int `validate:"min=1"`
	Transfer       workers.TransferConfig
	DownloadDir    string `validate:"required"`
	ProgressBuffer int    `validate:"min=1"`
	RestartDelay   time.Duration
}

// Dependencies are the stores the coordinator drives.
// NewBlobStore builds the client of one slot, Maintenance serves deletes and listings that belong to no slot.
type Dependencies struct {
	Resume       contract.ResumeStore
	Indexes      contract.UploadIndexStore
	Catalog      contract.Catalog
	Codec        contract.ChunkCodec
	NewBlobStore func(slot domain.SlotID) contract.BlobStore
	Maintenance  contract.BlobStore
}

type UploadRequest struct {
	LocalPath   string
	LogicalPath domain.LogicalPath
}

type DownloadRequest struct {
	LogicalPath domain.LogicalPath
	// DestinationDir defaults to the configured download directory.
	DestinationDir string
}

type Coordinator struct {
	log         *slog.Logger
	opts        Options
	pool        *SessionPool
	slots       []*workers.SlotWorker
	supervisor  *workers.Supervisor
	resume      contract.ResumeStore
	indexes     contract.UploadIndexStore
	catalog     contract.Catalog
	maintenance contract.BlobStore
	progress    chan domain.Progress
	validate    *validator.Validate
	now         func() time.Time

	mu       sync.Mutex
	pending  map[domain.SlotID]domain.PendingRecovery
	reserved map[string]domain.SlotID
}

// NewCoordinator scans the resume records and holds every slot that has one.
func NewCoordinator(log *slog.Logger, opts Options, deps Dependencies) (*Coordinator, error) {
	validate := validator.New()
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid coordinator options: %w", err)
	}

	found, err := deps.Resume.Scan(opts.MaxSessions)
	if err != nil {
		return nil, err
	}
	pending := make(map[domain.SlotID]domain.PendingRecovery, len(found))
	held := make([]domain.SlotID, 0, len(found))
	for _, p := range found {
		pending[p.Slot] = p
		held = append(held, p.Slot)
		if p.Err != nil {
			log.Warn("Unreadable resume record", "slot", int(p.Slot), "error", p.Err)
			continue
		}
		log.Info("Interrupted transfer found", "slot", int(p.Slot), "direction", p.Job.Direction.String(),
			"path", p.Job.LogicalPath.String())
	}

	c := &Coordinator{
		log:         log,
		opts:        opts,
		pool:        NewSessionPool(opts.MaxSessions, held),
		supervisor:  workers.NewSupervisor(log, opts.RestartDelay),
		resume:      deps.Resume,
		indexes:     deps.Indexes,
		catalog:     deps.Catalog,
		maintenance: deps.Maintenance,
		progress:    make(chan domain.Progress, opts.ProgressBuffer),
		validate:    validate,
		now:         time.Now,
		pending:     pending,
		reserved:    make(map[string]domain.SlotID),
	}
	for slot := domain.SlotID(1); int(slot) <= opts.MaxSessions; slot++ {
		w := workers.NewSlotWorker(slot, deps.NewBlobStore(slot), deps.Codec, deps.Resume, opts.Transfer, log, c.progress)
		c.slots = append(c.slots, w)
		c.supervisor.Add(w)
	}
	return c, nil
}

// Start runs the slot workers until ctx is cancelled or Stop is called.
// The workers are registered before Start returns.
func (c *Coordinator) Start(ctx context.Context) {
	c.supervisor.Launch(ctx)
	context.AfterFunc(ctx, c.Stop)
}

// Stop aborts running transfers and waits for the slot workers to return.
// Transfers submitted afterwards fail with ErrWorkerStopped.
func (c *Coordinator) Stop() {
	c.supervisor.Stop()
	c.supervisor.Wait()
	for _, w := range c.slots {
		w.Close()
	}
}

// Progress streams updates of every slot. Updates are dropped when nobody reads.
func (c *Coordinator) Progress() <-chan domain.Progress {
	return c.progress
}

// Upload sends LocalPath to the remote store and catalogs it under LogicalPath.
// An incomplete result comes back with its error. A slot left with a record stays held.
func (c *Coordinator) Upload(ctx context.Context, r UploadRequest) (domain.TransferResult, error) {
	if err := r.LogicalPath.Validate(); err != nil {
		return domain.TransferResult{}, err
	}
	info, err := os.Stat(r.LocalPath)
	if err != nil {
		return domain.TransferResult{}, fmt.Errorf("stat %s: %w", r.LocalPath, err)
	}
	if !info.Mode().IsRegular() {
		return domain.TransferResult{}, fmt.Errorf("%s is not a regular file", r.LocalPath)
	}
	if err := c.checkPathFree(r.LogicalPath, 0); err != nil {
		return domain.TransferResult{}, err
	}

	slot, err := c.pool.Acquire()
	if err != nil {
		return domain.TransferResult{}, err
	}
	if err := c.reserve(r.LogicalPath, slot); err != nil {
		c.release(slot)
		return domain.TransferResult{}, err
	}

	index, err := c.indexes.Load(slot)
	if err != nil {
		c.unreserve(r.LogicalPath)
		c.release(slot)
		return domain.TransferResult{}, err
	}

	job := domain.TransferJob{
		ID:          uuid.New(),
		Direction:   domain.Upload,
		LogicalPath: r.LogicalPath,
		LocalPath:   r.LocalPath,
		TotalSize:   uint64(info.Size()),
		MimeType:    detectMimeType(r.LocalPath),
		UploadIndex: index,
		StartedAt:   c.now().UTC(),
	}
	if err := c.validate.Struct(job); err != nil {
		c.unreserve(r.LogicalPath)
		c.release(slot)
		return domain.TransferResult{}, fmt.Errorf("invalid upload: %w", err)
	}
	return c.runUpload(ctx, slot, job)
}

// Download fetches a cataloged file. The slot is released on every outcome but an interrupted multi-chunk run.
func (c *Coordinator) Download(ctx context.Context, r DownloadRequest) (domain.TransferResult, error) {
	entry, err := c.catalog.Get(r.LogicalPath)
	if err != nil {
		return domain.TransferResult{}, err
	}
	dest := r.DestinationDir
	if dest == "" {
		dest = c.opts.DownloadDir
	}

	slot, err := c.pool.Acquire()
	if err != nil {
		return domain.TransferResult{}, err
	}

	job := domain.TransferJob{
		ID:             uuid.New(),
		Direction:      domain.Download,
		LogicalPath:    entry.LogicalPath,
		DestinationDir: dest,
		TotalSize:      entry.TotalSize,
		MimeType:       entry.MimeType,
		BlobIDs:        entry.BlobIDs,
		StartedAt:      c.now().UTC(),
	}
	if err := c.validate.Struct(job); err != nil {
		c.release(slot)
		return domain.TransferResult{}, fmt.Errorf("invalid download: %w", err)
	}
	return c.runDownload(ctx, slot, job)
}

// Cancel forwards a stop request to the transfer running on slot.
func (c *Coordinator) Cancel(slot domain.SlotID, strength domain.CancelStrength) error {
	w, err := c.worker(slot)
	if err != nil {
		return err
	}
	return w.Cancel(strength)
}

// Status reports the pool state of every slot with the kind of transfer it runs.
func (c *Coordinator) Status() []domain.SlotStatus {
	statuses := c.pool.Snapshot()
	for i := range statuses {
		statuses[i].Transfer = c.slots[statuses[i].Slot-1].State()
	}
	return statuses
}

func (c *Coordinator) runUpload(ctx context.Context, slot domain.SlotID, job domain.TransferJob) (domain.TransferResult, error) {
	defer c.unreserve(job.LogicalPath)

	res, err := c.slots[slot-1].Submit(ctx, job)
	if err != nil {
		c.settle(slot, job)
		return res, err
	}
	if !res.Done() {
		c.settle(slot, res.Job)
		return res, res.Err
	}

	if err := c.finishUpload(ctx, slot, res.Job); err != nil {
		return res, err
	}
	return res, nil
}

// finishUpload catalogs a completed upload and frees its slot.
// When the entry cannot be written the blobs are removed: nothing would ever reference them.
func (c *Coordinator) finishUpload(ctx context.Context, slot domain.SlotID, job domain.TransferJob) error {
	defer c.release(slot)

	if err := c.indexes.Raise(slot, job.UploadIndex); err != nil {
		c.log.Warn("Upload counter not raised", "slot", int(slot), "error", err)
	}

	insertErr := c.catalog.Insert(ctx, domain.EntryFromJob(job, c.now().UTC()))
	if insertErr != nil {
		c.log.Error("Completed upload not cataloged", "slot", int(slot), "path", job.LogicalPath.String(), "error", insertErr)
		c.discard(ctx, job.BlobIDs)
	}
	if err := c.resume.Delete(slot); err != nil {
		c.log.Warn("Resume record of a completed upload not deleted", "slot", int(slot), "error", err)
	}
	if insertErr != nil {
		return insertErr
	}

	c.log.Info("Upload cataloged", "path", job.LogicalPath.String(), "blobs", len(job.BlobIDs), "slot", int(slot))
	return nil
}

func (c *Coordinator) runDownload(ctx context.Context, slot domain.SlotID, job domain.TransferJob) (domain.TransferResult, error) {
	res, err := c.slots[slot-1].Submit(ctx, job)
	if err != nil {
		c.settle(slot, job)
		return res, err
	}
	if !res.Done() {
		c.settle(slot, res.Job)
		return res, res.Err
	}

	if err := c.resume.Delete(slot); err != nil {
		c.log.Warn("Resume record of a completed download not deleted", "slot", int(slot), "error", err)
	}
	c.release(slot)
	return res, nil
}

// settle holds slot when a record survived the transfer, frees it otherwise.
func (c *Coordinator) settle(slot domain.SlotID, job domain.TransferJob) {
	record, found, err := c.resume.Load(slot)
	if err == nil && !found {
		c.release(slot)
		return
	}
	if err == nil {
		job = record
	}

	if holdErr := c.pool.Hold(slot); holdErr != nil {
		c.log.Error("Could not hold slot", "slot", int(slot), "error", holdErr)
		return
	}
	c.mu.Lock()
	c.pending[slot] = domain.PendingRecovery{Slot: slot, Job: job, Err: err}
	c.mu.Unlock()
	c.log.Info("Slot held until its transfer is resolved", "slot", int(slot), "path", job.LogicalPath.String())
}

func (c *Coordinator) release(slot domain.SlotID) {
	if err := c.pool.Release(slot); err != nil {
		c.log.Error("Could not release slot", "slot", int(slot), "error", err)
	}
}

// giveBack returns a slot claimed by a recovery to the state it had before.
func (c *Coordinator) giveBack(slot domain.SlotID, prior domain.SlotState) {
	if prior != domain.Held {
		c.release(slot)
		return
	}
	if err := c.pool.Hold(slot); err != nil {
		c.log.Error("Could not hold slot", "slot", int(slot), "error", err)
	}
}

// discard removes blobs that no catalog entry or record will ever point at.
func (c *Coordinator) discard(ctx context.Context, ids []domain.BlobID) {
	if len(ids) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer cancel()
	if err := c.maintenance.DeleteBlobs(ctx, c.opts.Transfer.Channel, ids); err != nil {
		c.log.Warn("Orphan blobs left on the remote store", "blobs", ids, "error", err)
	}
}

// checkPathFree refuses a path that is cataloged, being uploaded or left by an interrupted upload.
// The transfer of self does not count.
func (c *Coordinator) checkPathFree(path domain.LogicalPath, self domain.SlotID) error {
	exists, err := c.catalog.Contains(path)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", errors.ErrDuplicatePath, path)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pathTakenLocked(path, self)
}

// pathTakenLocked must be called with c.mu held.
func (c *Coordinator) pathTakenLocked(path domain.LogicalPath, self domain.SlotID) error {
	if slot, ok := c.reserved[path.String()]; ok && slot != self {
		return fmt.Errorf("%w: %s is being uploaded on slot %d", errors.ErrDuplicatePath, path, slot)
	}
	for slot, p := range c.pending {
		if slot == self || p.Err != nil || p.Job.Direction != domain.Upload {
			continue
		}
		if p.Job.LogicalPath.Equal(path) {
			return fmt.Errorf("%w: %s waits for recovery on slot %d", errors.ErrDuplicatePath, path, slot)
		}
	}
	return nil
}

func (c *Coordinator) reserve(path domain.LogicalPath, slot domain.SlotID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.pathTakenLocked(path, slot); err != nil {
		return err
	}
	c.reserved[path.String()] = slot
	return nil
}

func (c *Coordinator) unreserve(path domain.LogicalPath) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reserved, path.String())
}

func (c *Coordinator) worker(slot domain.SlotID) (*workers.SlotWorker, error) {
	if slot < 1 || int(slot) > len(c.slots) {
		return nil, fmt.Errorf("%w: %d not in 1..%d", errors.ErrSlotOutOfRange, slot, len(c.slots))
	}
	return c.slots[slot-1], nil
}

// Pending lists the held slots in slot order.
func (c *Coordinator) Pending() []domain.PendingRecovery {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := lo.Values(c.pending)
	slices.SortFunc(pending, func(a, b domain.PendingRecovery) int { return int(a.Slot) - int(b.Slot) })
	return pending
}

func detectMimeType(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	return mtype.String()
}
