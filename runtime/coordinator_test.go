package runtime

import (
	"bytes"
	"chunk-relay/contract"
	"chunk-relay/domain"
	"chunk-relay/errors"
	"chunk-relay/infrastructure/blobstore"
	"chunk-relay/infrastructure/chunk"
	"chunk-relay/infrastructure/search"
	"chunk-relay/infrastructure/storage"
	"chunk-relay/mocks"
	"chunk-relay/runtime/workers"
	"chunk-relay/services"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

const testChunkSize = 2000

// hookedStore runs a callback before each upload of its slot.
type hookedStore struct {
	contract.BlobStore
	slot    domain.SlotID
	fixture *fixture
}

func (h *hookedStore) Upload(ctx context.Context, channel, sourcePath string, onProgress domain.ProgressFunc) (domain.BlobID, error) {
	if err := h.fixture.beforeUpload(h.slot); err != nil {
		return "", err
	}
	return h.BlobStore.Upload(ctx, channel, sourcePath, onProgress)
}

// hookedRemote runs callbacks before the listings and deletes the coordinator issues itself.
type hookedRemote struct {
	contract.BlobStore
	beforeList   func()
	beforeDelete func()
}

func (h *hookedRemote) ListAllBlobs(ctx context.Context, channel string) iter.Seq2[domain.BlobID, error] {
	if h.beforeList != nil {
		h.beforeList()
	}
	return h.BlobStore.ListAllBlobs(ctx, channel)
}

func (h *hookedRemote) DeleteBlobs(ctx context.Context, channel string, ids []domain.BlobID) error {
	if h.beforeDelete != nil {
		h.beforeDelete()
	}
	return h.BlobStore.DeleteBlobs(ctx, channel, ids)
}

type fixture struct {
	t           *testing.T
	log         *slog.Logger
	db          *badger.DB
	bucket      *blob.Bucket
	blugeWriter *bluge.Writer
	resume      *storage.ResumeRepository
	indexes     *storage.UploadIndexRepository
	catalog     *services.CatalogService
	maintenance *blobstore.Client
	// remote serves the coordinator's own deletes and listings, the real client unless a test swaps it.
	remote contract.BlobStore
	dir    string

	mu      sync.Mutex
	uploads int
	failAt  int
	hook    func(slot domain.SlotID, n int)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bucket.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	f := &fixture{
		t:           t,
		log:         log,
		db:          db,
		bucket:      bucket,
		blugeWriter: writer,
		resume:      storage.NewResumeRepository(db, log),
		indexes:     storage.NewUploadIndexRepository(db),
		maintenance: blobstore.NewClient(bucket, log),
		dir:         t.TempDir(),
	}
	f.remote = f.maintenance
	f.catalog = services.NewCatalogService(storage.NewCatalogRepository(db, log),
		search.NewCatalogIndex(writer, log), f.maintenance, "me", log)
	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "tmp"), 0o755))
	return f
}

func (f *fixture) beforeUpload(slot domain.SlotID) error {
	f.mu.Lock()
	f.uploads++
	n, hook, failAt := f.uploads, f.hook, f.failAt
	f.mu.Unlock()
	if hook != nil {
		hook(slot, n)
	}
	if n == failAt {
		return fmt.Errorf("connection reset during upload %d", n)
	}
	return nil
}

// failUploadAt makes the nth upload from now fail, 0 turns failures off.
func (f *fixture) failUploadAt(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = 0
	f.failAt = n
}

// useRemote routes the deletes and listings of the coordinator and of the catalog through remote.
func (f *fixture) useRemote(remote contract.BlobStore) {
	f.remote = remote
	f.catalog = services.NewCatalogService(storage.NewCatalogRepository(f.db, f.log),
		search.NewCatalogIndex(f.blugeWriter, f.log), remote, "me", f.log)
}

func (f *fixture) setHook(hook func(slot domain.SlotID, n int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = 0
	f.hook = hook
}

func (f *fixture) coordinator(maxSessions int) *Coordinator {
	f.t.Helper()
	c := f.newCoordinator(maxSessions)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	f.t.Cleanup(func() {
		cancel()
		c.Stop()
	})
	return c
}

func (f *fixture) newCoordinator(maxSessions int) *Coordinator {
	f.t.Helper()
	opts := Options{
		MaxSessions: maxSessions,
		Transfer: workers.TransferConfig{
			Channel:    "me",
			TmpDir:     filepath.Join(f.dir, "tmp"),
			ChunkSize:  testChunkSize,
			BufferSize: 256,
		},
		DownloadDir:    filepath.Join(f.dir, "downloads"),
		ProgressBuffer: 64,
		RestartDelay:   10 * time.Millisecond,
	}
	deps := Dependencies{
		Resume:  f.resume,
		Indexes: f.indexes,
		Catalog: f.catalog,
		Codec:   chunk.NewFileCodec(f.log, 0),
		NewBlobStore: func(slot domain.SlotID) contract.BlobStore {
			return &hookedStore{BlobStore: blobstore.NewClient(f.bucket, f.log), slot: slot, fixture: f}
		},
		Maintenance: f.remote,
	}
	c, err := NewCoordinator(f.log, opts, deps)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) file(name string, size int) (string, []byte) {
	f.t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte((i * 7) % 251)
	}
	path := filepath.Join(f.dir, name)
	require.NoError(f.t, os.WriteFile(path, data, 0o644))
	return path, data
}

func (f *fixture) blobKeys() []string {
	f.t.Helper()
	var keys []string
	it := f.bucket.List(nil)
	for {
		obj, err := it.Next(context.Background())
		if err == io.EOF {
			return keys
		}
		require.NoError(f.t, err)
		keys = append(keys, obj.Key)
	}
}

func (f *fixture) putBlob(key string, data []byte) domain.BlobID {
	f.t.Helper()
	require.NoError(f.t, f.bucket.WriteAll(context.Background(), key, data, nil))
	return domain.BlobID(key)
}

func states(c *Coordinator) []domain.SlotState {
	var s []domain.SlotState
	for _, st := range c.Status() {
		s = append(s, st.State)
	}
	return s
}

func TestCoordinator_UploadDownloadRoundTrip(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(2)
	ctx := context.Background()
	source, data := f.file("movie.bin", 5000)
	path := domain.LogicalPath{"videos", "movie.bin"}

	res, err := c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: path})
	req.NoError(err)
	req.True(res.Done())

	entry, err := c.Lookup(path)
	req.NoError(err)
	req.Len(entry.BlobIDs, 3)
	req.Equal(uint64(5000), entry.TotalSize)
	req.Equal([]domain.SlotState{domain.Free, domain.Free}, states(c))

	_, found, err := f.resume.Load(res.Slot)
	req.NoError(err)
	req.False(found, "a completed upload leaves no record")

	index, err := f.indexes.Load(res.Slot)
	req.NoError(err)
	req.Equal(uint64(4), index)

	res, err = c.Download(ctx, DownloadRequest{LogicalPath: path})
	req.NoError(err)
	req.True(res.Done())

	got, err := os.ReadFile(filepath.Join(f.dir, "downloads", "movie.bin"))
	req.NoError(err)
	req.True(bytes.Equal(data, got))
	req.Equal([]domain.SlotState{domain.Free, domain.Free}, states(c))
}

func TestCoordinator_DuplicatePath(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(1)
	ctx := context.Background()
	source, _ := f.file("a.txt", 10)
	path := domain.LogicalPath{"a.txt"}

	_, err := c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: path})
	req.NoError(err)
	_, err = c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: path})
	req.ErrorIs(err, errors.ErrDuplicatePath)
	req.Len(f.blobKeys(), 1)
}

func TestCoordinator_NoFreeSlots(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(1)
	ctx := context.Background()
	source, _ := f.file("big.bin", 100)

	f.setHook(func(slot domain.SlotID, n int) {
		_, err := c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: domain.LogicalPath{"other"}})
		req.ErrorIs(err, errors.ErrNoFreeSlots)
		req.Equal([]domain.SlotState{domain.Busy}, states(c))
		req.Equal(domain.SingleChunk, c.Status()[0].Transfer)
	})

	res, err := c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: domain.LogicalPath{"big.bin"}})
	req.NoError(err)
	req.True(res.Done())
	req.Equal(domain.Idle, c.Status()[0].Transfer)
}

func TestCoordinator_SoftCancelThenFinish(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(2)
	ctx := context.Background()
	source, data := f.file("movie.bin", 5000)
	path := domain.LogicalPath{"movie.bin"}

	f.setHook(func(slot domain.SlotID, n int) {
		if n == 1 {
			req.NoError(c.Cancel(slot, domain.SoftCancel))
		}
	})
	res, err := c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: path})
	req.ErrorIs(err, errors.ErrTransferCancelled)
	req.False(res.Done())
	slot := res.Slot

	state, err := c.pool.State(slot)
	req.NoError(err)
	req.Equal(domain.Held, state)

	pending := c.Pending()
	req.Len(pending, 1)
	req.Equal(slot, pending[0].Slot)
	req.Equal(uint64(testChunkSize), pending[0].Job.ChunkCursor)
	req.Len(pending[0].Job.BlobIDs, 1)

	f.setHook(nil)
	res, err = c.ResolveRecovery(ctx, slot, domain.Finish)
	req.NoError(err)
	req.True(res.Done())
	req.Empty(c.Pending())

	entry, err := c.Lookup(path)
	req.NoError(err)
	req.Len(entry.BlobIDs, 3)
	req.Equal(pending[0].Job.BlobIDs[0], entry.BlobIDs[0], "the blob sent before the stop is kept")
	req.Len(f.blobKeys(), 3)

	_, err = c.Download(ctx, DownloadRequest{LogicalPath: path})
	req.NoError(err)
	got, err := os.ReadFile(filepath.Join(f.dir, "downloads", "movie.bin"))
	req.NoError(err)
	req.True(bytes.Equal(data, got))
}

func TestCoordinator_HardCancelThenDelete(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(1)
	ctx := context.Background()
	source, _ := f.file("movie.bin", 5000)

	f.setHook(func(slot domain.SlotID, n int) {
		if n == 2 {
			req.NoError(c.Cancel(slot, domain.HardCancel))
			req.ErrorIs(c.Cancel(slot, domain.SoftCancel), errors.ErrAlreadyCancelled)
		}
	})
	res, err := c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: domain.LogicalPath{"movie.bin"}})
	req.ErrorIs(err, errors.ErrTransferAborted)
	req.Len(f.blobKeys(), 1, "only the acknowledged chunk is on the remote side")

	record, found, err := f.resume.Load(res.Slot)
	req.NoError(err)
	req.True(found)
	req.Equal(uint64(testChunkSize), record.ChunkCursor)
	req.Equal([]domain.SlotState{domain.Held}, states(c))

	_, err = c.ResolveRecovery(ctx, res.Slot, domain.Delete)
	req.NoError(err)
	req.Empty(f.blobKeys())
	req.Equal([]domain.SlotState{domain.Free}, states(c))
	req.Empty(c.Pending())

	index, err := f.indexes.Load(res.Slot)
	req.NoError(err)
	req.Equal(record.UploadIndex, index)

	_, err = c.ResolveRecovery(ctx, res.Slot, domain.Delete)
	req.NoError(err, "deleting twice is a no-op")
}

func TestCoordinator_DeleteRecoveryIssuesOneBulkDelete(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	remote := mocks.NewMockBlobStore(ctrl)
	f.remote = remote

	ids := []domain.BlobID{"me/a", "me/b"}
	req.NoError(f.resume.Save(1, domain.TransferJob{
		Direction:   domain.Upload,
		LogicalPath: domain.LogicalPath{"big.bin"},
		LocalPath:   "/gone/big.bin",
		TotalSize:   5000,
		BlobIDs:     ids,
		ChunkCursor: 2 * testChunkSize,
		UploadIndex: 3,
	}))
	remote.EXPECT().DeleteBlobs(gomock.Any(), "me", ids).Return(nil).Times(1)

	c := f.coordinator(1)
	_, err := c.ResolveRecovery(context.Background(), 1, domain.Delete)
	req.NoError(err)
	_, err = c.ResolveRecovery(context.Background(), 1, domain.Delete)
	req.NoError(err)
	req.Equal([]domain.SlotState{domain.Free}, states(c))
}

func TestCoordinator_DeleteRecoveryKeepsRecordWhenRemoteFails(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	remote := mocks.NewMockBlobStore(ctrl)
	f.remote = remote

	req.NoError(f.resume.Save(1, domain.TransferJob{
		Direction:   domain.Upload,
		LogicalPath: domain.LogicalPath{"big.bin"},
		LocalPath:   "/gone/big.bin",
		TotalSize:   5000,
		BlobIDs:     []domain.BlobID{"me/a"},
		ChunkCursor: testChunkSize,
	}))
	remote.EXPECT().DeleteBlobs(gomock.Any(), "me", gomock.Any()).Return(errors.ErrTransportFailure)

	c := f.coordinator(1)
	_, err := c.ResolveRecovery(context.Background(), 1, domain.Delete)
	req.ErrorIs(err, errors.ErrTransportFailure)
	req.Equal([]domain.SlotState{domain.Held}, states(c))
	req.Len(c.Pending(), 1)
}

func TestCoordinator_HardCancelSingleChunkFreesSlot(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(1)
	source, _ := f.file("small.bin", 100)

	f.setHook(func(slot domain.SlotID, n int) {
		req.ErrorIs(c.Cancel(slot, domain.SoftCancel), errors.ErrInvalidCancelStrength)
		req.NoError(c.Cancel(slot, domain.HardCancel))
	})
	_, err := c.Upload(context.Background(), UploadRequest{LocalPath: source, LogicalPath: domain.LogicalPath{"small.bin"}})
	req.ErrorIs(err, errors.ErrTransferAborted)
	req.Equal([]domain.SlotState{domain.Free}, states(c), "no record, nothing to recover")
	req.Empty(f.blobKeys())
}

func TestCoordinator_RecoveryAtStartup(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	source, data := f.file("movie.bin", 5000)

	// A previous run sent the first chunk of slot 2 then died
	first := f.putBlob("me/first", data[:testChunkSize])
	req.NoError(f.resume.Save(2, domain.TransferJob{
		Direction:   domain.Upload,
		LogicalPath: domain.LogicalPath{"movie.bin"},
		LocalPath:   source,
		TotalSize:   5000,
		BlobIDs:     []domain.BlobID{first},
		ChunkCursor: testChunkSize,
		UploadIndex: 7,
	}))
	// Records beyond the configured slots are left alone
	req.NoError(f.resume.Save(5, domain.TransferJob{
		Direction:   domain.Upload,
		LogicalPath: domain.LogicalPath{"elsewhere"},
		LocalPath:   source,
		TotalSize:   5000,
	}))

	c := f.coordinator(2)
	req.Equal([]domain.SlotState{domain.Free, domain.Held}, states(c))
	pending := c.Pending()
	req.Len(pending, 1)
	req.Equal(domain.SlotID(2), pending[0].Slot)

	// Ignore keeps the slot out of the pool
	_, err := c.ResolveRecovery(ctx, 2, domain.Ignore)
	req.NoError(err)
	req.Equal([]domain.SlotState{domain.Free, domain.Held}, states(c))

	_, err = c.ResolveRecovery(ctx, 1, domain.Ignore)
	req.ErrorIs(err, errors.ErrNoPendingRecovery)
	_, err = c.ResolveRecovery(ctx, 1, domain.Finish)
	req.ErrorIs(err, errors.ErrNoPendingRecovery)
	_, err = c.ResolveRecovery(ctx, 3, domain.Finish)
	req.ErrorIs(err, errors.ErrSlotOutOfRange)

	res, err := c.ResolveRecovery(ctx, 2, domain.Finish)
	req.NoError(err)
	req.True(res.Done())
	req.Equal([]domain.SlotState{domain.Free, domain.Free}, states(c))

	entry, err := c.Lookup(domain.LogicalPath{"movie.bin"})
	req.NoError(err)
	req.Equal(first, entry.BlobIDs[0])
	req.Len(entry.BlobIDs, 3)

	index, err := f.indexes.Load(2)
	req.NoError(err)
	req.Equal(uint64(9), index, "two more chunks were sent from index 7")

	_, found, err := f.resume.Load(5)
	req.NoError(err)
	req.True(found)
}

func TestCoordinator_CorruptRecord(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	req.NoError(f.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("resume:0001"), []byte{0x0a, 0xff})
	}))

	c := f.coordinator(1)
	pending := c.Pending()
	req.Len(pending, 1)
	req.ErrorIs(pending[0].Err, errors.ErrCorruptResumeRecord)

	_, err := c.ResolveRecovery(ctx, 1, domain.Finish)
	req.ErrorIs(err, errors.ErrCorruptResumeRecord)

	_, err = c.ResolveRecovery(ctx, 1, domain.Delete)
	req.NoError(err)
	req.Equal([]domain.SlotState{domain.Free}, states(c))
	req.Empty(c.Pending())
}

func TestCoordinator_DeleteRecoveryOnBusySlot(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(1)
	source, _ := f.file("small.bin", 100)

	f.setHook(func(slot domain.SlotID, n int) {
		_, err := c.ResolveRecovery(context.Background(), slot, domain.Delete)
		req.ErrorIs(err, errors.ErrSlotBusy)
	})
	_, err := c.Upload(context.Background(), UploadRequest{LocalPath: source, LogicalPath: domain.LogicalPath{"small.bin"}})
	req.NoError(err)
}

func TestCoordinator_RemoveAndRename(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(1)
	ctx := context.Background()
	source, _ := f.file("movie.bin", 5000)

	_, err := c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: domain.LogicalPath{"draft.bin"}})
	req.NoError(err)
	req.NoError(c.Rename(ctx, domain.LogicalPath{"draft.bin"}, domain.LogicalPath{"final", "movie.bin"}))
	req.Len(f.blobKeys(), 3, "rename never touches blobs")

	found, err := c.Search(ctx, "movie", 10)
	req.NoError(err)
	req.Len(found, 1)

	req.NoError(c.Remove(ctx, domain.LogicalPath{"final", "movie.bin"}))
	req.Empty(f.blobKeys())

	var listed int
	for _, err := range c.List() {
		req.NoError(err)
		listed++
	}
	req.Zero(listed)
}

func TestCoordinator_CleanOrphans(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	source, data := f.file("movie.bin", 5000)

	recorded := f.putBlob("me/recorded", data[:testChunkSize])
	req.NoError(f.resume.Save(1, domain.TransferJob{
		Direction:   domain.Upload,
		LogicalPath: domain.LogicalPath{"pending.bin"},
		LocalPath:   source,
		TotalSize:   5000,
		BlobIDs:     []domain.BlobID{recorded},
		ChunkCursor: testChunkSize,
	}))
	stray := f.putBlob("me/stray", []byte("lost"))
	f.putBlob("other/foreign", []byte("not ours"))

	c := f.coordinator(2)
	_, err := c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: domain.LogicalPath{"movie.bin"}})
	req.NoError(err)

	f.setHook(func(slot domain.SlotID, n int) {
		_, err := c.CleanOrphans(ctx)
		req.ErrorIs(err, errors.ErrTransfersInProgress)
	})
	small, _ := f.file("small.bin", 10)
	_, err = c.Upload(ctx, UploadRequest{LocalPath: small, LogicalPath: domain.LogicalPath{"small.bin"}})
	req.NoError(err)
	f.setHook(nil)

	orphans, err := c.CleanOrphans(ctx)
	req.NoError(err)
	req.Equal([]domain.BlobID{stray}, orphans)

	keys := f.blobKeys()
	req.Len(keys, 6, "3 cataloged chunks, 1 small file, 1 recorded chunk, 1 foreign blob")
	req.Contains(keys, string(recorded))
	req.Contains(keys, "other/foreign")
	req.Equal([]domain.SlotState{domain.Held, domain.Free}, states(c))
}

func TestCoordinator_CancelChecks(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(2)

	req.ErrorIs(c.Cancel(1, domain.HardCancel), errors.ErrAlreadyCancelled)
	req.ErrorIs(c.Cancel(3, domain.HardCancel), errors.ErrSlotOutOfRange)
}

func TestCoordinator_ProgressStream(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(1)
	source, _ := f.file("movie.bin", 5000)

	_, err := c.Upload(context.Background(), UploadRequest{LocalPath: source, LogicalPath: domain.LogicalPath{"movie.bin"}})
	req.NoError(err)

	var last domain.Progress
	previous := -1
	for len(c.Progress()) > 0 {
		last = <-c.Progress()
		req.GreaterOrEqual(last.Percent, previous, "progress never goes back")
		previous = last.Percent
	}
	req.Equal(100, last.Percent)
	req.Equal(uint64(3), last.TotalChunks)
}

func TestCoordinator_CleanOrphansKeepsHeldSlotsClaimed(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	source, data := f.file("movie.bin", 5000)
	path := domain.LogicalPath{"movie.bin"}

	first := f.putBlob("me/first", data[:testChunkSize])
	req.NoError(f.resume.Save(1, domain.TransferJob{
		Direction:   domain.Upload,
		LogicalPath: path,
		LocalPath:   source,
		TotalSize:   5000,
		BlobIDs:     []domain.BlobID{first},
		ChunkCursor: testChunkSize,
		UploadIndex: 1,
	}))

	var c *Coordinator
	remote := &hookedRemote{BlobStore: f.maintenance}
	remote.beforeList = func() {
		// Nothing may add blobs between the snapshot of references and the listing
		_, err := c.ResolveRecovery(ctx, 1, domain.Finish)
		req.ErrorIs(err, errors.ErrSlotBusy)
		_, err = c.ResolveRecovery(ctx, 1, domain.Delete)
		req.ErrorIs(err, errors.ErrSlotBusy)
		_, err = c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: domain.LogicalPath{"other.bin"}})
		req.ErrorIs(err, errors.ErrNoFreeSlots)
	}
	f.useRemote(remote)
	c = f.coordinator(2)

	orphans, err := c.CleanOrphans(ctx)
	req.NoError(err)
	req.Empty(orphans)
	req.Equal([]domain.SlotState{domain.Held, domain.Free}, states(c))
	req.Len(c.Pending(), 1)

	remote.beforeList = nil
	res, err := c.ResolveRecovery(ctx, 1, domain.Finish)
	req.NoError(err)
	req.True(res.Done())

	_, err = c.Download(ctx, DownloadRequest{LogicalPath: path})
	req.NoError(err)
	got, err := os.ReadFile(filepath.Join(f.dir, "downloads", "movie.bin"))
	req.NoError(err)
	req.True(bytes.Equal(data, got))
}

func TestCoordinator_DeleteRecoveryClaimsSlot(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	source, data := f.file("movie.bin", 5000)
	path := domain.LogicalPath{"movie.bin"}

	first := f.putBlob("me/first", data[:testChunkSize])
	req.NoError(f.resume.Save(1, domain.TransferJob{
		Direction:   domain.Upload,
		LogicalPath: path,
		LocalPath:   source,
		TotalSize:   5000,
		BlobIDs:     []domain.BlobID{first},
		ChunkCursor: testChunkSize,
		UploadIndex: 1,
	}))

	var c *Coordinator
	remote := &hookedRemote{BlobStore: f.maintenance}
	remote.beforeDelete = func() {
		_, err := c.ResolveRecovery(ctx, 1, domain.Finish)
		req.ErrorIs(err, errors.ErrSlotBusy, "the slot is being deleted")
	}
	f.useRemote(remote)
	c = f.coordinator(1)

	_, err := c.ResolveRecovery(ctx, 1, domain.Delete)
	req.NoError(err)
	req.Empty(f.blobKeys())
	req.Equal([]domain.SlotState{domain.Free}, states(c))
	req.Empty(c.Pending())

	_, err = c.Lookup(path)
	req.ErrorIs(err, errors.ErrEntryNotFound)
}

func TestCoordinator_DeleteRecoveryDuringFinish(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	source, data := f.file("movie.bin", 5000)
	path := domain.LogicalPath{"movie.bin"}

	first := f.putBlob("me/first", data[:testChunkSize])
	req.NoError(f.resume.Save(1, domain.TransferJob{
		Direction:   domain.Upload,
		LogicalPath: path,
		LocalPath:   source,
		TotalSize:   5000,
		BlobIDs:     []domain.BlobID{first},
		ChunkCursor: testChunkSize,
		UploadIndex: 1,
	}))
	c := f.coordinator(1)

	f.setHook(func(slot domain.SlotID, n int) {
		if n == 1 {
			_, err := c.ResolveRecovery(ctx, slot, domain.Delete)
			req.ErrorIs(err, errors.ErrSlotBusy)
		}
	})
	res, err := c.ResolveRecovery(ctx, 1, domain.Finish)
	req.NoError(err)
	req.True(res.Done())

	entry, err := c.Lookup(path)
	req.NoError(err)
	req.Len(entry.BlobIDs, 3)
	req.Len(f.blobKeys(), 3, "every cataloged blob is still there")
	req.Equal([]domain.SlotState{domain.Free}, states(c))
}

func TestCoordinator_StopRightAfterStart(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	source, _ := f.file("small.bin", 10)

	c := f.newCoordinator(1)
	c.Start(context.Background())
	c.Stop()

	res, err := c.Upload(context.Background(), UploadRequest{LocalPath: source, LogicalPath: domain.LogicalPath{"small.bin"}})
	req.ErrorIs(err, errors.ErrWorkerStopped)
	req.False(res.Done())
	req.Empty(f.blobKeys())
	req.Equal([]domain.SlotState{domain.Free}, states(c))
}

func TestCoordinator_TransportFailureHoldsSlot(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(1)
	ctx := context.Background()
	source, data := f.file("movie.bin", 5000)
	path := domain.LogicalPath{"movie.bin"}

	f.failUploadAt(2)
	res, err := c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: path})
	req.ErrorIs(err, errors.ErrTransportFailure)
	req.Equal(domain.Incomplete, res.Status)
	req.Equal([]domain.SlotState{domain.Held}, states(c))

	record, found, err := f.resume.Load(res.Slot)
	req.NoError(err)
	req.True(found)
	req.Equal(uint64(testChunkSize), record.ChunkCursor)
	req.Len(record.BlobIDs, 1)
	req.Equal([]string{string(record.BlobIDs[0])}, f.blobKeys())

	f.failUploadAt(0)
	res, err = c.ResolveRecovery(ctx, res.Slot, domain.Finish)
	req.NoError(err)
	req.True(res.Done())
	entry, err := c.Lookup(path)
	req.NoError(err)
	req.Equal(record.BlobIDs[0], entry.BlobIDs[0])

	// The second blob goes missing on the remote side
	middle := string(entry.BlobIDs[1])
	stash, err := f.bucket.ReadAll(ctx, middle)
	req.NoError(err)
	req.NoError(f.bucket.Delete(ctx, middle))

	res, err = c.Download(ctx, DownloadRequest{LogicalPath: path})
	req.ErrorIs(err, errors.ErrTransportFailure)
	req.Equal([]domain.SlotState{domain.Held}, states(c))

	record, found, err = f.resume.Load(res.Slot)
	req.NoError(err)
	req.True(found)
	req.Equal(domain.Download, record.Direction)
	req.Equal(uint64(1), record.BlobIndex)
	req.Equal(uint64(testChunkSize), record.BytesDone)

	f.putBlob(middle, stash)
	res, err = c.ResolveRecovery(ctx, res.Slot, domain.Finish)
	req.NoError(err)
	req.True(res.Done())
	got, err := os.ReadFile(filepath.Join(f.dir, "downloads", "movie.bin"))
	req.NoError(err)
	req.True(bytes.Equal(data, got))
	req.Equal([]domain.SlotState{domain.Free}, states(c))
}

func TestCoordinator_PendingUploadKeepsItsPath(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	c := f.coordinator(2)
	ctx := context.Background()
	source, _ := f.file("movie.bin", 5000)
	small, _ := f.file("small.bin", 10)
	path := domain.LogicalPath{"movie.bin"}

	f.setHook(func(slot domain.SlotID, n int) {
		if n == 1 {
			req.NoError(c.Cancel(slot, domain.SoftCancel))
		}
	})
	res, err := c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: path})
	req.ErrorIs(err, errors.ErrTransferCancelled)
	f.setHook(nil)

	_, err = c.Upload(ctx, UploadRequest{LocalPath: small, LogicalPath: path})
	req.ErrorIs(err, errors.ErrDuplicatePath)

	_, err = c.Upload(ctx, UploadRequest{LocalPath: small, LogicalPath: domain.LogicalPath{"small.bin"}})
	req.NoError(err)
	req.ErrorIs(c.Rename(ctx, domain.LogicalPath{"small.bin"}, path), errors.ErrDuplicatePath)

	res, err = c.ResolveRecovery(ctx, res.Slot, domain.Finish)
	req.NoError(err)
	req.True(res.Done(), "the interrupted upload still owns its path")
}

func TestCoordinator_RemoveDeletesEveryChunkInOneCall(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	remote := mocks.NewMockBlobStore(ctrl)
	f.useRemote(remote)
	c := f.coordinator(1)
	ctx := context.Background()
	source, _ := f.file("movie.bin", 5000)
	path := domain.LogicalPath{"movie.bin"}

	res, err := c.Upload(ctx, UploadRequest{LocalPath: source, LogicalPath: path})
	req.NoError(err)
	req.True(res.Done())

	_, found, err := f.resume.Load(res.Slot)
	req.NoError(err)
	req.False(found)

	entry, err := c.Lookup(path)
	req.NoError(err)
	req.Len(entry.BlobIDs, 3)

	remote.EXPECT().
		DeleteBlobs(gomock.Any(), "me", entry.BlobIDs).
		DoAndReturn(f.maintenance.DeleteBlobs).
		Times(1)

	req.NoError(c.Remove(ctx, path))
	req.Empty(f.blobKeys())
	_, err = c.Lookup(path)
	req.ErrorIs(err, errors.ErrEntryNotFound)
}
