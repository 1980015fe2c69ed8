//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chunk-relay/domain"
	"context"
	"iter"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Launch(ctx context.Context)
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// NamedWorker is implemented by workers that run as several instances of one type.
type NamedWorker interface {
	Worker
	Name() string
}

// GetWorkerName returns the worker's own name when it has one, its type name otherwise.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	if named, ok := w.(NamedWorker); ok {
		return named.Name()
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// BlobStore moves opaque blobs to and from the remote store.
// One instance serves one slot: AbortInFlight only interrupts that slot's call.
type BlobStore interface {
	Upload(ctx context.Context, channel, sourcePath string, onProgress domain.ProgressFunc) (domain.BlobID, error)
	Download(ctx context.Context, channel string, id domain.BlobID, destPath string, onProgress domain.ProgressFunc) error
	DeleteBlobs(ctx context.Context, channel string, ids []domain.BlobID) error
	ListAllBlobs(ctx context.Context, channel string) iter.Seq2[domain.BlobID, error]
	AbortInFlight()
}

// ChunkCodec materializes byte ranges of a file and glues them back.
// Split returns the next cursor, 0 once the end of the source is reached.
type ChunkCodec interface {
	Split(ctx context.Context, cursor uint64, sourcePath, destPath string, chunkSize, bufferSize uint64) (uint64, error)
	Concat(ctx context.Context, chunkPath, destPath string, bufferSize uint64) (uint64, error)
}

type ResumeStore interface {
	// Save overwrites the slot record and raises the slot upload counter to job.UploadIndex atomically.
	Save(slot domain.SlotID, job domain.TransferJob) error
	Load(slot domain.SlotID) (domain.TransferJob, bool, error)
	Delete(slot domain.SlotID) error
	Scan(maxSlots int) ([]domain.PendingRecovery, error)
}

type UploadIndexStore interface {
	Load(slot domain.SlotID) (uint64, error)
	// Raise stores index only when it is greater than the stored value.
	Raise(slot domain.SlotID, index uint64) error
}

type Catalog interface {
	Insert(ctx context.Context, entry domain.CatalogEntry) error
	Get(path domain.LogicalPath) (domain.CatalogEntry, error)
	Contains(path domain.LogicalPath) (bool, error)
	Rename(ctx context.Context, path, newPath domain.LogicalPath) error
	Remove(ctx context.Context, path domain.LogicalPath) error
	List() iter.Seq2[domain.CatalogEntry, error]
	All() ([]domain.CatalogEntry, error)
	Search(ctx context.Context, term string, limit int) ([]domain.CatalogEntry, error)
	Reindex(ctx context.Context) error
}
