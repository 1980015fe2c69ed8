package services

import (
	"chunk-relay/contract"
	"chunk-relay/domain"
	"chunk-relay/errors"
	"chunk-relay/infrastructure/search"
	"chunk-relay/infrastructure/storage"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
)

var _ contract.Catalog = (*CatalogService)(nil)

// CatalogService is the single writer of the catalog.
// Mutations are serialized so that remote deletes and local records never interleave.
type CatalogService struct {
	mu      sync.Mutex
	repo    storage.ICatalogRepository
	index   search.ICatalogIndex
	blobs   contract.BlobStore
	channel string
	log     *slog.Logger
}

// NewCatalogService takes a blob store that no slot uses: removals must not be aborted by a slot cancel.
func NewCatalogService(repo storage.ICatalogRepository, index search.ICatalogIndex, blobs contract.BlobStore, channel string, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:    repo,
		index:   index,
		blobs:   blobs,
		channel: channel,
		log:     log,
	}
}

func (s *CatalogService) Insert(_ context.Context, entry domain.CatalogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Insert(entry); err != nil {
		return err
	}
	if err := s.index.Index(entry.LogicalPath); err != nil {
		s.log.Warn("Catalog entry stored but not indexed", "path", entry.LogicalPath.String(), "error", err)
	}
	return nil
}

func (s *CatalogService) Get(path domain.LogicalPath) (domain.CatalogEntry, error) {
	return s.repo.Get(path)
}

func (s *CatalogService) Contains(path domain.LogicalPath) (bool, error) {
	return s.repo.Contains(path)
}

// Rename only touches local records.
func (s *CatalogService) Rename(_ context.Context, path, newPath domain.LogicalPath) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.Rename(path, newPath); err != nil {
		return err
	}
	if err := s.index.Rename(path, newPath); err != nil {
		s.log.Warn("Catalog entry renamed but index not updated", "path", newPath.String(), "error", err)
	}
	s.log.Info("Catalog entry renamed", "from", path.String(), "to", newPath.String())
	return nil
}

// Remove deletes every blob of the entry in a single call, then the entry itself.
// If the remote delete fails the entry is kept so that no blob is left unreferenced.
func (s *CatalogService) Remove(ctx context.Context, path domain.LogicalPath) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.repo.Get(path)
	if err != nil {
		return err
	}
	if err := s.blobs.DeleteBlobs(ctx, s.channel, entry.BlobIDs); err != nil {
		return fmt.Errorf("delete blobs of %s: %w", path, err)
	}
	if err := s.repo.Delete(path); err != nil {
		return err
	}
	if err := s.index.Remove(path); err != nil {
		s.log.Warn("Catalog entry removed but still indexed", "path", path.String(), "error", err)
	}

	s.log.Info("Catalog entry removed", "path", path.String(), "blobs", len(entry.BlobIDs))
	return nil
}

func (s *CatalogService) List() iter.Seq2[domain.CatalogEntry, error] {
	return s.repo.List()
}

func (s *CatalogService) All() ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry
	for entry, err := range s.repo.List() {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Search resolves index hits against the catalog. Hits that are no longer cataloged are dropped.
func (s *CatalogService) Search(ctx context.Context, term string, limit int) ([]domain.CatalogEntry, error) {
	paths, err := s.index.Search(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.CatalogEntry, 0, len(paths))
	for _, p := range paths {
		entry, err := s.repo.Get(p)
		if errors.Is(err, errors.ErrEntryNotFound) {
			s.log.Debug("Dropping stale search hit", "path", p.String())
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Reindex rebuilds the search index from the catalog.
func (s *CatalogService) Reindex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var paths []domain.LogicalPath
	for entry, err := range s.repo.List() {
		if err != nil {
			return err
		}
		paths = append(paths, entry.LogicalPath)
	}
	return s.index.Reindex(ctx, paths)
}
