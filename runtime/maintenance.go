package runtime

import (
	"chunk-relay/domain"
	"context"
	"fmt"
	"iter"
	"math"
)

// Rename moves a catalog entry. A path being uploaded or left by an interrupted upload cannot be taken.
func (c *Coordinator) Rename(ctx context.Context, path, newPath domain.LogicalPath) error {
	if err := newPath.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	err := c.pathTakenLocked(newPath, 0)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.catalog.Rename(ctx, path, newPath)
}

// Remove deletes a catalog entry together with its blobs.
func (c *Coordinator) Remove(ctx context.Context, path domain.LogicalPath) error {
	return c.catalog.Remove(ctx, path)
}

func (c *Coordinator) List() iter.Seq2[domain.CatalogEntry, error] {
	return c.catalog.List()
}

func (c *Coordinator) Lookup(path domain.LogicalPath) (domain.CatalogEntry, error) {
	return c.catalog.Get(path)
}

// Reindex rebuilds the search index from the catalog.
func (c *Coordinator) Reindex(ctx context.Context) error {
	return c.catalog.Reindex(ctx)
}

func (c *Coordinator) Search(ctx context.Context, term string, limit int) ([]domain.CatalogEntry, error) {
	return c.catalog.Search(ctx, term, limit)
}

// CleanOrphans deletes the blobs of the channel that neither the catalog nor a resume record references.
// It needs every slot idle and keeps transfers and recoveries from starting while it runs.
func (c *Coordinator) CleanOrphans(ctx context.Context) ([]domain.BlobID, error) {
	drained, err := c.pool.Drain()
	if err != nil {
		return nil, err
	}
	defer c.pool.Undrain(drained)

	referenced := make(map[domain.BlobID]struct{})
	for entry, err := range c.catalog.List() {
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		for _, id := range entry.BlobIDs {
			referenced[id] = struct{}{}
		}
	}

	// Records of slots beyond MaxSessions still own their blobs.
	records, err := c.resume.Scan(math.MaxInt32)
	if err != nil {
		return nil, err
	}
	for _, p := range records {
		if p.Err != nil {
			return nil, fmt.Errorf("slot %d must be resolved first: %w", p.Slot, p.Err)
		}
		for _, id := range p.Job.BlobIDs {
			referenced[id] = struct{}{}
		}
	}

	var orphans []domain.BlobID
	for id, err := range c.maintenance.ListAllBlobs(ctx, c.opts.Transfer.Channel) {
		if err != nil {
			return nil, err
		}
		if _, ok := referenced[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) == 0 {
		c.log.Info("No orphan blobs found")
		return nil, nil
	}

	if err := c.maintenance.DeleteBlobs(ctx, c.opts.Transfer.Channel, orphans); err != nil {
		return nil, err
	}
	c.log.Info("Orphan blobs deleted", "count", len(orphans))
	return orphans, nil
}
