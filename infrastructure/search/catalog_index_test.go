package search

import (
	"chunk-relay/domain"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *CatalogIndex {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewCatalogIndex(writer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCatalogIndex_Search(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := newTestIndex(t)

	req.NoError(index.Index(domain.LogicalPath{"photos", "2024", "Beach.jpg"}))
	req.NoError(index.Index(domain.LogicalPath{"photos", "2023", "mountain.jpg"}))
	req.NoError(index.Index(domain.LogicalPath{"docs", "report.pdf"}))

	found, err := index.Search(ctx, "beach", 10)
	req.NoError(err)
	req.Equal([]domain.LogicalPath{{"photos", "2024", "Beach.jpg"}}, found)

	found, err = index.Search(ctx, "photos jpg", 10)
	req.NoError(err)
	req.Len(found, 2)

	found, err = index.Search(ctx, "photos pdf", 10)
	req.NoError(err)
	req.Empty(found, "every word must match")

	found, err = index.Search(ctx, "...", 10)
	req.NoError(err)
	req.Empty(found)
}

func TestCatalogIndex_RenameRemove(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := newTestIndex(t)

	req.NoError(index.Index(domain.LogicalPath{"a", "draft.txt"}))
	req.NoError(index.Rename(domain.LogicalPath{"a", "draft.txt"}, domain.LogicalPath{"a", "final.txt"}))

	found, err := index.Search(ctx, "draft", 10)
	req.NoError(err)
	req.Empty(found)
	found, err = index.Search(ctx, "final", 10)
	req.NoError(err)
	req.Equal([]domain.LogicalPath{{"a", "final.txt"}}, found)

	req.NoError(index.Remove(domain.LogicalPath{"a", "final.txt"}))
	found, err = index.Search(ctx, "final", 10)
	req.NoError(err)
	req.Empty(found)
}

func TestCatalogIndex_Reindex(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := newTestIndex(t)

	req.NoError(index.Index(domain.LogicalPath{"stale", "old.txt"}))
	req.NoError(index.Reindex(ctx, []domain.LogicalPath{{"fresh", "new.txt"}}))

	found, err := index.Search(ctx, "old", 10)
	req.NoError(err)
	req.Empty(found)
	found, err = index.Search(ctx, "new", 10)
	req.NoError(err)
	req.Len(found, 1)
}
