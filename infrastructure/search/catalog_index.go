// Package search keeps a full text index of catalog paths.
// The index is derived data: the catalog in badger stays the source of truth and Reindex rebuilds it.
package search

import (
	"chunk-relay/domain"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/blugelabs/bluge"
	"github.com/samber/lo"
)

const (
	idField    = "_id"
	termsField = "terms"
)

type ICatalogIndex interface {
	Index(path domain.LogicalPath) error
	Rename(path, newPath domain.LogicalPath) error
	Remove(path domain.LogicalPath) error
	Search(ctx context.Context, term string, limit int) ([]domain.LogicalPath, error)
	Reindex(ctx context.Context, paths []domain.LogicalPath) error
}

var _ ICatalogIndex = (*CatalogIndex)(nil)

type CatalogIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewCatalogIndex(writer *bluge.Writer, log *slog.Logger) *CatalogIndex {
	return &CatalogIndex{writer: writer, log: log}
}

func (c *CatalogIndex) Index(path domain.LogicalPath) error {
	doc := toDocument(path)
	if err := c.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}
	return nil
}

func (c *CatalogIndex) Rename(path, newPath domain.LogicalPath) error {
	batch := bluge.NewBatch()
	batch.Delete(bluge.Identifier(path.String()))
	doc := toDocument(newPath)
	batch.Update(doc.ID(), doc)
	if err := c.writer.Batch(batch); err != nil {
		return fmt.Errorf("reindex %s as %s: %w", path, newPath, err)
	}
	return nil
}

func (c *CatalogIndex) Remove(path domain.LogicalPath) error {
	if err := c.writer.Delete(bluge.Identifier(path.String())); err != nil {
		return fmt.Errorf("unindex %s: %w", path, err)
	}
	return nil
}

// Search returns the paths whose segments contain every word of term, best match first.
func (c *CatalogIndex) Search(ctx context.Context, term string, limit int) ([]domain.LogicalPath, error) {
	words := tokenize(term)
	if len(words) == 0 || limit <= 0 {
		return nil, nil
	}

	query := bluge.NewMatchQuery(strings.Join(words, " ")).
		SetField(termsField).
		SetOperator(bluge.MatchQueryOperatorAnd)
	ids, err := c.collectIDs(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}

	paths := make([]domain.LogicalPath, 0, len(ids))
	for _, id := range ids {
		p, err := domain.ParseLogicalPath(id)
		if err != nil {
			c.log.Warn("Indexed id is not a logical path", "id", id, "error", err)
			continue
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Reindex makes the index hold exactly paths.
func (c *CatalogIndex) Reindex(ctx context.Context, paths []domain.LogicalPath) error {
	reader, err := c.writer.Reader()
	if err != nil {
		return fmt.Errorf("open index reader: %w", err)
	}
	count, err := reader.Count()
	_ = reader.Close()
	if err != nil {
		return fmt.Errorf("count indexed paths: %w", err)
	}

	var indexed []string
	if count > 0 {
		indexed, err = c.collectIDs(ctx, bluge.NewTopNSearch(int(count), bluge.NewMatchAllQuery()))
		if err != nil {
			return fmt.Errorf("list indexed paths: %w", err)
		}
	}

	wanted := lo.Map(paths, func(p domain.LogicalPath, _ int) string { return p.String() })
	stale, _ := lo.Difference(indexed, wanted)

	batch := bluge.NewBatch()
	for _, id := range stale {
		batch.Delete(bluge.Identifier(id))
	}
	for _, p := range paths {
		doc := toDocument(p)
		batch.Update(doc.ID(), doc)
	}
	if err := c.writer.Batch(batch); err != nil {
		return fmt.Errorf("apply reindex batch: %w", err)
	}

	c.log.Info("Catalog index rebuilt", "paths", len(paths), "stale", len(stale))
	return nil
}

func (c *CatalogIndex) collectIDs(ctx context.Context, request bluge.SearchRequest) ([]string, error) {
	reader, err := c.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := matches.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == idField {
				ids = append(ids, string(value))
				return false
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func toDocument(path domain.LogicalPath) *bluge.Document {
	return bluge.NewDocument(path.String()).
		AddField(bluge.NewTextField(termsField, strings.Join(tokenize(path.String()), " ")))
}

// tokenize cuts on anything that is not a letter or a digit, so "beach.jpg" matches "beach".
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
