package storage

import (
	"chunk-relay/domain"
	"chunk-relay/errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

type ICatalogRepository interface {
	Insert(entry domain.CatalogEntry) error
	Get(path domain.LogicalPath) (domain.CatalogEntry, error)
	Contains(path domain.LogicalPath) (bool, error)
	Rename(path, newPath domain.LogicalPath) (domain.CatalogEntry, error)
	Delete(path domain.LogicalPath) error
	List() iter.Seq2[domain.CatalogEntry, error]
}

// CatalogRepository maps logical paths to the blobs of completed uploads.
type CatalogRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewCatalogRepository(db *badger.DB, log *slog.Logger) *CatalogRepository {
	return &CatalogRepository{
		db:  db,
		log: log,
	}
}

// Insert fails with ErrDuplicatePath when the path is taken. Check and write share one transaction.
func (c CatalogRepository) Insert(entry domain.CatalogEntry) error {
	if err := entry.LogicalPath.Validate(); err != nil {
		return err
	}
	if len(entry.BlobIDs) == 0 {
		return fmt.Errorf("catalog entry %s has no blobs", entry.LogicalPath)
	}

	key := catalogKey(entry.LogicalPath)
	data := encodeEntry(entry)
	err := c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("%w: %s", errors.ErrDuplicatePath, entry.LogicalPath)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	c.log.Debug("Catalog entry inserted", "path", entry.LogicalPath.String(), "blobs", len(entry.BlobIDs))
	return nil
}

func (c CatalogRepository) Get(path domain.LogicalPath) (domain.CatalogEntry, error) {
	var entry domain.CatalogEntry
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		entry, err = getEntry(txn, path)
		return err
	})
	return entry, err
}

func (c CatalogRepository) Contains(path domain.LogicalPath) (bool, error) {
	_, err := c.Get(path)
	if errors.Is(err, errors.ErrEntryNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Rename moves the entry to newPath. Blob ids are kept, nothing happens on the remote side.
func (c CatalogRepository) Rename(path, newPath domain.LogicalPath) (domain.CatalogEntry, error) {
	if err := newPath.Validate(); err != nil {
		return domain.CatalogEntry{}, err
	}

	var renamed domain.CatalogEntry
	err := c.db.Update(func(txn *badger.Txn) error {
		entry, err := getEntry(txn, path)
		if err != nil {
			return err
		}
		if path.Equal(newPath) {
			renamed = entry
			return nil
		}
		if _, err := txn.Get(catalogKey(newPath)); err == nil {
			return fmt.Errorf("%w: %s", errors.ErrDuplicatePath, newPath)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		entry.LogicalPath = append(domain.LogicalPath(nil), newPath...)
		if err := txn.Delete(catalogKey(path)); err != nil {
			return err
		}
		renamed = entry
		return txn.Set(catalogKey(newPath), encodeEntry(entry))
	})
	if err != nil {
		return domain.CatalogEntry{}, err
	}
	return renamed, nil
}

func (c CatalogRepository) Delete(path domain.LogicalPath) error {
	return c.db.Update(func(txn *badger.Txn) error {
		if _, err := getEntry(txn, path); err != nil {
			return err
		}
		return txn.Delete(catalogKey(path))
	})
}

// List walks the catalog in logical path order.
// A record that cannot be decoded is reported and the walk goes on.
func (c CatalogRepository) List() iter.Seq2[domain.CatalogEntry, error] {
	return func(yield func(domain.CatalogEntry, error) bool) {
		prefix := []byte(catalogPrefix)
		err := c.db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				var entry domain.CatalogEntry
				err := it.Item().Value(func(v []byte) error {
					var err error
					entry, err = decodeEntry(v)
					return err
				})
				if err != nil {
					err = fmt.Errorf("decode catalog entry %q: %w", it.Item().Key(), err)
				}
				if !yield(entry, err) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(domain.CatalogEntry{}, fmt.Errorf("list catalog: %w", err))
		}
	}
}

func getEntry(txn *badger.Txn, path domain.LogicalPath) (domain.CatalogEntry, error) {
	item, err := txn.Get(catalogKey(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.CatalogEntry{}, fmt.Errorf("%w: %s", errors.ErrEntryNotFound, path)
	}
	if err != nil {
		return domain.CatalogEntry{}, err
	}

	var entry domain.CatalogEntry
	err = item.Value(func(v []byte) error {
		entry, err = decodeEntry(v)
		return err
	})
	return entry, err
}
