package storage

import (
	"chunk-relay/domain"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
)

// InspectRow is the printable form of one persisted key.
type InspectRow struct {
	Key    string
	Kind   string
	Path   string
	Size   string
	Detail string
}

// Inspect describes every key starting with prefix. An empty prefix walks the whole store.
func Inspect(db *badger.DB, prefix string) ([]InspectRow, error) {
	var rows []InspectRow
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				rows = append(rows, describe(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inspect %q: %w", prefix, err)
	}
	return rows, nil
}

func describe(key string, v []byte) InspectRow {
	row := InspectRow{Key: strings.ReplaceAll(key, "\x00", "/"), Kind: "RAW", Detail: fmt.Sprintf("%d bytes", len(v))}

	switch {
	case strings.HasPrefix(key, resumePrefix):
		row.Kind = "RESUME"
		job, err := decodeJob(v)
		if err != nil {
			row.Detail = "corrupt: " + err.Error()
			return row
		}
		row.Path = job.LogicalPath.String()
		row.Size = humanize.IBytes(job.TotalSize)
		if job.Direction == domain.Upload {
			row.Detail = fmt.Sprintf("upload, %d blob(s), cursor %d, index %d", len(job.BlobIDs), job.ChunkCursor, job.UploadIndex)
		} else {
			row.Detail = fmt.Sprintf("download, blob %d/%d, %s written", job.BlobIndex, len(job.BlobIDs), humanize.IBytes(job.BytesDone))
		}
	case strings.HasPrefix(key, indexPrefix):
		row.Kind = "INDEX"
		if len(v) == 8 {
			row.Detail = fmt.Sprintf("next upload index %d", binary.BigEndian.Uint64(v))
		}
	case strings.HasPrefix(key, catalogPrefix):
		row.Kind = "CATALOG"
		entry, err := decodeEntry(v)
		if err != nil {
			row.Detail = "corrupt: " + err.Error()
			return row
		}
		row.Path = entry.LogicalPath.String()
		row.Size = humanize.IBytes(entry.TotalSize)
		row.Detail = fmt.Sprintf("%d blob(s), %s", len(entry.BlobIDs), entry.MimeType)
	}
	return row
}
