package storage

import (
	"chunk-relay/domain"
	"chunk-relay/errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func sampleJob() domain.TransferJob {
	return domain.TransferJob{
		ID:          uuid.New(),
		Direction:   domain.Upload,
		LogicalPath: domain.LogicalPath{"photos", "2024", "beach.jpg"},
		LocalPath:   "/home/me/beach.jpg",
		TotalSize:   5000 * domain.MB,
		MimeType:    "image/jpeg",
		BlobIDs:     []domain.BlobID{"me/a", "me/b"},
		ChunkCursor: 4000 * domain.MB,
		UploadIndex: 9,
		StartedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestJobRecord_RoundTrip(t *testing.T) {
	req := require.New(t)
	job := sampleJob()

	decoded, err := decodeJob(encodeJob(job))
	req.NoError(err)
	req.Equal(job, decoded)
}

func TestJobRecord_SkipsUnknownFields(t *testing.T) {
	req := require.New(t)
	job := sampleJob()

	data := encodeJob(job)
	data = protowire.AppendTag(data, 99, protowire.BytesType)
	data = protowire.AppendString(data, "added by a later build")
	data = protowire.AppendTag(data, 100, protowire.Fixed64Type)
	data = protowire.AppendFixed64(data, 42)

	decoded, err := decodeJob(data)
	req.NoError(err)
	req.Equal(job, decoded)
}

func TestJobRecord_RejectsNewerSchema(t *testing.T) {
	req := require.New(t)

	var data []byte
	data = appendVarint(data, jobVersion, schemaVersion+1)
	data = appendString(data, jobSegment, "a")

	_, err := decodeJob(data)
	req.ErrorIs(err, errors.ErrUnsupportedSchema)
}

func TestJobRecord_RejectsGarbage(t *testing.T) {
	req := require.New(t)

	_, err := decodeJob([]byte{0xff, 0xff, 0xff})
	req.Error(err)

	_, err = decodeJob(nil)
	req.Error(err, "a record without version is not a record")
}

func TestEntryRecord_RoundTrip(t *testing.T) {
	req := require.New(t)
	entry := domain.CatalogEntry{
		LogicalPath: domain.LogicalPath{"docs", "report.pdf"},
		BlobIDs:     []domain.BlobID{"me/x"},
		TotalSize:   1234,
		MimeType:    "application/pdf",
		UploadedAt:  time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC),
	}

	decoded, err := decodeEntry(encodeEntry(entry))
	req.NoError(err)
	req.Equal(entry, decoded)
}
