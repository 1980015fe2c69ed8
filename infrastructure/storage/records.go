package storage

import (
	"chunk-relay/domain"
	"chunk-relay/errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Records are written in the protobuf wire format so fields can be added
// without breaking older databases. Unknown fields are skipped on read,
// a newer schema version is refused.
const schemaVersion = 1

const (
	jobVersion     protowire.Number = 1
	jobDirection   protowire.Number = 2
	jobSegment     protowire.Number = 3
	jobLocalPath   protowire.Number = 4
	jobDestination protowire.Number = 5
	jobTotalSize   protowire.Number = 6
	jobBlobID      protowire.Number = 7
	jobCursor      protowire.Number = 8
	jobBlobIndex   protowire.Number = 9
	jobUploadIndex protowire.Number = 10
	jobBytesDone   protowire.Number = 11
	jobID          protowire.Number = 12
	jobMimeType    protowire.Number = 13
	jobStartedAt   protowire.Number = 14
)

const (
	entryVersion    protowire.Number = 1
	entrySegment    protowire.Number = 2
	entryBlobID     protowire.Number = 3
	entryTotalSize  protowire.Number = 4
	entryMimeType   protowire.Number = 5
	entryUploadedAt protowire.Number = 6
)

func encodeJob(job domain.TransferJob) []byte {
	var b []byte
	b = appendVarint(b, jobVersion, schemaVersion)
	b = appendVarint(b, jobDirection, uint64(job.Direction))
	for _, segment := range job.LogicalPath {
		b = appendString(b, jobSegment, segment)
	}
	b = appendString(b, jobLocalPath, job.LocalPath)
	b = appendString(b, jobDestination, job.DestinationDir)
	b = appendVarint(b, jobTotalSize, job.TotalSize)
	for _, id := range job.BlobIDs {
		b = appendString(b, jobBlobID, string(id))
	}
	b = appendVarint(b, jobCursor, job.ChunkCursor)
	b = appendVarint(b, jobBlobIndex, job.BlobIndex)
	b = appendVarint(b, jobUploadIndex, job.UploadIndex)
	b = appendVarint(b, jobBytesDone, job.BytesDone)
	if job.ID != uuid.Nil {
		b = appendString(b, jobID, job.ID.String())
	}
	b = appendString(b, jobMimeType, job.MimeType)
	b = appendTime(b, jobStartedAt, job.StartedAt)
	return b
}

func decodeJob(data []byte) (domain.TransferJob, error) {
	var job domain.TransferJob
	var version uint64
	err := decodeFields(data, jobBytesFields, func(f field) error {
		switch f.num {
		case jobVersion:
			version = f.varint
		case jobDirection:
			job.Direction = domain.Direction(f.varint)
		case jobSegment:
			job.LogicalPath = append(job.LogicalPath, string(f.bytes))
		case jobLocalPath:
			job.LocalPath = string(f.bytes)
		case jobDestination:
			job.DestinationDir = string(f.bytes)
		case jobTotalSize:
			job.TotalSize = f.varint
		case jobBlobID:
			job.BlobIDs = append(job.BlobIDs, domain.BlobID(f.bytes))
		case jobCursor:
			job.ChunkCursor = f.varint
		case jobBlobIndex:
			job.BlobIndex = f.varint
		case jobUploadIndex:
			job.UploadIndex = f.varint
		case jobBytesDone:
			job.BytesDone = f.varint
		case jobID:
			id, err := uuid.ParseBytes(f.bytes)
			if err != nil {
				return fmt.Errorf("job id: %w", err)
			}
			job.ID = id
		case jobMimeType:
			job.MimeType = string(f.bytes)
		case jobStartedAt:
			job.StartedAt = time.Unix(0, int64(f.varint)).UTC()
		}
		return nil
	})
	if err != nil {
		return domain.TransferJob{}, err
	}
	if err := checkVersion(version); err != nil {
		return domain.TransferJob{}, err
	}
	if job.Direction != domain.Upload && job.Direction != domain.Download {
		return domain.TransferJob{}, fmt.Errorf("unknown direction %d", job.Direction)
	}
	if err := job.LogicalPath.Validate(); err != nil {
		return domain.TransferJob{}, err
	}
	return job, nil
}

func encodeEntry(entry domain.CatalogEntry) []byte {
	var b []byte
	b = appendVarint(b, entryVersion, schemaVersion)
	for _, segment := range entry.LogicalPath {
		b = appendString(b, entrySegment, segment)
	}
	for _, id := range entry.BlobIDs {
		b = appendString(b, entryBlobID, string(id))
	}
	b = appendVarint(b, entryTotalSize, entry.TotalSize)
	b = appendString(b, entryMimeType, entry.MimeType)
	b = appendTime(b, entryUploadedAt, entry.UploadedAt)
	return b
}

func decodeEntry(data []byte) (domain.CatalogEntry, error) {
	var entry domain.CatalogEntry
	var version uint64
	err := decodeFields(data, entryBytesFields, func(f field) error {
		switch f.num {
		case entryVersion:
			version = f.varint
		case entrySegment:
			entry.LogicalPath = append(entry.LogicalPath, string(f.bytes))
		case entryBlobID:
			entry.BlobIDs = append(entry.BlobIDs, domain.BlobID(f.bytes))
		case entryTotalSize:
			entry.TotalSize = f.varint
		case entryMimeType:
			entry.MimeType = string(f.bytes)
		case entryUploadedAt:
			entry.UploadedAt = time.Unix(0, int64(f.varint)).UTC()
		}
		return nil
	})
	if err != nil {
		return domain.CatalogEntry{}, err
	}
	if err := checkVersion(version); err != nil {
		return domain.CatalogEntry{}, err
	}
	if len(entry.BlobIDs) == 0 {
		return domain.CatalogEntry{}, fmt.Errorf("entry %s has no blobs", entry.LogicalPath)
	}
	return entry, nil
}

func checkVersion(version uint64) error {
	switch {
	case version == 0:
		return fmt.Errorf("missing schema version")
	case version > schemaVersion:
		return fmt.Errorf("%w: %d, this build reads up to %d", errors.ErrUnsupportedSchema, version, schemaVersion)
	default:
		return nil
	}
}

type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	bytes  []byte
}

// Fields not listed here are varints.
var (
	jobBytesFields = map[protowire.Number]bool{
		jobSegment: true, jobLocalPath: true, jobDestination: true,
		jobBlobID: true, jobID: true, jobMimeType: true,
	}
	entryBytesFields = map[protowire.Number]bool{
		entrySegment: true, entryBlobID: true, entryMimeType: true,
	}
)

// decodeFields walks a flat message. Values whose wire type does not match the field are dropped.
func decodeFields(data []byte, bytesFields map[protowire.Number]bool, visit func(f field) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		f := field{num: num, typ: typ}
		known := true
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(data)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(data)
		default:
			known = false
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		wantBytes := bytesFields[f.num]
		if !known || wantBytes != (f.typ == protowire.BytesType) {
			continue
		}
		if err := visit(f); err != nil {
			return err
		}
	}
	return nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return b
	}
	return appendVarint(b, num, uint64(t.UnixNano()))
}
