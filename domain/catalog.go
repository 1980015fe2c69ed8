package domain

import "time"

// BlobID is the opaque key the remote store hands back for an uploaded chunk.
type BlobID string

// CatalogEntry is one completed upload. Blob order is byte order of the original file.
type CatalogEntry struct {
	LogicalPath LogicalPath
	BlobIDs     []BlobID
	TotalSize   uint64
	MimeType    string
	UploadedAt  time.Time
}

func (e CatalogEntry) SingleChunk() bool {
	return len(e.BlobIDs) == 1
}

// EntryFromJob builds the catalog record of a finished upload.
func EntryFromJob(job TransferJob, at time.Time) CatalogEntry {
	return CatalogEntry{
		LogicalPath: append(LogicalPath(nil), job.LogicalPath...),
		BlobIDs:     append([]BlobID(nil), job.BlobIDs...),
		TotalSize:   job.TotalSize,
		MimeType:    job.MimeType,
		UploadedAt:  at,
	}
}
