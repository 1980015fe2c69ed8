package domain

import (
	"time"

	"github.com/google/uuid"
)

type Direction int

const (
	Upload Direction = iota
	Download
)

func (d Direction) String() string {
	switch d {
	case Upload:
		return "upload"
	case Download:
		return "download"
	default:
		return "unknown"
	}
}

// TransferState is the orchestrator side view of a slot.
type TransferState int

const (
	Idle TransferState = iota
	SingleChunk
	MultiChunk
)

func (s TransferState) String() string {
	switch s {
	case Idle:
		return "idle"
	case SingleChunk:
		return "single-chunk"
	case MultiChunk:
		return "multi-chunk"
	default:
		return "unknown"
	}
}

// CancelStrength orders stop requests: a stronger request may replace a weaker one.
type CancelStrength int

const (
	NoCancel CancelStrength = iota
	// SoftCancel finishes the chunk in flight, persists it, then stops.
	SoftCancel
	// HardCancel aborts the transport call in flight and discards the partial chunk.
	HardCancel
)

func (c CancelStrength) String() string {
	switch c {
	case NoCancel:
		return "none"
	case SoftCancel:
		return "soft"
	case HardCancel:
		return "hard"
	default:
		return "unknown"
	}
}

// TransferJob is the unit of work handed to a slot.
// BlobIDs is append-only while uploading and read-only while downloading.
type TransferJob struct {
	ID             uuid.UUID
	Direction      Direction
	LogicalPath    LogicalPath `validate:"required,min=1,dive,required"`
	LocalPath      string      `validate:"required_if=Direction 0"`
	DestinationDir string      `validate:"required_if=Direction 1"`
	TotalSize      uint64
	MimeType       string
	BlobIDs        []BlobID
	ChunkCursor    uint64
	BlobIndex      uint64
	UploadIndex    uint64
	BytesDone      uint64
	StartedAt      time.Time
}

// Started reports whether any chunk of the job has already been accounted for.
func (j TransferJob) Started() bool {
	if j.Direction == Upload {
		return j.ChunkCursor != 0 || len(j.BlobIDs) > 0
	}
	return j.BlobIndex != 0
}

// Clone returns a copy that does not share the blob list.
func (j TransferJob) Clone() TransferJob {
	c := j
	c.LogicalPath = append(LogicalPath(nil), j.LogicalPath...)
	c.BlobIDs = append([]BlobID(nil), j.BlobIDs...)
	return c
}

type TransferStatus int

const (
	Completed TransferStatus = iota
	Incomplete
)

func (s TransferStatus) String() string {
	if s == Completed {
		return "completed"
	}
	return "incomplete"
}

// TransferResult is what a slot worker replies once a job stops.
// Job holds the state reached, Err the reason of an incomplete run.
type TransferResult struct {
	Slot   SlotID
	Job    TransferJob
	Status TransferStatus
	Err    error
}

func (r TransferResult) Done() bool {
	return r.Status == Completed
}
