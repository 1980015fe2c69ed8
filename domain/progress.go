package domain

const (
	KB = 1024
	MB = KB * KB
)

// ProgressFunc is called by the transport with bytes moved so far for the current blob.
type ProgressFunc func(current, total uint64)

type Progress struct {
	Slot        SlotID
	Direction   Direction
	LogicalPath LogicalPath
	TotalSize   uint64
	Chunk       uint64
	TotalChunks uint64
	Percent     int
}

// ChunkCount is ceil(size / chunkSize), with a zero sized file still taking one chunk.
func ChunkCount(size, chunkSize uint64) uint64 {
	if chunkSize == 0 || size == 0 {
		return 1
	}
	return (size + chunkSize - 1) / chunkSize
}

// Percent computes floor(((current / total) + chunksDone) / totalChunks * 100).
func Percent(current, total, chunksDone, totalChunks uint64) int {
	if totalChunks == 0 {
		return 0
	}
	fraction := 0.0
	if total > 0 {
		fraction = float64(current) / float64(total)
	}
	p := int((fraction + float64(chunksDone)) / float64(totalChunks) * 100)
	if p > 100 {
		return 100
	}
	return p
}
