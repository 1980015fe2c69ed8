package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkCount(t *testing.T) {
	req := require.New(t)

	req.Equal(uint64(3), ChunkCount(5000*MB, 2000*MB))
	req.Equal(uint64(2), ChunkCount(4000*MB, 2000*MB), "exact multiple must not add an empty chunk")
	req.Equal(uint64(1), ChunkCount(10, 2000*MB))
	req.Equal(uint64(1), ChunkCount(0, 2000*MB))
}

func TestPercent(t *testing.T) {
	req := require.New(t)

	// Half of the second chunk out of four
	req.Equal(37, Percent(50, 100, 1, 4))
	req.Equal(0, Percent(0, 100, 0, 3))
	req.Equal(100, Percent(100, 100, 0, 1))
	req.Equal(66, Percent(0, 0, 2, 3), "unknown blob size counts as not started")
	req.Equal(0, Percent(10, 10, 0, 0))
}
