package protocol

import (
	"fmt"
	"math"
)

// SegmentCount returns ceil(fileSize / capacity).
// It fails when the count does not fit the 32-bit TotalSegments field.
func SegmentCount(fileSize uint64, capacity int) (uint32, error) {
	if capacity <= 0 {
		return 0, fmt.Errorf("invalid segment capacity %d", capacity)
	}
	c := uint64(capacity)
	n := fileSize / c
	if fileSize%c != 0 {
		n++
	}
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("file size %d needs %d segments (max %d)", fileSize, n, uint64(math.MaxUint32))
	}
	return uint32(n), nil
}

// SegmentLen returns the payload length of segment index: capacity for every
// segment but the last, which carries the remainder.
func SegmentLen(fileSize uint64, capacity int, index uint32) int {
	offset := uint64(index) * uint64(capacity)
	if offset >= fileSize {
		return 0
	}
	return int(min(uint64(capacity), fileSize-offset))
}
