package frame

import "errors"

var (
	// ErrSyncLost is returned when the 14-bit frame synchronization code
	// is not found where a frame header was expected.
	ErrSyncLost = errors.New("frame synchronization code mismatch")
	// ErrReservedBlockSize is returned when a frame header uses the
	// reserved block size code.
	ErrReservedBlockSize = errors.New("reserved block size code")
	// ErrReservedChannelAssignment is returned when a frame header uses a
	// reserved channel assignment.
	ErrReservedChannelAssignment = errors.New("reserved channel assignment")
	// ErrReservedSubframeType is returned when a subframe header uses a
	// reserved prediction method bit pattern.
	ErrReservedSubframeType = errors.New("reserved subframe type")
	// ErrReservedResidualMethod is returned when a subframe uses a
	// reserved residual coding method.
	ErrReservedResidualMethod = errors.New("reserved residual coding method")
	// ErrIndivisibleBlockSize is returned when the block size is not evenly
	// divisible by the number of Rice partitions.
	ErrIndivisibleBlockSize = errors.New("block size not divisible by the number of Rice partitions")
)
