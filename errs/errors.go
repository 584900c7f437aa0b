// Package errs defines the sentinel errors shared across tachyon packages.
//
// Callers wrap these sentinels with context using fmt.Errorf("%w: ...", ...),
// so errors.Is works against the sentinel regardless of how much detail the
// call site attached.
package errs

import "errors"

// Bit stream errors.
var (
	// ErrInvalidBitWidth is returned when a bit width outside [1, 64] is
	// requested from a bitstream writer or reader.
	ErrInvalidBitWidth = errors.New("bit width must be in [1, 64]")

	// ErrEndOfBuffer is returned when a read requests more bits than remain
	// in the underlying buffer.
	ErrEndOfBuffer = errors.New("read past end of buffer")
)

// Block codec errors.
var (
	// ErrEmptyBatch is returned by block compression when given zero ticks.
	// Stores treat it as a no-op rather than a failure.
	ErrEmptyBatch = errors.New("empty tick batch")

	// ErrSymbolMismatch is returned when a batch mixes ticks from more than
	// one symbol.
	ErrSymbolMismatch = errors.New("batch contains mixed symbol IDs")

	// ErrOutOfOrderTimestamps is returned when a batch's timestamps decrease.
	ErrOutOfOrderTimestamps = errors.New("batch timestamps must be non-decreasing")

	// ErrDeltaOverflow is returned when an inter-tick timestamp delta does
	// not fit the 32-bit fallback of the timestamp scheme.
	ErrDeltaOverflow = errors.New("timestamp delta exceeds 32-bit range")

	// ErrBlockDecode is returned by a block scanner when the payload is
	// exhausted early, an impossible prefix is read, or the cursor is
	// advanced past the tick count.
	ErrBlockDecode = errors.New("block decode failed")

	// ErrInvalidHeaderSize is returned when parsing a serialized block from
	// a buffer smaller than the fixed header.
	ErrInvalidHeaderSize = errors.New("invalid block header size")
)

// Query and cluster errors.
var (
	// ErrTypeMismatch is returned when a partial result's query type does
	// not match the query being aggregated. Fatal for that query.
	ErrTypeMismatch = errors.New("partial result type mismatch")

	// ErrUnknownQueryType is returned for query types the engine does not
	// recognize.
	ErrUnknownQueryType = errors.New("unknown query type")

	// ErrInvalidFrame is returned when a wire frame is truncated or
	// malformed.
	ErrInvalidFrame = errors.New("invalid wire frame")

	// ErrUnknownCompression is returned when a frame names a compression
	// codec the receiver does not support.
	ErrUnknownCompression = errors.New("unknown compression type")

	// ErrTransportClosed is returned when sending on or receiving from a
	// transport that has been shut down.
	ErrTransportClosed = errors.New("transport closed")

	// ErrInvalidRank is returned when a rank outside the cluster size is
	// addressed.
	ErrInvalidRank = errors.New("invalid rank")
)
