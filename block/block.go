// Package block implements tachyon's compressed tick block: a read-only,
// single-symbol container holding a fixed header plus a bit-packed payload
// for ticks 1..N-1.
//
// Blocks are created once by Compress from a non-empty batch and never
// mutated. A Scanner decodes ticks forward-only, seeded from the header's
// first-tick values; there is no random access and no time index inside a
// block.
//
// Payload encoding, per tick in order timestamp → bid price → ask price →
// bid size → ask size:
//
//   - tick 1 timestamp: prefix-coded delta against the first tick
//     ("0"+7 bits, "10"+14 bits, or "11"+32 bits);
//   - tick 2+ timestamps: prefix-coded delta-of-delta
//     ("0", "10"+7, "110"+9, "1110"+12, or "1111"+32 raw delta);
//   - prices: one control bit per column, 0 = repeat previous, 1 followed by
//     the 64-bit XOR against the previous value's bit pattern;
//   - sizes: LEB128 varints of the absolute values, 8 bits per group on the
//     bit stream.
package block

import (
	"fmt"
	"math"

	"github.com/arloliu/tachyon/endian"
	"github.com/arloliu/tachyon/errs"
	"github.com/arloliu/tachyon/tick"
)

// HeaderSize is the size of the fixed serialized block header, including the
// payload length field.
const HeaderSize = 60

// Serialized header layout (little-endian):
//
//	offset 0-3   symbol ID (uint32)
//	offset 4-7   tick count (uint32)
//	offset 8-15  start timestamp (uint64)
//	offset 16-23 end timestamp (uint64)
//	offset 24-31 first tick timestamp (uint64)
//	offset 32-39 first tick bid price (float64 bits)
//	offset 40-47 first tick ask price (float64 bits)
//	offset 48-51 first tick bid size (uint32)
//	offset 52-55 first tick ask size (uint32)
//	offset 56-59 payload length in bytes (uint32)
//	offset 60-   payload
//
// Decoding is driven by the tick count, never by the payload length; the
// length field exists so serialized blocks can be framed back to back.

// Block is an immutable compressed container of ticks for one symbol.
//
// All ticks share the symbol ID, timestamps are non-decreasing, and the
// header's first-tick values seed payload decoding. A block with one tick
// has an empty payload.
type Block struct {
	symbolID uint32
	numTicks uint32

	startTS uint64
	endTS   uint64

	first   tick.Raw
	payload []byte
}

// SymbolID returns the symbol all ticks in the block belong to.
func (b *Block) SymbolID() uint32 {
	return b.symbolID
}

// NumTicks returns the number of ticks stored in the block.
func (b *Block) NumTicks() uint32 {
	return b.numTicks
}

// StartTimestamp returns the first tick's timestamp.
func (b *Block) StartTimestamp() uint64 {
	return b.startTS
}

// EndTimestamp returns the last tick's timestamp.
func (b *Block) EndTimestamp() uint64 {
	return b.endTS
}

// First returns the first tick's full values, as recorded in the header.
func (b *Block) First() tick.Raw {
	return b.first
}

// PayloadSize returns the size of the bit-packed payload in bytes.
func (b *Block) PayloadSize() int {
	return len(b.payload)
}

// OverlapsWith reports whether the block's [start, end] timestamp range
// overlaps the inclusive query window [queryStart, queryEnd].
//
// A block passing this predicate may still contain no matching ticks; the
// query engine filters per tick.
func (b *Block) OverlapsWith(queryStart, queryEnd uint64) bool {
	return b.startTS <= queryEnd && b.endTS >= queryStart
}

// Bytes serializes the block into the canonical header + payload form.
func (b *Block) Bytes() []byte {
	engine := endian.GetLittleEndianEngine()

	out := make([]byte, HeaderSize, HeaderSize+len(b.payload))
	engine.PutUint32(out[0:4], b.symbolID)
	engine.PutUint32(out[4:8], b.numTicks)
	engine.PutUint64(out[8:16], b.startTS)
	engine.PutUint64(out[16:24], b.endTS)
	engine.PutUint64(out[24:32], b.first.Timestamp)
	engine.PutUint64(out[32:40], math.Float64bits(b.first.BidPrice))
	engine.PutUint64(out[40:48], math.Float64bits(b.first.AskPrice))
	engine.PutUint32(out[48:52], b.first.BidSize)
	engine.PutUint32(out[52:56], b.first.AskSize)
	engine.PutUint32(out[56:60], uint32(len(b.payload)))

	return append(out, b.payload...)
}

// Parse deserializes a block from the canonical form produced by Bytes.
//
// The payload is copied out of data, so the caller may reuse the input
// buffer. Returns errs.ErrInvalidHeaderSize when data is shorter than the
// header or the recorded payload length.
func Parse(data []byte) (*Block, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", errs.ErrInvalidHeaderSize, len(data), HeaderSize)
	}

	engine := endian.GetLittleEndianEngine()

	b := &Block{
		symbolID: engine.Uint32(data[0:4]),
		numTicks: engine.Uint32(data[4:8]),
		startTS:  engine.Uint64(data[8:16]),
		endTS:    engine.Uint64(data[16:24]),
	}
	b.first = tick.Raw{
		Timestamp: engine.Uint64(data[24:32]),
		SymbolID:  b.symbolID,
		BidPrice:  math.Float64frombits(engine.Uint64(data[32:40])),
		AskPrice:  math.Float64frombits(engine.Uint64(data[40:48])),
		BidSize:   engine.Uint32(data[48:52]),
		AskSize:   engine.Uint32(data[52:56]),
	}

	payloadLen := int(engine.Uint32(data[56:60]))
	if len(data) < HeaderSize+payloadLen {
		return nil, fmt.Errorf("%w: payload truncated, got %d bytes, need %d",
			errs.ErrInvalidHeaderSize, len(data)-HeaderSize, payloadLen)
	}
	b.payload = append([]byte(nil), data[HeaderSize:HeaderSize+payloadLen]...)

	return b, nil
}
