package block

import (
	"fmt"
	"math"

	"github.com/arloliu/tachyon/bitstream"
	"github.com/arloliu/tachyon/errs"
	"github.com/arloliu/tachyon/tick"
)

const (
	firstDeltaSmallBits = 7
	firstDeltaMidBits   = 14
	deltaFallbackBits   = 32

	maxDelta = uint64(1)<<deltaFallbackBits - 1
)

// Compress packs a batch of ticks for one symbol into an immutable Block.
//
// The first tick's full values go into the header; ticks 1..N-1 are encoded
// into the bit-packed payload. The batch must be non-empty, single-symbol,
// and time-ordered, and every inter-tick timestamp delta must fit the
// scheme's 32-bit fallback:
//
//   - errs.ErrEmptyBatch for a zero-length batch (callers usually treat
//     this as a no-op);
//   - errs.ErrSymbolMismatch when ticks carry different symbol IDs;
//   - errs.ErrOutOfOrderTimestamps when timestamps decrease;
//   - errs.ErrDeltaOverflow when a delta needs more than 32 bits.
func Compress(ticks []tick.Raw) (*Block, error) {
	if len(ticks) == 0 {
		return nil, errs.ErrEmptyBatch
	}

	first := ticks[0]
	b := &Block{
		symbolID: first.SymbolID,
		numTicks: uint32(len(ticks)),
		startTS:  first.Timestamp,
		endTS:    ticks[len(ticks)-1].Timestamp,
		first:    first,
	}

	if len(ticks) == 1 {
		return b, nil
	}

	w := bitstream.NewWriter()
	defer w.Finish()

	prevTS := first.Timestamp
	prevDelta := uint64(0)
	prevBid := math.Float64bits(first.BidPrice)
	prevAsk := math.Float64bits(first.AskPrice)

	for i, t := range ticks[1:] {
		if t.SymbolID != first.SymbolID {
			return nil, fmt.Errorf("%w: tick %d has symbol %d, batch symbol %d",
				errs.ErrSymbolMismatch, i+1, t.SymbolID, first.SymbolID)
		}
		if t.Timestamp < prevTS {
			return nil, fmt.Errorf("%w: tick %d timestamp %d after %d",
				errs.ErrOutOfOrderTimestamps, i+1, t.Timestamp, prevTS)
		}

		delta := t.Timestamp - prevTS
		if delta > maxDelta {
			return nil, fmt.Errorf("%w: tick %d delta %d", errs.ErrDeltaOverflow, i+1, delta)
		}

		var err error
		if i == 0 {
			err = writeFirstDelta(w, delta)
		} else {
			err = writeDeltaOfDelta(w, delta, prevDelta)
		}
		if err != nil {
			return nil, err
		}
		prevTS = t.Timestamp
		prevDelta = delta

		if err := writePrice(w, &prevBid, t.BidPrice); err != nil {
			return nil, err
		}
		if err := writePrice(w, &prevAsk, t.AskPrice); err != nil {
			return nil, err
		}
		if err := writeUvarint(w, t.BidSize); err != nil {
			return nil, err
		}
		if err := writeUvarint(w, t.AskSize); err != nil {
			return nil, err
		}
	}

	// The writer's buffer is pooled; the block owns a copy.
	b.payload = append([]byte(nil), w.Bytes()...)

	return b, nil
}

// writeFirstDelta encodes the delta between ticks 0 and 1:
//
//	prefix "0"  + 7 bits   delta < 2^7
//	prefix "10" + 14 bits  delta < 2^14
//	prefix "11" + 32 bits  otherwise
func writeFirstDelta(w *bitstream.Writer, delta uint64) error {
	switch {
	case delta < 1<<firstDeltaSmallBits:
		if err := w.WriteBit(0); err != nil {
			return err
		}

		return w.WriteBits(delta, firstDeltaSmallBits)
	case delta < 1<<firstDeltaMidBits:
		if err := w.WriteBits(0b10, 2); err != nil {
			return err
		}

		return w.WriteBits(delta, firstDeltaMidBits)
	default:
		if err := w.WriteBits(0b11, 2); err != nil {
			return err
		}

		return w.WriteBits(delta, deltaFallbackBits)
	}
}

// writeDeltaOfDelta encodes the difference between consecutive deltas:
//
//	"0"              dod == 0
//	"10"   + 7 bits  dod in [-63, 64]
//	"110"  + 9 bits  dod in [-255, 256]
//	"1110" + 12 bits dod in [-2047, 2048]
//	"1111" + 32 bits otherwise, storing the raw delta (not the dod)
//
// Signed bodies hold the low w bits of the two's-complement value; the body
// range is asymmetric because the unsigned value 2^(w-1) is admitted as a
// positive delta-of-delta rather than as the most negative value.
func writeDeltaOfDelta(w *bitstream.Writer, delta, prevDelta uint64) error {
	dod := int64(delta) - int64(prevDelta)

	switch {
	case dod == 0:
		return w.WriteBit(0)
	case dod >= -63 && dod <= 64:
		if err := w.WriteBits(0b10, 2); err != nil {
			return err
		}

		return w.WriteBits(uint64(dod), 7)
	case dod >= -255 && dod <= 256:
		if err := w.WriteBits(0b110, 3); err != nil {
			return err
		}

		return w.WriteBits(uint64(dod), 9)
	case dod >= -2047 && dod <= 2048:
		if err := w.WriteBits(0b1110, 4); err != nil {
			return err
		}

		return w.WriteBits(uint64(dod), 12)
	default:
		if err := w.WriteBits(0b1111, 4); err != nil {
			return err
		}

		return w.WriteBits(delta, deltaFallbackBits)
	}
}

// writePrice XOR-codes one price column: control bit 0 repeats the previous
// value, control bit 1 is followed by the full 64-bit XOR literal.
func writePrice(w *bitstream.Writer, prevBits *uint64, price float64) error {
	cur := math.Float64bits(price)
	xor := cur ^ *prevBits
	*prevBits = cur

	if xor == 0 {
		return w.WriteBit(0)
	}
	if err := w.WriteBit(1); err != nil {
		return err
	}

	return w.WriteBits(xor, 64)
}

// writeUvarint encodes v as a LEB128 varint: 7 payload bits per group,
// high bit as continuation, least-significant group first. Groups land on
// the bit stream as whole 8-bit writes.
func writeUvarint(w *bitstream.Writer, v uint32) error {
	for {
		group := uint64(v & 0x7f)
		v >>= 7
		if v != 0 {
			group |= 0x80
		}
		if err := w.WriteBits(group, 8); err != nil {
			return err
		}
		if v == 0 {
			return nil
		}
	}
}
