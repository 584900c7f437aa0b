package block

import (
	"fmt"
	"iter"
	"math"

	"github.com/arloliu/tachyon/bitstream"
	"github.com/arloliu/tachyon/errs"
	"github.com/arloliu/tachyon/tick"
)

// Scanner is a forward-only cursor over a block's ticks.
//
// The first call to Next yields the header's first-tick values verbatim and
// seeds the decode state; subsequent calls consume the payload bit stream in
// exactly the order the encoder wrote it. After NumTicks yields, HasNext
// reports false and Next fails.
//
// A scanner borrows the block's payload and must not outlive the block.
// Blocks are immutable, so any number of scanners may read one block
// concurrently; a single scanner is not safe for concurrent use.
type Scanner struct {
	blk *Block
	r   *bitstream.Reader
	idx uint32

	prevTS    uint64
	prevDelta uint64
	bidBits   uint64
	askBits   uint64
}

// NewScanner creates a scanner positioned before the block's first tick.
func NewScanner(b *Block) *Scanner {
	return &Scanner{
		blk: b,
		r:   bitstream.NewReader(b.payload),
	}
}

// HasNext reports whether any ticks remain.
func (s *Scanner) HasNext() bool {
	return s.idx < s.blk.numTicks
}

// Next decodes and returns the next tick.
//
// Errors wrap errs.ErrBlockDecode: the payload ran out early, an impossible
// prefix was read, or the cursor was advanced past the tick count. After an
// error the scanner state is undefined and the scan must be abandoned.
func (s *Scanner) Next() (tick.Raw, error) {
	if !s.HasNext() {
		return tick.Raw{}, fmt.Errorf("%w: advanced past %d ticks", errs.ErrBlockDecode, s.blk.numTicks)
	}

	if s.idx == 0 {
		first := s.blk.first
		s.prevTS = first.Timestamp
		s.prevDelta = 0
		s.bidBits = math.Float64bits(first.BidPrice)
		s.askBits = math.Float64bits(first.AskPrice)
		s.idx++

		return first, nil
	}

	ts, err := s.nextTimestamp()
	if err != nil {
		return tick.Raw{}, fmt.Errorf("%w: tick %d timestamp: %v", errs.ErrBlockDecode, s.idx, err)
	}

	bid, err := s.nextPrice(&s.bidBits)
	if err != nil {
		return tick.Raw{}, fmt.Errorf("%w: tick %d bid price: %v", errs.ErrBlockDecode, s.idx, err)
	}
	ask, err := s.nextPrice(&s.askBits)
	if err != nil {
		return tick.Raw{}, fmt.Errorf("%w: tick %d ask price: %v", errs.ErrBlockDecode, s.idx, err)
	}

	bidSize, err := s.nextUvarint()
	if err != nil {
		return tick.Raw{}, fmt.Errorf("%w: tick %d bid size: %v", errs.ErrBlockDecode, s.idx, err)
	}
	askSize, err := s.nextUvarint()
	if err != nil {
		return tick.Raw{}, fmt.Errorf("%w: tick %d ask size: %v", errs.ErrBlockDecode, s.idx, err)
	}

	s.idx++

	return tick.Raw{
		Timestamp: ts,
		SymbolID:  s.blk.symbolID,
		BidPrice:  bid,
		AskPrice:  ask,
		BidSize:   bidSize,
		AskSize:   askSize,
	}, nil
}

// nextTimestamp inverts writeFirstDelta for the second tick and
// writeDeltaOfDelta for every tick after it.
func (s *Scanner) nextTimestamp() (uint64, error) {
	if s.idx == 1 {
		delta, err := s.readFirstDelta()
		if err != nil {
			return 0, err
		}
		s.prevDelta = delta
		s.prevTS += delta

		return s.prevTS, nil
	}

	ctrl, err := s.r.ReadBit()
	if err != nil {
		return 0, err
	}
	if ctrl == 0 {
		// Delta-of-delta of zero: delta repeats.
		s.prevTS += s.prevDelta

		return s.prevTS, nil
	}

	width := 0
	for _, w := range []int{7, 9, 12} {
		ctrl, err = s.r.ReadBit()
		if err != nil {
			return 0, err
		}
		if ctrl == 0 {
			width = w

			break
		}
	}

	if width == 0 {
		// "1111": the raw delta was stored, not a delta-of-delta.
		delta, err := s.r.ReadBits(deltaFallbackBits)
		if err != nil {
			return 0, err
		}
		s.prevDelta = delta
		s.prevTS += delta

		return s.prevTS, nil
	}

	body, err := s.r.ReadBits(width)
	if err != nil {
		return 0, err
	}

	dod := int64(body)
	if body > uint64(1)<<(width-1) {
		// The body is the low bits of a two's-complement value; anything
		// above 2^(w-1) is negative.
		dod = int64(body) - int64(1)<<width
	}

	s.prevDelta = uint64(int64(s.prevDelta) + dod)
	s.prevTS += s.prevDelta

	return s.prevTS, nil
}

func (s *Scanner) readFirstDelta() (uint64, error) {
	ctrl, err := s.r.ReadBit()
	if err != nil {
		return 0, err
	}
	if ctrl == 0 {
		return s.r.ReadBits(firstDeltaSmallBits)
	}

	ctrl, err = s.r.ReadBit()
	if err != nil {
		return 0, err
	}
	if ctrl == 0 {
		return s.r.ReadBits(firstDeltaMidBits)
	}

	return s.r.ReadBits(deltaFallbackBits)
}

func (s *Scanner) nextPrice(prevBits *uint64) (float64, error) {
	ctrl, err := s.r.ReadBit()
	if err != nil {
		return 0, err
	}
	if ctrl == 0 {
		return math.Float64frombits(*prevBits), nil
	}

	xor, err := s.r.ReadBits(64)
	if err != nil {
		return 0, err
	}
	*prevBits ^= xor

	return math.Float64frombits(*prevBits), nil
}

func (s *Scanner) nextUvarint() (uint32, error) {
	var v uint32
	for shift := 0; shift < 35; shift += 7 {
		group, err := s.r.ReadBits(8)
		if err != nil {
			return 0, err
		}
		v |= uint32(group&0x7f) << shift
		if group&0x80 == 0 {
			return v, nil
		}
	}

	return 0, fmt.Errorf("varint exceeds 32 bits")
}

// All returns an iterator over the block's ticks.
//
// On a decode failure the iterator yields the error once and stops. This is
// the convenience form of NewScanner/Next for callers that want to range
// over a block.
func (b *Block) All() iter.Seq2[tick.Raw, error] {
	return func(yield func(tick.Raw, error) bool) {
		s := NewScanner(b)
		for s.HasNext() {
			t, err := s.Next()
			if !yield(t, err) || err != nil {
				return
			}
		}
	}
}
