package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tachyon/block"
	"github.com/arloliu/tachyon/errs"
	"github.com/arloliu/tachyon/tick"
)

func makeBatch(symbolID uint32, timestamps ...uint64) []tick.Raw {
	batch := make([]tick.Raw, len(timestamps))
	for i, ts := range timestamps {
		batch[i] = tick.Raw{
			Timestamp: ts,
			SymbolID:  symbolID,
			BidPrice:  10,
			AskPrice:  10.1,
			BidSize:   1,
			AskSize:   1,
		}
	}

	return batch
}

func TestIngest_EmptyBatchIsNoOp(t *testing.T) {
	s := NewLocalStore()

	require.NoError(t, s.Ingest(nil))
	require.NoError(t, s.Ingest([]tick.Raw{}))
	require.Empty(t, s.Symbols())
}

func TestIngest_AppendsPerSymbol(t *testing.T) {
	s := NewLocalStore()

	require.NoError(t, s.Ingest(makeBatch(1, 100, 200)))
	require.NoError(t, s.Ingest(makeBatch(2, 100, 200, 300)))
	require.NoError(t, s.Ingest(makeBatch(1, 400)))

	require.ElementsMatch(t, []uint32{1, 2}, s.Symbols())
	require.Equal(t, 2, s.BlockCount(1))
	require.Equal(t, 1, s.BlockCount(2))
	require.Equal(t, uint64(3), s.TickCount(1))
	require.Equal(t, uint64(3), s.TickCount(2))
}

func TestIngest_PropagatesCodecErrors(t *testing.T) {
	s := NewLocalStore()

	batch := makeBatch(1, 100, 200)
	batch[1].SymbolID = 2
	require.ErrorIs(t, s.Ingest(batch), errs.ErrSymbolMismatch)
	require.Empty(t, s.Symbols())
}

// TestBlocksFor_InsertionOrder ingests blocks whose time ranges are not in
// timestamp order and checks the store preserves ingest order, which is
// what the OHLC timestamp tracking relies on.
func TestBlocksFor_InsertionOrder(t *testing.T) {
	s := NewLocalStore()

	require.NoError(t, s.Ingest(makeBatch(5, 300, 400)))
	require.NoError(t, s.Ingest(makeBatch(5, 100, 200)))

	blocks := s.BlocksFor(5, 0, math.MaxUint64)
	require.Len(t, blocks, 2)
	require.Equal(t, uint64(300), blocks[0].StartTimestamp())
	require.Equal(t, uint64(100), blocks[1].StartTimestamp())
}

// TestBlocksFor_PruningSoundness checks that a pruned block contains no
// tick inside the query window.
func TestBlocksFor_PruningSoundness(t *testing.T) {
	s := NewLocalStore()

	require.NoError(t, s.Ingest(makeBatch(9, 100, 150, 200)))
	require.NoError(t, s.Ingest(makeBatch(9, 500, 600)))
	require.NoError(t, s.Ingest(makeBatch(9, 250, 300)))

	matched := s.BlocksFor(9, 210, 260)
	require.Len(t, matched, 1)
	require.Equal(t, uint64(250), matched[0].StartTimestamp())

	// Every pruned block really has no tick in [210, 260].
	pruned := 0
	for _, blk := range s.BlocksFor(9, 0, math.MaxUint64) {
		if blk.OverlapsWith(210, 260) {
			continue
		}
		pruned++
		sc := block.NewScanner(blk)
		for sc.HasNext() {
			tk, err := sc.Next()
			require.NoError(t, err)
			require.False(t, tk.Timestamp >= 210 && tk.Timestamp <= 260)
		}
	}
	require.Equal(t, 2, pruned)
}

func TestBlocksFor_UnknownSymbol(t *testing.T) {
	s := NewLocalStore()
	require.Empty(t, s.BlocksFor(42, 0, math.MaxUint64))
}

func TestAppend_ParsedBlock(t *testing.T) {
	s := NewLocalStore()

	blk, err := block.Compress(makeBatch(3, 10, 20))
	require.NoError(t, err)

	parsed, err := block.Parse(blk.Bytes())
	require.NoError(t, err)

	s.Append(parsed)
	require.Equal(t, 1, s.BlockCount(3))
	require.Equal(t, uint64(2), s.TickCount(3))
}
