package source

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerator_BatchPreconditions(t *testing.T) {
	gen := NewGenerator(WithSeed(1))

	for i := 0; i < 20; i++ {
		batch, ok := gen.NextBatch(128)
		require.True(t, ok)
		require.Len(t, batch, 128)

		symbolID := batch[0].SymbolID
		prevTS := batch[0].Timestamp
		for _, tk := range batch {
			require.Equal(t, symbolID, tk.SymbolID)
			require.GreaterOrEqual(t, tk.Timestamp, prevTS)
			prevTS = tk.Timestamp

			require.Greater(t, tk.AskPrice, tk.BidPrice)
			require.Greater(t, tk.BidSize, uint32(0))
			require.Greater(t, tk.AskSize, uint32(0))
		}
	}
}

func TestGenerator_RoundRobinSymbols(t *testing.T) {
	gen := NewGenerator(WithSeed(2))

	first, ok := gen.NextBatch(4)
	require.True(t, ok)
	second, ok := gen.NextBatch(4)
	require.True(t, ok)
	third, ok := gen.NextBatch(4)
	require.True(t, ok)

	require.Equal(t, uint32(0), first[0].SymbolID)
	require.Equal(t, uint32(1), second[0].SymbolID)
	require.Equal(t, uint32(0), third[0].SymbolID)

	// The clock is global: the third batch continues after the second.
	require.Greater(t, third[0].Timestamp, second[len(second)-1].Timestamp)
}

func TestGenerator_DeterministicUnderSeed(t *testing.T) {
	a := NewGenerator(WithSeed(42))
	b := NewGenerator(WithSeed(42))

	for i := 0; i < 5; i++ {
		batchA, okA := a.NextBatch(64)
		batchB, okB := b.NextBatch(64)
		require.Equal(t, okA, okB)
		require.Equal(t, batchA, batchB)
	}
}

func TestGenerator_BatchLimit(t *testing.T) {
	gen := NewGenerator(WithSeed(3), WithBatchLimit(2))

	_, ok := gen.NextBatch(8)
	require.True(t, ok)
	_, ok = gen.NextBatch(8)
	require.True(t, ok)
	_, ok = gen.NextBatch(8)
	require.False(t, ok)
}

func TestGenerator_CustomSymbols(t *testing.T) {
	symbols := []Symbol{
		NewSymbol("MSFT", 400.0, 0.03),
		NewSymbol("TSLA", 250.0, 0.10),
	}
	require.NotEqual(t, symbols[0].ID, symbols[1].ID)

	gen := NewGenerator(WithSeed(4), WithSymbols(symbols))

	batch, ok := gen.NextBatch(16)
	require.True(t, ok)
	require.Equal(t, symbols[0].ID, batch[0].SymbolID)
	require.InDelta(t, 400.0, batch[0].BidPrice, 1.0)
}
