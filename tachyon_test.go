package tachyon

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tachyon/cluster"
	"github.com/arloliu/tachyon/format"
	"github.com/arloliu/tachyon/query"
	"github.com/arloliu/tachyon/source"
)

func TestSymbolID_Deterministic(t *testing.T) {
	require.Equal(t, SymbolID("AAPL"), SymbolID("AAPL"))
	require.NotEqual(t, SymbolID("AAPL"), SymbolID("GOOG"))
}

func TestCluster_EndToEnd(t *testing.T) {
	ctx := context.Background()

	c, err := NewCluster(3, cluster.WithCompression(format.CompressionS2))
	require.NoError(t, err)
	c.Start(ctx)

	src := source.NewGenerator(source.WithSeed(42), source.WithBatchLimit(10))
	stats, err := c.Ingest(ctx, src, 1024)
	require.NoError(t, err)
	require.Equal(t, 10, stats.Batches)
	require.Equal(t, 10*1024, stats.Ticks)

	wide := func(typ format.QueryType, symbolID uint32) query.Query {
		return query.Query{Type: typ, StartTime: 0, EndTime: math.MaxUint64, SymbolID: symbolID}
	}

	// AAPL quotes around 150 with a 0.02 spread in the default universe.
	res, err := c.Query(ctx, wide(format.QueryAvgSpread, 0))
	require.NoError(t, err)
	require.False(t, res.NoData)
	require.Equal(t, uint64(5*1024), res.Count)
	require.InDelta(t, 0.02, res.Value, 1e-9)

	res, err = c.Query(ctx, wide(format.QueryVWAP, 0))
	require.NoError(t, err)
	require.False(t, res.NoData)
	require.InDelta(t, 150.0, res.Value, 5.0)

	res, err = c.Query(ctx, wide(format.QueryOHLC, 0))
	require.NoError(t, err)
	require.False(t, res.NoData)
	require.GreaterOrEqual(t, res.OHLC.High, res.OHLC.Low)
	require.GreaterOrEqual(t, res.OHLC.High, res.OHLC.Open)
	require.GreaterOrEqual(t, res.OHLC.High, res.OHLC.Close)
	require.LessOrEqual(t, res.OHLC.Low, res.OHLC.Open)
	require.LessOrEqual(t, res.OHLC.Low, res.OHLC.Close)

	// GOOG lives on a different worker under the modulo partitioner.
	res, err = c.Query(ctx, wide(format.QueryOHLC, 1))
	require.NoError(t, err)
	require.False(t, res.NoData)

	// An unknown symbol is no data, not an error.
	res, err = c.Query(ctx, wide(format.QueryVWAP, 12345))
	require.NoError(t, err)
	require.True(t, res.NoData)

	require.NoError(t, c.Shutdown())
	require.NoError(t, c.Shutdown())
}

func TestCluster_HashPartitioner(t *testing.T) {
	ctx := context.Background()

	c, err := NewCluster(2, cluster.WithPartitioner(cluster.HashPartitioner))
	require.NoError(t, err)
	c.Start(ctx)

	symbols := []source.Symbol{
		source.NewSymbol("MSFT", 400.0, 0.03),
		source.NewSymbol("TSLA", 250.0, 0.10),
	}
	src := source.NewGenerator(
		source.WithSeed(7),
		source.WithSymbols(symbols),
		source.WithBatchLimit(4),
	)

	_, err = c.Ingest(ctx, src, 256)
	require.NoError(t, err)

	for _, sym := range symbols {
		res, err := c.Query(ctx, query.Query{
			Type:      format.QueryOHLC,
			StartTime: 0,
			EndTime:   math.MaxUint64,
			SymbolID:  sym.ID,
		})
		require.NoError(t, err)
		require.False(t, res.NoData, "symbol %s", sym.Name)
	}

	require.NoError(t, c.Shutdown())
}
