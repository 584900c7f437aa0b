package query

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tachyon/format"
	"github.com/arloliu/tachyon/tick"
)

// s1Ticks is the three-tick fixture shared by the spread and VWAP tests.
func s1Ticks() []tick.Raw {
	return []tick.Raw{
		{Timestamp: 100, SymbolID: 0, BidPrice: 10.00, AskPrice: 10.02, BidSize: 1, AskSize: 1},
		{Timestamp: 200, SymbolID: 0, BidPrice: 10.00, AskPrice: 10.02, BidSize: 1, AskSize: 1},
		{Timestamp: 350, SymbolID: 0, BidPrice: 10.01, AskPrice: 10.03, BidSize: 2, AskSize: 2},
	}
}

func wideQuery(typ format.QueryType) Query {
	return Query{Type: typ, StartTime: 0, EndTime: math.MaxUint64, SymbolID: 0}
}

func TestAggregator_AvgSpread(t *testing.T) {
	agg := NewAggregator(wideQuery(format.QueryAvgSpread))
	for _, tk := range s1Ticks() {
		agg.Observe(tk)
	}

	p := agg.Partial()
	require.Equal(t, format.QueryAvgSpread, p.Type)
	require.Equal(t, uint64(3), p.Count)
	require.InDelta(t, 0.02, p.Sum/float64(p.Count), 1e-12)
}

func TestAggregator_VWAP(t *testing.T) {
	agg := NewAggregator(wideQuery(format.QueryVWAP))
	for _, tk := range s1Ticks() {
		agg.Observe(tk)
	}

	p := agg.Partial()
	require.Equal(t, uint64(8), p.Count)
	require.InDelta(t, 80.12, p.Sum, 1e-9)
	require.InDelta(t, 10.015, p.Sum/float64(p.Count), 1e-12)
}

func TestAggregator_VWAPSkipsZeroVolume(t *testing.T) {
	agg := NewAggregator(wideQuery(format.QueryVWAP))
	agg.Observe(tick.Raw{Timestamp: 1, BidPrice: 10, AskPrice: 10.1, BidSize: 0, AskSize: 0})

	p := agg.Partial()
	require.Equal(t, uint64(0), p.Count)
	require.Equal(t, 0.0, p.Sum)
}

// TestAggregator_OHLCOutOfOrder feeds ticks out of timestamp order; open
// and close must come from the extremal timestamps, not observation order.
func TestAggregator_OHLCOutOfOrder(t *testing.T) {
	agg := NewAggregator(wideQuery(format.QueryOHLC))

	mids := []struct {
		ts  uint64
		mid float64
	}{
		{300, 5.0}, {400, 7.0}, {100, 6.0}, {200, 4.0},
	}
	for _, m := range mids {
		agg.Observe(tick.Raw{Timestamp: m.ts, BidPrice: m.mid, AskPrice: m.mid, BidSize: 1, AskSize: 1})
	}

	o := agg.Partial().OHLC
	require.True(t, o.IsSet)
	require.Equal(t, 6.0, o.Open)
	require.Equal(t, 7.0, o.High)
	require.Equal(t, 4.0, o.Low)
	require.Equal(t, 7.0, o.Close)
	require.Equal(t, uint64(100), o.OpenTS)
	require.Equal(t, uint64(400), o.CloseTS)
}

func TestAggregator_EmptyPartial(t *testing.T) {
	for _, typ := range []format.QueryType{format.QueryAvgSpread, format.QueryVWAP, format.QueryOHLC} {
		p := NewAggregator(wideQuery(typ)).Partial()
		require.Equal(t, typ, p.Type)
		require.Equal(t, uint64(0), p.Count)
		require.False(t, p.OHLC.IsSet)
	}
}

func TestQuery_Matches(t *testing.T) {
	q := Query{StartTime: 10, EndTime: 20}

	require.True(t, q.Matches(10))
	require.True(t, q.Matches(20))
	require.False(t, q.Matches(9))
	require.False(t, q.Matches(21))
}

func TestResult_String(t *testing.T) {
	require.Contains(t, Result{Type: format.QueryVWAP, NoData: true}.String(), "no data")
	require.Contains(t, Result{Type: format.QueryAvgSpread, Value: 0.02, Count: 3}.String(), "3 ticks")

	ohlc := Result{Type: format.QueryOHLC, OHLC: OHLCState{Open: 1, High: 2, Low: 0.5, Close: 1.5, IsSet: true}}
	require.Contains(t, ohlc.String(), "open=1.000000")
}
