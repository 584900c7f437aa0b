// Package query defines tachyon's aggregate queries, the per-tick
// aggregators workers run, and the merge rules the coordinator applies to
// worker partials.
//
// Three query kinds are supported over an inclusive time window for one
// symbol:
//
//   - AvgSpread: mean of (ask - bid) over matching ticks;
//   - VWAP: volume-weighted average mid price, weighted by bid+ask size;
//   - OHLC: open/high/low/close mid prices, ordered by tick timestamp.
//
// A Partial carries one worker's contribution. Sum and Count are overloaded
// by kind: for AvgSpread, Count is the number of matching ticks; for VWAP it
// is aggregate volume. The Type tag discriminates at merge time.
package query

import (
	"fmt"
	"math"

	"github.com/arloliu/tachyon/format"
	"github.com/arloliu/tachyon/tick"
)

// Query selects ticks of one symbol inside [StartTime, EndTime] (inclusive
// on both ends) and names the aggregate to compute over them.
type Query struct {
	Type      format.QueryType
	StartTime uint64
	EndTime   uint64
	SymbolID  uint32
}

// Matches reports whether a timestamp falls inside the query window.
func (q Query) Matches(ts uint64) bool {
	return ts >= q.StartTime && ts <= q.EndTime
}

// OHLCState tracks open/high/low/close mid prices together with the
// timestamps the open and close were observed at.
//
// The extremal timestamps make the state mergeable: worker-local blocks are
// appended in ingest order, which need not be timestamp order, so open and
// close are defined by the globally smallest and largest matching
// timestamps rather than by scan order.
type OHLCState struct {
	Open  float64
	High  float64
	Low   float64
	Close float64

	OpenTS  uint64
	CloseTS uint64

	IsSet bool
}

// newOHLCState returns the unset state. The infinity bounds mean High/Low
// folds are safe even before the first observation, though every consumer
// also guards on IsSet.
func newOHLCState() OHLCState {
	return OHLCState{
		Open:   0,
		High:   math.Inf(-1),
		Low:    math.Inf(1),
		Close:  0,
		OpenTS: math.MaxUint64,
	}
}

// observe folds one mid price at one timestamp into the state.
func (o *OHLCState) observe(ts uint64, mid float64) {
	if !o.IsSet {
		o.Open = mid
		o.High = mid
		o.Low = mid
		o.Close = mid
		o.OpenTS = ts
		o.CloseTS = ts
		o.IsSet = true

		return
	}

	o.High = math.Max(o.High, mid)
	o.Low = math.Min(o.Low, mid)
	if ts < o.OpenTS {
		o.OpenTS = ts
		o.Open = mid
	}
	if ts > o.CloseTS {
		o.CloseTS = ts
		o.Close = mid
	}
}

// merge folds another state into o. Unset inputs are ignored.
func (o *OHLCState) merge(other OHLCState) {
	if !other.IsSet {
		return
	}
	if !o.IsSet {
		*o = other

		return
	}

	o.High = math.Max(o.High, other.High)
	o.Low = math.Min(o.Low, other.Low)
	if other.OpenTS < o.OpenTS {
		o.OpenTS = other.OpenTS
		o.Open = other.Open
	}
	if other.CloseTS > o.CloseTS {
		o.CloseTS = other.CloseTS
		o.Close = other.Close
	}
}

// Partial is one worker's contribution to a query, merged by the
// coordinator.
type Partial struct {
	Type  format.QueryType
	Sum   float64
	Count uint64
	OHLC  OHLCState
}

// NewPartial returns the empty partial for a query type. A worker with no
// matching ticks returns it unchanged: Count stays zero and OHLC stays
// unset.
func NewPartial(typ format.QueryType) Partial {
	return Partial{
		Type: typ,
		OHLC: newOHLCState(),
	}
}

// Aggregator accumulates matching ticks into a Partial, keyed on the query
// type.
type Aggregator struct {
	q       Query
	partial Partial
}

// NewAggregator creates an aggregator for q starting from the empty partial.
func NewAggregator(q Query) *Aggregator {
	return &Aggregator{
		q:       q,
		partial: NewPartial(q.Type),
	}
}

// Observe folds one tick into the partial. The caller has already filtered
// on the query window.
func (a *Aggregator) Observe(t tick.Raw) {
	switch a.q.Type {
	case format.QueryAvgSpread:
		a.partial.Sum += t.Spread()
		a.partial.Count++
	case format.QueryVWAP:
		vol := t.Volume()
		if vol > 0 {
			a.partial.Sum += t.Mid() * float64(vol)
			a.partial.Count += vol
		}
	case format.QueryOHLC:
		a.partial.OHLC.observe(t.Timestamp, t.Mid())
	}
}

// Partial returns the accumulated partial result.
func (a *Aggregator) Partial() Partial {
	return a.partial
}

// Result is the coordinator's merged answer to a query.
//
// For AvgSpread and VWAP, Value holds the ratio and Count the denominator
// (ticks or aggregate volume). For OHLC, the OHLC field holds the answer.
// NoData is set when no worker observed a matching tick.
type Result struct {
	Type   format.QueryType
	Value  float64
	Count  uint64
	OHLC   OHLCState
	NoData bool
}

func (r Result) String() string {
	if r.NoData {
		return fmt.Sprintf("%s: no data", r.Type)
	}

	switch r.Type {
	case format.QueryAvgSpread:
		return fmt.Sprintf("%s: %.6f over %d ticks", r.Type, r.Value, r.Count)
	case format.QueryVWAP:
		return fmt.Sprintf("%s: %.6f over volume %d", r.Type, r.Value, r.Count)
	case format.QueryOHLC:
		return fmt.Sprintf("%s: open=%.6f high=%.6f low=%.6f close=%.6f",
			r.Type, r.OHLC.Open, r.OHLC.High, r.OHLC.Low, r.OHLC.Close)
	default:
		return "unknown query type"
	}
}
