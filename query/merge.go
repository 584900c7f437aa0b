package query

import (
	"fmt"

	"github.com/arloliu/tachyon/errs"
	"github.com/arloliu/tachyon/format"
)

// Merge combines worker partials into the final result for q. Arrival order
// does not matter.
//
// Every partial must carry q's type; a mismatch aborts the merge with
// errs.ErrTypeMismatch. For AvgSpread and VWAP the result is the ratio of
// summed numerators to summed denominators; for OHLC the set partials are
// folded with high = max, low = min, open from the smallest open timestamp
// and close from the largest close timestamp. NoData is set when no partial
// observed a matching tick.
func Merge(q Query, parts []Partial) (Result, error) {
	res := Result{Type: q.Type, OHLC: newOHLCState()}

	for i, p := range parts {
		if p.Type != q.Type {
			return Result{}, fmt.Errorf("%w: partial %d has type %s, query type %s",
				errs.ErrTypeMismatch, i, p.Type, q.Type)
		}

		switch q.Type {
		case format.QueryAvgSpread, format.QueryVWAP:
			res.Value += p.Sum
			res.Count += p.Count
		case format.QueryOHLC:
			res.OHLC.merge(p.OHLC)
		default:
			return Result{}, fmt.Errorf("%w: %d", errs.ErrUnknownQueryType, q.Type)
		}
	}

	switch q.Type {
	case format.QueryAvgSpread, format.QueryVWAP:
		if res.Count == 0 {
			res.Value = 0
			res.NoData = true

			break
		}
		res.Value /= float64(res.Count)
	case format.QueryOHLC:
		res.NoData = !res.OHLC.IsSet
	}

	return res, nil
}
