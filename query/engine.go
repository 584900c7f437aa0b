package query

import (
	"fmt"

	"github.com/arloliu/tachyon/block"
	"github.com/arloliu/tachyon/errs"
	"github.com/arloliu/tachyon/store"
)

// Engine executes queries against one worker's LocalStore.
type Engine struct {
	store *store.LocalStore
}

// NewEngine creates an engine over a store.
func NewEngine(s *store.LocalStore) *Engine {
	return &Engine{store: s}
}

// Execute scans the store's overlapping blocks for q's symbol, folds every
// tick inside the query window into an aggregator, and returns the partial.
//
// A block decode failure is fatal for this query on this worker: Execute
// returns the empty partial together with the error, so the caller can log
// the failure and still reply with a well-formed (empty) partial.
func (e *Engine) Execute(q Query) (Partial, error) {
	if !q.Type.Valid() {
		return NewPartial(q.Type), fmt.Errorf("%w: %d", errs.ErrUnknownQueryType, q.Type)
	}

	agg := NewAggregator(q)
	for _, blk := range e.store.BlocksFor(q.SymbolID, q.StartTime, q.EndTime) {
		if err := e.scanBlock(blk, q, agg); err != nil {
			return NewPartial(q.Type), err
		}
	}

	return agg.Partial(), nil
}

func (e *Engine) scanBlock(blk *block.Block, q Query, agg *Aggregator) error {
	s := block.NewScanner(blk)
	for s.HasNext() {
		t, err := s.Next()
		if err != nil {
			return err
		}
		if q.Matches(t.Timestamp) {
			agg.Observe(t)
		}
	}

	return nil
}
