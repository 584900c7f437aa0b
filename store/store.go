// Package store provides the per-worker, in-memory mapping from symbol to
// its append-only sequence of compressed blocks.
package store

import (
	"errors"

	"github.com/arloliu/tachyon/block"
	"github.com/arloliu/tachyon/errs"
	"github.com/arloliu/tachyon/tick"
)

// LocalStore maps each symbol to the blocks ingested for it, in insertion
// order. Blocks are append-only; nothing is mutated or deleted until the
// store itself is dropped.
//
// A LocalStore is owned by a single worker and is not safe for concurrent
// use.
type LocalStore struct {
	blocks map[uint32][]*block.Block
}

// NewLocalStore creates an empty store.
func NewLocalStore() *LocalStore {
	return &LocalStore{
		blocks: make(map[uint32][]*block.Block),
	}
}

// Ingest compresses a batch into a block and appends it under the batch's
// symbol. An empty batch is a no-op. The batch must satisfy the block codec
// preconditions (single symbol, non-decreasing timestamps); violations are
// returned unchanged.
func (s *LocalStore) Ingest(batch []tick.Raw) error {
	blk, err := block.Compress(batch)
	if err != nil {
		if errors.Is(err, errs.ErrEmptyBatch) {
			return nil
		}

		return err
	}

	s.blocks[blk.SymbolID()] = append(s.blocks[blk.SymbolID()], blk)

	return nil
}

// Append adds an already-compressed block, preserving insertion order.
func (s *LocalStore) Append(blk *block.Block) {
	s.blocks[blk.SymbolID()] = append(s.blocks[blk.SymbolID()], blk)
}

// BlocksFor returns the symbol's blocks whose [start, end] range overlaps
// the inclusive window [lo, hi], in insertion order.
//
// Overlap pruning is sound, not exact: a returned block may still contain no
// tick inside the window.
func (s *LocalStore) BlocksFor(symbolID uint32, lo, hi uint64) []*block.Block {
	all := s.blocks[symbolID]

	var matched []*block.Block
	for _, blk := range all {
		if blk.OverlapsWith(lo, hi) {
			matched = append(matched, blk)
		}
	}

	return matched
}

// Symbols returns the symbol IDs with at least one block. Order is
// unspecified.
func (s *LocalStore) Symbols() []uint32 {
	out := make([]uint32, 0, len(s.blocks))
	for id := range s.blocks {
		out = append(out, id)
	}

	return out
}

// BlockCount returns the number of blocks stored for a symbol.
func (s *LocalStore) BlockCount(symbolID uint32) int {
	return len(s.blocks[symbolID])
}

// TickCount returns the total number of ticks stored for a symbol.
func (s *LocalStore) TickCount(symbolID uint32) uint64 {
	var n uint64
	for _, blk := range s.blocks[symbolID] {
		n += uint64(blk.NumTicks())
	}

	return n
}
