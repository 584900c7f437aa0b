package cluster

import (
	"context"
	"fmt"

	"github.com/arloliu/tachyon/errs"
	"github.com/arloliu/tachyon/format"
	"github.com/arloliu/tachyon/internal/hash"
	"github.com/arloliu/tachyon/query"
	"github.com/arloliu/tachyon/source"
)

// Partitioner maps a symbol ID to a worker rank in [1, numWorkers].
//
// Every tick of one symbol must map to the same worker for the lifetime of
// the cluster; there is no re-sharding after ingest.
type Partitioner func(symbolID uint32, numWorkers int) int

// ModuloPartitioner is the default: rank = (symbolID mod numWorkers) + 1.
func ModuloPartitioner(symbolID uint32, numWorkers int) int {
	return int(symbolID%uint32(numWorkers)) + 1
}

// HashPartitioner re-hashes the symbol ID before taking the modulo, which
// spreads dense sequential IDs and hashed symbol-name IDs evenly.
func HashPartitioner(symbolID uint32, numWorkers int) int {
	return hash.WorkerFor(symbolID, numWorkers)
}

// Coordinator is rank 0: it pulls batches from a source, scatters them to
// workers by symbol, broadcasts queries, and gathers and merges partials.
type Coordinator struct {
	transport   Transport
	numWorkers  int
	partition   Partitioner
	compression format.CompressionType
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithPartitioner replaces the default modulo partitioner.
func WithPartitioner(p Partitioner) CoordinatorOption {
	return func(c *Coordinator) {
		c.partition = p
	}
}

// WithCompression sets the codec used for DATA frame bodies.
func WithCompression(compression format.CompressionType) CoordinatorOption {
	return func(c *Coordinator) {
		c.compression = compression
	}
}

// NewCoordinator creates a coordinator speaking to numWorkers workers over t.
func NewCoordinator(t Transport, numWorkers int, opts ...CoordinatorOption) (*Coordinator, error) {
	if numWorkers < 1 {
		return nil, fmt.Errorf("%w: %d workers", errs.ErrInvalidRank, numWorkers)
	}

	c := &Coordinator{
		transport:   t,
		numWorkers:  numWorkers,
		partition:   ModuloPartitioner,
		compression: format.CompressionNone,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// IngestStats summarizes one ingest phase.
type IngestStats struct {
	Batches int
	Ticks   int
}

// Ingest pulls batches from src until exhaustion, routing each to the
// worker owning its symbol, then fans out END to every worker.
//
// Empty batches are skipped. Because each per-worker link preserves order,
// a worker's ingest sequence for any one symbol matches the send order
// here. The END fan-out closes the ingest phase: a worker only reads the
// query broadcast after END, which is the protocol's phase barrier.
func (c *Coordinator) Ingest(ctx context.Context, src source.Source, maxTicksPerBatch int) (IngestStats, error) {
	var stats IngestStats

	for {
		batch, ok := src.NextBatch(maxTicksPerBatch)
		if !ok {
			break
		}
		if len(batch) == 0 {
			continue
		}

		frame, err := EncodeDataFrame(batch, c.compression)
		if err != nil {
			return stats, err
		}

		target := c.partition(batch[0].SymbolID, c.numWorkers)
		if err := c.transport.Send(ctx, target, TagData, frame); err != nil {
			return stats, err
		}

		stats.Batches++
		stats.Ticks += len(batch)
	}

	for rank := 1; rank <= c.numWorkers; rank++ {
		if err := c.transport.Send(ctx, rank, TagEnd, nil); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// Query broadcasts q, gathers exactly one partial from every worker, and
// merges them into the final result.
//
// Partials may arrive in any order across links. Every partial must carry
// q's type; a mismatch aborts the query with errs.ErrTypeMismatch. A worker
// that never replies blocks the gather until ctx is canceled.
func (c *Coordinator) Query(ctx context.Context, q query.Query) (query.Result, error) {
	if err := c.transport.Broadcast(ctx, EncodeQueryFrame(q)); err != nil {
		return query.Result{}, err
	}

	parts := make([]query.Partial, 0, c.numWorkers)
	for rank := 1; rank <= c.numWorkers; rank++ {
		tag, payload, err := c.transport.Recv(ctx, rank)
		if err != nil {
			return query.Result{}, err
		}
		if tag != TagPart {
			return query.Result{}, fmt.Errorf("%w: worker %d sent %s during gather",
				errs.ErrInvalidFrame, rank, tag)
		}

		part, err := DecodePartFrame(payload)
		if err != nil {
			return query.Result{}, fmt.Errorf("worker %d: %w", rank, err)
		}
		parts = append(parts, part)
	}

	return query.Merge(q, parts)
}
