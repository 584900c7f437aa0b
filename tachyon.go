// Package tachyon provides a distributed, in-memory store and query engine
// for high-frequency market ticks.
//
// Raw ticks are ingested in single-symbol batches, partitioned by symbol
// across workers, compressed into fixed-capacity columnar blocks
// (delta-of-delta timestamps, XOR-coded prices, varint sizes), and queried
// through a scatter/gather protocol driven by a coordinator.
//
// # Basic Usage
//
// Running an in-process cluster:
//
//	import "github.com/arloliu/tachyon"
//
//	cluster, _ := tachyon.NewCluster(4)
//	cluster.Start(ctx)
//	defer cluster.Shutdown()
//
//	src := source.NewGenerator(source.WithSeed(1), source.WithBatchLimit(10))
//	cluster.Ingest(ctx, src, 4096)
//
//	res, _ := cluster.Query(ctx, query.Query{
//	    Type:      format.QueryVWAP,
//	    StartTime: 0,
//	    EndTime:   math.MaxUint64,
//	    SymbolID:  0, // AAPL in the generator's default universe
//	})
//	fmt.Println(res)
//
// # Package Structure
//
// This package wires the pieces together for the common in-process case.
// The underlying packages compose directly for anything finer-grained:
// bitstream and block for the codec, store and query for a single worker,
// cluster for the protocol over a custom transport.
package tachyon

import (
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/tachyon/cluster"
	"github.com/arloliu/tachyon/internal/hash"
	"github.com/arloliu/tachyon/query"
	"github.com/arloliu/tachyon/source"
)

// SymbolID derives a 32-bit symbol ID from an instrument name via xxHash64.
func SymbolID(name string) uint32 {
	return hash.SymbolID(name)
}

// Cluster runs one coordinator and a set of workers in-process over a
// channel transport. It exists for the CLI, tests, and embedding; the
// cluster package's Coordinator and Worker run just as well across real
// processes given a conforming Transport.
type Cluster struct {
	transport   *cluster.ChanTransport
	coordinator *cluster.Coordinator
	workers     []*cluster.Worker

	wg       sync.WaitGroup
	mu       sync.Mutex
	runErrs  []error
	started  bool
	shutdown bool
}

// NewCluster creates a cluster with numWorkers workers. Options configure
// the coordinator; workers take defaults.
func NewCluster(numWorkers int, opts ...cluster.CoordinatorOption) (*Cluster, error) {
	transport := cluster.NewChanTransport(numWorkers)

	coordEP, err := transport.Endpoint(0)
	if err != nil {
		return nil, err
	}
	coordinator, err := cluster.NewCoordinator(coordEP, numWorkers, opts...)
	if err != nil {
		return nil, err
	}

	c := &Cluster{
		transport:   transport,
		coordinator: coordinator,
	}
	for rank := 1; rank <= numWorkers; rank++ {
		ep, err := transport.Endpoint(rank)
		if err != nil {
			return nil, err
		}
		c.workers = append(c.workers, cluster.NewWorker(rank, ep))
	}

	return c, nil
}

// Start launches the worker goroutines. It must be called once, before
// Ingest.
func (c *Cluster) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true

	for _, w := range c.workers {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := w.Run(ctx); err != nil {
				c.mu.Lock()
				c.runErrs = append(c.runErrs, err)
				c.mu.Unlock()
			}
		}()
	}
}

// Ingest scatters src's batches across the workers and closes the ingest
// phase with an END fan-out.
func (c *Cluster) Ingest(ctx context.Context, src source.Source, maxTicksPerBatch int) (cluster.IngestStats, error) {
	return c.coordinator.Ingest(ctx, src, maxTicksPerBatch)
}

// Query broadcasts q and merges the workers' partials. Ingest must have
// completed first.
func (c *Cluster) Query(ctx context.Context, q query.Query) (query.Result, error) {
	return c.coordinator.Query(ctx, q)
}

// Shutdown closes the transport, waits for the workers to exit, and
// returns the first worker failure, if any.
func (c *Cluster) Shutdown() error {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return nil
	}
	c.shutdown = true
	c.mu.Unlock()

	c.transport.Close()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.runErrs) > 0 {
		return fmt.Errorf("%d worker(s) failed, first: %w", len(c.runErrs), c.runErrs[0])
	}

	return nil
}
