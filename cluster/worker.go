package cluster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/arloliu/tachyon/errs"
	"github.com/arloliu/tachyon/query"
	"github.com/arloliu/tachyon/store"
)

// Worker is a rank >= 1 process: it ingests the batches routed to it into
// its own LocalStore, then serves query broadcasts until the transport
// shuts down.
//
// A worker exclusively owns its store; there is no shared mutable state
// between ranks.
type Worker struct {
	rank      int
	transport Transport
	store     *store.LocalStore
	engine    *query.Engine
	logger    *log.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithLogger sets the logger for ingest summaries and decode failures. The
// default discards everything.
func WithLogger(logger *log.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// NewWorker creates a worker for rank speaking to the coordinator over t.
func NewWorker(rank int, t Transport, opts ...WorkerOption) *Worker {
	st := store.NewLocalStore()
	w := &Worker{
		rank:      rank,
		transport: t,
		store:     st,
		engine:    query.NewEngine(st),
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Store exposes the worker's local store, for inspection in tests and
// tooling. The worker goroutine owns it; do not touch it while Run is
// ingesting.
func (w *Worker) Store() *store.LocalStore {
	return w.store
}

// Run executes the worker's half of the protocol: ingest until END, then
// answer every query broadcast with exactly one partial.
//
// Run returns nil when the transport closes or ctx is canceled after the
// ingest phase completes; both are the cluster's normal shutdown paths. A
// query decode failure on a block is fatal for that query only: the worker
// logs it and replies with an empty partial of the query's type.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.ingestLoop(ctx); err != nil {
		if errors.Is(err, errs.ErrTransportClosed) || errors.Is(err, context.Canceled) {
			return nil
		}

		return fmt.Errorf("worker %d ingest: %w", w.rank, err)
	}

	for _, symbolID := range w.store.Symbols() {
		w.logger.Printf("worker %d: %d blocks (%d ticks) for symbol %d",
			w.rank, w.store.BlockCount(symbolID), w.store.TickCount(symbolID), symbolID)
	}

	for {
		if err := w.serveQuery(ctx); err != nil {
			if errors.Is(err, errs.ErrTransportClosed) || errors.Is(err, context.Canceled) {
				return nil
			}

			return fmt.Errorf("worker %d query: %w", w.rank, err)
		}
	}
}

// ingestLoop consumes DATA messages into the local store until END. The
// worker sends nothing during ingest.
func (w *Worker) ingestLoop(ctx context.Context) error {
	for {
		tag, payload, err := w.transport.Recv(ctx, 0)
		if err != nil {
			return err
		}

		switch tag {
		case TagEnd:
			return nil
		case TagData:
			batch, err := DecodeDataFrame(payload)
			if err != nil {
				return err
			}
			if err := w.store.Ingest(batch); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unexpected %s during ingest", errs.ErrInvalidFrame, tag)
		}
	}
}

func (w *Worker) serveQuery(ctx context.Context) error {
	payload, err := w.transport.RecvBroadcast(ctx)
	if err != nil {
		return err
	}

	q, err := DecodeQueryFrame(payload)
	if err != nil {
		return err
	}

	partial, execErr := w.engine.Execute(q)
	if execErr != nil {
		// Fatal for this query on this worker: report the empty partial so
		// the gather still completes, and log the cause.
		w.logger.Printf("worker %d: query %s on symbol %d failed: %v",
			w.rank, q.Type, q.SymbolID, execErr)
		partial = query.NewPartial(q.Type)
	}

	return w.transport.Send(ctx, 0, TagPart, EncodePartFrame(partial))
}
