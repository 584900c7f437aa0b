// Package cluster implements tachyon's scatter/gather protocol: a
// coordinator (rank 0) distributes tick batches to workers (ranks 1..N) by
// symbol, broadcasts queries, and merges the partial results workers send
// back.
//
// Transport is abstract: any reliable, per-link-ordered typed messenger
// works. The in-process ChanTransport is the reference implementation and
// what the CLI and tests run on.
package cluster

import (
	"context"
	"fmt"

	"github.com/arloliu/tachyon/errs"
)

// Tag identifies the kind of a one-to-one message.
type Tag uint8

const (
	// TagData carries a tick batch from the coordinator to one worker.
	TagData Tag = 0
	// TagEnd tells a worker no more TagData messages will arrive.
	TagEnd Tag = 1
	// TagPart carries a partial result from a worker to the coordinator.
	TagPart Tag = 2
)

func (t Tag) String() string {
	switch t {
	case TagData:
		return "DATA"
	case TagEnd:
		return "END"
	case TagPart:
		return "PART"
	default:
		return "Unknown"
	}
}

// Transport is one rank's view of a reliable typed message bus.
//
// Guarantees the protocol relies on: per-link (coordinator to one worker)
// message order is preserved, broadcasts are delivered exactly once per
// worker, and delivery is reliable. There is no ordering between different
// links.
type Transport interface {
	// Send delivers a tagged payload to one rank. It blocks until the
	// message is queued on the link.
	Send(ctx context.Context, rank int, tag Tag, payload []byte) error

	// Recv returns the next message on the link from rank, blocking until
	// one arrives.
	Recv(ctx context.Context, rank int) (Tag, []byte, error)

	// Broadcast delivers a query payload from the coordinator to every
	// worker. Only rank 0 may call it.
	Broadcast(ctx context.Context, payload []byte) error

	// RecvBroadcast returns the next broadcast payload. Only workers may
	// call it.
	RecvBroadcast(ctx context.Context) ([]byte, error)
}

type message struct {
	tag     Tag
	payload []byte
}

// ChanTransport is an in-process Transport connecting one coordinator
// goroutine with numWorkers worker goroutines over buffered channels.
//
// Each link is a single channel, so per-link FIFO ordering is inherited
// from channel semantics. Broadcasts use a dedicated per-worker channel,
// which a worker only reads after leaving its ingest loop; that read order
// is the protocol's phase barrier.
type ChanTransport struct {
	numWorkers int
	toWorker   []chan message // coordinator -> worker, indexed by rank
	toCoord    []chan message // worker -> coordinator, indexed by rank
	bcast      []chan []byte  // coordinator -> worker broadcasts, indexed by rank
	done       chan struct{}
}

const linkBufferSize = 64

// NewChanTransport creates a transport for one coordinator and numWorkers
// workers. Panics if numWorkers < 1, matching the original's refusal to run
// without workers.
func NewChanTransport(numWorkers int) *ChanTransport {
	if numWorkers < 1 {
		panic("cluster: need at least one worker")
	}

	t := &ChanTransport{
		numWorkers: numWorkers,
		toWorker:   make([]chan message, numWorkers+1),
		toCoord:    make([]chan message, numWorkers+1),
		bcast:      make([]chan []byte, numWorkers+1),
		done:       make(chan struct{}),
	}
	for rank := 1; rank <= numWorkers; rank++ {
		t.toWorker[rank] = make(chan message, linkBufferSize)
		t.toCoord[rank] = make(chan message, linkBufferSize)
		t.bcast[rank] = make(chan []byte, 1)
	}

	return t
}

// NumWorkers returns the number of worker ranks.
func (t *ChanTransport) NumWorkers() int {
	return t.numWorkers
}

// Close shuts the transport down. Blocked sends and receives fail with
// errs.ErrTransportClosed; a later call whose channel is also ready (a
// queued message, or free buffer space) may still complete. Close must be
// called at most once: a second call panics. The cluster runner owns
// shutdown.
func (t *ChanTransport) Close() {
	close(t.done)
}

// Endpoint returns rank's view of the transport.
func (t *ChanTransport) Endpoint(rank int) (*Endpoint, error) {
	if rank < 0 || rank > t.numWorkers {
		return nil, fmt.Errorf("%w: rank %d of %d workers", errs.ErrInvalidRank, rank, t.numWorkers)
	}

	return &Endpoint{transport: t, rank: rank}, nil
}

// Endpoint is one rank's handle on a ChanTransport.
type Endpoint struct {
	transport *ChanTransport
	rank      int
}

var _ Transport = (*Endpoint)(nil)

// Rank returns the endpoint's rank; 0 is the coordinator.
func (e *Endpoint) Rank() int {
	return e.rank
}

func (e *Endpoint) link(peer int, sending bool) (chan message, error) {
	t := e.transport
	if e.rank == 0 {
		if peer < 1 || peer > t.numWorkers {
			return nil, fmt.Errorf("%w: worker rank %d", errs.ErrInvalidRank, peer)
		}
		if sending {
			return t.toWorker[peer], nil
		}

		return t.toCoord[peer], nil
	}

	if peer != 0 {
		return nil, fmt.Errorf("%w: workers only talk to rank 0, got %d", errs.ErrInvalidRank, peer)
	}
	if sending {
		return t.toCoord[e.rank], nil
	}

	return t.toWorker[e.rank], nil
}

// Send delivers a tagged payload to peer over the link's FIFO channel.
func (e *Endpoint) Send(ctx context.Context, peer int, tag Tag, payload []byte) error {
	ch, err := e.link(peer, true)
	if err != nil {
		return err
	}

	select {
	case ch <- message{tag: tag, payload: payload}:
		return nil
	case <-e.transport.done:
		return errs.ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv returns the next message from peer.
func (e *Endpoint) Recv(ctx context.Context, peer int) (Tag, []byte, error) {
	ch, err := e.link(peer, false)
	if err != nil {
		return 0, nil, err
	}

	select {
	case msg := <-ch:
		return msg.tag, msg.payload, nil
	case <-e.transport.done:
		return 0, nil, errs.ErrTransportClosed
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

// Broadcast delivers payload to every worker's broadcast channel.
func (e *Endpoint) Broadcast(ctx context.Context, payload []byte) error {
	if e.rank != 0 {
		return fmt.Errorf("%w: broadcast from worker rank %d", errs.ErrInvalidRank, e.rank)
	}

	for rank := 1; rank <= e.transport.numWorkers; rank++ {
		select {
		case e.transport.bcast[rank] <- payload:
		case <-e.transport.done:
			return errs.ErrTransportClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// RecvBroadcast returns the next broadcast payload for this worker.
func (e *Endpoint) RecvBroadcast(ctx context.Context) ([]byte, error) {
	if e.rank == 0 {
		return nil, fmt.Errorf("%w: coordinator cannot receive broadcasts", errs.ErrInvalidRank)
	}

	select {
	case payload := <-e.transport.bcast[e.rank]:
		return payload, nil
	case <-e.transport.done:
		return nil, errs.ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
