// Package source defines the tick source the coordinator pulls batches from
// and a seedable random-walk generator implementation.
package source

import (
	"math/rand"

	"github.com/arloliu/tachyon/internal/hash"
	"github.com/arloliu/tachyon/tick"
)

// Source produces batches of raw ticks for ingest.
//
// The core relies on two preconditions and never re-sorts: a non-empty batch
// has all ticks sharing one symbol ID, and timestamps within a batch are
// non-decreasing. NextBatch returns ok=false when the source is exhausted;
// an empty batch with ok=true is allowed and skipped by the coordinator.
type Source interface {
	NextBatch(maxTicks int) (batch []tick.Raw, ok bool)
}

// Symbol describes one instrument the generator quotes.
type Symbol struct {
	Name       string
	ID         uint32
	StartPrice float64
	Spread     float64
}

// DefaultSymbols is the two-instrument universe the generator quotes when
// none is configured.
func DefaultSymbols() []Symbol {
	return []Symbol{
		{Name: "AAPL", ID: 0, StartPrice: 150.0, Spread: 0.02},
		{Name: "GOOG", ID: 1, StartPrice: 2800.0, Spread: 0.15},
	}
}

// NewSymbol creates a Symbol whose ID is derived from its name via xxHash64.
//
// Use this for larger universes where hand-assigning IDs is impractical; the
// hashed IDs also exercise non-modulo worker partitioning.
func NewSymbol(name string, startPrice, spread float64) Symbol {
	return Symbol{
		Name:       name,
		ID:         hash.SymbolID(name),
		StartPrice: startPrice,
		Spread:     spread,
	}
}

const (
	startTimestamp = uint64(1_000_000_000) // 1s past epoch, in nanoseconds
	minTickDelta   = 1_000
	maxTickDelta   = 50_000
)

// Generator produces single-symbol batches with random-walk mid prices,
// constant per-symbol spreads, and uniform inter-tick deltas. Symbols
// rotate round-robin between batches; the timestamp clock is global, so a
// symbol's batches move forward in time across the whole run.
//
// With a fixed seed the output is deterministic, which the tests rely on.
type Generator struct {
	rng     *rand.Rand
	symbols []Symbol
	mids    []float64

	nextSymbol  int
	ts          uint64
	batchesLeft int
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithSeed seeds the generator's random stream for reproducible output.
func WithSeed(seed int64) GeneratorOption {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithSymbols replaces the default symbol universe.
func WithSymbols(symbols []Symbol) GeneratorOption {
	return func(g *Generator) {
		g.symbols = symbols
	}
}

// WithBatchLimit bounds how many batches NextBatch produces before
// reporting exhaustion. Zero or negative means unlimited.
func WithBatchLimit(n int) GeneratorOption {
	return func(g *Generator) {
		if n <= 0 {
			n = -1
		}
		g.batchesLeft = n
	}
}

// NewGenerator creates a generator over the default symbols with an
// unseeded random stream and no batch limit.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rng:         rand.New(rand.NewSource(rand.Int63())),
		symbols:     DefaultSymbols(),
		ts:          startTimestamp,
		batchesLeft: -1,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.mids = make([]float64, len(g.symbols))
	for i, sym := range g.symbols {
		g.mids[i] = sym.StartPrice
	}

	return g
}

// NextBatch produces the next single-symbol batch of up to maxTicks ticks.
func (g *Generator) NextBatch(maxTicks int) ([]tick.Raw, bool) {
	if g.batchesLeft == 0 || len(g.symbols) == 0 || maxTicks <= 0 {
		return nil, false
	}
	if g.batchesLeft > 0 {
		g.batchesLeft--
	}

	idx := g.nextSymbol
	g.nextSymbol = (g.nextSymbol + 1) % len(g.symbols)
	sym := g.symbols[idx]

	batch := make([]tick.Raw, 0, maxTicks)
	for i := 0; i < maxTicks; i++ {
		g.mids[idx] += g.rng.NormFloat64() * 0.01

		batch = append(batch, tick.Raw{
			Timestamp: g.ts,
			SymbolID:  sym.ID,
			BidPrice:  g.mids[idx],
			AskPrice:  g.mids[idx] + sym.Spread,
			BidSize:   uint32(1 + g.rng.Intn(200)),
			AskSize:   uint32(1 + g.rng.Intn(200)),
		})

		g.ts += uint64(minTickDelta + g.rng.Intn(maxTickDelta-minTickDelta+1))
	}

	return batch, true
}
