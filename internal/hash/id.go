package hash

import "github.com/cespare/xxhash/v2"

// SymbolID computes the xxHash64 of a symbol name, truncated to 32 bits.
//
// Tick feeds identify instruments by string (e.g. "AAPL"); the store and the
// wire format use a fixed-width uint32. Truncating xxHash64 keeps collisions
// negligible for realistic symbol universes while matching the tick schema.
func SymbolID(symbol string) uint32 {
	return uint32(xxhash.Sum64String(symbol))
}

// WorkerFor spreads a symbol ID across numWorkers worker ranks (1-based).
//
// The symbol ID is re-hashed so that dense, sequential IDs (0, 1, 2, ...)
// do not all land on the low ranks when numWorkers shares a factor with the
// ID distribution. All ticks for one symbol still map to one worker.
func WorkerFor(symbolID uint32, numWorkers int) int {
	var b [4]byte
	b[0] = byte(symbolID)
	b[1] = byte(symbolID >> 8)
	b[2] = byte(symbolID >> 16)
	b[3] = byte(symbolID >> 24)

	return int(xxhash.Sum64(b[:])%uint64(numWorkers)) + 1
}
