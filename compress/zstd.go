package compress

// ZstdCompressor compresses payloads with Zstandard, the highest-ratio
// codec tachyon offers. Best suited to serialized blocks at rest, where
// ratio matters more than the send loop's latency.
//
// Two implementations exist behind a build-tag split: a cgo binding when
// cgo is available, and a pure-Go fallback otherwise. Both produce standard
// zstd frames and interoperate freely.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
