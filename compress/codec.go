// Package compress provides the byte-payload compression codecs tachyon
// uses for wire frames and serialized blocks.
//
// The block payload itself is already bit-packed by the block codec; these
// codecs sit one layer out, squeezing DATA frames (36-byte tick rows) on the
// transport and whole serialized blocks at rest. S2 favors speed, LZ4 sits
// in between, Zstd favors ratio, and NoOp disables the layer.
package compress

import (
	"fmt"

	"github.com/arloliu/tachyon/format"
)

// Compressor compresses a complete payload in one shot.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is owned by the caller; it is newly allocated,
	//     except for NoOpCompressor, which returns the input slice itself
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compressor for the same algorithm.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// Returns an error if the data is corrupted or was produced by an
	// incompatible algorithm.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec creates a Codec for the specified compression type.
//
// The target string names what the codec will be used for and only appears
// in error messages.
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression type: %d", target, compressionType)
	}
}
