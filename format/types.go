package format

type (
	QueryType       uint8
	CompressionType uint8
)

const (
	QueryAvgSpread QueryType = 0x1 // QueryAvgSpread averages the ask-bid spread over matching ticks.
	QueryVWAP      QueryType = 0x2 // QueryVWAP computes the volume-weighted average mid price.
	QueryOHLC      QueryType = 0x3 // QueryOHLC computes open/high/low/close mid prices.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (q QueryType) String() string {
	switch q {
	case QueryAvgSpread:
		return "AvgSpread"
	case QueryVWAP:
		return "VWAP"
	case QueryOHLC:
		return "OHLC"
	default:
		return "Unknown"
	}
}

// Valid reports whether q is one of the defined query types.
func (q QueryType) Valid() bool {
	return q == QueryAvgSpread || q == QueryVWAP || q == QueryOHLC
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is one of the defined compression types.
func (c CompressionType) Valid() bool {
	return c >= CompressionNone && c <= CompressionLZ4
}
