package cluster

import (
	"fmt"
	"math"

	"github.com/arloliu/tachyon/compress"
	"github.com/arloliu/tachyon/endian"
	"github.com/arloliu/tachyon/errs"
	"github.com/arloliu/tachyon/format"
	"github.com/arloliu/tachyon/query"
	"github.com/arloliu/tachyon/tick"
)

// Wire frame layouts, all little-endian.
//
// DATA:  compression type (1), tick count (4), body (tick count * 36 bytes,
//        compressed per the type byte). Each tick row is timestamp (8),
//        symbol ID (4), bid price bits (8), ask price bits (8), bid size
//        (4), ask size (4).
// QUERY: query type (1), symbol ID (4), start time (8), end time (8).
// PART:  query type (1), sum bits (8), count (8), OHLC is-set (1), open/
//        high/low/close bits (8 each), open timestamp (8), close
//        timestamp (8).

const (
	tickRowSize    = 36
	dataHeaderSize = 5
	queryFrameSize = 21
	partFrameSize  = 66
)

// EncodeDataFrame packs a batch into a DATA frame, compressing the tick
// rows with the named codec.
func EncodeDataFrame(batch []tick.Raw, compression format.CompressionType) ([]byte, error) {
	codec, err := compress.CreateCodec(compression, "data frame")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnknownCompression, err)
	}

	engine := endian.GetLittleEndianEngine()

	body := make([]byte, 0, len(batch)*tickRowSize)
	for _, t := range batch {
		body = engine.AppendUint64(body, t.Timestamp)
		body = engine.AppendUint32(body, t.SymbolID)
		body = engine.AppendUint64(body, math.Float64bits(t.BidPrice))
		body = engine.AppendUint64(body, math.Float64bits(t.AskPrice))
		body = engine.AppendUint32(body, t.BidSize)
		body = engine.AppendUint32(body, t.AskSize)
	}

	compressed, err := codec.Compress(body)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, dataHeaderSize+len(compressed))
	frame = append(frame, byte(compression))
	frame = engine.AppendUint32(frame, uint32(len(batch)))

	return append(frame, compressed...), nil
}

// DecodeDataFrame unpacks a DATA frame back into a batch.
func DecodeDataFrame(frame []byte) ([]tick.Raw, error) {
	if len(frame) < dataHeaderSize {
		return nil, fmt.Errorf("%w: data frame of %d bytes", errs.ErrInvalidFrame, len(frame))
	}

	compression := format.CompressionType(frame[0])
	if !compression.Valid() {
		return nil, fmt.Errorf("%w: data frame names type %d", errs.ErrUnknownCompression, frame[0])
	}

	codec, err := compress.CreateCodec(compression, "data frame")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnknownCompression, err)
	}

	engine := endian.GetLittleEndianEngine()
	count := int(engine.Uint32(frame[1:5]))

	body, err := codec.Decompress(frame[dataHeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: data frame body: %v", errs.ErrInvalidFrame, err)
	}
	if len(body) != count*tickRowSize {
		return nil, fmt.Errorf("%w: data frame body is %d bytes, want %d for %d ticks",
			errs.ErrInvalidFrame, len(body), count*tickRowSize, count)
	}

	batch := make([]tick.Raw, count)
	for i := range batch {
		row := body[i*tickRowSize:]
		batch[i] = tick.Raw{
			Timestamp: engine.Uint64(row[0:8]),
			SymbolID:  engine.Uint32(row[8:12]),
			BidPrice:  math.Float64frombits(engine.Uint64(row[12:20])),
			AskPrice:  math.Float64frombits(engine.Uint64(row[20:28])),
			BidSize:   engine.Uint32(row[28:32]),
			AskSize:   engine.Uint32(row[32:36]),
		}
	}

	return batch, nil
}

// EncodeQueryFrame packs a query for broadcast.
func EncodeQueryFrame(q query.Query) []byte {
	engine := endian.GetLittleEndianEngine()

	frame := make([]byte, 0, queryFrameSize)
	frame = append(frame, byte(q.Type))
	frame = engine.AppendUint32(frame, q.SymbolID)
	frame = engine.AppendUint64(frame, q.StartTime)
	frame = engine.AppendUint64(frame, q.EndTime)

	return frame
}

// DecodeQueryFrame unpacks a broadcast query.
func DecodeQueryFrame(frame []byte) (query.Query, error) {
	if len(frame) != queryFrameSize {
		return query.Query{}, fmt.Errorf("%w: query frame of %d bytes, want %d",
			errs.ErrInvalidFrame, len(frame), queryFrameSize)
	}

	engine := endian.GetLittleEndianEngine()

	q := query.Query{
		Type:      format.QueryType(frame[0]),
		SymbolID:  engine.Uint32(frame[1:5]),
		StartTime: engine.Uint64(frame[5:13]),
		EndTime:   engine.Uint64(frame[13:21]),
	}
	if !q.Type.Valid() {
		return query.Query{}, fmt.Errorf("%w: %d", errs.ErrUnknownQueryType, frame[0])
	}

	return q, nil
}

// EncodePartFrame packs a worker's partial result.
func EncodePartFrame(p query.Partial) []byte {
	engine := endian.GetLittleEndianEngine()

	frame := make([]byte, 0, partFrameSize)
	frame = append(frame, byte(p.Type))
	frame = engine.AppendUint64(frame, math.Float64bits(p.Sum))
	frame = engine.AppendUint64(frame, p.Count)

	isSet := byte(0)
	if p.OHLC.IsSet {
		isSet = 1
	}
	frame = append(frame, isSet)
	frame = engine.AppendUint64(frame, math.Float64bits(p.OHLC.Open))
	frame = engine.AppendUint64(frame, math.Float64bits(p.OHLC.High))
	frame = engine.AppendUint64(frame, math.Float64bits(p.OHLC.Low))
	frame = engine.AppendUint64(frame, math.Float64bits(p.OHLC.Close))
	frame = engine.AppendUint64(frame, p.OHLC.OpenTS)
	frame = engine.AppendUint64(frame, p.OHLC.CloseTS)

	return frame
}

// DecodePartFrame unpacks a worker's partial result.
func DecodePartFrame(frame []byte) (query.Partial, error) {
	if len(frame) != partFrameSize {
		return query.Partial{}, fmt.Errorf("%w: part frame of %d bytes, want %d",
			errs.ErrInvalidFrame, len(frame), partFrameSize)
	}

	engine := endian.GetLittleEndianEngine()

	p := query.Partial{
		Type:  format.QueryType(frame[0]),
		Sum:   math.Float64frombits(engine.Uint64(frame[1:9])),
		Count: engine.Uint64(frame[9:17]),
	}
	p.OHLC = query.OHLCState{
		IsSet:   frame[17] != 0,
		Open:    math.Float64frombits(engine.Uint64(frame[18:26])),
		High:    math.Float64frombits(engine.Uint64(frame[26:34])),
		Low:     math.Float64frombits(engine.Uint64(frame[34:42])),
		Close:   math.Float64frombits(engine.Uint64(frame[42:50])),
		OpenTS:  engine.Uint64(frame[50:58]),
		CloseTS: engine.Uint64(frame[58:66]),
	}

	return p, nil
}
