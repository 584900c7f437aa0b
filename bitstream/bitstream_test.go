package bitstream

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tachyon/errs"
)

func TestWriter_MSBFirstLayout(t *testing.T) {
	w := NewWriter()
	defer w.Finish()

	// 1, then 0b0101 in 4 bits, then 0b101 in 3 bits fills one byte:
	// 1 0101 101 -> 0xAD.
	require.NoError(t, w.WriteBit(1))
	require.NoError(t, w.WriteBits(0b0101, 4))
	require.NoError(t, w.WriteBits(0b101, 3))

	require.Equal(t, 8, w.Len())
	require.Equal(t, []byte{0xAD}, w.Bytes())
}

func TestWriter_TrailingBitsZeroPadded(t *testing.T) {
	w := NewWriter()
	defer w.Finish()

	require.NoError(t, w.WriteBits(0b11, 2))

	require.Equal(t, 2, w.Len())
	require.Equal(t, []byte{0xC0}, w.Bytes())
}

func TestWriter_HighBitsIgnored(t *testing.T) {
	w := NewWriter()
	defer w.Finish()

	// Only the low 3 bits of 0xFF survive.
	require.NoError(t, w.WriteBits(0xFF, 3))

	r := NewReader(w.Bytes())
	v, err := r.ReadBits(3)
	require.NoError(t, err)
	require.Equal(t, uint64(0b111), v)
}

func TestWriter_InvalidWidth(t *testing.T) {
	w := NewWriter()
	defer w.Finish()

	require.ErrorIs(t, w.WriteBits(0, 0), errs.ErrInvalidBitWidth)
	require.ErrorIs(t, w.WriteBits(0, 65), errs.ErrInvalidBitWidth)
	require.ErrorIs(t, w.WriteBits(0, -1), errs.ErrInvalidBitWidth)
}

func TestWriter_FullWidth(t *testing.T) {
	w := NewWriter()
	defer w.Finish()

	const v = uint64(0xDEADBEEFCAFEF00D)
	require.NoError(t, w.WriteBits(v, 64))

	r := NewReader(w.Bytes())
	got, err := r.ReadBits(64)
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestReader_EndOfBuffer(t *testing.T) {
	r := NewReader([]byte{0xFF})

	_, err := r.ReadBits(9)
	require.ErrorIs(t, err, errs.ErrEndOfBuffer)

	// The failed read consumed nothing.
	v, err := r.ReadBits(8)
	require.NoError(t, err)
	require.Equal(t, uint64(0xFF), v)

	_, err = r.ReadBit()
	require.ErrorIs(t, err, errs.ErrEndOfBuffer)
}

func TestReader_InvalidWidth(t *testing.T) {
	r := NewReader([]byte{0x00})

	_, err := r.ReadBits(0)
	require.ErrorIs(t, err, errs.ErrInvalidBitWidth)
	_, err = r.ReadBits(65)
	require.ErrorIs(t, err, errs.ErrInvalidBitWidth)
}

func TestReader_Remaining(t *testing.T) {
	r := NewReader([]byte{0xAA, 0xBB})
	require.Equal(t, 16, r.Remaining())

	_, err := r.ReadBits(3)
	require.NoError(t, err)
	require.Equal(t, 13, r.Remaining())

	_, err = r.ReadBits(13)
	require.NoError(t, err)
	require.Equal(t, 0, r.Remaining())
}

// TestRoundtrip_RandomSequences checks the core invariant: for any sequence
// of (value, width) pairs, reading the widths back yields the masked values
// in order.
func TestRoundtrip_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.Intn(256)
		values := make([]uint64, n)
		widths := make([]int, n)

		w := NewWriter()
		for i := 0; i < n; i++ {
			values[i] = rng.Uint64()
			widths[i] = 1 + rng.Intn(64)
			require.NoError(t, w.WriteBits(values[i], widths[i]))
		}

		r := NewReader(w.Bytes())
		for i := 0; i < n; i++ {
			want := values[i]
			if widths[i] < 64 {
				want &= (uint64(1) << widths[i]) - 1
			}

			got, err := r.ReadBits(widths[i])
			require.NoError(t, err)
			require.Equal(t, want, got, "pair %d of %d (width %d)", i, n, widths[i])
		}

		w.Finish()
	}
}

func TestWriter_Reset(t *testing.T) {
	w := NewWriter()
	defer w.Finish()

	require.NoError(t, w.WriteBits(0xFFFF, 16))
	w.Reset()

	require.Equal(t, 0, w.Len())
	require.Empty(t, w.Bytes())

	require.NoError(t, w.WriteBits(0b1, 1))
	require.Equal(t, []byte{0x80}, w.Bytes())
}
