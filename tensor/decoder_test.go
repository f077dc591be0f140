package tensor

import (
	"encoding/binary"
	"math"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfluke/loomfuzz/fuzzbytes"
)

func dim(v int64) []byte {
	return binary.LittleEndian.AppendUint64(nil, uint64(v))
}

func TestDecodeF32(t *testing.T) {
	buf := []byte{0x00, 0x01}
	buf = append(buf, dim(2)...)
	for _, f := range []float32{1, 2, 3} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}

	c := fuzzbytes.NewCursor(buf)
	p, err := DefaultDecoder().Decode(c)
	require.NoError(t, err)
	assert.Equal(t, F32, p.DType)
	assert.Equal(t, []int64{3}, p.Shape)
	assert.Equal(t, []float32{1, 2, 3}, p.Data)
	assert.Equal(t, 3, p.Len())
	assert.True(t, c.Exhausted())
}

func TestDecodeStarved(t *testing.T) {
	c := fuzzbytes.NewCursor([]byte{0x07})
	_, err := DefaultDecoder().Decode(c)
	require.ErrorIs(t, err, fuzzbytes.ErrStarved)
	require.Equal(t, 0, c.Offset())
}

func TestDecodeScalar(t *testing.T) {
	// rank byte 0 -> rank 0: a single element, no dimension bytes.
	c := fuzzbytes.NewCursor([]byte{0x06, 0x00, 0xFE})
	p, err := DefaultDecoder().Decode(c)
	require.NoError(t, err)
	assert.Equal(t, I8, p.DType)
	assert.Empty(t, p.Shape)
	assert.Equal(t, []int8{-2}, p.Data)
}

func TestDecodeTooLarge(t *testing.T) {
	d := DefaultDecoder()
	d.MaxElements = 4
	buf := []byte{0x00, 0x02}
	buf = append(buf, dim(7)...)
	buf = append(buf, dim(7)...)
	_, err := d.Decode(fuzzbytes.NewCursor(buf))
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestDecodeStrings(t *testing.T) {
	d := DefaultDecoder().WithTypes(Set{String}).WithRank(1, 1)
	buf := []byte{0x00, 0x00}
	buf = append(buf, dim(1)...)
	buf = append(buf, 0x01, 0xC1, 'b')
	p, err := d.Decode(fuzzbytes.NewCursor(buf))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, p.Shape)
	assert.Equal(t, []string{"Ab", DefaultString}, p.Data)
}

func TestDecodeShortDataZeroFills(t *testing.T) {
	d := DefaultDecoder().WithTypes(Set{I32}).WithRank(1, 1)
	buf := []byte{0x00, 0x00}
	buf = append(buf, dim(3)...)
	buf = append(buf, 0x05, 0x00, 0x00, 0x00, 0xAA)
	c := fuzzbytes.NewCursor(buf)
	p, err := d.Decode(c)
	require.NoError(t, err)
	assert.Equal(t, []int32{5, 0, 0, 0}, p.Data)
	assert.Equal(t, 1, c.Remaining())
}

func TestDecodeNStopsAtStarvation(t *testing.T) {
	d := DefaultDecoder().WithRank(0, 0)
	ps, err := d.DecodeN(fuzzbytes.NewCursor([]byte{0x07, 0x00, 0x01, 0x06, 0x00}), 3)
	require.ErrorIs(t, err, fuzzbytes.ErrStarved)
	require.Len(t, ps, 2)
	assert.Equal(t, []uint8{1}, ps[0].Data)
	assert.Equal(t, []int8{0}, ps[1].Data)
}

func TestDecodeProperties(t *testing.T) {
	f := fuzz.NewWithSeed(3).NilChance(0).NumElements(0, 128)
	d := DefaultDecoder()
	for i := 0; i < 500; i++ {
		var buf []byte
		f.Fuzz(&buf)
		c := fuzzbytes.NewCursor(buf)
		p, err := d.Decode(c)
		if err != nil {
			require.ErrorIs(t, err, fuzzbytes.ErrStarved)
			require.Less(t, len(buf), 2)
			continue
		}
		require.True(t, d.Types.Contains(p.DType))
		require.LessOrEqual(t, len(p.Shape), d.MaxRank)
		for _, dm := range p.Shape {
			require.True(t, dm >= d.MinDim && dm <= d.MaxDim, "dim %d", dm)
		}
		n, _ := fuzzbytes.NumElements(p.Shape)
		require.Equal(t, int(n), p.Len())
		require.LessOrEqual(t, c.Offset(), len(buf))
	}
}

func TestSetSelect(t *testing.T) {
	assert.Equal(t, F32, AllTypes.Select(0))
	assert.Equal(t, Bool, AllTypes.Select(11))
	assert.Equal(t, F32, AllTypes.Select(12))
	assert.Equal(t, F32, Set(nil).Select(9))
	assert.Equal(t, F32, FloatTypes.Select(1))
}

func TestParseDType(t *testing.T) {
	d, err := ParseDType("bf16")
	require.NoError(t, err)
	assert.Equal(t, BF16, d)
	_, err = ParseDType("f8")
	assert.Error(t, err)
	assert.Equal(t, 16, Complex128.Size())
	assert.Equal(t, 0, String.Size())
}

func TestFillUsesDefaultLimit(t *testing.T) {
	_, err := Fill(fuzzbytes.NewCursor(nil), F32, []int64{1 << 20})
	require.ErrorIs(t, err, ErrTooLarge)
	_, err = Fill(fuzzbytes.NewCursor(nil), F32, []int64{-1})
	require.ErrorIs(t, err, ErrInvalidShape)
	p, err := Fill(fuzzbytes.NewCursor(nil), BF16, []int64{2})
	require.NoError(t, err)
	assert.Equal(t, []uint16{0, 0}, p.Data)
}
