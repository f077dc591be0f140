package fuzzbytes

import (
	"errors"
	"testing"

	fuzzheaders "github.com/AdaLogics/go-fuzz-headers"
	"github.com/kylelemons/godebug/pretty"
	"github.com/stretchr/testify/require"
)

func tensorGrammar() Grammar {
	return Grammar{
		MaxElements: 4096,
		Steps: []Step{
			{Kind: KindEnum, Name: "op", N: 3},
			{Kind: KindRange, Name: "rank", Min: 1, Max: 4},
			{Kind: KindShape, Name: "shape", From: "rank", Min: 1, Max: 6},
			{Kind: KindBool, Name: "transpose"},
			{Kind: KindFloat, Name: "eps", Lo: 1e-6, Hi: 1e-2, Def: 1e-5},
			{Kind: KindElements, Name: "x", From: "shape", Fill: FillOf[float32]()},
		},
	}
}

func TestGrammarDecodeEmpty(t *testing.T) {
	rec, err := tensorGrammar().Decode(NewCursor(nil))
	require.NoError(t, err)
	require.Equal(t, 0, rec.Int("op"))
	require.Equal(t, 1, rec.Int("rank"))
	require.Equal(t, []int64{1}, rec.Shape("shape"))
	require.False(t, rec.Bool("transpose"))
	require.Equal(t, 1e-5, rec.Float("eps"))
	require.Equal(t, []float32{0}, Elements[float32](rec, "x"))
}

func TestGrammarDecodeDeterministic(t *testing.T) {
	data := []byte{
		0x05, 0x01,
		0x01, 0, 0, 0, 0, 0, 0, 0,
		0x02, 0, 0, 0, 0, 0, 0, 0,
		0x01,
		0, 0, 0x80, 0x3f,
		1, 2, 3, 4, 5, 6, 7, 8,
	}
	g := tensorGrammar()
	a, err := g.Decode(NewCursor(data))
	require.NoError(t, err)
	b, err := g.Decode(NewCursor(data))
	require.NoError(t, err)
	if diff := pretty.Compare(a, b); diff != "" {
		t.Fatalf("decode not deterministic (-a +b):\n%s", diff)
	}

	require.Equal(t, 2, a.Int("op"))
	require.Equal(t, 2, a.Int("rank"))
	require.Equal(t, []int64{2, 3}, a.Shape("shape"))
	require.True(t, a.Bool("transpose"))
	require.Equal(t, 1e-2, a.Float("eps"))
	require.Len(t, Elements[float32](a, "x"), 6)
}

func TestGrammarMalformed(t *testing.T) {
	cases := map[string]Grammar{
		"unnamed":      {Steps: []Step{{Kind: KindBool}}},
		"missing rank": {Steps: []Step{{Kind: KindShape, Name: "s", From: "r"}}},
		"missing fill": {Steps: []Step{
			{Kind: KindRange, Name: "r", Min: 0, Max: 0},
			{Kind: KindShape, Name: "s", From: "r"},
			{Kind: KindElements, Name: "x", From: "s"},
		}},
		"unknown kind": {Steps: []Step{{Kind: Kind(99), Name: "z"}}},
	}
	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := g.Decode(NewCursor([]byte{1, 2, 3}))
			require.Error(t, err)
			require.False(t, errors.Is(err, ErrElementLimit))
		})
	}
}

func TestGrammarElementLimit(t *testing.T) {
	g := Grammar{
		MaxElements: 8,
		Steps: []Step{
			{Kind: KindDim8, Name: "n", Min: 9, Max: 9},
			{Kind: KindRange, Name: "rank", Min: 1, Max: 1},
			{Kind: KindShape, Name: "shape", From: "rank", Min: 9, Max: 9},
			{Kind: KindStrings, Name: "s", From: "shape", Min: 1, Max: 3},
		},
	}
	_, err := g.Decode(NewCursor(nil))
	require.ErrorIs(t, err, ErrElementLimit)
}

func TestNumElements(t *testing.T) {
	n, ok := NumElements(nil)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	n, ok = NumElements([]int64{2, 0, 5})
	require.True(t, ok)
	require.Equal(t, int64(0), n)

	_, ok = NumElements([]int64{-1})
	require.False(t, ok)

	_, ok = NumElements([]int64{1 << 40, 1 << 40})
	require.False(t, ok)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "shape", KindShape.String())
	require.Equal(t, "kind(42)", Kind(42).String())
}

type grammarParams struct {
	Choices  uint8
	MinRank  uint8
	MaxRank  uint8
	MinDim   int8
	MaxDim   int8
	MaxStr   uint8
	UseBytes bool
}

func FuzzGrammar(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{3, 1, 4, 1, 6, 5, 1, 0, 0, 0, 9, 9, 9})
	f.Fuzz(func(t *testing.T, data []byte) {
		fc := fuzzheaders.NewConsumer(data)
		var p grammarParams
		if err := fc.GenerateStruct(&p); err != nil {
			return
		}
		rest, err := fc.GetBytes()
		if err != nil {
			rest = nil
		}

		fill := FillOf[float32]()
		if p.UseBytes {
			fill = FillOf[uint8]()
		}
		g := Grammar{
			MaxElements: 4096,
			Steps: []Step{
				{Kind: KindEnum, Name: "op", N: int(p.Choices)},
				{Kind: KindRange, Name: "rank", Min: int64(p.MinRank % 5), Max: int64(p.MaxRank % 5)},
				{Kind: KindShape, Name: "shape", From: "rank", Min: int64(p.MinDim), Max: int64(p.MaxDim)},
				{Kind: KindElements, Name: "x", From: "shape", Fill: fill},
				{Kind: KindStrings, Name: "s", From: "shape", Max: int64(p.MaxStr)},
			},
		}

		c := NewCursor(rest)
		rec, err := g.Decode(c)
		if err != nil {
			if !errors.Is(err, ErrElementLimit) {
				t.Fatalf("unexpected decode error: %v", err)
			}
			return
		}
		if c.Offset() > len(rest) {
			t.Fatalf("offset %d past length %d", c.Offset(), len(rest))
		}
		n, _ := NumElements(rec.Shape("shape"))
		if got := len(rec.Strings("s")); int64(got) != n {
			t.Fatalf("got %d strings for %d elements", got, n)
		}
	})
}
