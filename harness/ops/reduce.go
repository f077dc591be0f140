package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/harness"
	"github.com/openfluke/loomfuzz/pods"
)

var reduceGrammar = fuzzbytes.Grammar{
	Steps: []fuzzbytes.Step{
		// One choice past the table selects an unknown reduction.
		{Kind: fuzzbytes.KindEnum, Name: "kind", N: len(pods.ReduceKinds) + 1},
		{Kind: fuzzbytes.KindRange, Name: "rank", Min: 1, Max: 1},
		{Kind: fuzzbytes.KindShape, Name: "len", From: "rank", Min: 0, Max: 4096},
		{Kind: fuzzbytes.KindElements, Name: "in", From: "len", Fill: fuzzbytes.FillOf[float32]()},
	},
	MaxElements: 4096,
}

func init() { register("primitives/reduce", 3, reduce) }

func reduce(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	const op = "primitives/reduce"
	rec, err := reduceGrammar.Decode(c)
	if err != nil {
		return err
	}
	kind := "median"
	if k := rec.Int("kind"); k < len(pods.ReduceKinds) {
		kind = pods.ReduceKinds[k]
	}
	in := pods.ReduceIn{Kind: kind, In: fuzzbytes.Elements[float32](rec, "in")}
	for i, v := range in.In {
		in.In[i] = float32(fuzzbytes.Clamp(float64(v), -valueLimit, valueLimit))
	}

	out, err := pods.Run(x, op, in)
	if err != nil {
		return err
	}
	got := out.(pods.ReduceOut)
	if !got.OnGPU {
		return nil
	}
	ref, err := pods.Run(x.CPU(), op, in)
	if err != nil {
		return err
	}
	return harness.Compare(op, []float32{ref.(pods.ReduceOut).Value}, []float32{got.Value}, 1e-3)
}
