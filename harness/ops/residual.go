package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

var residualGrammar = fuzzbytes.Grammar{
	Steps: []fuzzbytes.Step{
		{Kind: fuzzbytes.KindRange, Name: "rank", Min: 1, Max: 2},
		{Kind: fuzzbytes.KindShape, Name: "shape", From: "rank", Min: 1, Max: 64},
		{Kind: fuzzbytes.KindFloat, Name: "scale", Lo: -4, Hi: 4, Def: 0.0},
		{Kind: fuzzbytes.KindElements, Name: "x", From: "shape", Fill: fuzzbytes.FillOf[float32]()},
		{Kind: fuzzbytes.KindElements, Name: "skip", From: "shape", Fill: fuzzbytes.FillOf[float32]()},
	},
	MaxElements: 4096,
}

func init() { register("nn/residual", 10, residual) }

func residual(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	rec, err := residualGrammar.Decode(c)
	if err != nil {
		return err
	}
	in := pods.ResidualIn{
		X:     fuzzbytes.Elements[float32](rec, "x"),
		Skip:  skew(c, fuzzbytes.Elements[float32](rec, "skip")),
		Scale: float32(rec.Float("scale")),
	}
	_, err = pods.Run(x, "nn/residual", in)
	return err
}
