package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

var layerNormGrammar = fuzzbytes.Grammar{
	Steps: []fuzzbytes.Step{
		{Kind: fuzzbytes.KindRange, Name: "rank", Min: 1, Max: 3},
		{Kind: fuzzbytes.KindShape, Name: "shape", From: "rank", Min: 1, Max: 16},
		{Kind: fuzzbytes.KindBool, Name: "affine"},
		{Kind: fuzzbytes.KindFloat, Name: "eps", Lo: 0, Hi: 0.1, Def: 1e-5},
		{Kind: fuzzbytes.KindElements, Name: "x", From: "shape", Fill: fuzzbytes.FillOf[float32]()},
	},
	MaxElements: 4096,
}

func init() { register("ml/layernorm", 10, layerNorm) }

// Normalises over the last dimension; gamma and beta follow the elements
// when the affine flag is set.
func layerNorm(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	rec, err := layerNormGrammar.Decode(c)
	if err != nil {
		return err
	}
	shape := rec.Shape("shape")
	size := int(shape[len(shape)-1])
	in := pods.LayerNormIn{
		X:    fuzzbytes.Elements[float32](rec, "x"),
		Size: size,
		Eps:  float32(rec.Float("eps")),
	}
	if rec.Bool("affine") {
		in.Gamma = values(c, size)
		in.Beta = skew(c, values(c, size))
	}
	_, err = pods.Run(x, "ml/layernorm", in)
	return err
}
