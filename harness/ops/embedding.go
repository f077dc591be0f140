package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

func init() { register("nn/embedding", 6, embedding) }

// [vocab][dim][flags][padding idx][n tokens][int32 tokens][table]
func embedding(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	in := pods.EmbeddingIn{Vocab: dim(c, 1, 64), Dim: dim(c, 1, 32)}
	flags := c.Uint8()
	in.UsePadding = flags&1 != 0
	in.StrictIndices = flags&2 != 0
	in.PaddingIdx = int(c.Int8())
	// Tokens are raw int32s; most land outside the vocabulary, so fold a
	// share of them back in.
	in.Tokens = fuzzbytes.Fill[int32](c, c.Range(0, 32))
	if flags&4 != 0 {
		for i, t := range in.Tokens {
			in.Tokens[i] = int32(uint32(t) % uint32(in.Vocab))
		}
	}
	in.Table = values(c, in.Vocab*in.Dim)
	_, err := pods.Run(x, "nn/embedding", in)
	return err
}
