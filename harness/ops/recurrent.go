package ops

import (
	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

func init() {
	register("nn/rnn", 4, rnn)
	register("nn/lstm_cell", 2, lstmCell)
}

func rnn(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	in := pods.RNNIn{Batch: dim(c, 1, 4), SeqLen: dim(c, 1, 16), InSize: dim(c, 1, 16), Hidden: dim(c, 1, 16)}
	in.X = values(c, in.Batch*in.SeqLen*in.InSize)
	in.WIH = values(c, in.Hidden*in.InSize)
	in.WHH = skew(c, values(c, in.Hidden*in.Hidden))
	in.Bias = maybe(c, in.Hidden)
	_, err := pods.Run(x, "nn/rnn", in)
	return err
}

func lstmCell(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	in := pods.LSTMCellIn{InSize: dim(c, 1, 16), Hidden: dim(c, 1, 16)}
	gates := 4 * in.Hidden
	in.X = values(c, in.InSize)
	in.H = values(c, in.Hidden)
	in.C = values(c, in.Hidden)
	in.WIH = values(c, gates*in.InSize)
	in.WHH = skew(c, values(c, gates*in.Hidden))
	in.Bias = maybe(c, gates)
	_, err := pods.Run(x, "nn/lstm_cell", in)
	return err
}
