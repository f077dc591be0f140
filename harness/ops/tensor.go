package ops

import (
	"errors"
	"fmt"

	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
	"github.com/openfluke/loomfuzz/tensor"
)

func init() {
	register("tensor/decode", 2, decodeTensors)
	register("tensor/reshape", 2, reshape)
	register("tensor/cast", 3, cast)
}

// decodeTensors decodes up to four payloads back to back and checks every
// one carries exactly the elements its shape promises. Running dry after the
// first payload is fine.
func decodeTensors(_ *pods.ExecContext, c *fuzzbytes.Cursor) error {
	ps, err := tensor.DefaultDecoder().DecodeN(c, 4)
	if err != nil && (len(ps) == 0 || !errors.Is(err, fuzzbytes.ErrStarved)) {
		return err
	}
	for i, p := range ps {
		n, ok := fuzzbytes.NumElements(p.Shape)
		if !ok || int64(p.Len()) != n {
			return fmt.Errorf("tensor/decode: payload %d %s holds %d elements", i, p, p.Len())
		}
	}
	return nil
}

// [payload][target rank][target dims, -1 allowed]
func reshape(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	p, err := tensor.DefaultDecoder().Decode(c)
	if err != nil {
		return err
	}
	in := pods.ReshapeIn{In: p, Shape: c.Shape8(c.Rank(0, 4), -1, 8)}
	out, err := pods.Run(x, "tensor/reshape", in)
	if err != nil {
		return err
	}
	got := out.(pods.ReshapeOut).Out
	if n, ok := fuzzbytes.NumElements(got.Shape); !ok || n != int64(p.Len()) {
		return fmt.Errorf("tensor/reshape: %v does not hold %d elements", got.Shape, p.Len())
	}
	return nil
}

// [payload][target dtype, one past String allowed]
func cast(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	p, err := tensor.DefaultDecoder().Decode(c)
	if err != nil {
		return err
	}
	in := pods.CastIn{In: p, To: tensor.DType(c.Enum(int(tensor.String)+2, int(tensor.F32)))}
	out, err := pods.Run(x, "tensor/cast", in)
	if err != nil {
		return err
	}
	if got := out.(pods.CastOut).Out; got.Len() != p.Len() {
		return fmt.Errorf("tensor/cast: %s to %s changed length %d -> %d", p.DType, in.To, p.Len(), got.Len())
	}
	return nil
}
