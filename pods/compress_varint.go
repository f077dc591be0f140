package pods

import "errors"

// MaxVarintLen64 is the longest valid encoding of a uint64.
const MaxVarintLen64 = 10

var (
	ErrVarintTruncated = errors.New("varint: truncated")
	ErrVarintOverflow  = errors.New("varint: overflows uint64")
)

func VarintEncode(u uint64) []byte {
	var b []byte
	for u >= 0x80 {
		b = append(b, byte(u)|0x80)
		u >>= 7
	}
	return append(b, byte(u))
}

// VarintDecode reads one LEB128 value and returns it with the number of bytes
// used.
func VarintDecode(b []byte) (u uint64, n int, err error) {
	var shift uint
	for n < len(b) {
		c := b[n]
		n++
		if n == MaxVarintLen64 && c > 1 {
			return 0, n, ErrVarintOverflow
		}
		u |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			return u, n, nil
		}
		shift += 7
	}
	return 0, n, ErrVarintTruncated
}

func DeltaPack(in []uint64) []byte {
	out := make([]byte, 0, len(in))
	var prev uint64
	for i, v := range in {
		d := v
		if i > 0 {
			d = v - prev
		}
		out = append(out, VarintEncode(d)...)
		prev = v
	}
	return out
}

// DeltaUnpack reverses DeltaPack. Deltas wrap modulo 2^64 like the encoder.
func DeltaUnpack(b []byte) ([]uint64, error) {
	var out []uint64
	var prev uint64
	for len(b) > 0 {
		d, n, err := VarintDecode(b)
		if err != nil {
			return out, err
		}
		b = b[n:]
		if len(out) > 0 {
			d += prev
		}
		out = append(out, d)
		prev = d
	}
	return out, nil
}

type VarintDecodeIn struct {
	Packed []byte
	Delta  bool // decode as a DeltaPack stream
}
type VarintDecodeOut struct{ Values []uint64 }

type VarintDecodePod struct{}

func (VarintDecodePod) Name() string { return "compress/varint_decode" }

func (VarintDecodePod) Run(_ *ExecContext, in any) (any, error) {
	const op = "compress/varint_decode"
	a, ok := in.(VarintDecodeIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	if a.Delta {
		vals, err := DeltaUnpack(a.Packed)
		if err != nil {
			return nil, &OpError{Op: op, Err: wrapf(ErrInvalidArgument, "%v", err)}
		}
		return VarintDecodeOut{Values: vals}, nil
	}
	var vals []uint64
	for b := a.Packed; len(b) > 0; {
		v, n, err := VarintDecode(b)
		if err != nil {
			return nil, &OpError{Op: op, Err: wrapf(ErrInvalidArgument, "%v", err)}
		}
		vals = append(vals, v)
		b = b[n:]
	}
	return VarintDecodeOut{Values: vals}, nil
}
