package pods

type RGBToYUVIn struct {
	Frame ImageFrame // Format "RGB" or "RGBA"; alpha is ignored
}
type RGBToYUVOut struct {
	Y, U, V []float32 // planar 4:4:4, BT.709
}

type RGBToYUVPod struct{}

func (RGBToYUVPod) Name() string { return "video/rgb_to_yuv444" }

func (RGBToYUVPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "video/rgb_to_yuv444"
	a, ok := in.(RGBToYUVIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	f := a.Frame
	if f.Format != "RGB" && f.Format != "RGBA" {
		return nil, opErr(op, ErrUnsupportedType, "format %q", f.Format)
	}
	ch := f.Channels()
	n, okN := checkedMul(f.W, f.H)
	row, okR := checkedMul(f.W, ch)
	if !okN || !okR {
		return nil, opErr(op, ErrInvalidArgument, "frame %dx%d", f.W, f.H)
	}
	stride := f.Stride
	if stride == 0 {
		stride = row
	}
	if stride < row {
		return nil, opErr(op, ErrInvalidArgument, "stride %d shorter than row %d", stride, row)
	}
	if f.H > 0 {
		need, ok := checkedMul(f.H-1, stride)
		if !ok || len(f.Pixels) < need+row {
			return nil, opErr(op, ErrShapeMismatch, "%d pixels for %dx%d stride %d", len(f.Pixels), f.W, f.H, stride)
		}
	}
	Y := make([]float32, n)
	U := make([]float32, n)
	V := make([]float32, n)
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			p := f.Pixels[y*stride+x*ch:]
			r, g, b := p[0], p[1], p[2]
			i := y*f.W + x
			Y[i] = 0.2126*r + 0.7152*g + 0.0722*b
			U[i] = -0.1146*r - 0.3854*g + 0.5000*b
			V[i] = 0.5000*r - 0.4542*g - 0.0458*b
		}
	}
	return RGBToYUVOut{Y: Y, U: U, V: V}, nil
}
