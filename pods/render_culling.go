package pods

type Frustum struct{ Planes [6][4]float32 } // ax+by+cz+d >= 0
type CullingIn struct {
	Frustum Frustum
	Bounds  [][6]float32 // AABB: xmin,ymin,zmin,xmax,ymax,zmax
}
type CullingOut struct{ Visible []bool }

type CullingPod struct{}

func (CullingPod) Name() string { return "render/cull_frustum" }

func (CullingPod) Run(_ *ExecContext, in any) (any, error) {
	const op = "render/cull_frustum"
	a, ok := in.(CullingIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	for i, b := range a.Bounds {
		if b[0] > b[3] || b[1] > b[4] || b[2] > b[5] {
			return nil, opErr(op, ErrInvalidArgument, "box %d has min > max", i)
		}
	}
	out := make([]bool, len(a.Bounds))
	for i, b := range a.Bounds {
		// For each plane, test the most positive vertex.
		xmin, ymin, zmin, xmax, ymax, zmax := b[0], b[1], b[2], b[3], b[4], b[5]
		vis := true
		for _, p := range a.Frustum.Planes {
			ax, by, cz, d := p[0], p[1], p[2], p[3]
			px := xmax
			if ax < 0 {
				px = xmin
			}
			py := ymax
			if by < 0 {
				py = ymin
			}
			pz := zmax
			if cz < 0 {
				pz = zmin
			}
			if ax*px+by*py+cz*pz+d < 0 {
				vis = false
				break
			}
		}
		out[i] = vis
	}
	return CullingOut{Visible: out}, nil
}
