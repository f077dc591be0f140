package ops

import (
	"fmt"

	"github.com/openfluke/loomfuzz/fuzzbytes"
	"github.com/openfluke/loomfuzz/pods"
)

func init() { register("ai/astar", 6, aStar) }

// [w][h][sx][sy][gx][gy][costs][wall bitset][cost bytes?]
func aStar(x *pods.ExecContext, c *fuzzbytes.Cursor) error {
	const op = "ai/astar"
	w, h := dim(c, 0, 32), dim(c, 0, 32)
	in := pods.AStarIn{
		Start: [2]int{dim(c, 0, 33), dim(c, 0, 33)},
		Goal:  [2]int{dim(c, 0, 33), dim(c, 0, 33)},
	}
	costMode := c.Enum(4, 0)
	walls := c.Bytes((w*h + 7) / 8)
	solid := func(px, py int) bool {
		i := py*w + px
		return walls[i/8]&(1<<(i%8)) != 0
	}
	in.Map = pods.GridMap{W: w, H: h, Solid: solid}

	var costs []byte
	if costMode != 0 {
		costs = c.Bytes(w * h)
		in.Map.Cost = func(px, py int) float32 {
			b := costs[py*w+px]
			if costMode == 3 && b == 0 {
				return 0 // refused by the pod
			}
			return float32(1 + b%8)
		}
	}

	out, err := pods.Run(x, op, in)
	if err != nil {
		return err
	}
	return checkPath(in, out.(pods.AStarOut))
}

// checkPath verifies a returned path starts and ends where asked, moves one
// orthogonal step at a time and avoids walls, and that Cost is its weight.
func checkPath(in pods.AStarIn, out pods.AStarOut) error {
	const op = "ai/astar"
	if len(out.Path) == 0 {
		return nil
	}
	if out.Path[0] != in.Start || out.Path[len(out.Path)-1] != in.Goal {
		return fmt.Errorf("%s: path %v does not join %v and %v", op, out.Path, in.Start, in.Goal)
	}
	var cost float32
	for i := 1; i < len(out.Path); i++ {
		p, q := out.Path[i-1], out.Path[i]
		dx, dy := q[0]-p[0], q[1]-p[1]
		if dx*dx+dy*dy != 1 {
			return fmt.Errorf("%s: step %d jumps %v -> %v", op, i, p, q)
		}
		if in.Map.Solid(q[0], q[1]) {
			return fmt.Errorf("%s: step %d enters wall %v", op, i, q)
		}
		step := float32(1)
		if in.Map.Cost != nil {
			step = in.Map.Cost(q[0], q[1])
		}
		cost += step
	}
	if cost != out.Cost {
		return fmt.Errorf("%s: path weighs %v, reported %v", op, cost, out.Cost)
	}
	return nil
}
