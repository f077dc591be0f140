package pods

import (
	"container/heap"
	"math"
)

type GridMap struct {
	W, H  int
	Solid func(x, y int) bool
	Cost  func(x, y int) float32 // optional; nil -> 1
}
type AStarIn struct {
	Map         GridMap
	Start, Goal [2]int
}
type AStarOut struct {
	Path [][2]int // nil when the goal is unreachable
	Cost float32
}

type node struct {
	x, y   int
	g, h   float32
	parent *node
	idx    int
}
type pq []*node

func (p pq) Len() int           { return len(p) }
func (p pq) Less(i, j int) bool { return p[i].g+p[i].h < p[j].g+p[j].h }
func (p pq) Swap(i, j int)      { p[i], p[j] = p[j], p[i]; p[i].idx = i; p[j].idx = j }
func (p *pq) Push(x any)        { n := x.(*node); n.idx = len(*p); *p = append(*p, n) }
func (p *pq) Pop() any          { old := *p; x := old[len(old)-1]; *p = old[:len(old)-1]; return x }

type AStarPod struct{}

func (AStarPod) Name() string { return "ai/astar" }

func (AStarPod) Run(x *ExecContext, in any) (any, error) {
	const op = "ai/astar"
	a, ok := in.(AStarIn)
	if !ok {
		return nil, inputErr(op, in)
	}
	W, H := a.Map.W, a.Map.H
	if W <= 0 || H <= 0 {
		return nil, opErr(op, ErrInvalidArgument, "grid %dx%d", W, H)
	}
	if _, ok := checkedMul(W, H); !ok {
		return nil, opErr(op, ErrInvalidArgument, "grid %dx%d too large", W, H)
	}
	inside := func(p [2]int) bool { return p[0] >= 0 && p[1] >= 0 && p[0] < W && p[1] < H }
	if !inside(a.Start) || !inside(a.Goal) {
		return nil, opErr(op, ErrInvalidArgument, "start %v or goal %v outside %dx%d", a.Start, a.Goal, W, H)
	}
	sx, sy := a.Start[0], a.Start[1]
	gx, gy := a.Goal[0], a.Goal[1]
	hfun := func(x, y int) float32 {
		dx := x - gx
		dy := y - gy
		if dx < 0 {
			dx = -dx
		}
		if dy < 0 {
			dy = -dy
		}
		return float32(dx + dy) // manhattan
	}
	open := &pq{}
	heap.Init(open)
	start := &node{x: sx, y: sy, h: hfun(sx, sy)}
	heap.Push(open, start)
	vis := map[[2]int]*node{{sx, sy}: start}
	neighbors := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for open.Len() > 0 {
		if err := x.Err(); err != nil {
			return nil, err
		}
		cur := heap.Pop(open).(*node)
		if cur.x == gx && cur.y == gy {
			var path [][2]int
			for n := cur; n != nil; n = n.parent {
				path = append(path, [2]int{n.x, n.y})
			}
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			return AStarOut{Path: path, Cost: cur.g}, nil
		}
		if v := vis[[2]int{cur.x, cur.y}]; v != cur {
			continue // stale entry
		}
		for _, d := range neighbors {
			nx, ny := cur.x+d[0], cur.y+d[1]
			if !inside([2]int{nx, ny}) {
				continue
			}
			if a.Map.Solid != nil && a.Map.Solid(nx, ny) {
				continue
			}
			step := float32(1.0)
			if a.Map.Cost != nil {
				step = a.Map.Cost(nx, ny)
				if step < 1 || math.IsNaN(float64(step)) || math.IsInf(float64(step), 0) {
					return nil, opErr(op, ErrInvalidArgument, "cost %v at (%d,%d), want finite >= 1", step, nx, ny)
				}
			}
			g := cur.g + step
			key := [2]int{nx, ny}
			if v, ok := vis[key]; ok && g >= v.g {
				continue
			}
			n := &node{x: nx, y: ny, g: g, h: hfun(nx, ny), parent: cur}
			vis[key] = n
			heap.Push(open, n)
		}
	}
	return AStarOut{}, nil
}
