package pathfind

import (
	"container/heap"
	"math"

	"github.com/zwm-666/wargrid/engine/grid"
)

// Point represents a 2D integer coordinate
type Point struct{ X, Y int }

// Finder runs A* searches over a grid. Every search allocates fresh state,
// so one Finder may serve any number of independent queries.
type Finder struct {
	Grid *grid.Grid

	// MaxIterations bounds node expansions per search. Exceeding it is
	// treated as no path. Zero means 10 * width * height.
	MaxIterations int

	// FallbackRadius bounds the search for a traversable stand-in when
	// the requested destination is blocked. Zero means 6.
	FallbackRadius int
}

// NewFinder creates a Finder with default limits for the given grid.
func NewFinder(g *grid.Grid) *Finder {
	return &Finder{Grid: g}
}

func (f *Finder) maxIterations() int {
	if f.MaxIterations > 0 {
		return f.MaxIterations
	}
	return 10 * f.Grid.Width * f.Grid.Height
}

func (f *Finder) fallbackRadius() int {
	if f.FallbackRadius > 0 {
		return f.FallbackRadius
	}
	return 6
}

// FindPath finds a path from start to goal using A*. The result starts at
// the start cell and ends at the goal (or its traversable stand-in when the
// goal is blocked). Nil means no path.
//
// Diagonal steps cost sqrt(2) and never cut corners: both orthogonal
// neighbours of a diagonal step must be traversable. Entering a cell is
// scaled by that cell's terrain cost.
func (f *Finder) FindPath(sx, sy, gx, gy int, caps grid.Caps) []Point {
	g := f.Grid
	if !g.InBounds(sx, sy) {
		return nil
	}
	gx, gy = clamp(gx, 0, g.Width-1), clamp(gy, 0, g.Height-1)

	if !g.Traversable(gx, gy, caps) {
		alt, ok := f.NearestTraversable(gx, gy, f.fallbackRadius(), caps)
		if !ok {
			return nil
		}
		gx, gy = alt.X, alt.Y
	}

	start := Point{sx, sy}
	goal := Point{gx, gy}
	if start == goal {
		return []Point{start}
	}

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &node{p: start, g: 0, f: heuristic(start, goal)})

	came := make(map[Point]Point)
	gScore := make(map[Point]float64)
	gScore[start] = 0

	maxIter := f.maxIterations()
	for iter := 0; open.Len() > 0; iter++ {
		if iter >= maxIter {
			return nil
		}
		cur := heap.Pop(open).(*node)
		if cur.p == goal {
			return reconstructPath(came, goal)
		}

		for _, nb := range g.Neighbors(cur.p.X, cur.p.Y, true) {
			nx, ny := nb[0], nb[1]
			if !g.Traversable(nx, ny, caps) {
				continue
			}
			dx, dy := nx-cur.p.X, ny-cur.p.Y
			// Prevent diagonal cutting through walls
			if dx != 0 && dy != 0 {
				if !g.Traversable(cur.p.X+dx, cur.p.Y, caps) || !g.Traversable(cur.p.X, cur.p.Y+dy, caps) {
					continue
				}
			}
			np := Point{nx, ny}
			moveCost := g.CostAt(nx, ny, caps)
			if dx != 0 && dy != 0 {
				moveCost *= math.Sqrt2
			}
			tentG := gScore[cur.p] + moveCost
			if old, ok := gScore[np]; ok && tentG >= old {
				continue
			}
			gScore[np] = tentG
			came[np] = cur.p
			heap.Push(open, &node{p: np, g: tentG, f: tentG + heuristic(np, goal)})
		}
	}
	return nil // no path
}

// NearestTraversable scans outward in square rings and returns the first
// traversable cell within maxRadius, nearest ring first. The scan order is
// fixed, so the result is deterministic.
func (f *Finder) NearestTraversable(x, y, maxRadius int, caps grid.Caps) (Point, bool) {
	if f.Grid.Traversable(x, y, caps) {
		return Point{x, y}, true
	}
	for r := 1; r <= maxRadius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx != -r && dx != r && dy != -r && dy != r {
					continue // interior of the ring, already scanned
				}
				if f.Grid.Traversable(x+dx, y+dy, caps) {
					return Point{x + dx, y + dy}, true
				}
			}
		}
	}
	return Point{}, false
}

// SmoothPath removes unnecessary waypoints using line-of-sight checks.
// Only useful for movers with uniform cell costs (flyers): cutting across
// cells ignores terrain cost differences.
func (f *Finder) SmoothPath(path []Point, caps grid.Caps) []Point {
	if len(path) <= 2 {
		return path
	}
	smooth := []Point{path[0]}
	cur := 0
	for cur < len(path)-1 {
		farthest := cur + 1
		for i := len(path) - 1; i > cur+1; i-- {
			if f.lineOfSight(path[cur], path[i], caps) {
				farthest = i
				break
			}
		}
		smooth = append(smooth, path[farthest])
		cur = farthest
	}
	return smooth
}

// lineOfSight walks the segment cell by cell. Diagonal steps apply the same
// corner rule as the search itself.
func (f *Finder) lineOfSight(a, b Point, caps grid.Caps) bool {
	dx := abs(b.X - a.X)
	dy := abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx - dy
	x, y := a.X, a.Y
	for {
		if !f.Grid.Traversable(x, y, caps) {
			return false
		}
		if x == b.X && y == b.Y {
			return true
		}
		e2 := err * 2
		stepX := e2 > -dy
		stepY := e2 < dx
		if stepX && stepY {
			if !f.Grid.Traversable(x+sx, y, caps) || !f.Grid.Traversable(x, y+sy, caps) {
				return false
			}
		}
		if stepX {
			err -= dy
			x += sx
		}
		if stepY {
			err += dx
			y += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// heuristic is the octile distance: admissible for 8-way movement with
// sqrt(2) diagonals and cost multipliers >= 1.
func heuristic(a, b Point) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	return dx + dy + (math.Sqrt2-2)*math.Min(dx, dy)
}

func reconstructPath(came map[Point]Point, goal Point) []Point {
	path := []Point{goal}
	cur := goal
	for {
		prev, ok := came[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	// Reverse
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// --- Priority queue ---

type node struct {
	p    Point
	g, f float64
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }

// Less orders by f; ties prefer the node with higher g, which is the one
// closer to the goal.
func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].g > h[j].g
}
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
