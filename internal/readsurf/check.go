package readsurf

import (
	"math"

	"github.com/Faultbox/surfread/pkg/surf"
)

// Extent is the per-axis [min, max] of a set of points.
type Extent [3][2]float64

// extent returns the bounding extent of pts.
func extent(pts []surf.Point) Extent {
	var e Extent
	for k := 0; k < 3; k++ {
		e[k] = [2]float64{math.MaxFloat64, -math.MaxFloat64}
	}
	for _, p := range pts {
		for k := 0; k < 3; k++ {
			e[k][0] = math.Min(e[k][0], p.X[k])
			e[k][1] = math.Max(e[k][1], p.X[k])
		}
	}
	return e
}

// countOutside returns how many points are not strictly inside the box.
func countOutside(pts []surf.Point, box surf.Box) int {
	n := 0
	for _, p := range pts {
		if !box.Inside(p.X) {
			n++
		}
	}
	return n
}

// pairEpsilon returns the distance below which two points are duplicates:
// factor times the shortest box edge. The z edge is ignored in 2D.
func pairEpsilon(box surf.Box, factor float64) float64 {
	prd := box.Prd()
	short := math.Min(prd[0], prd[1])
	if box.Dimension == 3 {
		short = math.Min(short, prd[2])
	}
	return factor * short
}

// binGrid is a uniform grid of cells covering the box, sized so that each
// cell holds about one point.
type binGrid struct {
	box  surf.Box
	n    [3]int
	size [3]float64
	inv  [3]float64
}

// maxCellsPerPoint bounds the grid at maxCellsPerPoint*(npoint+1) cells.
// A very elongated box would otherwise get a cell count far beyond the
// number of points.
const maxCellsPerPoint = 8

func newBinGrid(box surf.Box, npoint int) binGrid {
	prd := box.Prd()
	g := binGrid{box: box, n: [3]int{1, 1, 1}}

	naxis := 3
	var binsize float64
	if box.Dimension == 2 {
		naxis = 2
		binsize = math.Sqrt(prd[0] * prd[1] / float64(npoint))
	} else {
		binsize = math.Cbrt(prd[0] * prd[1] * prd[2] / float64(npoint))
	}
	if !(binsize > 0) || math.IsInf(binsize, 0) {
		binsize = max(prd[0], prd[1], prd[2])
	}

	limit := float64(maxCellsPerPoint * (npoint + 1))
	for {
		counts, total := binCounts(prd, naxis, binsize)
		if total <= limit {
			for k := 0; k < naxis; k++ {
				g.n[k] = int(counts[k])
			}
			break
		}
		binsize *= 2
	}

	for k := 0; k < 3; k++ {
		g.size[k] = prd[k] / float64(g.n[k])
		g.inv[k] = 1 / g.size[k]
	}
	return g
}

// binCounts returns the cells per axis for binsize and their product. An
// axis with more than one cell gets one extra so that the shifted pass
// still covers the box.
func binCounts(prd [3]float64, naxis int, binsize float64) ([3]float64, float64) {
	counts := [3]float64{1, 1, 1}
	total := 1.0
	for k := 0; k < naxis; k++ {
		n := math.Floor(prd[k] / binsize)
		if n < 1 {
			n = 1
		}
		if n > 1 {
			n++
		}
		counts[k] = n
		total *= n
	}
	return counts, total
}

func (g binGrid) cells() int {
	return g.n[0] * g.n[1] * g.n[2]
}

// origin returns the grid corner for a pass. The second pass is shifted by
// half a cell on every axis that has more than one cell.
func (g binGrid) origin(shifted bool) [3]float64 {
	o := g.box.Lo
	if !shifted {
		return o
	}
	for k := 0; k < 3; k++ {
		if g.n[k] > 1 {
			o[k] -= 0.5 * g.size[k]
		}
	}
	return o
}

// cell returns the flat cell index of x. Indices are clamped to the grid.
func (g binGrid) cell(x, origin [3]float64) int {
	var c [3]int
	for k := 0; k < 3; k++ {
		i := int((x[k] - origin[k]) * g.inv[k])
		c[k] = min(max(i, 0), g.n[k]-1)
	}
	return (c[2]*g.n[1]+c[1])*g.n[0] + c[0]
}

// countClosePairs bins the points and counts pairs in the same cell closer
// than eps. Pairs that straddle a cell boundary are found by the pass
// with the other alignment.
func (g binGrid) countClosePairs(pts []surf.Point, eps float64, shifted bool) int {
	head := make([]int, g.cells())
	for i := range head {
		head[i] = -1
	}
	next := make([]int, len(pts))

	o := g.origin(shifted)
	for i := range pts {
		c := g.cell(pts[i].X, o)
		next[i] = head[c]
		head[c] = i
	}

	epssq := eps * eps
	n := 0
	for _, first := range head {
		for i := first; i >= 0; i = next[i] {
			for j := next[i]; j >= 0; j = next[j] {
				if distSq(pts[i].X, pts[j].X) < epssq {
					n++
				}
			}
		}
	}
	return n
}

func distSq(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}

// checkPointPairs fails if any two new points are closer than eps, using
// an aligned and a half-cell shifted pass.
func checkPointPairs(pts []surf.Point, box surf.Box, eps float64) error {
	if len(pts) < 2 {
		return nil
	}
	g := newBinGrid(box, len(pts))
	for _, shifted := range []bool{false, true} {
		if err := defects(CheckPointPairs, g.countClosePairs(pts, eps, shifted)); err != nil {
			return err
		}
	}
	return nil
}

// countLeaky2D returns how many new points are not shared by exactly two
// new lines.
func countLeaky2D(lines []surf.Line, npointOld, npointNew int) int {
	degree := make([]int, npointNew)
	for _, ln := range lines {
		degree[ln.P1-npointOld]++
		degree[ln.P2-npointOld]++
	}
	n := 0
	for _, d := range degree {
		if d != 2 {
			n++
		}
	}
	return n
}

// edgeTable counts how often each undirected edge occurs. Edges are keyed
// by their lower vertex; each vertex owns a fixed run of the neighbor and
// count arrays.
type edgeTable struct {
	start []int
	used  []int
	nbr   []int
	count []int

	overflow int
}

// newEdgeTable sizes each vertex's run as half the number of triangle
// edges that have it as their lower vertex.
func newEdgeTable(tris []surf.Tri, npointOld, npointNew int) *edgeTable {
	capacity := make([]int, npointNew)
	for _, tr := range tris {
		p := [3]int{tr.P1 - npointOld, tr.P2 - npointOld, tr.P3 - npointOld}
		capacity[min(p[0], p[1])]++
		capacity[min(p[1], p[2])]++
		capacity[min(p[2], p[0])]++
	}

	t := &edgeTable{
		start: make([]int, npointNew+1),
		used:  make([]int, npointNew),
	}
	for i, c := range capacity {
		t.start[i+1] = t.start[i] + c/2
	}
	total := t.start[npointNew]
	t.nbr = make([]int, total)
	t.count = make([]int, total)
	return t
}

// add records one occurrence of edge (a, b).
func (t *edgeTable) add(a, b int) {
	lo, hi := min(a, b), max(a, b)
	base := t.start[lo]
	for j := base; j < base+t.used[lo]; j++ {
		if t.nbr[j] == hi {
			t.count[j]++
			return
		}
	}
	if base+t.used[lo] == t.start[lo+1] {
		t.overflow++
		return
	}
	j := base + t.used[lo]
	t.nbr[j] = hi
	t.count[j] = 1
	t.used[lo]++
}

// mismatched returns how many recorded edges occur other than 2 or 4 times.
func (t *edgeTable) mismatched() int {
	n := 0
	for lo, u := range t.used {
		for j := t.start[lo]; j < t.start[lo]+u; j++ {
			if c := t.count[j]; c != 2 && c != 4 {
				n++
			}
		}
	}
	return n
}

// countLeaky3D returns the number of unmatched edges among the new
// triangles: edges with no room in the table plus edges not used exactly
// 2 or 4 times.
func countLeaky3D(tris []surf.Tri, npointOld, npointNew int) int {
	t := newEdgeTable(tris, npointOld, npointNew)
	for _, tr := range tris {
		p1, p2, p3 := tr.P1-npointOld, tr.P2-npointOld, tr.P3-npointOld
		t.add(p1, p2)
		t.add(p2, p3)
		t.add(p3, p1)
	}
	return t.overflow + t.mismatched()
}
