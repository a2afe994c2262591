package swarm

import (
	"math"

	"github.com/pkg/errors"
)

// Grid is a uniform spatial index over a toroidal world. It is rebuilt from
// scratch every tick and is read-only while agents are being updated, so any
// number of goroutines may query it concurrently.
//
// The requested cell size is snapped so that a whole number of cells tiles each
// axis. That keeps floor(x/cell) mod cols identical for every wrapped image of
// a point, which is what lets windowed queries cross the seam.
type Grid struct {
	width, height float64
	cellW, cellH  float64
	cols, rows    int

	cells  [][]int // index = iy*cols + ix, values are point ids
	points []Vec2  // position of every indexed id at build time
}

// NewGrid creates an empty grid for a w x h world with cells close to cellW x cellH
func NewGrid(cellW, cellH, w, h float64) (*Grid, error) {
	if !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return nil, errors.Wrapf(ErrWorld, "%gx%g", w, h)
	}
	cols, rows, err := gridDims(cellW, cellH, w, h)
	if err != nil {
		return nil, err
	}
	return &Grid{
		width:  w,
		height: h,
		cellW:  w / float64(cols),
		cellH:  h / float64(rows),
		cols:   cols,
		rows:   rows,
		cells:  make([][]int, cols*rows),
	}, nil
}

// BuildGrid indexes the positions of agents, using each agent's slice index as its id
func BuildGrid(agents []Agent, cellW, cellH, w, h float64) (*Grid, error) {
	g, err := NewGrid(cellW, cellH, w, h)
	if err != nil {
		return nil, err
	}
	points := make([]Vec2, len(agents))
	for i := range agents {
		points[i] = agents[i].Pos
	}
	g.Build(points)
	return g, nil
}

// MaxGridCells bounds the number of cells a grid may allocate
const MaxGridCells = 1 << 24

// gridDims returns the column and row counts for cells close to cellW x cellH.
// Counts are checked as floats so absurd ratios never reach an int conversion.
func gridDims(cellW, cellH, w, h float64) (cols, rows int, err error) {
	if !(cellW > 0) || !(cellH > 0) || math.IsInf(cellW, 0) || math.IsInf(cellH, 0) {
		return 0, 0, errors.Wrapf(ErrCellSize, "%gx%g", cellW, cellH)
	}
	fc := axisCells(w, cellW)
	fr := axisCells(h, cellH)
	if fc*fr > MaxGridCells {
		return 0, 0, errors.Wrapf(ErrCellSize, "%gx%g gives %.0f cells, limit %d", cellW, cellH, fc*fr, MaxGridCells)
	}
	return int(fc), int(fr), nil
}

func axisCells(extent, cell float64) float64 {
	return math.Max(1, math.Round(extent/cell))
}

// Build discards the previous contents and indexes points; point i gets id i.
// Cell storage is reused between builds.
func (g *Grid) Build(points []Vec2) {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.points = append(g.points[:0], points...)
	for id, p := range g.points {
		ix, iy := g.Cell(p)
		idx := iy*g.cols + ix
		g.cells[idx] = append(g.cells[idx], id)
	}
}

// Cell returns the wrapped cell coordinate of p
func (g *Grid) Cell(p Vec2) (ix, iy int) {
	ix = wrapIndex(int(math.Floor(p.X/g.cellW)), g.cols)
	iy = wrapIndex(int(math.Floor(p.Y/g.cellH)), g.rows)
	return ix, iy
}

// Bucket returns the ids stored in cell (ix, iy); coordinates are wrapped.
// The slice is owned by the grid.
func (g *Grid) Bucket(ix, iy int) []int {
	ix = wrapIndex(ix, g.cols)
	iy = wrapIndex(iy, g.rows)
	return g.cells[iy*g.cols+ix]
}

// Dims returns the number of columns and rows
func (g *Grid) Dims() (cols, rows int) {
	return g.cols, g.rows
}

// CellSize returns the effective (snapped) cell size
func (g *Grid) CellSize() (w, h float64) {
	return g.cellW, g.cellH
}

// Len is the number of indexed points
func (g *Grid) Len() int {
	return len(g.points)
}

// Point returns the build-time position of id
func (g *Grid) Point(id int) Vec2 {
	return g.points[id]
}

// Query returns the ids of every point in a cell that might lie within r of p.
// The result is a candidate set; callers filter by toroidal distance.
func (g *Grid) Query(p Vec2, r float64) []int {
	return g.QueryInto(nil, p, r)
}

// QueryInto appends the Query candidates to buf and returns the extended slice
func (g *Grid) QueryInto(buf []int, p Vec2, r float64) []int {
	if r < 0 || len(g.points) == 0 {
		return buf
	}
	x0, x1 := axisWindow(p.X, r, g.cellW, g.width, g.cols)
	y0, y1 := axisWindow(p.Y, r, g.cellH, g.height, g.rows)

	for y := y0; y <= y1; y++ {
		row := wrapIndex(y, g.rows) * g.cols
		for x := x0; x <= x1; x++ {
			buf = append(buf, g.cells[row+wrapIndex(x, g.cols)]...)
		}
	}
	return buf
}

// windowPad widens query windows by a sliver of a cell so a point sitting on a
// cell boundary is not lost to rounding in x/cell.
const windowPad = 1e-7

// axisWindow returns the unwrapped cell range covering [c-r, c+r]. A range that
// would reach around the whole axis is clamped to exactly one lap so no cell is
// visited twice.
func axisWindow(c, r, cell, extent float64, n int) (lo, hi int) {
	if 2*r >= extent {
		return 0, n - 1
	}
	lo = int(math.Floor((c-r)/cell - windowPad))
	hi = int(math.Floor((c+r)/cell + windowPad))
	if hi-lo+1 >= n {
		return 0, n - 1
	}
	return lo, hi
}

// Within returns the ids whose build-time position is within toroidal distance r of p
func (g *Grid) Within(p Vec2, r float64) []int {
	return g.WithinInto(nil, p, r)
}

// WithinInto appends the Within result to buf
func (g *Grid) WithinInto(buf []int, p Vec2, r float64) []int {
	start := len(buf)
	buf = g.QueryInto(buf, p, r)
	r2 := r * r
	kept := buf[:start]
	for _, id := range buf[start:] {
		if p.DistModSq(g.points[id], g.width, g.height) <= r2 {
			kept = append(kept, id)
		}
	}
	return kept
}

// QueryExhaustive scans every cell and keeps the points within toroidal
// distance r of p. It is O(n) and serves as the reference for Query.
func (g *Grid) QueryExhaustive(p Vec2, r float64) []int {
	if r < 0 {
		return nil
	}
	var out []int
	r2 := r * r
	for _, cell := range g.cells {
		for _, id := range cell {
			if p.DistModSq(g.points[id], g.width, g.height) <= r2 {
				out = append(out, id)
			}
		}
	}
	return out
}

// All returns every indexed id in cell order
func (g *Grid) All() []int {
	out := make([]int, 0, len(g.points))
	for _, cell := range g.cells {
		out = append(out, cell...)
	}
	return out
}

// wrapIndex folds i into [0, n). Go's % keeps the sign of the dividend, so the
// negative case is corrected explicitly.
func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
