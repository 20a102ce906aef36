package fkmc

import "gonum.org/v1/gonum/mat"

// Lattice is the external geometry adapter required by §6: site count,
// dimensionality, per-site neighbor lists, position<->index mapping, and
// the hopping matrix. Any type satisfying this interface can stand in for
// HypercubicLattice / TriangularLattice below.
type Lattice interface {
	V() int
	D() int
	Dims() []int
	Neighbors(i int) []int
	IndexToPos(i int) []int
	PosToIndex(pos []int) int
	HoppingMatrix() *mat.SymDense
	FFTPiSign(i int) int
}

// HypercubicLattice is a D-dimensional hypercubic lattice with periodic
// boundary conditions and nearest-neighbor hopping amplitude -t. It is
// immutable once constructed (§3).
type HypercubicLattice struct {
	dims    []int
	v       int
	t       float64
	hopping *mat.SymDense
	piPhase []int
}

// NewHypercubicLattice builds a hypercubic lattice of the given per-dimension
// side lengths with nearest-neighbor hopping amplitude -t. Each side length
// must be a positive integer; dims determines both D (= len(dims)) and
// V (= product of dims).
func NewHypercubicLattice(dims []int, t float64) *HypercubicLattice {
	v := 1
	for _, d := range dims {
		v *= d
	}
	l := &HypercubicLattice{
		dims: append([]int(nil), dims...),
		v:    v,
		t:    t,
	}
	l.piPhase = make([]int, v)
	for i := 0; i < v; i++ {
		sign := 1
		for _, p := range l.IndexToPos(i) {
			if p%2 == 1 {
				sign = -sign
			}
		}
		l.piPhase[i] = sign
	}
	l.hopping = l.buildHopping()
	return l
}

func (l *HypercubicLattice) V() int      { return l.v }
func (l *HypercubicLattice) D() int      { return len(l.dims) }
func (l *HypercubicLattice) Dims() []int { return append([]int(nil), l.dims...) }

// IndexToPos converts a flat site index to its D-tuple coordinates, most
// significant dimension first.
func (l *HypercubicLattice) IndexToPos(index int) []int {
	d := len(l.dims)
	out := make([]int, d)
	for i := d - 1; i >= 0; i-- {
		out[i] = index % l.dims[i]
		index /= l.dims[i]
	}
	return out
}

// PosToIndex converts D-tuple coordinates back to a flat site index.
func (l *HypercubicLattice) PosToIndex(pos []int) int {
	out, mult := 0, 1
	for i := len(l.dims) - 1; i >= 0; i-- {
		out += pos[i] * mult
		mult *= l.dims[i]
	}
	return out
}

// Neighbors returns the 2D periodic nearest-neighbor site indices of i,
// ordered [lo_0, hi_0, lo_1, hi_1, ...] (the -1 and +1 neighbor along each
// dimension in turn). currentOperator in conductivity.go relies on
// neighbors[1] being the +1 neighbor along dimension 0.
func (l *HypercubicLattice) Neighbors(i int) []int {
	pos := l.IndexToPos(i)
	d := len(l.dims)
	out := make([]int, 0, 2*d)
	for dim := 0; dim < d; dim++ {
		lo := append([]int(nil), pos...)
		hi := append([]int(nil), pos...)
		if pos[dim] == 0 {
			lo[dim] = l.dims[dim] - 1
		} else {
			lo[dim] = pos[dim] - 1
		}
		if pos[dim] == l.dims[dim]-1 {
			hi[dim] = 0
		} else {
			hi[dim] = pos[dim] + 1
		}
		out = append(out, l.PosToIndex(lo), l.PosToIndex(hi))
	}
	return out
}

func (l *HypercubicLattice) buildHopping() *mat.SymDense {
	h := mat.NewSymDense(l.v, nil)
	for i := 0; i < l.v; i++ {
		for _, j := range l.Neighbors(i) {
			if j > i {
				h.SetSym(i, j, -l.t)
			}
		}
	}
	return h
}

// HoppingMatrix returns the (shared, read-only-by-convention) sparse-in-spirit
// hopping matrix T. Callers must not mutate the returned matrix.
func (l *HypercubicLattice) HoppingMatrix() *mat.SymDense { return l.hopping }

// FFTPiSign returns the staggered ordering-parameter phase (-1)^(sum of
// coordinates) used by FFTPi projections (§3).
func (l *HypercubicLattice) FFTPiSign(i int) int { return l.piPhase[i] }

// FFTPi computes Σ_i π_i · v_i for a real site vector v.
func FFTPi(l Lattice, v []float64) float64 {
	var sum float64
	for i, x := range v {
		sum += float64(l.FFTPiSign(i)) * x
	}
	return sum
}

// TriangularLattice is a 2D triangular lattice with periodic boundary
// conditions; each site has 6 nearest neighbors (three axial directions on
// the triangular Bravais lattice, each with a +/- sense). Supplements §4.1's
// "triangular lattice variant returns 6" with a concrete geometry — the
// distilled spec names the neighbor count but the original C++ source never
// implements a second lattice, so this is built in the teacher's idiom
// directly from spec.md.
type TriangularLattice struct {
	lx, ly  int
	v       int
	t       float64
	hopping *mat.SymDense
	piPhase []int
}

// NewTriangularLattice builds an Lx-by-Ly triangular lattice with hopping -t.
func NewTriangularLattice(lx, ly int, t float64) *TriangularLattice {
	l := &TriangularLattice{lx: lx, ly: ly, v: lx * ly, t: t}
	l.piPhase = make([]int, l.v)
	for i := 0; i < l.v; i++ {
		pos := l.IndexToPos(i)
		sign := 1
		for _, p := range pos {
			if p%2 == 1 {
				sign = -sign
			}
		}
		l.piPhase[i] = sign
	}
	l.hopping = l.buildHopping()
	return l
}

func (l *TriangularLattice) V() int      { return l.v }
func (l *TriangularLattice) D() int      { return 2 }
func (l *TriangularLattice) Dims() []int { return []int{l.lx, l.ly} }

func (l *TriangularLattice) IndexToPos(index int) []int {
	return []int{index / l.ly, index % l.ly}
}

func (l *TriangularLattice) PosToIndex(pos []int) int {
	return pos[0]*l.ly + pos[1]
}

func wrap(x, n int) int {
	x %= n
	if x < 0 {
		x += n
	}
	return x
}

// Neighbors returns the 6 triangular-lattice neighbors of site i: the two
// axial neighbors along x, the two along y, and the two diagonal neighbors
// that complete the triangular coordination (x+1,y-1) and (x-1,y+1).
func (l *TriangularLattice) Neighbors(i int) []int {
	pos := l.IndexToPos(i)
	x, y := pos[0], pos[1]
	offsets := [6][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, -1}, {-1, 1}}
	out := make([]int, 0, 6)
	for _, off := range offsets {
		nx := wrap(x+off[0], l.lx)
		ny := wrap(y+off[1], l.ly)
		out = append(out, l.PosToIndex([]int{nx, ny}))
	}
	return out
}

func (l *TriangularLattice) buildHopping() *mat.SymDense {
	h := mat.NewSymDense(l.v, nil)
	for i := 0; i < l.v; i++ {
		for _, j := range l.Neighbors(i) {
			if j > i {
				h.SetSym(i, j, -l.t)
			}
		}
	}
	return h
}

func (l *TriangularLattice) HoppingMatrix() *mat.SymDense { return l.hopping }
func (l *TriangularLattice) FFTPiSign(i int) int          { return l.piPhase[i] }
