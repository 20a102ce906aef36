package fkmc

import "testing"

func TestHypercubicLattice_VAndD(t *testing.T) {
	l := NewHypercubicLattice([]int{4, 4}, 1.0)
	if l.V() != 16 {
		t.Errorf("V() = %d, want 16", l.V())
	}
	if l.D() != 2 {
		t.Errorf("D() = %d, want 2", l.D())
	}
}

func TestHypercubicLattice_IndexPosRoundTrip(t *testing.T) {
	l := NewHypercubicLattice([]int{3, 5}, 1.0)
	for i := 0; i < l.V(); i++ {
		pos := l.IndexToPos(i)
		if got := l.PosToIndex(pos); got != i {
			t.Errorf("PosToIndex(IndexToPos(%d)) = %d, want %d", i, got, i)
		}
	}
}

func TestHypercubicLattice_NeighborsCountIs2D(t *testing.T) {
	// §4.1: neighbors(i) returns exactly 2D indices under periodic BCs.
	l := NewHypercubicLattice([]int{4, 4, 2}, 1.0)
	for i := 0; i < l.V(); i++ {
		if n := len(l.Neighbors(i)); n != 2*l.D() {
			t.Errorf("site %d: len(Neighbors) = %d, want %d", i, n, 2*l.D())
		}
	}
}

func TestHypercubicLattice_NeighborsAreSymmetric(t *testing.T) {
	l := NewHypercubicLattice([]int{4, 4}, 1.0)
	for i := 0; i < l.V(); i++ {
		for _, j := range l.Neighbors(i) {
			found := false
			for _, k := range l.Neighbors(j) {
				if k == i {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("site %d has neighbor %d, but %d does not list %d back", i, j, j, i)
			}
		}
	}
}

func TestHypercubicLattice_HoppingMatrixSymmetricAndZeroDiag(t *testing.T) {
	l := NewHypercubicLattice([]int{3, 3}, 0.7)
	h := l.HoppingMatrix()
	v := l.V()
	for i := 0; i < v; i++ {
		if h.At(i, i) != 0 {
			t.Errorf("H[%d][%d] = %v, want 0 (no on-site term in bare hopping)", i, i, h.At(i, i))
		}
		for j := 0; j < v; j++ {
			if h.At(i, j) != h.At(j, i) {
				t.Errorf("H not symmetric at (%d,%d): %v vs %v", i, j, h.At(i, j), h.At(j, i))
			}
		}
	}
}

func TestTriangularLattice_NeighborsCountIs6(t *testing.T) {
	l := NewTriangularLattice(4, 4, 1.0)
	for i := 0; i < l.V(); i++ {
		if n := len(l.Neighbors(i)); n != 6 {
			t.Errorf("site %d: len(Neighbors) = %d, want 6", i, n)
		}
	}
}

func TestFFTPi_UniformVectorIsZero(t *testing.T) {
	l := NewHypercubicLattice([]int{4, 4}, 1.0)
	v := make([]float64, l.V())
	for i := range v {
		v[i] = 1.0
	}
	// Equal number of +1/-1 phases on an even-sided lattice cancels exactly.
	if got := FFTPi(l, v); got != 0 {
		t.Errorf("FFTPi(uniform) = %v, want 0", got)
	}
}
