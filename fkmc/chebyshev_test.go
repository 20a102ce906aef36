package fkmc

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestChebSize_RoundsUpToEvenAndMinimumTwo(t *testing.T) {
	tests := []struct {
		prefactor float64
		v         int
		want      int
	}{
		{2.2, 4, 4},  // ceil(2.2*log(4)) = ceil(3.05) = 4 (already even)
		{1.0, 2, 2},  // ceil(log(2)) = 1 -> rounds to 2
		{0.01, 4, 2}, // tiny -> floor at 2
	}
	for _, tt := range tests {
		if got := ChebSize(tt.prefactor, tt.v); got != tt.want {
			t.Errorf("ChebSize(%v, %d) = %d, want %d", tt.prefactor, tt.v, got, tt.want)
		}
	}
}

func TestLanczosExtremal_MatchesDenseEigensolveOnDiagonal(t *testing.T) {
	v := 6
	h := mat.NewSymDense(v, nil)
	vals := []float64{-3, -1, 0, 2, 5, 9}
	for i, x := range vals {
		h.SetSym(i, i, x)
	}
	seed := RandomSeedVector(v, rand.New(rand.NewSource(1)))
	eMin, eMax, err := lanczosExtremal(h, seed)
	if err != nil {
		t.Fatalf("lanczosExtremal failed: %v", err)
	}
	if math.Abs(eMin-(-3)) > 1e-6 {
		t.Errorf("eMin = %v, want -3", eMin)
	}
	if math.Abs(eMax-9) > 1e-6 {
		t.Errorf("eMax = %v, want 9", eMax)
	}
}

// TestChebyshevConvergence checks §8 property 4: |logZ_cheb - logZ_ED|/V ->
// 0 as N_cheb grows, here compared at a modest expansion order against the
// ED reference on a 4x4 lattice with a random f-configuration.
func TestChebyshevConvergence(t *testing.T) {
	lattice := NewHypercubicLattice([]int{4, 4}, 1.0)
	params := testParams()
	params.Beta = 1.0

	config := NewConfiguration(lattice, params)
	config.RandomizeF(rand.New(rand.NewSource(2)), 8)
	config.CalcHamiltonian()
	if err := config.CalcED(false); err != nil {
		t.Fatalf("CalcED: %v", err)
	}
	edLogZ := config.LogZED()

	v := lattice.V()
	nCheb := ChebSize(2.2, v)
	seed := RandomSeedVector(v, rand.New(rand.NewSource(3)))
	if err := config.CalcChebyshev(nCheb, seed); err != nil {
		t.Fatalf("CalcChebyshev: %v", err)
	}
	chebLogZ := config.LogZCheb()

	perSiteErr := math.Abs(chebLogZ-edLogZ) / float64(v)
	if perSiteErr > 1e-2 {
		t.Errorf("per-site logZ error %v too large at N_cheb=%d", perSiteErr, nCheb)
	}
}
