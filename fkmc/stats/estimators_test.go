package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/qftphys/fk-mc/fkmc"
)

func TestSpecificHeat_EmptyStream(t *testing.T) {
	if bt := SpecificHeat(nil, nil, 1.0, 4); bt.Size != 0 {
		t.Errorf("SpecificHeat on empty streams should return size 0, got %d", bt.Size)
	}
}

func TestSusceptibility_ConstantStreamIsZero(t *testing.T) {
	nq := make([]float64, 64)
	for i := range nq {
		nq[i] = 2.0
	}
	bt := Susceptibility(nq)
	if math.Abs(bt.Mean) > 1e-9 {
		t.Errorf("Susceptibility of a constant stream = %v, want 0", bt.Mean)
	}
}

func TestBinderCumulant_ConstantStream(t *testing.T) {
	nq := make([]float64, 64)
	for i := range nq {
		nq[i] = 3.0
	}
	bt := BinderCumulant(nq)
	want := 1 - math.Pow(3, 4)/(3*math.Pow(3, 4))
	if math.Abs(bt.Mean-want) > 1e-6 {
		t.Errorf("BinderCumulant of constant stream = %v, want %v", bt.Mean, want)
	}
}

func TestFFCorrelator_SelfCorrelationNonNegative(t *testing.T) {
	lattice := fkmc.NewHypercubicLattice([]int{4, 4}, 1.0)
	v := lattice.V()
	n := 64
	rng := rand.New(rand.NewSource(9))
	history := make([]float64, v*n)
	for i := 0; i < v; i++ {
		for tsample := 0; tsample < n; tsample++ {
			history[i*n+tsample] = float64(rng.Intn(2))
		}
	}
	c0, _ := FFCorrelator(lattice, history, 0)
	if c0.Size == 0 {
		t.Fatal("expected nonzero-size bin_tuple for C(0)")
	}
	if c0.Mean < 0 {
		t.Errorf("C(0) mean = %v, want >= 0", c0.Mean)
	}
}

func TestDCConductivity_EmptyHistory(t *testing.T) {
	sigma0, dynamic := DCConductivity(nil, 8, 1e-3)
	if sigma0.Size != 0 || dynamic != nil {
		t.Error("DCConductivity on empty history should return an empty tuple and nil dynamic slice")
	}
}
