package stats

import (
	"math"
	"math/rand"
	"testing"
)

// TestJackknife_LinearEstimatorUnbiased checks §8 property 6: for linear g,
// the jackknife mean equals the plain mean exactly.
func TestJackknife_LinearEstimatorUnbiased(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	plainMean := 0.0
	for _, x := range xs {
		plainMean += x
	}
	plainMean /= float64(len(xs))

	g := func(means []float64) float64 { return means[0] }
	levels := AccumulateJackknife([][]float64{xs}, 0, g)
	if math.Abs(levels[0].Mean-plainMean) > 1e-9 {
		t.Errorf("jackknife mean = %v, want exactly %v", levels[0].Mean, plainMean)
	}
}

// TestJackknife_NonlinearVarianceRecovery exercises the nonlinear case of
// §8 property 6 on two correlated series with g(x,y) = x̄·ȳ - x̄² at M = 256:
// it checks the block count, a non-negative variance, and squared_error
// equal to variance. It does not compare against a known variance.
func TestJackknife_NonlinearVarianceRecovery(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m := 256
	xs := make([]float64, m)
	ys := make([]float64, m)
	for i := range xs {
		z := rng.NormFloat64()
		xs[i] = z + 0.1*rng.NormFloat64()
		ys[i] = z + 0.1*rng.NormFloat64()
	}

	g := func(means []float64) float64 { return means[0]*means[1] - means[0]*means[0] }
	levels := AccumulateJackknife([][]float64{xs, ys}, 0, g)
	bt := levels[0]
	if bt.Size != m {
		t.Fatalf("jackknife size = %d, want %d", bt.Size, m)
	}
	if bt.Variance < 0 {
		t.Errorf("jackknife variance = %v, should be non-negative", bt.Variance)
	}
	if bt.SquaredError != bt.Variance {
		t.Errorf("jackknife squared_error (%v) should equal variance (%v) directly", bt.SquaredError, bt.Variance)
	}
}

func TestAccumulateJackknife_EmptyStreams(t *testing.T) {
	levels := AccumulateJackknife(nil, 2, func(means []float64) float64 { return 0 })
	for _, bt := range levels {
		if bt.Size != 0 {
			t.Errorf("expected empty bin_tuple for zero streams, got size %d", bt.Size)
		}
	}
}

func TestAccumulateJackknife_ReturnsOneTupleForEveryLevel(t *testing.T) {
	xs := make([]float64, 64)
	for i := range xs {
		xs[i] = float64(i)
	}
	levels := AccumulateJackknife([][]float64{xs}, 4, func(means []float64) float64 { return means[0] })
	if len(levels) != 5 {
		t.Errorf("len(levels) = %d, want 5 (maxBin+1)", len(levels))
	}
}
