// Package stats implements the binning/jackknife resampling pipeline and
// the derived physical estimators built on top of it (§4.7).
package stats

// BinTuple is the uniform (size, mean, variance, squared_error) contract
// shared by binning and jackknife (§4.7 "Unified bin_tuple").
type BinTuple struct {
	Size         int
	Mean         float64
	Variance     float64
	SquaredError float64
}

// emptyBinTuple is returned by every statistics routine over an empty
// stream, rather than failing (§7 "empty streams").
var emptyBinTuple = BinTuple{}

// newBinTuple computes variance/size from a slice, following the shape
// every caller in this package relies on.
func newBinTuple(xs []float64) BinTuple {
	n := len(xs)
	if n == 0 {
		return emptyBinTuple
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)

	variance := 0.0
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	if n > 1 {
		variance /= float64(n - 1)
	} else {
		variance = 0
	}
	return BinTuple{Size: n, Mean: mean, Variance: variance, SquaredError: variance / float64(n)}
}

// pairwiseAverage halves a sequence by averaging consecutive pairs; an odd
// trailing element is dropped, matching the original solver's binning
// (a level strictly requires an even count to pair against).
func pairwiseAverage(xs []float64) []float64 {
	n := len(xs) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = (xs[2*i] + xs[2*i+1]) / 2
	}
	return out
}

// BinLevels produces maxBin+1 levels of xs: level 0 is raw, level l+1
// replaces pairs (x_{2i-1}, x_{2i}) by their mean (§4.7 "Binning"). Levels
// stop early if the sequence becomes too short to pair further.
func BinLevels(xs []float64, maxBin int) []BinTuple {
	levels := make([]BinTuple, 0, maxBin+1)
	cur := xs
	for l := 0; l <= maxBin; l++ {
		levels = append(levels, newBinTuple(cur))
		if len(cur) < 2 {
			break
		}
		cur = pairwiseAverage(cur)
	}
	return levels
}

// EstimateBin picks the smallest level where squared_error stops growing
// monotonically — the argmax, or first local maximum, of squared_error
// across levels (§4.7 "estimate_bin").
func EstimateBin(levels []BinTuple) int {
	if len(levels) == 0 {
		return 0
	}
	best := 0
	for l := 1; l < len(levels); l++ {
		if levels[l].SquaredError > levels[best].SquaredError {
			best = l
			continue
		}
		if levels[l].SquaredError < levels[l-1].SquaredError {
			break
		}
	}
	return best
}

// binLevelBlocks returns the bin-level-l blocks of xs (the pairwise-averaged
// sequence at level l), used by jackknife to pre-bin each stream.
func binLevelBlocks(xs []float64, level int) []float64 {
	cur := xs
	for l := 0; l < level; l++ {
		if len(cur) < 2 {
			break
		}
		cur = pairwiseAverage(cur)
	}
	return cur
}
