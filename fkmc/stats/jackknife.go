package stats

// AccumulateJackknife implements delete-one-block jackknife over k aligned
// sample streams for a scalar estimator g (§4.7 "Jackknife"): each stream is
// pre-binned to every level 0..maxBin, the estimator is evaluated on the
// all-but-block-m means at each level, and the resulting bin_tuple per
// level is returned. Jackknife's squared_error equals its variance
// directly — it is not divided by size again, unlike BinLevels.
func AccumulateJackknife(streams [][]float64, maxBin int, g func(means []float64) float64) []BinTuple {
	out := make([]BinTuple, 0, maxBin+1)
	for l := 0; l <= maxBin; l++ {
		out = append(out, jackknifeLevel(streams, l, g))
	}
	return out
}

// jackknifeLevel computes the jackknife bin_tuple at a single binning
// level.
func jackknifeLevel(streams [][]float64, level int, g func(means []float64) float64) BinTuple {
	k := len(streams)
	if k == 0 {
		return emptyBinTuple
	}

	blocks := make([][]float64, k)
	m := -1
	for j, s := range streams {
		blocks[j] = binLevelBlocks(s, level)
		if m == -1 || len(blocks[j]) < m {
			m = len(blocks[j])
		}
	}
	if m < 2 {
		return emptyBinTuple
	}

	sums := make([]float64, k)
	for j, blk := range blocks {
		for i := 0; i < m; i++ {
			sums[j] += blk[i]
		}
	}

	thetas := make([]float64, m)
	means := make([]float64, k)
	for mi := 0; mi < m; mi++ {
		for j := 0; j < k; j++ {
			means[j] = (sums[j] - blocks[j][mi]) / float64(m-1)
		}
		thetas[mi] = g(means)
	}

	thetaBar := 0.0
	for _, th := range thetas {
		thetaBar += th
	}
	thetaBar /= float64(m)

	variance := 0.0
	for _, th := range thetas {
		d := th - thetaBar
		variance += d * d
	}
	variance *= float64(m-1) / float64(m)

	return BinTuple{Size: m, Mean: thetaBar, Variance: variance, SquaredError: variance}
}
