package stats

import (
	"math"

	"github.com/qftphys/fk-mc/fkmc"
)

const defaultMaxBin = 20

// square returns an elementwise squared copy of xs, used to build the E²
// and N_q² streams the jackknife estimators below are built on.
func square(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x * x
	}
	return out
}

// SpecificHeat computes C_v = β²·(⟨E²⟩−⟨E⟩²−⟨d²E⟩)/V via jackknife over the
// raw energy and double-energy streams (§4.7 "specific heat"), at the
// binning level chosen by EstimateBin on the energy stream.
func SpecificHeat(energies, d2energies []float64, beta float64, v int) BinTuple {
	if len(energies) == 0 {
		return emptyBinTuple
	}
	level := EstimateBin(BinLevels(energies, defaultMaxBin))
	streams := [][]float64{energies, square(energies), d2energies}
	g := func(means []float64) float64 {
		return beta * beta * (means[1] - means[0]*means[0] - means[2]) / float64(v)
	}
	levels := AccumulateJackknife(streams, level, g)
	return levels[level]
}

// Susceptibility computes χ_q = ⟨N_q²⟩−⟨N_q⟩² for q ∈ {0,π} from the raw
// N_q stream (§4.7 "susceptibility").
func Susceptibility(nq []float64) BinTuple {
	if len(nq) == 0 {
		return emptyBinTuple
	}
	level := EstimateBin(BinLevels(nq, defaultMaxBin))
	streams := [][]float64{nq, square(nq)}
	g := func(means []float64) float64 { return means[1] - means[0]*means[0] }
	levels := AccumulateJackknife(streams, level, g)
	return levels[level]
}

// BinderCumulant computes 1 − ⟨N_q⁴⟩/(3⟨N_q²⟩²) from the raw N_q stream
// (§4.7 "Binder cumulant").
func BinderCumulant(nq []float64) BinTuple {
	if len(nq) == 0 {
		return emptyBinTuple
	}
	level := EstimateBin(BinLevels(nq, defaultMaxBin))
	nq2 := square(nq)
	nq4 := square(nq2)
	streams := [][]float64{nq2, nq4}
	g := func(means []float64) float64 { return 1 - means[1]/(3*means[0]*means[0]) }
	levels := AccumulateJackknife(streams, level, g)
	return levels[level]
}

// FFCorrelator computes the f-f correlator C(l) = (1/(2DV))·Σ_i Σ_d
// (f_i−⟨f_i⟩)(f_{i+l·ê_d}−⟨f_{i+l·ê_d}⟩ + f_{i−l·ê_d}−⟨f_{i−l·ê_d}⟩) and its
// normalized form C(l)/C(0) (§4.7 "f-f correlator"). foccHistory is
// site-major (length V*N). Returns (C(l), C(l)/C(0)).
func FFCorrelator(l fkmc.Lattice, foccHistory []float64, dist int) (BinTuple, BinTuple) {
	v := l.V()
	if v == 0 || len(foccHistory) == 0 {
		return emptyBinTuple, emptyBinTuple
	}
	n := len(foccHistory) / v
	d := l.D()

	site := func(h []float64, i int) []float64 { return h[i*n : i*n+n] }

	meanOf := func(xs []float64) float64 {
		m := 0.0
		for _, x := range xs {
			m += x
		}
		return m / float64(len(xs))
	}
	means := make([]float64, v)
	for i := 0; i < v; i++ {
		means[i] = meanOf(site(foccHistory, i))
	}

	correlatorAt := func(distance int) BinTuple {
		stream := make([]float64, n)
		for t := 0; t < n; t++ {
			var sum float64
			for i := 0; i < v; i++ {
				pos := l.IndexToPos(i)
				fi := site(foccHistory, i)[t] - means[i]
				for dim := 0; dim < d; dim++ {
					plus := shiftPos(l, pos, dim, distance)
					minus := shiftPos(l, pos, dim, -distance)
					fPlus := site(foccHistory, plus)[t] - means[plus]
					fMinus := site(foccHistory, minus)[t] - means[minus]
					sum += fi * (fPlus + fMinus)
				}
			}
			stream[t] = sum / float64(2*d*v)
		}
		level := EstimateBin(BinLevels(stream, defaultMaxBin))
		return BinLevels(stream, defaultMaxBin)[level]
	}

	cl := correlatorAt(dist)
	c0 := correlatorAt(0)
	normalized := BinTuple{}
	if c0.Mean != 0 {
		normalized.Mean = cl.Mean / c0.Mean
		// propagate error via standard ratio-of-means approximation
		relL := 0.0
		if cl.Mean != 0 {
			relL = math.Sqrt(cl.SquaredError) / math.Abs(cl.Mean)
		}
		rel0 := math.Sqrt(c0.SquaredError) / math.Abs(c0.Mean)
		normalized.SquaredError = normalized.Mean * normalized.Mean * (relL*relL + rel0*rel0)
		normalized.Variance = normalized.SquaredError
		normalized.Size = cl.Size
	}
	return cl, normalized
}

// shiftPos shifts a position by dist along dimension dim with periodic
// wraparound and returns the resulting flat index.
func shiftPos(l fkmc.Lattice, pos []int, dim, dist int) int {
	dims := l.Dims()
	shifted := append([]int(nil), pos...)
	shifted[dim] = wrapDim(shifted[dim]+dist, dims[dim])
	return l.PosToIndex(shifted)
}

func wrapDim(x, n int) int {
	x %= n
	if x < 0 {
		x += n
	}
	return x
}

// LocalDOS computes ρ(ω) = −(1/(πV))·Σ_k Im[1/(ω−ε_k+iη)], averaged over
// samples by binning at the level EstimateBin picks. spectrumHistory holds one V-length sorted spectrum
// per sample, concatenated (§4.7 "local DOS").
func LocalDOS(spectrumHistory []float64, v int, omega, eta float64) BinTuple {
	if v == 0 || len(spectrumHistory) == 0 {
		return emptyBinTuple
	}
	n := len(spectrumHistory) / v
	stream := make([]float64, n)
	for t := 0; t < n; t++ {
		sample := spectrumHistory[t*v : t*v+v]
		var imSum float64
		for _, eps := range sample {
			imSum += imagInverse(omega-eps, eta)
		}
		stream[t] = -imSum / (math.Pi * float64(v))
	}
	level := EstimateBin(BinLevels(stream, defaultMaxBin))
	return BinLevels(stream, defaultMaxBin)[level]
}

// imagInverse returns Im[1/(x+iη)] = -η/(x²+η²).
func imagInverse(x, eta float64) float64 {
	return -eta / (x*x + eta*eta)
}

// IPRMoment computes M^(n)(ω) = (Im[Σ_k IPR_k/(ω−ε_k+iη)] /
// Im[Σ_k 1/(ω−ε_k+iη)] − ⟨IPR⟩)^n, averaged over samples by binning at the
// level EstimateBin picks (§4.7 "IPR moment"). spectrumHistory and iprHistory both hold one
// V-length vector per sample, concatenated in sample order.
func IPRMoment(spectrumHistory, iprHistory []float64, v int, omega, eta float64, n int) BinTuple {
	if v == 0 || len(spectrumHistory) == 0 || len(iprHistory) == 0 {
		return emptyBinTuple
	}
	samples := len(spectrumHistory) / v
	meanIPR := 0.0
	for _, x := range iprHistory {
		meanIPR += x
	}
	meanIPR /= float64(len(iprHistory))

	stream := make([]float64, samples)
	for t := 0; t < samples; t++ {
		eps := spectrumHistory[t*v : t*v+v]
		ipr := iprHistory[t*v : t*v+v]
		var numIm, denIm float64
		for k := 0; k < v; k++ {
			denIm += imagInverse(omega-eps[k], eta)
			numIm += ipr[k] * imagInverse(omega-eps[k], eta)
		}
		ratio := numIm/denIm - meanIPR
		stream[t] = math.Pow(ratio, float64(n))
	}
	level := EstimateBin(BinLevels(stream, defaultMaxBin))
	return BinLevels(stream, defaultMaxBin)[level]
}

// DCConductivity estimates σ(0) per sample as −Δω·σ(Δω) at the lowest
// sampled frequency Δω = offset only; no other frequency point (and no
// −Δω point) enters the estimate (§4.7 "DC conductivity"). It returns the
// dynamic part σ(ω)−σ(0) at each sampled frequency. condHistory is the flattened per-sample, per-frequency-point
// conductivity array (npoints values per sample, in ascending frequency
// order starting at offset).
func DCConductivity(condHistory []float64, npoints int, offset float64) (sigma0 BinTuple, dynamic []BinTuple) {
	if npoints == 0 || len(condHistory) == 0 {
		return emptyBinTuple, nil
	}
	samples := len(condHistory) / npoints

	sigma0Stream := make([]float64, samples)
	for t := 0; t < samples; t++ {
		omega := offset
		sigmaAtOffset := condHistory[t*npoints]
		sigma0Stream[t] = -omega * sigmaAtOffset
	}
	level := EstimateBin(BinLevels(sigma0Stream, defaultMaxBin))
	sigma0 = BinLevels(sigma0Stream, defaultMaxBin)[level]

	dynamic = make([]BinTuple, npoints)
	for p := 0; p < npoints; p++ {
		stream := make([]float64, samples)
		for t := 0; t < samples; t++ {
			stream[t] = condHistory[t*npoints+p] - sigma0.Mean
		}
		dlevel := EstimateBin(BinLevels(stream, defaultMaxBin))
		dynamic[p] = BinLevels(stream, defaultMaxBin)[dlevel]
	}
	return sigma0, dynamic
}
