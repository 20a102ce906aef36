package fkmc

import "math"

// Measurement is sampled once per cycle, after the driver has ensured the
// current configuration's caches hold whatever this measurement reads
// (§4.5). Measurements never mutate the configuration.
type Measurement interface {
	Sample(c *Configuration, store *ObservableStore)
}

// EnergyMeasurement records E and the double-energy d²E used for specific
// heat (§4.5 "energy").
type EnergyMeasurement struct{}

func (EnergyMeasurement) Sample(c *Configuration, store *ObservableStore) {
	spectrum := c.Spectrum()
	beta := c.params.Beta
	var e, d2e float64
	for _, eps := range spectrum {
		nF := 1 / (1 + math.Exp(beta*eps))
		e += eps * nF
		sech2 := sech2Half(beta * eps)
		d2e += eps * eps * sech2
	}
	e -= c.params.MuF * float64(c.GetNf())
	d2e /= 2.0

	store.Energies = append(store.Energies, e)
	store.D2Energies = append(store.D2Energies, d2e)
	if c.params.JFf != 0 {
		store.CEnergies = append(store.CEnergies, c.CalcFFEnergy())
	}
}

// sech2Half computes sech²(x/2)/2 = 1/(1+0.5*(exp(x)+exp(-x))), matching the
// original solver's d2e_nf denominator exactly (§4.5).
func sech2Half(x float64) float64 {
	return 1.0 / (1.0 + 0.5*(math.Exp(x)+math.Exp(-x)))
}

// SpectrumMeasurement appends the sorted spectrum to a rolling store, and
// (if measureHistory) the full per-sample vector to a site-major history
// (§4.5 "spectrum").
type SpectrumMeasurement struct {
	MeasureHistory bool
}

func (m SpectrumMeasurement) Sample(c *Configuration, store *ObservableStore) {
	spectrum := c.Spectrum()
	store.Spectrum = append(store.Spectrum, spectrum...)
	if m.MeasureHistory {
		store.appendSpectrumHistory(spectrum)
	}
}

// FoccMeasurement appends per-site f_i to a site-major history (§4.5
// "focc").
type FoccMeasurement struct{}

func (FoccMeasurement) Sample(c *Configuration, store *ObservableStore) {
	store.appendFoccHistory(c.F())
}

// EigenfunctionMeasurement appends the dense V×V eigenvector matrix for
// each sample; expensive, and only meaningful when full ED has run (§4.5
// "eigenfunctions").
type EigenfunctionMeasurement struct{}

func (EigenfunctionMeasurement) Sample(c *Configuration, store *ObservableStore) {
	evecs := c.Evecs()
	if evecs == nil {
		return
	}
	r, cN := evecs.Dims()
	flat := make([]float64, r*cN)
	for i := 0; i < r; i++ {
		for j := 0; j < cN; j++ {
			flat[i*cN+j] = evecs.At(i, j)
		}
	}
	store.EigHistory = append(store.EigHistory, flat)
}

// IPRMeasurement records per-state inverse participation ratios IPR_k =
// Σ_i |ψ_ik|^4, requiring full ED (§4.5 "IPR").
type IPRMeasurement struct{}

func (IPRMeasurement) Sample(c *Configuration, store *ObservableStore) {
	evecs := c.Evecs()
	if evecs == nil {
		return
	}
	r, cN := evecs.Dims()
	iprs := make([]float64, cN)
	for k := 0; k < cN; k++ {
		var s float64
		for i := 0; i < r; i++ {
			psi := evecs.At(i, k)
			s += psi * psi * psi * psi
		}
		iprs[k] = s
	}
	store.IPRHistory = append(store.IPRHistory, iprs...)
}
