package fkmc

// ObservableStore is the process-wide collector named in §4.8/§6: named
// arrays per observable, appended monotonically and never rewritten mid-run
// (§3 "Lifecycles").
type ObservableStore struct {
	V int // site count, needed to un-flatten the site-major histories below

	Energies   []float64
	D2Energies []float64
	CEnergies  []float64 // classical f-f energy per sample, when JFf != 0
	Nf0        []float64 // Σf_i per sample (q=0 projection)
	NfPi       []float64 // FFTPi(f) per sample (q=π projection)

	Spectrum []float64 // concatenated sorted spectra, one per sample

	// SpectrumHistory and FoccHistory are stored site-major: site i's
	// values across all samples are contiguous, i.e. History[i*N+t].
	SpectrumHistory []float64
	FoccHistory     []float64

	IPRHistory  []float64   // flattened per-sample per-state IPR
	CondHistory []float64   // flattened per-sample frequency-resolved conductivity
	EigHistory  [][]float64 // one flattened V*V matrix per sample
	Stiffness   []float64   // integrated stiffness scalar per sample

	NSamples int
}

// NewObservableStore creates an empty store sized for lattice with v sites.
func NewObservableStore(v int) *ObservableStore {
	return &ObservableStore{V: v}
}

// appendSpectrumHistory appends spectrum (length V) to the site-major
// SpectrumHistory, growing the per-site columns by one sample.
func (s *ObservableStore) appendSpectrumHistory(spectrum []float64) {
	s.appendSiteMajor(&s.SpectrumHistory, spectrum)
}

// appendFoccHistory appends f (length V, {0,1}) to the site-major
// FoccHistory.
func (s *ObservableStore) appendFoccHistory(f []int) {
	vals := make([]float64, len(f))
	for i, x := range f {
		vals[i] = float64(x)
	}
	s.appendSiteMajor(&s.FoccHistory, vals)
}

// appendSiteMajor grows a site-major [V][]float64-flattened-as-[]float64
// history by one new sample column, reallocating to keep site i's values
// contiguous.
func (s *ObservableStore) appendSiteMajor(history *[]float64, vals []float64) {
	v := s.V
	oldN := 0
	if v > 0 {
		oldN = len(*history) / v
	}
	newN := oldN + 1
	grown := make([]float64, v*newN)
	for i := 0; i < v; i++ {
		copy(grown[i*newN:i*newN+oldN], (*history)[i*oldN:i*oldN+oldN])
		grown[i*newN+oldN] = vals[i]
	}
	*history = grown
}

// SiteHistory returns site i's column from a site-major history slice of
// length V*N.
func SiteHistory(history []float64, v, i int) []float64 {
	if v == 0 {
		return nil
	}
	n := len(history) / v
	return history[i*n : i*n+n]
}

// RecordOccupation appends the N_f=0 and N_f=π projections for one sample,
// used by the susceptibility/Binder estimators of §4.7.
func (s *ObservableStore) RecordOccupation(l Lattice, c *Configuration) {
	nf0 := float64(c.GetNf())
	var nfPi float64
	fFloat := make([]float64, l.V())
	for i, x := range c.F() {
		fFloat[i] = float64(x)
	}
	nfPi = FFTPi(l, fFloat)
	s.Nf0 = append(s.Nf0, nf0)
	s.NfPi = append(s.NfPi, nfPi)
}

// Collect merges a rank-ordered slice of per-chain stores into one
// aggregate store: scalars concatenate by sample (not sum — per-sample
// streams stay per-sample; only end-of-run scalar reductions like total
// sample count are summed), and per-sample histories are concatenated in
// rank order (§5 "Shared-resource policy").
func Collect(stores []*ObservableStore) *ObservableStore {
	out := &ObservableStore{}
	for _, s := range stores {
		if s == nil {
			continue
		}
		out.V = s.V
		out.Energies = append(out.Energies, s.Energies...)
		out.D2Energies = append(out.D2Energies, s.D2Energies...)
		out.CEnergies = append(out.CEnergies, s.CEnergies...)
		out.Nf0 = append(out.Nf0, s.Nf0...)
		out.NfPi = append(out.NfPi, s.NfPi...)
		out.Spectrum = append(out.Spectrum, s.Spectrum...)
		out.IPRHistory = append(out.IPRHistory, s.IPRHistory...)
		out.CondHistory = append(out.CondHistory, s.CondHistory...)
		out.EigHistory = append(out.EigHistory, s.EigHistory...)
		out.Stiffness = append(out.Stiffness, s.Stiffness...)
		out.NSamples += s.NSamples
		out.SpectrumHistory = concatSiteMajor(out.SpectrumHistory, s.SpectrumHistory, out.V)
		out.FoccHistory = concatSiteMajor(out.FoccHistory, s.FoccHistory, out.V)
	}
	return out
}

// concatSiteMajor concatenates two site-major histories (each flattened
// V*N_k) along the sample axis, keeping site i's values contiguous.
func concatSiteMajor(a, b []float64, v int) []float64 {
	if v == 0 {
		return nil
	}
	if len(a) == 0 {
		return append([]float64(nil), b...)
	}
	if len(b) == 0 {
		return a
	}
	na, nb := len(a)/v, len(b)/v
	out := make([]float64, v*(na+nb))
	for i := 0; i < v; i++ {
		copy(out[i*(na+nb):i*(na+nb)+na], a[i*na:i*na+na])
		copy(out[i*(na+nb)+na:i*(na+nb)+na+nb], b[i*nb:i*nb+nb])
	}
	return out
}
