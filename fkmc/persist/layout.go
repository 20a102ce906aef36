// Package persist implements the hierarchical named-dataset persistence
// layout of §6 on top of encoding/gob. No HDF5 binding exists anywhere in
// the retrieved corpus (confirmed by search across every example repo), so
// gob is the nearest idiomatic stdlib stand-in for "hierarchical named
// datasets" — see DESIGN.md for the full justification. The /parameters,
// /mc_data, /stats, /binning groups of §6 are modeled as named struct
// fields on Dataset rather than a literal nested store.
package persist

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/qftphys/fk-mc/fkmc"
	"github.com/qftphys/fk-mc/fkmc/stats"
)

// MCData mirrors the §6 "/mc_data/" group: the raw per-sample streams
// collected by an ObservableStore.
type MCData struct {
	V               int
	NSamples        int
	Energies        []float64
	D2Energies      []float64
	CEnergies       []float64
	Nf0             []float64
	NfPi            []float64
	Spectrum        []float64
	SpectrumHistory []float64
	FoccHistory     []float64
	IPRHistory      []float64
	CondHistory     []float64
	EigHistory      [][]float64
	Stiffness       []float64
}

// NewMCData copies the raw streams out of an ObservableStore into the
// on-disk layout.
func NewMCData(store *fkmc.ObservableStore) MCData {
	return MCData{
		V:               store.V,
		NSamples:        store.NSamples,
		Energies:        store.Energies,
		D2Energies:      store.D2Energies,
		CEnergies:       store.CEnergies,
		Nf0:             store.Nf0,
		NfPi:            store.NfPi,
		Spectrum:        store.Spectrum,
		SpectrumHistory: store.SpectrumHistory,
		FoccHistory:     store.FoccHistory,
		IPRHistory:      store.IPRHistory,
		CondHistory:     store.CondHistory,
		EigHistory:      store.EigHistory,
		Stiffness:       store.Stiffness,
	}
}

// StatsSummary mirrors the §6 "/stats/" group: one bin_tuple per named
// derived statistic.
type StatsSummary struct {
	Energy      stats.BinTuple
	Cv          stats.BinTuple
	FSusc0      stats.BinTuple
	FSuscPi     stats.BinTuple
	Binder0     stats.BinTuple
	BinderPi    stats.BinTuple
	DOSErr      stats.BinTuple
	IPRErr      stats.BinTuple
	Cond0       stats.BinTuple
	CondErr     stats.BinTuple
	CondDynamic []stats.BinTuple
	FCorrel     stats.BinTuple
}

// BinningSummary mirrors the §6 "/binning/" group: the full per-level
// binning tuples backing each statistic in StatsSummary, keyed by the same
// names.
type BinningSummary map[string][]stats.BinTuple

// Dataset is the full persisted record: parameters, raw streams, derived
// statistics, and their binning diagnostics (§6 "Persistence layout").
type Dataset struct {
	Parameters fkmc.Params
	MCData     MCData
	Stats      StatsSummary
	Binning    BinningSummary
}

// Save writes ds to path using gob encoding. Errors are wrapped in
// ErrIOFailure (§7).
func Save(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("persist.Save: %w: %v", fkmc.ErrIOFailure, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(ds); err != nil {
		return fmt.Errorf("persist.Save: %w: %v", fkmc.ErrIOFailure, err)
	}
	return nil
}

// Load reads a Dataset from path with no compatibility check — used by
// post-processing tools that only need the raw data.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persist.Load: %w: %v", fkmc.ErrIOFailure, err)
	}
	defer f.Close()
	var ds Dataset
	if err := gob.NewDecoder(f).Decode(&ds); err != nil {
		return nil, fmt.Errorf("persist.Load: %w: %v", fkmc.ErrIOFailure, err)
	}
	return &ds, nil
}

// Append concatenates prior's streams with fresh's, in that order, for the
// reload + append workflow named in §7 ("whole-run resumption is via
// reload + append"). V must agree between the two; callers check that via
// LoadCompatible before calling Append.
func Append(prior, fresh MCData) MCData {
	out := fresh
	out.V = prior.V
	out.NSamples = prior.NSamples + fresh.NSamples
	out.Energies = append(append([]float64(nil), prior.Energies...), fresh.Energies...)
	out.D2Energies = append(append([]float64(nil), prior.D2Energies...), fresh.D2Energies...)
	out.CEnergies = append(append([]float64(nil), prior.CEnergies...), fresh.CEnergies...)
	out.Nf0 = append(append([]float64(nil), prior.Nf0...), fresh.Nf0...)
	out.NfPi = append(append([]float64(nil), prior.NfPi...), fresh.NfPi...)
	out.Spectrum = append(append([]float64(nil), prior.Spectrum...), fresh.Spectrum...)
	out.IPRHistory = append(append([]float64(nil), prior.IPRHistory...), fresh.IPRHistory...)
	out.CondHistory = append(append([]float64(nil), prior.CondHistory...), fresh.CondHistory...)
	out.Stiffness = append(append([]float64(nil), prior.Stiffness...), fresh.Stiffness...)
	out.EigHistory = append(append([][]float64(nil), prior.EigHistory...), fresh.EigHistory...)
	out.SpectrumHistory = concatSiteMajorMC(prior.SpectrumHistory, fresh.SpectrumHistory, prior.V)
	out.FoccHistory = concatSiteMajorMC(prior.FoccHistory, fresh.FoccHistory, prior.V)
	return out
}

// concatSiteMajorMC mirrors fkmc's internal concatSiteMajor for the
// persisted, already-flattened site-major histories.
func concatSiteMajorMC(a, b []float64, v int) []float64 {
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

// LoadCompatible loads path and rejects with ErrParamsMismatch unless the
// stored parameter set is compatible with params within the §6 tolerances,
// checked before any mutation on the caller's side (§7 "ParamsMismatch on
// load aborts immediately").
func LoadCompatible(path string, params fkmc.Params) (*Dataset, error) {
	ds, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := ds.Parameters.CompatibleWith(params); err != nil {
		return nil, err
	}
	return ds, nil
}
