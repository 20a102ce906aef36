package fkmc

import "fmt"

// Params collects the enumerated run parameters of §6. Loaded from YAML via
// cmd's config layer on top of DefaultParams; no CLI flag overrides an
// individual field.
type Params struct {
	T float64 `yaml:"t"`
	L int     `yaml:"L"`
	U float64 `yaml:"U"`

	Beta float64 `yaml:"beta"`
	MuC  float64 `yaml:"mu_c"`
	MuF  float64 `yaml:"mu_f"`

	// JFf is the nearest-neighbor f-f coupling used by CalcFFEnergy.
	// Zero (the default) reproduces the original solver's always-zero term.
	JFf float64 `yaml:"j_ff"`

	NfStart int `yaml:"Nf_start"`

	NCycles        int   `yaml:"n_cycles"`
	LengthCycle    int   `yaml:"length_cycle"`
	NWarmupCycles  int   `yaml:"n_warmup_cycles"`
	RandomSeed     int64 `yaml:"random_seed"`
	MaxTimeSeconds int64 `yaml:"max_time"`

	MCFlip       float64 `yaml:"mc_flip"`
	MCAddRemove  float64 `yaml:"mc_add_remove"`
	MCReshuffle  float64 `yaml:"mc_reshuffle"`
	ChebMoves    bool    `yaml:"cheb_moves"`
	ChebPrefactor float64 `yaml:"cheb_prefactor"`

	MeasureHistory        bool `yaml:"measure_history"`
	MeasureStiffness      bool `yaml:"measure_stiffness"`
	MeasureIPR            bool `yaml:"measure_ipr"`
	MeasureEigenfunctions bool `yaml:"measure_eigenfunctions"`
	SaveEigenfunctions    bool `yaml:"save_eigenfunctions"`

	CondOffset  float64 `yaml:"cond_offset"`
	CondNPoints int     `yaml:"cond_npoints"`

	DOSNpts   int     `yaml:"dos_npts"`
	DOSWidth  float64 `yaml:"dos_width"`
	DOSOffset float64 `yaml:"dos_offset"`

	OutputFile    string `yaml:"output_file"`
	SavePlaintext bool   `yaml:"save_plaintext"`
}

// paramsMismatchTolerance is the absolute tolerance used for floating-point
// parameter comparisons in load compatibility checks (§6).
const paramsMismatchTolerance = 1e-4

// DefaultParams returns the parameter defaults named in §6 / the original
// solver's solve_defaults(), translated 1:1 where the original specified a
// default and chosen conservatively (matching the move being disabled)
// where it did not.
func DefaultParams() Params {
	return Params{
		T:             1.0,
		L:             4,
		U:             1.0,
		Beta:          1.0,
		MuC:           0.5,
		MuF:           0.5,
		JFf:           0.0,
		NfStart:       5,
		NCycles:       100,
		LengthCycle:   50,
		NWarmupCycles: 5000,
		RandomSeed:    34788,
		MaxTimeSeconds: 600,
		MCFlip:        0.0,
		MCAddRemove:   1.0,
		MCReshuffle:   0.0,
		ChebMoves:     false,
		ChebPrefactor: 2.2,
		MeasureHistory: true,
		CondOffset:    1e-3,
		CondNPoints:   64,
		DOSNpts:       256,
		DOSWidth:      1e-2,
		DOSOffset:     0.0,
		OutputFile:    "fk_mc.out",
	}
}

// CompatibleWith checks reload compatibility per §6's load-compatibility
// rule. It returns ErrParamsMismatch (wrapped with the offending field) when
// the two parameter sets diverge beyond the documented tolerances.
func (p Params) CompatibleWith(other Params) error {
	if abs(p.T-other.T) >= paramsMismatchTolerance {
		return wrapMismatch("t")
	}
	if p.L != other.L {
		return wrapMismatch("L")
	}
	if abs(p.U-other.U) >= paramsMismatchTolerance {
		return wrapMismatch("U")
	}
	if abs(p.Beta-other.Beta) >= paramsMismatchTolerance {
		return wrapMismatch("beta")
	}
	if p.MeasureHistory != other.MeasureHistory {
		return wrapMismatch("measure_history")
	}
	if p.MeasureStiffness != other.MeasureStiffness {
		return wrapMismatch("measure_stiffness")
	}
	if p.MeasureIPR != other.MeasureIPR {
		return wrapMismatch("measure_ipr")
	}
	if p.ChebMoves != other.ChebMoves {
		return wrapMismatch("cheb_moves")
	}
	if p.ChebMoves && p.ChebPrefactor != other.ChebPrefactor {
		return wrapMismatch("cheb_prefactor")
	}
	if p.MeasureStiffness {
		if abs(p.CondOffset-other.CondOffset) >= 1e-12 {
			return wrapMismatch("cond_offset")
		}
		if p.CondNPoints != other.CondNPoints {
			return wrapMismatch("cond_npoints")
		}
	}
	return nil
}

func wrapMismatch(field string) error {
	return fmt.Errorf("%s differs beyond tolerance: %w", field, ErrParamsMismatch)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
