package fkmc

import (
	"math"
	"math/rand"
)

// Move is a tagged-variant proposal kernel: Attempt produces a trial
// configuration and returns the Metropolis weight ratio; Accept installs the
// trial as current; Reject discards it. Each move allocates its own trial
// configuration once and reuses it (§4.4, §9). Reject is O(1); Accept is not:
// it copies the trial's f, Hamiltonian and caches into the current
// configuration through Configuration.Assign.
type Move interface {
	// Attempt proposes a trial configuration and returns its Metropolis
	// weight ratio. Never errors on invalid preconditions — those return
	// weight 0, which the driver treats as a rejection (§7).
	Attempt(rng *rand.Rand) float64
	// Accept installs the trial configuration as current.
	Accept()
	// Reject discards the trial configuration.
	Reject()
}

// overflowEulerThreshold mirrors the original solver's use of e (2.7182818)
// as the short-circuit-accept threshold in the reshuffle overflow guard.
const overflowEulerThreshold = math.E

// FlipMove swaps one occupied site for one empty site, preserving N_f
// (§4.4 "Flip"). Backed by exact diagonalization.
type FlipMove struct {
	config *Configuration
	trial  *Configuration
}

// NewFlipMove builds a flip move over config, allocating its own trial
// configuration by cloning config.
func NewFlipMove(config *Configuration) *FlipMove {
	return &FlipMove{config: config, trial: config.Clone()}
}

func (m *FlipMove) Attempt(rng *rand.Rand) float64 {
	v := m.config.lattice.V()
	nf := m.config.GetNf()
	if nf == 0 || nf == v {
		return 0
	}
	if err := m.trial.Assign(m.config); err != nil {
		return 0
	}

	from := rng.Intn(v)
	for m.trial.f[from] == 0 {
		from = rng.Intn(v)
	}
	to := rng.Intn(v)
	for m.trial.f[to] == 1 {
		to = rng.Intn(v)
	}

	if err := m.config.CalcED(false); err != nil {
		return 0
	}
	m.trial.f[from] = 0
	m.trial.f[to] = 1
	m.trial.CalcHamiltonian()
	if err := m.trial.CalcED(false); err != nil {
		return 0
	}
	return math.Exp(m.trial.ed.logZ - m.config.ed.logZ)
}

func (m *FlipMove) Accept() { _ = m.config.Assign(m.trial) }
func (m *FlipMove) Reject() {}

// AddRemoveMove flips a single uniformly-chosen site's occupation (§4.4
// "Add/Remove"). Always preconditioned (no rejection-by-weight-0 case).
type AddRemoveMove struct {
	config *Configuration
	trial  *Configuration
}

// NewAddRemoveMove builds an add/remove move over config.
func NewAddRemoveMove(config *Configuration) *AddRemoveMove {
	return &AddRemoveMove{config: config, trial: config.Clone()}
}

func (m *AddRemoveMove) Attempt(rng *rand.Rand) float64 {
	v := m.config.lattice.V()
	if err := m.trial.Assign(m.config); err != nil {
		return 0
	}
	to := rng.Intn(v)
	m.trial.f[to] = 1 - m.config.f[to]

	if err := m.config.CalcED(false); err != nil {
		return 0
	}
	m.trial.CalcHamiltonian()
	if err := m.trial.CalcED(false); err != nil {
		return 0
	}

	beta := m.config.params.Beta
	ffDiff := m.trial.CalcFFEnergy() - m.config.CalcFFEnergy()
	ratio := math.Exp(m.trial.ed.logZ - m.config.ed.logZ)
	expBetaMuF := math.Exp(beta * m.config.params.MuF)
	var signed float64
	if m.trial.f[to] == 1 {
		signed = ratio * expBetaMuF
	} else {
		signed = ratio / expBetaMuF
	}
	return signed * math.Exp(-beta*ffDiff)
}

func (m *AddRemoveMove) Accept() { _ = m.config.Assign(m.trial) }
func (m *AddRemoveMove) Reject() {}

// ReshuffleMove samples an entirely new f-configuration with independent
// occupation count (§4.4 "Reshuffle"), with log-domain overflow guards.
type ReshuffleMove struct {
	config *Configuration
	trial  *Configuration
}

// NewReshuffleMove builds a reshuffle move over config.
func NewReshuffleMove(config *Configuration) *ReshuffleMove {
	return &ReshuffleMove{config: config, trial: config.Clone()}
}

func (m *ReshuffleMove) Attempt(rng *rand.Rand) float64 {
	if err := m.trial.Assign(m.config); err != nil {
		return 0
	}
	m.trial.RandomizeF(rng, -1)
	m.trial.CalcHamiltonian()

	if err := m.config.CalcED(false); err != nil {
		return 0
	}
	if err := m.trial.CalcED(false); err != nil {
		return 0
	}

	logRatio := m.trial.ed.logZ - m.config.ed.logZ
	return reshuffleWeight(m.config, m.trial, logRatio)
}

// reshuffleWeight implements the three-branch log-domain acceptance of
// §4.4's overflow guards, shared between the ED- and Chebyshev-backed
// reshuffle moves.
func reshuffleWeight(config, trial *Configuration, logRatio float64) float64 {
	beta := config.params.Beta
	dNf := float64(trial.GetNf() - config.GetNf())
	ffDiff := trial.CalcFFEnergy() - config.CalcFFEnergy()
	term := beta*config.params.MuF*dNf - beta*ffDiff

	if term > overflowEulerThreshold-logRatio {
		return 1
	}
	if term+logRatio < 0 {
		return 0
	}
	return math.Exp(logRatio) * math.Exp(term)
}

func (m *ReshuffleMove) Accept() { _ = m.config.Assign(m.trial) }
func (m *ReshuffleMove) Reject() {}

// === Chebyshev-backed variants ===
// These reuse the same weight algebra but source logZ from the Chebyshev
// cache instead of the ED cache, and must populate that cache themselves
// (§4.4 "Chebyshev variants").

// ChebFlipMove is the Chebyshev-backed variant of FlipMove.
type ChebFlipMove struct {
	config *Configuration
	trial  *Configuration
	nCheb  int
}

// NewChebFlipMove builds a Chebyshev-backed flip move with expansion order
// nCheb.
func NewChebFlipMove(config *Configuration, nCheb int) *ChebFlipMove {
	return &ChebFlipMove{config: config, trial: config.Clone(), nCheb: nCheb}
}

func (m *ChebFlipMove) Attempt(rng *rand.Rand) float64 {
	v := m.config.lattice.V()
	nf := m.config.GetNf()
	if nf == 0 || nf == v {
		return 0
	}
	if err := m.trial.Assign(m.config); err != nil {
		return 0
	}

	from := rng.Intn(v)
	for m.trial.f[from] == 0 {
		from = rng.Intn(v)
	}
	to := rng.Intn(v)
	for m.trial.f[to] == 1 {
		to = rng.Intn(v)
	}

	if err := m.config.CalcChebyshev(m.nCheb, RandomSeedVector(v, rng)); err != nil {
		return 0
	}
	m.trial.f[from] = 0
	m.trial.f[to] = 1
	m.trial.CalcHamiltonian()
	if err := m.trial.CalcChebyshev(m.nCheb, RandomSeedVector(v, rng)); err != nil {
		return 0
	}
	return math.Exp(m.trial.cheb.logZ - m.config.cheb.logZ)
}

func (m *ChebFlipMove) Accept() { _ = m.config.Assign(m.trial) }
func (m *ChebFlipMove) Reject() {}

// ChebAddRemoveMove is the Chebyshev-backed variant of AddRemoveMove.
type ChebAddRemoveMove struct {
	config *Configuration
	trial  *Configuration
	nCheb  int
}

// NewChebAddRemoveMove builds a Chebyshev-backed add/remove move.
func NewChebAddRemoveMove(config *Configuration, nCheb int) *ChebAddRemoveMove {
	return &ChebAddRemoveMove{config: config, trial: config.Clone(), nCheb: nCheb}
}

func (m *ChebAddRemoveMove) Attempt(rng *rand.Rand) float64 {
	v := m.config.lattice.V()
	if err := m.trial.Assign(m.config); err != nil {
		return 0
	}
	to := rng.Intn(v)
	m.trial.f[to] = 1 - m.config.f[to]

	if err := m.config.CalcChebyshev(m.nCheb, RandomSeedVector(v, rng)); err != nil {
		return 0
	}
	m.trial.CalcHamiltonian()
	if err := m.trial.CalcChebyshev(m.nCheb, RandomSeedVector(v, rng)); err != nil {
		return 0
	}

	beta := m.config.params.Beta
	ffDiff := m.trial.CalcFFEnergy() - m.config.CalcFFEnergy()
	ratio := math.Exp(m.trial.cheb.logZ - m.config.cheb.logZ)
	expBetaMuF := math.Exp(beta * m.config.params.MuF)
	var signed float64
	if m.trial.f[to] == 1 {
		signed = ratio * expBetaMuF
	} else {
		signed = ratio / expBetaMuF
	}
	return signed * math.Exp(-beta*ffDiff)
}

func (m *ChebAddRemoveMove) Accept() { _ = m.config.Assign(m.trial) }
func (m *ChebAddRemoveMove) Reject() {}

// ChebReshuffleMove is the Chebyshev-backed variant of ReshuffleMove.
type ChebReshuffleMove struct {
	config *Configuration
	trial  *Configuration
	nCheb  int
}

// NewChebReshuffleMove builds a Chebyshev-backed reshuffle move.
func NewChebReshuffleMove(config *Configuration, nCheb int) *ChebReshuffleMove {
	return &ChebReshuffleMove{config: config, trial: config.Clone(), nCheb: nCheb}
}

func (m *ChebReshuffleMove) Attempt(rng *rand.Rand) float64 {
	v := m.config.lattice.V()
	if err := m.trial.Assign(m.config); err != nil {
		return 0
	}
	m.trial.RandomizeF(rng, -1)
	m.trial.CalcHamiltonian()

	if err := m.config.CalcChebyshev(m.nCheb, RandomSeedVector(v, rng)); err != nil {
		return 0
	}
	if err := m.trial.CalcChebyshev(m.nCheb, RandomSeedVector(v, rng)); err != nil {
		return 0
	}

	logRatio := m.trial.cheb.logZ - m.config.cheb.logZ
	return reshuffleWeight(m.config, m.trial, logRatio)
}

func (m *ChebReshuffleMove) Accept() { _ = m.config.Assign(m.trial) }
func (m *ChebReshuffleMove) Reject() {}
