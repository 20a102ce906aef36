package fkmc

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// moveWeightEpsilon is the threshold below which a move's configured weight
// disables it entirely (§4.6 "weight <= epsilon disables that move").
const moveWeightEpsilon = 1e-12

// namedMove pairs a Move with its registration name and selection weight.
type namedMove struct {
	name   string
	move   Move
	weight float64
}

// Sampler owns the RNG, the current configuration, the registered moves and
// measurements, and schedules warmup + measurement cycles (§4.6).
type Sampler struct {
	Rank   int
	Params Params

	Lattice Lattice
	Config  *Configuration

	rng   *PartitionedRNG
	moves []namedMove

	measurements []Measurement
	needEvecs    bool
	Store        *ObservableStore

	// WallClock returns elapsed seconds since the sampler started; overridable
	// in tests. Defaults to a real monotonic clock.
	WallClock func() float64
	startTime time.Time
}

// NewSampler creates a Sampler for lattice/params at the given rank, seeding
// its PartitionedRNG from Params.RandomSeed + rank (§4.6).
func NewSampler(lattice Lattice, params Params, rank int) *Sampler {
	config := NewConfiguration(lattice, params)
	s := &Sampler{
		Rank:    rank,
		Params:  params,
		Lattice: lattice,
		Config:  config,
		rng:     NewPartitionedRNG(NewSimulationKey(params.RandomSeed, rank)),
		Store:   NewObservableStore(lattice.V()),
	}
	s.WallClock = func() float64 { return time.Since(s.startTime).Seconds() }
	return s
}

// AddMove registers a move under name with a selection weight. A weight at
// or below moveWeightEpsilon disables the move (§4.6).
func (s *Sampler) AddMove(name string, move Move, weight float64) {
	if weight <= moveWeightEpsilon {
		return
	}
	s.moves = append(s.moves, namedMove{name: name, move: move, weight: weight})
}

// AddMeasurement registers a measurement, invoked in registration order
// after every accepted cycle (§4.5 "Ordering").
func (s *Sampler) AddMeasurement(m Measurement) {
	s.measurements = append(s.measurements, m)
}

// RNG exposes the sampler's PartitionedRNG for callers assembling moves
// outside of Run (e.g. tests constructing a Sampler by hand).
func (s *Sampler) RNG() *PartitionedRNG { return s.rng }

// selectMove picks a registered move with probability proportional to its
// weight.
func (s *Sampler) selectMove() namedMove {
	var total float64
	for _, m := range s.moves {
		total += m.weight
	}
	r := s.rng.ForSubsystem(SubsystemMoveSelect).Float64() * total
	var cumulative float64
	for _, m := range s.moves {
		cumulative += m.weight
		if r < cumulative {
			return m
		}
	}
	return s.moves[len(s.moves)-1]
}

// moveSubsystem returns the RNG subsystem a registered move's own draws (both
// its Attempt-internal randomness and its Metropolis accept/reject draw) are
// isolated behind, so that disabling one move never perturbs the sequence
// consumed by the others (§4.6, §9 "Global state"). This matches
// SubsystemFlip/SubsystemAddRemove/SubsystemReshuffle for the built-in move
// names registered by BuildMoves.
func moveSubsystem(name string) string {
	return "move_" + name
}

// runCycle runs LengthCycle proposals, one Metropolis accept/reject each,
// strictly ordered (§5 "Ordering guarantees"). Each selected move draws from
// its own RNG subsystem, not the shared chain RNG, so move isolation holds
// even mid-cycle.
func (s *Sampler) runCycle() {
	for i := 0; i < s.Params.LengthCycle; i++ {
		nm := s.selectMove()
		rng := s.rng.ForSubsystem(moveSubsystem(nm.name))
		weight := nm.move.Attempt(rng)
		if weight >= 1 || rng.Float64() < weight {
			nm.move.Accept()
		} else {
			nm.move.Reject()
		}
	}
}

// measure (re-)runs ED on the current configuration and invokes every
// registered measurement in order against it. ED is recomputed here, not
// just primed once at Init, because an accepted proposal installs the
// trial's caches on the current configuration via Assign: spectrum only
// after an ED-backed move, an empty ED cache after a Chebyshev-backed one —
// the full cache Init() primed does not survive an accepted proposal (§4.5
// "Ordering").
func (s *Sampler) measure() error {
	if err := s.Config.CalcED(s.needEvecs); err != nil {
		return fmt.Errorf("measure: %w", err)
	}
	s.Store.NSamples++
	s.Store.RecordOccupation(s.Lattice, s.Config)
	for _, m := range s.measurements {
		m.Sample(s.Config, s.Store)
	}
	return nil
}

// Run executes warmup cycles (no measurement) followed by measurement
// cycles, stopping at NCycles or when the wall clock exceeds
// MaxTimeSeconds, whichever comes first. No partial-cycle measurements are
// ever emitted (§4.6, §5 "Cancellation/timeouts").
func (s *Sampler) Run() error {
	s.startTime = time.Now()

	logrus.Infof("[rank %d] warming up: %d cycles", s.Rank, s.Params.NWarmupCycles)
	for i := 0; i < s.Params.NWarmupCycles; i++ {
		s.runCycle()
	}

	logrus.Infof("[rank %d] measuring: up to %d cycles (max_time=%ds)", s.Rank, s.Params.NCycles, s.Params.MaxTimeSeconds)
	for cycle := 0; cycle < s.Params.NCycles; cycle++ {
		if s.Params.MaxTimeSeconds > 0 && s.WallClock() > float64(s.Params.MaxTimeSeconds) {
			logrus.Warnf("[rank %d] wall-clock budget exceeded at cycle %d, stopping", s.Rank, cycle)
			break
		}
		s.runCycle()
		if err := s.measure(); err != nil {
			return fmt.Errorf("[rank %d] %w", s.Rank, err)
		}
	}
	logrus.Infof("[rank %d] done: %d samples collected", s.Rank, s.Store.NSamples)
	return nil
}

// BuildMoves registers the standard move set from Params' weights, choosing
// ED- or Chebyshev-backed variants per Params.ChebMoves (§4.6 solve()).
func (s *Sampler) BuildMoves() {
	if !s.Params.ChebMoves {
		s.AddMove("flip", NewFlipMove(s.Config), s.Params.MCFlip)
		s.AddMove("add_remove", NewAddRemoveMove(s.Config), s.Params.MCAddRemove)
		s.AddMove("reshuffle", NewReshuffleMove(s.Config), s.Params.MCReshuffle)
		return
	}
	nCheb := ChebSize(s.Params.ChebPrefactor, s.Lattice.V())
	s.AddMove("flip", NewChebFlipMove(s.Config, nCheb), s.Params.MCFlip)
	s.AddMove("add_remove", NewChebAddRemoveMove(s.Config, nCheb), s.Params.MCAddRemove)
	s.AddMove("reshuffle", NewChebReshuffleMove(s.Config, nCheb), s.Params.MCReshuffle)
}

// BuildMeasurements registers the standard measurement set from Params
// (§4.6 solve()).
func (s *Sampler) BuildMeasurements() {
	s.AddMeasurement(EnergyMeasurement{})
	s.AddMeasurement(SpectrumMeasurement{MeasureHistory: s.Params.MeasureHistory})
	if s.Params.MeasureHistory {
		s.AddMeasurement(FoccMeasurement{})
	}
	if s.Params.MeasureEigenfunctions {
		s.AddMeasurement(EigenfunctionMeasurement{})
	}
	if s.Params.MeasureIPR {
		s.AddMeasurement(IPRMeasurement{})
	}
	if s.Params.MeasureStiffness {
		s.AddMeasurement(ConductivityMeasurement{
			Lattice: s.Lattice,
			Offset:  s.Params.CondOffset,
			NPoints: s.Params.CondNPoints,
		})
	}
	s.needEvecs = s.Params.MeasureIPR || s.Params.MeasureEigenfunctions || s.Params.MeasureStiffness
}

// Init randomizes f, assembles H, and primes the ED cache before the first
// cycle so that early errors (e.g. a degenerate Hamiltonian) surface before
// warmup starts. measure() re-derives the same cache every sample, since an
// accepted move replaces it with the trial's caches (§3 "Lifecycles").
func (s *Sampler) Init() error {
	rng := s.rng.ForSubsystem(SubsystemChain(s.Rank))
	s.Config.RandomizeF(rng, s.Params.NfStart)
	s.Config.CalcHamiltonian()
	if err := s.Config.CalcED(s.needEvecs); err != nil {
		return fmt.Errorf("sampler init: %w", err)
	}
	return nil
}

// RunMany runs n independent chains (ranks 0..n-1) concurrently and returns
// the rank-ordered, collected ObservableStore (§5 "Shared-nothing data
// parallelism"). Each chain's own goroutine is strictly sequential; no
// ordering is implied across chains, only at collect time.
func RunMany(lattice Lattice, params Params, n int, build func(*Sampler)) (*ObservableStore, error) {
	stores := make([]*ObservableStore, n)
	errs := make([]error, n)
	done := make(chan int, n)

	for rank := 0; rank < n; rank++ {
		go func(rank int) {
			s := NewSampler(lattice, params, rank)
			build(s)
			if err := s.Init(); err != nil {
				errs[rank] = err
				done <- rank
				return
			}
			if err := s.Run(); err != nil {
				errs[rank] = err
				done <- rank
				return
			}
			stores[rank] = s.Store
			done <- rank
		}(rank)
	}
	for i := 0; i < n; i++ {
		<-done
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return Collect(stores), nil
}
