package fkmc

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible chain. Two chains with
// the same SimulationKey and identical Params MUST produce bit-for-bit
// identical results.
type SimulationKey int64

// NewSimulationKey derives a SimulationKey from the run's random seed and
// the chain's rank, matching the driver's "random_seed + rank" rule (§4.6).
func NewSimulationKey(randomSeed int64, rank int) SimulationKey {
	return SimulationKey(randomSeed + int64(rank))
}

// === Subsystem Constants ===

const (
	// SubsystemMoveSelect is the RNG subsystem used to pick which move
	// kernel fires on a given cycle step.
	SubsystemMoveSelect = "move_select"

	// SubsystemFlip, SubsystemAddRemove and SubsystemReshuffle isolate each
	// move kernel's own random draws so that disabling one move (weight 0)
	// never perturbs the random sequence consumed by the others.
	SubsystemFlip      = "move_flip"
	SubsystemAddRemove = "move_add_remove"
	SubsystemReshuffle = "move_reshuffle"
)

// SubsystemChain returns the subsystem name for chain (rank) N's own
// bookkeeping draws, isolated from the move subsystems above.
func SubsystemChain(rank int) string {
	return fmt.Sprintf("chain_%d", rank)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem, derived from a single SimulationKey. Isolating each move kernel
// behind its own subsystem means enabling or disabling a move (by setting
// its weight to zero) never perturbs the draw sequence consumed by the
// others — a prerequisite for the determinism property in §8.
//
// Thread-safety: NOT thread-safe. A PartitionedRNG belongs to exactly one
// chain and must only be touched from that chain's goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same subsystem name always returns the same *rand.Rand
// instance (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derivedSeed := int64(p.key) ^ fnv1a64(name)
	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
