package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey uniquely identifies a reproducible run. Two simulations
// with the same SimulationKey and identical configuration MUST produce
// bit-for-bit identical RunResults.
type SimulationKey int64

// Subsystem names for the RNG partitions. Each stochastic concern draws
// from its own stream so that a policy change (which consumes no
// randomness) cannot shift the draws seen by any other concern.
const (
	SubsystemArrivals = "arrivals"
	SubsystemService  = "service"
	SubsystemDelay    = "delay"
	SubsystemAdoption = "adoption"
	SubsystemBalk     = "balk"
	SubsystemPatience = "patience"
)

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation: subsystemSeed = masterSeed XOR fnv1a64(subsystemName).
// The same subsystem name always returns the same cached *rand.Rand.
//
// Thread-safety: NOT thread-safe. Each run owns one instance and uses it
// from a single goroutine.
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

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// DeriveRunSeed derives the seed for replication runIndex from a scenario's
// master seed. Hash-based so the mapping is order-independent: run 7 gets
// the same seed whether runs execute sequentially or across workers.
func DeriveRunSeed(masterSeed int64, runIndex int) SimulationKey {
	return SimulationKey(masterSeed ^ fnv1a64(fmt.Sprintf("run_%d", runIndex)))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
