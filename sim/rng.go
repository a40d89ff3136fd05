package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey identifies a reproducible run. Two runs over the same tree
// with the same SimulationKey MUST produce identical task timestamps.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemWorkload is the RNG subsystem used by wave generators.
	// Uses the master seed directly so a seed maps to the same workload
	// regardless of tree shape.
	SubsystemWorkload = "workload"

	// SubsystemTraversal is the RNG subsystem used for the per-tier shuffle.
	SubsystemTraversal = "traversal"
)

// SubsystemPolicy returns the subsystem name for the dispatch policy owned
// by scheduler id. Each scheduler draws from its own stream, so adding a
// scheduler does not perturb the choices of the others.
func SubsystemPolicy(id EntityID) string {
	return fmt.Sprintf("policy_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG hands out deterministic, isolated RNG streams per subsystem.
//
// Derivation:
//   - SubsystemWorkload: master seed
//   - everything else: master seed XOR fnv1a64(subsystem name)
//
// Not safe for concurrent use; one run owns one PartitionedRNG.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:     key,
		streams: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream for the named subsystem, creating it on
// first use. Repeated calls with the same name return the same *rand.Rand.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.streams[name]; ok {
		return rng
	}
	seed := int64(p.key)
	if name != SubsystemWorkload {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	p.streams[name] = rng
	return rng
}

// Rewind drops every cached stream so the next ForSubsystem call starts the
// sequence from the beginning. Used by Architecture.ResetAll so repeated runs
// over one tree replay the same random choices.
func (p *PartitionedRNG) Rewind() {
	clear(p.streams)
}

// Key returns the SimulationKey this PartitionedRNG was created from.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of s.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
