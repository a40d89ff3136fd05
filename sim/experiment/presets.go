package experiment

import (
	"fmt"
	"sort"

	"github.com/inference-sim/schedule-sim/sim"
	"github.com/inference-sim/schedule-sim/sim/workload"
)

// Preset names.
const (
	PresetFlat         = "flat"
	PresetMultiWave    = "multi-wave"
	PresetHierarchical = "hierarchical"
)

var presets = map[string]func(policy string, seed int64) *Experiment{
	PresetFlat:         flatPreset,
	PresetMultiWave:    multiWavePreset,
	PresetHierarchical: hierarchicalPreset,
}

// PresetNames returns the built-in preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Preset returns a built-in benchmark experiment whose root scheduler uses
// policy. The experiment is named after the policy so rows from a
// comparison line up.
func Preset(name, policy string, seed int64) (*Experiment, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q; valid: %v", name, PresetNames())
	}
	if !sim.ValidPolicies[policy] {
		return nil, fmt.Errorf("unknown scheduler policy %q; valid: %v", policy, sim.PolicyNames())
	}
	return build(policy, seed), nil
}

func uniformWave(step int64, start, end, count int) workload.WaveSpec {
	return workload.WaveSpec{
		Step: step,
		Generator: workload.GeneratorSpec{
			Type:   workload.TypeUniform,
			Params: map[string]float64{"start": float64(start), "end": float64(end), "count": float64(count)},
		},
	}
}

func consumers(groups ...[2]int) []NodeSpec {
	nodes := make([]NodeSpec, len(groups))
	for i, g := range groups {
		nodes[i] = NodeSpec{Consumer: g[1], Count: g[0]}
	}
	return nodes
}

// flatPreset is 36 consumers under one scheduler with a single uniform wave.
func flatPreset(policy string, seed int64) *Experiment {
	return &Experiment{
		Name:     policy,
		Producer: "random",
		Seed:     seed,
		Waves:    []workload.WaveSpec{uniformWave(1, 20, 270, 200)},
		Tree: NodeSpec{
			Scheduler: policy,
			Children:  consumers([2]int{4, 20}, [2]int{4, 18}, [2]int{12, 16}, [2]int{16, 6}),
		},
	}
}

// multiWavePreset fires the same uniform wave at steps 1 and 30.
func multiWavePreset(policy string, seed int64) *Experiment {
	return &Experiment{
		Name:     policy,
		Producer: "random-multi",
		Seed:     seed,
		Waves:    []workload.WaveSpec{uniformWave(1, 10, 100, 200), uniformWave(30, 10, 100, 200)},
		Tree: NodeSpec{
			Scheduler: policy,
			Children:  consumers([2]int{4, 20}, [2]int{4, 18}, [2]int{12, 16}, [2]int{16, 14}),
		},
	}
}

// hierarchicalPreset puts policy above a shopping scheduler with two fast
// consumers and a weighted round robin scheduler with eight mixed ones.
func hierarchicalPreset(policy string, seed int64) *Experiment {
	out := sim.DefaultOutputOptions()
	out.BinCount = 10
	return &Experiment{
		Name:     policy,
		Producer: "random-light",
		Seed:     seed,
		Waves:    []workload.WaveSpec{uniformWave(1, 30, 200, 150)},
		Tree: NodeSpec{
			Scheduler: policy,
			Children: []NodeSpec{
				{Scheduler: sim.PolicyShopping, Children: consumers([2]int{2, 30})},
				{Scheduler: sim.PolicyWeightedRoundRobin, Children: consumers(
					[2]int{2, 20}, [2]int{2, 16}, [2]int{2, 10}, [2]int{2, 8})},
			},
		},
		Output: &out,
	}
}
