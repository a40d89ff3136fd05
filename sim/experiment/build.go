package experiment

import (
	"fmt"

	"github.com/inference-sim/schedule-sim/sim"
	"github.com/inference-sim/schedule-sim/sim/workload"
)

// Build validates the experiment and constructs its Architecture, with the
// waves registered, and the matching run configuration.
func (e *Experiment) Build() (*sim.Architecture, sim.RunConfig, error) {
	if err := e.Validate(); err != nil {
		return nil, sim.RunConfig{}, fmt.Errorf("experiment %q: %w", e.Name, err)
	}
	arch := sim.NewArchitecture(e.Name, e.Producer, e.Seed)
	if err := buildNode(arch, arch.Producer(), e.Tree); err != nil {
		return nil, sim.RunConfig{}, fmt.Errorf("experiment %q: %w", e.Name, err)
	}
	if err := workload.AddWaves(arch.Producer(), e.Waves); err != nil {
		return nil, sim.RunConfig{}, fmt.Errorf("experiment %q: %w", e.Name, err)
	}
	cfg := sim.RunConfig{MaxSteps: e.MaxSteps, Output: e.OutputOptions()}
	return arch, cfg, nil
}

// buildNode attaches count copies of n, and their subtrees, under parent.
func buildNode(arch *sim.Architecture, parent sim.ParentEntity, n NodeSpec) error {
	for range n.count() {
		var e sim.ConsumingEntity
		if n.Consumer != 0 {
			c, err := arch.NewConsumer(n.Consumer)
			if err != nil {
				return err
			}
			e = c
		} else {
			var opts []sim.PolicyOption
			if n.ShoppingOptions > 0 {
				opts = append(opts, sim.WithShoppingOptions(n.ShoppingOptions))
			}
			s, err := arch.NewScheduler(n.Scheduler, opts...)
			if err != nil {
				return err
			}
			e = s
		}
		if err := arch.Attach(parent, e); err != nil {
			return err
		}
		if s, ok := e.(*sim.Scheduler); ok {
			for _, child := range n.Children {
				if err := buildNode(arch, s, child); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
